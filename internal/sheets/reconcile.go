package sheets

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"promoscan/internal/domain"
	"promoscan/internal/monitoring"
)

// State tracks where a reconciliation run is. Terminal states are final per
// batch; the engine holds nothing across batches.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateDiffing
	StateWriting
	StateDone
	StateDegraded
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateDiffing:
		return "diffing"
	case StateWriting:
		return "writing"
	case StateDone:
		return "done"
	case StateDegraded:
		return "degraded"
	}
	return "unknown"
}

// Persister is the durable local fallback used when the remote store is
// out of reach.
type Persister interface {
	Persist(records []domain.Record) error
}

const (
	// writeChunk bounds ranges per batch write, respecting API payload
	// limits.
	writeChunk = 80
	// appendSlack is extra row capacity requested beyond the batch, so the
	// next run rarely needs a resize.
	appendSlack = 10
	// maxWriteAttempts bounds transient-error retries per write.
	maxWriteAttempts = 6
)

var initialBackoff = time.Second

// Engine reconciles extracted records into the remote store: rows whose
// natural key already exists are updated in place, the rest are appended.
type Engine struct {
	store    RowStore
	fallback Persister
	logger   *zap.Logger
	metrics  *monitoring.Metrics
}

func NewEngine(store RowStore, fallback Persister, logger *zap.Logger, m *monitoring.Metrics) *Engine {
	return &Engine{store: store, fallback: fallback, logger: logger, metrics: m}
}

// CheckSchema verifies the remote header before any extraction work is
// spent. An empty sheet passes; the header is written during Sync.
func (e *Engine) CheckSchema(ctx context.Context) error {
	grid, err := e.withRetryLoad(ctx)
	if err != nil {
		// Reachability problems are not schema problems; Sync will retry
		// and fall back if they persist.
		e.logger.Warn("schema pre-check skipped, store unreachable", zap.Error(err))
		return nil
	}
	if len(grid.Values) == 0 {
		return nil
	}
	_, err = ResolveHeader(grid.Values[0])
	return err
}

// Sync runs one batch through Loading -> Diffing -> Writing. On any
// unrecoverable failure the whole batch is persisted locally and the error
// is returned; nothing is lost silently.
func (e *Engine) Sync(ctx context.Context, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}
	started := time.Now()
	defer func() { e.metrics.SyncDuration.Observe(time.Since(started).Seconds()) }()

	state := StateLoading
	e.logger.Info("sync starting", zap.Int("records", len(records)), zap.Stringer("state", state))

	grid, err := e.withRetryLoad(ctx)
	if err != nil {
		return e.degrade(records, err)
	}
	if len(grid.Values) == 0 {
		headerWrite := []RangeWrite{{
			Range:  rangeA1(1, 1, len(domain.Columns), 1),
			Values: [][]string{domain.Columns},
		}}
		if err := e.withRetryWrite(ctx, headerWrite); err != nil {
			return e.degrade(records, err)
		}
		e.metrics.SheetWrites.WithLabelValues("header").Inc()
		grid.Values = [][]string{domain.Columns}
	}
	header, err := ResolveHeader(grid.Values[0])
	if err != nil {
		// Schema errors are hard failures, but the batch still has to
		// survive somewhere a human can recover it from.
		return e.degrade(records, err)
	}

	state = StateDiffing
	batch := dedupeBatch(records)
	existing := e.indexExisting(grid, header, batch)

	var updates []RangeWrite
	var appendRows [][]string
	for _, rec := range batch {
		if rowNum, ok := existing[rec.Key()]; ok {
			updates = append(updates, rowWrites(header, rowNum, rec)...)
		} else {
			appendRows = append(appendRows, sheetRow(header, rec))
		}
	}
	e.logger.Info("batch diffed",
		zap.Stringer("state", state),
		zap.Int("updates", len(updates)),
		zap.Int("appends", len(appendRows)),
	)

	state = StateWriting
	e.logger.Debug("writing batch", zap.Stringer("state", state))
	for start := 0; start < len(updates); start += writeChunk {
		end := min(start+writeChunk, len(updates))
		if err := e.withRetryWrite(ctx, updates[start:end]); err != nil {
			return e.degrade(records, err)
		}
		e.metrics.SheetWrites.WithLabelValues("update").Add(float64(end - start))
	}

	if len(appendRows) > 0 {
		firstRow := len(grid.Values) + 1
		need := firstRow + len(appendRows) + appendSlack
		if err := e.withRetry(ctx, func() error {
			return e.store.EnsureCapacity(ctx, need, header.Width())
		}); err != nil {
			return e.degrade(records, err)
		}
		for start := 0; start < len(appendRows); start += writeChunk {
			end := min(start+writeChunk, len(appendRows))
			block := appendRows[start:end]
			r1 := firstRow + start
			w := RangeWrite{
				Range:  rangeA1(1, r1, header.Width(), r1+len(block)-1),
				Values: block,
			}
			if err := e.withRetryWrite(ctx, []RangeWrite{w}); err != nil {
				return e.degrade(records, err)
			}
			e.metrics.SheetWrites.WithLabelValues("append").Add(float64(len(block)))
		}
	}

	state = StateDone
	e.logger.Info("sync finished",
		zap.Stringer("state", state),
		zap.Int("updated", len(updates)),
		zap.Int("appended", len(appendRows)),
	)
	return nil
}

// dedupeBatch enforces key uniqueness within one run: a later record with an
// already seen natural key replaces the earlier one in place.
func dedupeBatch(records []domain.Record) []domain.Record {
	seen := make(map[domain.Key]int, len(records))
	out := make([]domain.Record, 0, len(records))
	for _, rec := range records {
		if i, dup := seen[rec.Key()]; dup {
			out[i] = rec
			continue
		}
		seen[rec.Key()] = len(out)
		out = append(out, rec)
	}
	return out
}

// indexExisting maps natural keys to 1-based sheet row numbers, restricted to
// keys present in this batch. When the sheet holds several rows with the same
// key, the last one wins.
func (e *Engine) indexExisting(grid *Grid, header *Header, batch []domain.Record) map[domain.Key]int {
	want := make(map[domain.Key]bool, len(batch))
	for _, rec := range batch {
		want[rec.Key()] = true
	}
	existing := make(map[domain.Key]int)
	for i := 1; i < len(grid.Values); i++ {
		key := header.key(grid.Values[i])
		if key.Date == "" || !want[key] {
			continue
		}
		existing[key] = i + 1
	}
	return existing
}

// rowWrites renders a record's cells into range writes against one existing
// row. Target columns are coalesced into contiguous runs; a layout where the
// record's columns are scattered degrades to several small writes instead of
// failing.
func rowWrites(header *Header, rowNum int, rec domain.Record) []RangeWrite {
	type cell struct {
		col   int
		value string
	}
	cells := make([]cell, 0, len(domain.Columns))
	for _, name := range domain.Columns {
		if col, ok := header.Col(name); ok {
			cells = append(cells, cell{col: col, value: rec.Cell(name)})
		}
	}
	sort.Slice(cells, func(i, j int) bool { return cells[i].col < cells[j].col })

	var writes []RangeWrite
	for start := 0; start < len(cells); {
		end := start + 1
		for end < len(cells) && cells[end].col == cells[end-1].col+1 {
			end++
		}
		run := make([]string, 0, end-start)
		for _, c := range cells[start:end] {
			run = append(run, c.value)
		}
		writes = append(writes, RangeWrite{
			Range:  rangeA1(cells[start].col+1, rowNum, cells[end-1].col+1, rowNum),
			Values: [][]string{run},
		})
		start = end
	}
	return writes
}

// sheetRow renders a record as a full append row in the sheet's own column
// layout.
func sheetRow(header *Header, rec domain.Record) []string {
	row := make([]string, header.Width())
	for _, name := range domain.Columns {
		if col, ok := header.Col(name); ok && col < len(row) {
			row[col] = rec.Cell(name)
		}
	}
	return row
}

func (e *Engine) degrade(records []domain.Record, cause error) error {
	e.logger.Error("sync degraded, persisting batch locally",
		zap.Stringer("state", StateDegraded),
		zap.Int("records", len(records)),
		zap.Error(cause),
	)
	e.metrics.FallbackRuns.Inc()
	if err := e.fallback.Persist(records); err != nil {
		e.logger.Error("fallback persist failed", zap.Error(err))
		return errors.Join(cause, err)
	}
	return fmt.Errorf("sync degraded: %w", cause)
}

func (e *Engine) withRetryLoad(ctx context.Context) (*Grid, error) {
	var grid *Grid
	err := e.withRetry(ctx, func() error {
		var err error
		grid, err = e.store.Load(ctx)
		return err
	})
	return grid, err
}

func (e *Engine) withRetryWrite(ctx context.Context, writes []RangeWrite) error {
	return e.withRetry(ctx, func() error {
		return e.store.Write(ctx, writes)
	})
}

// withRetry retries transient failures with exponential backoff: 1s, 2s, 4s,
// ... for up to maxWriteAttempts attempts. Permanent failures abort at once.
func (e *Engine) withRetry(ctx context.Context, op func() error) error {
	delay := initialBackoff
	var lastErr error
	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		err := op()
		if err == nil {
			return nil
		}
		lastErr = err
		if !errors.Is(err, ErrTransientStore) {
			return err
		}
		if attempt == maxWriteAttempts {
			break
		}
		e.metrics.WriteRetries.Inc()
		e.logger.Warn("transient store error, backing off",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay *= 2
	}
	return lastErr
}
