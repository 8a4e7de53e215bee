package sheets

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"

	"promoscan/internal/domain"
	"promoscan/internal/monitoring"
)

// promauto registers against the default registry; one shared instance per
// test binary.
var testMetrics = monitoring.NewMetrics()

type fakeStore struct {
	grid       Grid
	writes     []RangeWrite
	writeCalls int
	grownRows  int
	grownCols  int
	failWrite  error
	failLoad   error
}

func (f *fakeStore) Load(ctx context.Context) (*Grid, error) {
	if f.failLoad != nil {
		return nil, f.failLoad
	}
	g := f.grid
	return &g, nil
}

func (f *fakeStore) Write(ctx context.Context, writes []RangeWrite) error {
	f.writeCalls++
	if f.failWrite != nil {
		return f.failWrite
	}
	f.writes = append(f.writes, writes...)
	return nil
}

func (f *fakeStore) EnsureCapacity(ctx context.Context, rows, cols int) error {
	f.grownRows, f.grownCols = rows, cols
	return nil
}

type fallbackSpy struct {
	records []domain.Record
	err     error
}

func (s *fallbackSpy) Persist(records []domain.Record) error {
	s.records = append(s.records, records...)
	return s.err
}

func fastBackoff(t *testing.T) {
	t.Helper()
	orig := initialBackoff
	initialBackoff = time.Millisecond
	t.Cleanup(func() { initialBackoff = orig })
}

func record(date, locale, item string, position int) domain.Record {
	return domain.Record{
		Date: date, Locale: locale, Site: "www.asus.com/pe/", Item: item,
		SlotID: "slot", AnalyticsSlot: domain.AnalyticsSlotFor(item, position),
		ElementCount: strconv.Itoa(position), Text: "text " + strconv.Itoa(position),
		Position: position,
	}
}

func headerGrid(extra ...[]string) Grid {
	values := [][]string{domain.Columns}
	values = append(values, extra...)
	return Grid{Values: values, Rows: 2000, Cols: len(domain.Columns)}
}

func newTestEngine(store RowStore, fb Persister) *Engine {
	return NewEngine(store, fb, zap.NewNop(), testMetrics)
}

// N records with distinct positions for one (date, locale, item) produce
// exactly N written rows: no merges, no drops.
func TestSyncKeyUniqueness(t *testing.T) {
	store := &fakeStore{grid: headerGrid()}
	engine := newTestEngine(store, &fallbackSpy{})

	var batch []domain.Record
	for pos := 1; pos <= 5; pos++ {
		batch = append(batch, record("2024-01-01", "PE", "HOME BANNER ASUS.com", pos))
	}
	require.NoError(t, engine.Sync(context.Background(), batch))

	require.Len(t, store.writes, 1) // one chunked append range
	require.Len(t, store.writes[0].Values, 5)
	require.Equal(t, "A2:M6", store.writes[0].Range)
}

// A record whose key already exists updates that row in place and appends
// nothing.
func TestSyncUpsertInPlace(t *testing.T) {
	existing := record("2024-01-01", "PE", "HOME BANNER ASUS.com", 1)
	existing.Text = "old text"
	store := &fakeStore{grid: headerGrid(existing.Row())}
	engine := newTestEngine(store, &fallbackSpy{})

	updated := record("2024-01-01", "PE", "HOME BANNER ASUS.com", 1)
	updated.Text = "new text"
	require.NoError(t, engine.Sync(context.Background(), []domain.Record{updated}))

	require.Len(t, store.writes, 1)
	require.Equal(t, "A2:M2", store.writes[0].Range)
	require.Equal(t, updated.Row(), store.writes[0].Values[0])
	require.Zero(t, store.grownRows, "no append should grow the sheet")
}

// M new keys against R existing rows append exactly M rows starting at row
// R+2, growing capacity when undersized.
func TestSyncAppendGrowth(t *testing.T) {
	r1 := record("2024-01-01", "PE", "STORE TABS", 1)
	r2 := record("2024-01-01", "PE", "STORE TABS", 2)
	store := &fakeStore{grid: headerGrid(r1.Row(), r2.Row())}
	store.grid.Rows = 3 // undersized
	engine := newTestEngine(store, &fallbackSpy{})

	batch := []domain.Record{
		record("2024-01-02", "CL", "STORE TABS", 1),
		record("2024-01-02", "CL", "STORE TABS", 2),
		record("2024-01-02", "CL", "STORE TABS", 3),
	}
	require.NoError(t, engine.Sync(context.Background(), batch))

	require.Len(t, store.writes, 1)
	require.Equal(t, "A4:M6", store.writes[0].Range) // 1 header + 2 existing + 1
	require.Len(t, store.writes[0].Values, 3)
	require.GreaterOrEqual(t, store.grownRows, 4+3+appendSlack)
}

// A transient failure on every attempt is retried exactly maxWriteAttempts
// times, then the whole batch goes to the fallback.
func TestSyncRetryBoundThenDegrade(t *testing.T) {
	fastBackoff(t)
	serverErr := &googleapi.Error{Code: 503, Message: "backend error"}
	store := &fakeStore{grid: headerGrid(), failWrite: classify(serverErr)}
	fb := &fallbackSpy{}
	engine := newTestEngine(store, fb)

	batch := []domain.Record{record("2024-01-01", "PE", "STORE BANNER", 1)}
	err := engine.Sync(context.Background(), batch)

	require.Error(t, err)
	require.ErrorIs(t, err, ErrTransientStore)
	require.Equal(t, maxWriteAttempts, store.writeCalls)
	require.Equal(t, batch, fb.records)
}

// Permission failures are not retried; the batch degrades immediately.
func TestSyncPermanentErrorNoRetry(t *testing.T) {
	permErr := &googleapi.Error{Code: 403, Message: "the caller does not have permission"}
	store := &fakeStore{grid: headerGrid(), failWrite: classify(permErr)}
	fb := &fallbackSpy{}
	engine := newTestEngine(store, fb)

	batch := []domain.Record{record("2024-01-01", "PE", "STORE BANNER", 1)}
	err := engine.Sync(context.Background(), batch)

	require.ErrorIs(t, err, ErrPermanentStore)
	require.Equal(t, 1, store.writeCalls)
	require.Len(t, fb.records, 1)
}

// The whole batch is persisted locally when the store cannot even be loaded.
func TestSyncUnreachableStoreDegrades(t *testing.T) {
	fastBackoff(t)
	store := &fakeStore{failLoad: classify(fmt.Errorf("connection reset"))}
	fb := &fallbackSpy{}
	engine := newTestEngine(store, fb)

	batch := []domain.Record{
		record("2024-01-01", "PE", "STORE BANNER", 1),
		record("2024-01-01", "PE", "STORE TABS", 1),
	}
	require.Error(t, engine.Sync(context.Background(), batch))
	require.Equal(t, batch, fb.records)
}

func TestSyncSchemaMismatchDegrades(t *testing.T) {
	store := &fakeStore{grid: Grid{Values: [][]string{{"WRONG", "HEADER"}}, Rows: 10, Cols: 2}}
	fb := &fallbackSpy{}
	engine := newTestEngine(store, fb)

	err := engine.Sync(context.Background(), []domain.Record{record("2024-01-01", "PE", "STORE BANNER", 1)})
	require.ErrorIs(t, err, ErrSchemaMismatch)
	require.Len(t, fb.records, 1)
}

// An empty sheet gets the header before any data rows.
func TestSyncWritesHeaderIntoEmptySheet(t *testing.T) {
	store := &fakeStore{grid: Grid{Rows: 2000, Cols: 26}}
	engine := newTestEngine(store, &fallbackSpy{})

	require.NoError(t, engine.Sync(context.Background(), []domain.Record{record("2024-01-01", "PE", "STORE BANNER", 1)}))
	require.GreaterOrEqual(t, len(store.writes), 2)
	require.Equal(t, "A1:M1", store.writes[0].Range)
	require.Equal(t, domain.Columns, store.writes[0].Values[0])
	require.Equal(t, "A2:M2", store.writes[1].Range)
}

// Two batch records with the same natural key never become two rows; the
// later record wins.
func TestSyncBatchDedupe(t *testing.T) {
	store := &fakeStore{grid: headerGrid()}
	engine := newTestEngine(store, &fallbackSpy{})

	first := record("2024-01-01", "PE", "STORE BANNER", 1)
	second := record("2024-01-01", "PE", "STORE BANNER", 1)
	second.Text = "winner"
	require.NoError(t, engine.Sync(context.Background(), []domain.Record{first, second}))

	require.Len(t, store.writes, 1)
	require.Len(t, store.writes[0].Values, 1)
	require.Equal(t, second.Row(), store.writes[0].Values[0])
}

// In a layout where the record's columns are not adjacent, an in-place
// update degrades to one write per contiguous run instead of failing.
func TestRowWritesNonContiguousColumns(t *testing.T) {
	row := []string{
		"DATE", "COUNTRY", "WEB", "ITEM", "HTML_SLOT", "GA4_SLOT", "ELEMENTS",
		"TEXT", "NOTES", "IMAGE", "URL", "PRODUCT_NAME", "PRODUCT_PRICE", "POSITION",
	}
	header, err := ResolveHeader(row)
	require.NoError(t, err)

	writes := rowWrites(header, 5, record("2024-01-01", "PE", "STORE BANNER", 1))
	require.Len(t, writes, 2)
	require.Equal(t, "A5:H5", writes[0].Range)
	require.Equal(t, "J5:N5", writes[1].Range)
}

func TestClassify(t *testing.T) {
	require.NoError(t, classify(nil))
	require.ErrorIs(t, classify(&googleapi.Error{Code: 500}), ErrTransientStore)
	require.ErrorIs(t, classify(&googleapi.Error{Code: 503}), ErrTransientStore)
	require.ErrorIs(t, classify(&googleapi.Error{Code: 403}), ErrPermanentStore)
	require.ErrorIs(t, classify(&googleapi.Error{Code: 401}), ErrPermanentStore)
	require.ErrorIs(t, classify(errors.New("dial tcp: reset")), ErrTransientStore)
}

func TestStateString(t *testing.T) {
	require.Equal(t, "idle", StateIdle.String())
	require.Equal(t, "degraded", StateDegraded.String())
}
