// Package fallback is the durable local store of last resort: when the
// remote sheet is unreachable, batches are appended to a CSV file a human
// can recover from. Repeated failures append duplicates; recoverable beats
// lost.
package fallback

import (
	"encoding/csv"
	"fmt"
	"os"

	"go.uber.org/zap"

	"promoscan/internal/domain"
)

type Persister struct {
	path   string
	logger *zap.Logger
}

func New(path string, logger *zap.Logger) *Persister {
	return &Persister{path: path, logger: logger}
}

// Persist appends records to the fallback file. The header row is written
// exactly once, only when the file is empty.
func (p *Persister) Persist(records []domain.Record) error {
	f, err := os.OpenFile(p.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open fallback file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat fallback file: %w", err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(domain.Columns); err != nil {
			return fmt.Errorf("write fallback header: %w", err)
		}
	}
	for _, rec := range records {
		if err := w.Write(rec.Row()); err != nil {
			return fmt.Errorf("write fallback row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush fallback file: %w", err)
	}
	p.logger.Info("batch persisted to fallback file",
		zap.String("path", p.path),
		zap.Int("records", len(records)),
	)
	return nil
}
