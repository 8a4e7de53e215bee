package fallback

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"promoscan/internal/domain"
)

func readAll(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestPersistWritesHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fallback.csv")
	p := New(path, zap.NewNop())

	rec := domain.Record{
		Date: "2024-01-01", Locale: "PE", Site: "www.asus.com/pe/",
		Item: "STORE BANNER", AnalyticsSlot: "store_home_1", Position: 1,
	}
	require.NoError(t, p.Persist([]domain.Record{rec}))
	require.NoError(t, p.Persist([]domain.Record{rec}))

	rows := readAll(t, path)
	// Header once, then one row per Persist call. Duplicates are the
	// accepted degradation.
	require.Len(t, rows, 3)
	require.Equal(t, domain.Columns, rows[0])
	require.Equal(t, rows[1], rows[2])
}

func TestPersistAppendsWithoutRewriting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fallback.csv")
	p := New(path, zap.NewNop())

	first := domain.Record{Date: "2024-01-01", Locale: "PE", Item: "STORE TABS", Position: 1, Text: "first"}
	second := domain.Record{Date: "2024-01-02", Locale: "CL", Item: "STORE TABS", Position: 2, Text: "second"}
	require.NoError(t, p.Persist([]domain.Record{first}))
	require.NoError(t, p.Persist([]domain.Record{second}))

	rows := readAll(t, path)
	require.Len(t, rows, 3)
	require.Equal(t, first.Row(), rows[1])
	require.Equal(t, second.Row(), rows[2])
}

func TestPersistEmptyBatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fallback.csv")
	p := New(path, zap.NewNop())
	require.NoError(t, p.Persist(nil))

	rows := readAll(t, path)
	require.Len(t, rows, 1) // header only
}
