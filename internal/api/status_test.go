package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"promoscan/internal/config"
)

func TestTrackerLifecycle(t *testing.T) {
	tr := NewTracker()
	require.Equal(t, "idle", tr.Snapshot().State)

	tr.StartRun([]string{"PE", "CL"})
	tr.LocaleStarted("PE")
	tr.LocaleFinished("PE", 42)

	st := tr.Snapshot()
	require.Equal(t, "running", st.State)
	require.Len(t, st.Locales, 2)
	require.Equal(t, "done", st.Locales[0].State)
	require.Equal(t, 42, st.Locales[0].Records)
	require.Equal(t, "pending", st.Locales[1].State)

	tr.RunFinished(nil)
	require.Equal(t, "done", tr.Snapshot().State)
}

func TestTrackerDegradedRun(t *testing.T) {
	tr := NewTracker()
	tr.StartRun([]string{"PE"})
	tr.RunFinished(errors.New("sheet unreachable"))

	st := tr.Snapshot()
	require.Equal(t, "degraded", st.State)
	require.Contains(t, st.Error, "sheet unreachable")
}

func TestTrackerIgnoresUnknownLocale(t *testing.T) {
	tr := NewTracker()
	tr.StartRun([]string{"PE"})
	tr.LocaleFinished("XX", 7)
	require.Equal(t, 0, tr.Snapshot().Locales[0].Records)
}

func TestStatusEndpoint(t *testing.T) {
	tr := NewTracker()
	tr.StartRun([]string{"PE"})

	srv := NewServer(&config.Config{ServerPort: "0"}, tr, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var st RunStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	require.Equal(t, "running", st.State)
	require.Len(t, st.Locales, 1)
}

func TestHealthEndpoint(t *testing.T) {
	srv := NewServer(&config.Config{ServerPort: "0"}, NewTracker(), zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}
