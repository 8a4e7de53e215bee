package api

import (
	"sync"
	"time"
)

// LocaleStatus is the per-country progress entry exposed on /api/status.
type LocaleStatus struct {
	Locale   string `json:"locale"`
	State    string `json:"state"` // pending | scanning | done
	Records  int    `json:"records"`
	Finished string `json:"finished,omitempty"`
}

// RunStatus is the full scan-run report.
type RunStatus struct {
	State     string         `json:"state"` // idle | running | done | degraded
	StartedAt string         `json:"started_at,omitempty"`
	Locales   []LocaleStatus `json:"locales"`
	Error     string         `json:"error,omitempty"`
}

// Tracker records run progress for the status endpoint. All methods are
// safe for concurrent use; the scan loop writes, HTTP handlers read.
type Tracker struct {
	mu     sync.Mutex
	status RunStatus
	index  map[string]int
}

func NewTracker() *Tracker {
	return &Tracker{status: RunStatus{State: "idle"}, index: make(map[string]int)}
}

func (t *Tracker) StartRun(locales []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = RunStatus{State: "running", StartedAt: time.Now().UTC().Format(time.RFC3339)}
	t.index = make(map[string]int, len(locales))
	for _, l := range locales {
		t.index[l] = len(t.status.Locales)
		t.status.Locales = append(t.status.Locales, LocaleStatus{Locale: l, State: "pending"})
	}
}

func (t *Tracker) LocaleStarted(locale string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if i, ok := t.index[locale]; ok {
		t.status.Locales[i].State = "scanning"
	}
}

func (t *Tracker) LocaleFinished(locale string, records int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if i, ok := t.index[locale]; ok {
		t.status.Locales[i].State = "done"
		t.status.Locales[i].Records = records
		t.status.Locales[i].Finished = time.Now().UTC().Format(time.RFC3339)
	}
}

func (t *Tracker) RunFinished(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err != nil {
		t.status.State = "degraded"
		t.status.Error = err.Error()
		return
	}
	t.status.State = "done"
}

// Snapshot returns a copy safe to serialize without holding the lock.
func (t *Tracker) Snapshot() RunStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := t.status
	out.Locales = append([]LocaleStatus(nil), t.status.Locales...)
	return out
}
