package telemetry

import (
	"sync"
	"testing"
)

var setupTestOnce sync.Once

// SetupForTesting installs a verbose slog logger once per test binary and
// returns an API that records reports for later assertions.
func SetupForTesting(t testing.TB) *Recorder {
	setupTestOnce.Do(func() {
		InitSlog(true)
	})
	return &Recorder{inner: SlogAPI{}}
}

// Report is a single call recorded by Recorder.
type Report struct {
	Kind   string
	ID     string
	Params []any
}

// Recorder is an API that keeps every report in memory, it also forwards
// reports to slog so test output stays readable.
type Recorder struct {
	inner   API
	mutex   sync.Mutex
	reports []Report
}

func (r *Recorder) record(kind, id string, params []any) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.reports = append(r.reports, Report{Kind: kind, ID: id, Params: params})
}

func (r *Recorder) ReportBroken(id string, params ...any) {
	r.record("broken", id, params)
	if r.inner != nil {
		r.inner.ReportBroken(id, params...)
	}
}

func (r *Recorder) ReportWarning(id string, params ...any) {
	r.record("warning", id, params)
	if r.inner != nil {
		r.inner.ReportWarning(id, params...)
	}
}

func (r *Recorder) ReportDebug(msg string, params ...any) {
	if r.inner != nil {
		r.inner.ReportDebug(msg, params...)
	}
}

func (r *Recorder) ReportCount(id string, count int64) {
	r.record("count", id, []any{count})
	if r.inner != nil {
		r.inner.ReportCount(id, count)
	}
}

// Broken returns the ids of every ReportBroken call in order.
func (r *Recorder) Broken() []string {
	return r.ids("broken")
}

// Warnings returns the ids of every ReportWarning call in order.
func (r *Recorder) Warnings() []string {
	return r.ids("warning")
}

// LastCount returns the last value reported for a count id.
func (r *Recorder) LastCount(id string) (int64, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	for i := len(r.reports) - 1; i >= 0; i-- {
		rep := r.reports[i]
		if rep.Kind == "count" && rep.ID == id {
			return rep.Params[0].(int64), true
		}
	}
	return 0, false
}

func (r *Recorder) ids(kind string) []string {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	var out []string
	for _, rep := range r.reports {
		if rep.Kind == kind {
			out = append(out, rep.ID)
		}
	}
	return out
}
