package metrics

import (
	"testing"
	"time"
)

type testRecorder struct {
	launchDurations   int
	readinessOutcomes map[ReadinessLabel]int
	probeAttempts     int
	httpRequests      map[string]int
	watchdogSamples   int
	windowOpen        bool
}

func newTestRecorder() *testRecorder {
	return &testRecorder{readinessOutcomes: map[ReadinessLabel]int{}, httpRequests: map[string]int{}}
}

func (t *testRecorder) ObserveLaunchDuration(_ time.Duration)         { t.launchDurations++ }
func (t *testRecorder) IncReadinessOutcome(outcome ReadinessLabel)    { t.readinessOutcomes[outcome]++ }
func (t *testRecorder) ObserveProbeDuration(_ time.Duration, _ bool)  {}
func (t *testRecorder) IncProbeAttempt()                              { t.probeAttempts++ }
func (t *testRecorder) IncHTTPRequest(route string, _ int)            { t.httpRequests[route]++ }
func (t *testRecorder) ObserveWatchdogSample(_ time.Duration, _ bool) { t.watchdogSamples++ }
func (t *testRecorder) SetWindowOpen(open bool)                       { t.windowOpen = open }

// Compile-time interface checks.
var (
	_ Recorder = NoopRecorder{}
	_ Recorder = (*PrometheusRecorder)(nil)
	_ Recorder = (*testRecorder)(nil)
)

func TestRecorderImplementations(t *testing.T) {
	exercise := func(r Recorder) {
		r.ObserveLaunchDuration(time.Second)
		r.IncReadinessOutcome(ReadinessReady)
		r.ObserveProbeDuration(10*time.Millisecond, true)
		r.IncProbeAttempt()
		r.IncHTTPRequest("/", 200)
		r.ObserveWatchdogSample(5*time.Millisecond, true)
		r.SetWindowOpen(true)
	}

	// Noop and a nil Prometheus recorder must both be safe to call.
	exercise(NoopRecorder{})
	exercise((*PrometheusRecorder)(nil))

	tr := newTestRecorder()
	exercise(tr)
	if tr.launchDurations != 1 || tr.probeAttempts != 1 {
		t.Fatalf("test recorder did not count calls: %+v", tr)
	}
	if tr.readinessOutcomes[ReadinessReady] != 1 {
		t.Fatalf("expected one ready outcome, got %d", tr.readinessOutcomes[ReadinessReady])
	}
	if !tr.windowOpen {
		t.Fatal("expected window open flag set")
	}
}
