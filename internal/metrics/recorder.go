package metrics

import "time"

// ReadinessLabel enumerates readiness outcome categories for counters.
type ReadinessLabel string

const (
	ReadinessReady   ReadinessLabel = "ready"
	ReadinessFailed  ReadinessLabel = "failed"
	ReadinessTimeout ReadinessLabel = "timeout"
)

// Recorder defines observability hooks for launch and serving metrics. Implementations
// may forward to Prometheus, OpenTelemetry, etc. All methods must be safe for nil receivers
// when using the NoopRecorder (allowing optional injection).
type Recorder interface {
	ObserveLaunchDuration(d time.Duration)
	IncReadinessOutcome(outcome ReadinessLabel)
	ObserveProbeDuration(d time.Duration, success bool)
	IncProbeAttempt()
	IncHTTPRequest(route string, status int)
	ObserveWatchdogSample(d time.Duration, healthy bool)
	SetWindowOpen(open bool)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveLaunchDuration(time.Duration)        {}
func (NoopRecorder) IncReadinessOutcome(ReadinessLabel)         {}
func (NoopRecorder) ObserveProbeDuration(time.Duration, bool)   {}
func (NoopRecorder) IncProbeAttempt()                           {}
func (NoopRecorder) IncHTTPRequest(string, int)                 {}
func (NoopRecorder) ObserveWatchdogSample(time.Duration, bool)  {}
func (NoopRecorder) SetWindowOpen(bool)                         {}
