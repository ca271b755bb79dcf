package metrics

import (
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	launchDuration    prom.Histogram
	readinessOutcomes *prom.CounterVec
	probeDuration     *prom.HistogramVec
	probeAttempts     prom.Counter
	httpRequests      *prom.CounterVec
	watchdogSamples   *prom.HistogramVec
	windowOpen        prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics. Call it
// at most once per registry; MustRegister panics on duplicates.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		launchDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "appshell",
			Name:      "launch_duration_seconds",
			Help:      "Time from service start until the window opened",
			Buckets:   prom.DefBuckets,
		}),
		readinessOutcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "appshell",
			Name:      "readiness_outcomes_total",
			Help:      "Readiness outcomes by final state",
		}, []string{"outcome"}),
		probeDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "appshell",
			Name:      "readiness_probe_duration_seconds",
			Help:      "Duration of individual readiness probes",
			Buckets:   prom.DefBuckets,
		}, []string{"result"}),
		probeAttempts: prom.NewCounter(prom.CounterOpts{
			Namespace: "appshell",
			Name:      "readiness_probe_attempts_total",
			Help:      "Total readiness probe attempts",
		}),
		httpRequests: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "appshell",
			Name:      "http_requests_total",
			Help:      "HTTP requests served by the embedded server",
		}, []string{"route", "status"}),
		watchdogSamples: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "appshell",
			Name:      "watchdog_sample_duration_seconds",
			Help:      "Duration of watchdog health samples",
			Buckets:   prom.DefBuckets,
		}, []string{"result"}),
		windowOpen: prom.NewGauge(prom.GaugeOpts{
			Namespace: "appshell",
			Name:      "window_open",
			Help:      "Whether the native window is currently open",
		}),
	}
	reg.MustRegister(pr.launchDuration, pr.readinessOutcomes, pr.probeDuration, pr.probeAttempts, pr.httpRequests, pr.watchdogSamples, pr.windowOpen)
	return pr
}

func (p *PrometheusRecorder) ObserveLaunchDuration(d time.Duration) {
	if p == nil || p.launchDuration == nil {
		return
	}
	p.launchDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncReadinessOutcome(outcome ReadinessLabel) {
	if p == nil || p.readinessOutcomes == nil {
		return
	}
	p.readinessOutcomes.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) ObserveProbeDuration(d time.Duration, success bool) {
	if p == nil || p.probeDuration == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.probeDuration.WithLabelValues(res).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncProbeAttempt() {
	if p == nil || p.probeAttempts == nil {
		return
	}
	p.probeAttempts.Inc()
}

func (p *PrometheusRecorder) IncHTTPRequest(route string, status int) {
	if p == nil || p.httpRequests == nil {
		return
	}
	p.httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

func (p *PrometheusRecorder) ObserveWatchdogSample(d time.Duration, healthy bool) {
	if p == nil || p.watchdogSamples == nil {
		return
	}
	res := "unhealthy"
	if healthy {
		res = "healthy"
	}
	p.watchdogSamples.WithLabelValues(res).Observe(d.Seconds())
}

func (p *PrometheusRecorder) SetWindowOpen(open bool) {
	if p == nil || p.windowOpen == nil {
		return
	}
	if open {
		p.windowOpen.Set(1)
		return
	}
	p.windowOpen.Set(0)
}
