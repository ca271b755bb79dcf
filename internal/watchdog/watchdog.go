// Package watchdog periodically samples the embedded server's health while
// the window is open. It only observes: a degraded sample is logged and
// counted, never acted on.
package watchdog

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/appshell/internal/logfields"
	"git.home.luguber.info/inful/appshell/internal/metrics"
)

// Watchdog wraps a gocron scheduler running the periodic health sample.
type Watchdog struct {
	scheduler gocron.Scheduler
	healthURL string
	interval  time.Duration
	recorder  metrics.Recorder
	client    *http.Client
}

// New creates a watchdog sampling healthURL every interval.
func New(healthURL string, interval time.Duration, recorder metrics.Recorder) (*Watchdog, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}

	w := &Watchdog{
		scheduler: s,
		healthURL: healthURL,
		interval:  interval,
		recorder:  recorder,
		client:    &http.Client{Timeout: 5 * time.Second},
	}

	if _, err := s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(w.sample),
		gocron.WithName("health-sample"),
	); err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("failed to create health sample job: %w", err)
	}

	return w, nil
}

// Start begins periodic sampling.
func (w *Watchdog) Start(ctx context.Context) {
	slog.Debug("Starting watchdog",
		logfields.URL(w.healthURL),
		slog.Duration("interval", w.interval))
	w.scheduler.Start()
}

// Stop shuts the scheduler down.
func (w *Watchdog) Stop(ctx context.Context) error {
	slog.Debug("Stopping watchdog")
	return w.scheduler.Shutdown()
}

// sample performs one health probe.
func (w *Watchdog) sample() {
	start := time.Now()
	healthy := false

	resp, err := w.client.Get(w.healthURL)
	if err == nil {
		healthy = resp.StatusCode == http.StatusOK
		_ = resp.Body.Close()
	}
	elapsed := time.Since(start)

	w.recorder.ObserveWatchdogSample(elapsed, healthy)
	if !healthy {
		slog.Warn("Health sample degraded",
			logfields.URL(w.healthURL),
			logfields.Error(err),
			slog.Duration("elapsed", elapsed))
		return
	}
	slog.Debug("Health sample ok", slog.Duration("elapsed", elapsed))
}
