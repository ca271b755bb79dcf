package launcher

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/appshell/internal/assets"
	derrors "git.home.luguber.info/inful/appshell/internal/foundation/errors"
	"git.home.luguber.info/inful/appshell/internal/journal"
	"git.home.luguber.info/inful/appshell/internal/livereload"
	"git.home.luguber.info/inful/appshell/internal/logfields"
	"git.home.luguber.info/inful/appshell/internal/metrics"
	"git.home.luguber.info/inful/appshell/internal/server/httpserver"
	"git.home.luguber.info/inful/appshell/internal/watchdog"
	"git.home.luguber.info/inful/appshell/internal/window"
)

// StartService begins executing the embedded server on a background
// goroutine. Bind-time failures are not returned here; they travel through
// the handle's readiness signal so the background unit can never fail
// invisibly. A synchronous error means programmer misuse only.
func (c *Coordinator) StartService(ctx context.Context) (*ServiceHandle, error) {
	if c.server != nil {
		return nil, derrors.LaunchError("service already started").Build()
	}

	serverOpts := httpserver.Options{
		BackendHandler: c.opts.BackendHandler,
		MetricsHandler: c.opts.MetricsHandler,
		Recorder:       c.recorder,
		Journal:        c.journal,
		Info:           c,
	}
	if c.cfg.Dev {
		c.hub = livereload.NewHub()
		serverOpts.LiveReloadHub = c.hub
		serverOpts.LiveReloadScript = livereload.ScriptHandler()
	}

	c.server = httpserver.New(c.cfg, serverOpts)
	c.record(ctx, journal.EventServiceStarting, map[string]string{
		"addr": c.cfg.Addr(),
	})

	ready := make(chan ReadinessEvent, 1)
	go func() {
		if err := c.server.Start(ctx); err != nil {
			ready <- ReadinessEvent{State: ReadinessFailed, Err: err}
			return
		}
		ready <- ReadinessEvent{State: ReadinessReady}
	}()

	return &ServiceHandle{ready: ready, server: c.server}, nil
}

// AwaitReadiness blocks until the service is confirmed accepting requests or
// the policy's MaxWait elapses. Two stages: the bind outcome from the
// readiness signal, then liveness probes against /readyz. A timeout is its
// own reported condition, never downgraded to proceeding anyway.
func (c *Coordinator) AwaitReadiness(ctx context.Context, handle *ServiceHandle, policy Policy) error {
	start := time.Now()
	deadline := time.NewTimer(policy.MaxWait)
	defer deadline.Stop()

	// Stage 1: bind outcome.
	select {
	case ev := <-handle.ready:
		if ev.Err != nil {
			return c.failReadiness(ctx, metrics.ReadinessFailed, ev.Err)
		}
	case <-deadline.C:
		return c.failReadiness(ctx, metrics.ReadinessTimeout, c.timeoutError(start, 0))
	case <-ctx.Done():
		return c.failReadiness(ctx, metrics.ReadinessFailed, ctx.Err())
	}

	// Stage 2: confirm over HTTP.
	probeURL := fmt.Sprintf("http://%s/readyz", handle.Addr())
	client := &http.Client{Timeout: policy.PollInterval * 4}
	ticker := time.NewTicker(policy.PollInterval)
	defer ticker.Stop()

	attempts := 0
	for {
		attempts++
		c.recorder.IncProbeAttempt()
		probeStart := time.Now()
		ok := probe(ctx, client, probeURL)
		c.recorder.ObserveProbeDuration(time.Since(probeStart), ok)
		if ok {
			c.readiness.Store(ReadinessReady)
			c.recorder.IncReadinessOutcome(metrics.ReadinessReady)
			c.record(ctx, journal.EventServiceReady, map[string]string{
				"addr":     handle.Addr(),
				"attempts": fmt.Sprintf("%d", attempts),
			})
			slog.Info("Service ready",
				logfields.Addr(handle.Addr()),
				logfields.Attempts(attempts),
				logfields.DurationMS(float64(time.Since(start).Microseconds())/1000))
			return nil
		}

		select {
		case <-ticker.C:
		case <-deadline.C:
			return c.failReadiness(ctx, metrics.ReadinessTimeout, c.timeoutError(start, attempts))
		case <-ctx.Done():
			return c.failReadiness(ctx, metrics.ReadinessFailed, ctx.Err())
		}
	}
}

// OpenWindow creates the shell pointed at serviceURL. Only called once
// readiness is confirmed.
func (c *Coordinator) OpenWindow(ctx context.Context, serviceURL string) (window.Window, error) {
	opts := window.Options{
		Title:  c.cfg.Window.Title,
		Width:  c.cfg.Window.Width,
		Height: c.cfg.Window.Height,
	}

	// The entry document supplies the title (and a startup census) when the
	// config leaves it blank.
	if entry, err := assets.Inspect(filepath.Join(c.server.AssetRoot(), "index.html")); err == nil {
		if opts.Title == "" {
			opts.Title = entry.Title
		}
		slog.Info("Frontend entry document",
			slog.String("title", entry.Title),
			slog.Int("scripts", entry.Scripts),
			slog.Int("stylesheets", entry.Stylesheets),
			slog.Int("images", entry.Images))
	}

	win, err := c.opts.OpenWindow(ctx, serviceURL, opts)
	if err != nil {
		return nil, err
	}

	c.recorder.SetWindowOpen(true)
	c.record(ctx, journal.EventWindowOpened, map[string]string{"url": serviceURL})
	return win, nil
}

// Run performs the whole launch and blocks until the window closes, the
// context is cancelled, or the server dies. It may be called once per
// process; reinvocation is rejected.
func (c *Coordinator) Run(ctx context.Context) error {
	if !c.ran.CompareAndSwap(false, true) {
		return derrors.LaunchError("run already invoked for this process").Build()
	}

	c.startTime = time.Now()
	c.state.Store(StateStarting)
	c.record(ctx, journal.EventLaunchCreated, map[string]string{
		"launch_id": c.launchID,
		"port":      fmt.Sprintf("%d", c.cfg.Server.Port),
	})
	slog.Info("Launch starting",
		logfields.LaunchID(c.launchID),
		logfields.Addr(c.cfg.Addr()),
		logfields.AssetRoot(c.cfg.Assets.Dir))

	state := &LaunchState{ServicePort: c.cfg.Server.Port}

	handle, err := c.StartService(ctx)
	if err != nil {
		c.state.Store(StateError)
		return err
	}
	state.Handle = handle

	if err := c.AwaitReadiness(ctx, handle, c.policy()); err != nil {
		c.state.Store(StateError)
		c.teardown()
		return err
	}

	// Dev mode: watch the asset root and push reloads.
	watchCtx, cancelWatch := context.WithCancel(ctx)
	defer cancelWatch()
	if c.cfg.Dev {
		if w, werr := livereload.NewWatcher(c.server.AssetRoot(), c.hub); werr != nil {
			slog.Warn("Failed to start asset watcher", logfields.Error(werr))
		} else {
			go w.Run(watchCtx)
		}
	}

	serviceURL := "http://" + handle.Addr()
	win, err := c.OpenWindow(ctx, serviceURL)
	if err != nil {
		c.state.Store(StateError)
		c.teardown()
		return err
	}
	state.Window = win

	c.state.Store(StateRunning)
	c.recorder.ObserveLaunchDuration(time.Since(c.startTime))

	if wd, werr := watchdog.New(fmt.Sprintf("http://%s/healthz", handle.Addr()),
		c.cfg.Launch.WatchdogInterval, c.recorder); werr != nil {
		slog.Warn("Failed to start watchdog", logfields.Error(werr))
	} else {
		c.watchdog = wd
		wd.Start(ctx)
	}

	runErr := c.waitForTermination(ctx, state)

	c.recorder.SetWindowOpen(false)
	c.record(context.WithoutCancel(ctx), journal.EventWindowClosed, nil)
	c.teardown()
	return runErr
}

// waitForTermination blocks until one of the three termination triggers
// fires: the user closes the window, the process receives a shutdown signal,
// or the service dies underneath the window.
func (c *Coordinator) waitForTermination(ctx context.Context, state *LaunchState) error {
	select {
	case <-state.Window.Done():
		slog.Info("Window closed", logfields.LaunchID(c.launchID))
		return nil
	case <-ctx.Done():
		slog.Info("Shutdown signal received, closing window")
		_ = state.Window.Close()
		return nil
	case serveErr := <-state.Handle.server.Done():
		slog.Error("Service died while window open", logfields.Error(serveErr))
		_ = state.Window.Close()
		return derrors.WrapError(serveErr, derrors.CategoryRuntime, "service terminated unexpectedly").Build()
	}
}

// teardown stops everything within the shutdown grace. It is safe to call
// with components that never started.
func (c *Coordinator) teardown() {
	c.state.Store(StateStopping)

	stopCtx, cancel := context.WithTimeout(context.Background(), c.cfg.Launch.ShutdownGrace)
	defer cancel()

	if c.watchdog != nil {
		if err := c.watchdog.Stop(stopCtx); err != nil {
			slog.Warn("Watchdog stop failed", logfields.Error(err))
		}
	}
	if c.hub != nil {
		c.hub.Shutdown()
	}
	if c.server != nil {
		if err := c.server.Stop(stopCtx); err != nil {
			slog.Warn("Server stop failed", logfields.Error(err))
		}
	}

	c.record(stopCtx, journal.EventShutdownComplete, nil)
	c.state.Store(StateStopped)
	slog.Info("Launch complete", logfields.LaunchID(c.launchID))
}

// failReadiness records a failed readiness outcome and returns its error.
func (c *Coordinator) failReadiness(ctx context.Context, outcome metrics.ReadinessLabel, err error) error {
	c.readiness.Store(ReadinessFailed)
	c.recorder.IncReadinessOutcome(outcome)
	detail := map[string]string{}
	if err != nil {
		detail["error"] = err.Error()
	}
	c.record(context.WithoutCancel(ctx), journal.EventServiceFailed, detail)
	slog.Error("Service failed to become ready", logfields.Error(err))
	return err
}

// timeoutError builds the distinct readiness-timeout condition.
func (c *Coordinator) timeoutError(start time.Time, attempts int) error {
	return derrors.RuntimeError("service did not become ready in time").
		WithContext("max_wait", c.cfg.Launch.MaxWait.String()).
		WithContext("elapsed", time.Since(start).Round(time.Millisecond).String()).
		WithContext("attempts", attempts).
		Build()
}

// probe performs one liveness probe, treating any 2xx as ready.
func probe(ctx context.Context, client *http.Client, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
