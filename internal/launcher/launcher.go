// Package launcher sequences the launch: start the embedded server, confirm
// readiness, open the window, and tear both down together when the window
// closes. It is the only place that knows the ordering contract between the
// server goroutine and the shell.
package launcher

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/appshell/internal/config"
	derrors "git.home.luguber.info/inful/appshell/internal/foundation/errors"
	"git.home.luguber.info/inful/appshell/internal/journal"
	"git.home.luguber.info/inful/appshell/internal/livereload"
	"git.home.luguber.info/inful/appshell/internal/logfields"
	"git.home.luguber.info/inful/appshell/internal/metrics"
	"git.home.luguber.info/inful/appshell/internal/server/httpserver"
	"git.home.luguber.info/inful/appshell/internal/watchdog"
	"git.home.luguber.info/inful/appshell/internal/window"
)

// State represents the coordinator's lifecycle state.
type State string

const (
	StateStopped  State = "stopped"
	StateStarting State = "starting"
	StateRunning  State = "running"
	StateStopping State = "stopping"
	StateError    State = "error"
)

// Readiness is the service's readiness state. It transitions from
// ReadinessStarting to exactly one of ReadinessReady or ReadinessFailed.
type Readiness string

const (
	ReadinessStarting Readiness = "starting"
	ReadinessReady    Readiness = "ready"
	ReadinessFailed   Readiness = "failed"
)

// ReadinessEvent is the single bind outcome delivered through the readiness
// signal. Err is set when the service failed to start.
type ReadinessEvent struct {
	State Readiness
	Err   error
}

// ServiceHandle is the ownership token for the background server goroutine.
// It carries the readiness signal; it is never used to address the service
// directly.
type ServiceHandle struct {
	ready  <-chan ReadinessEvent
	server *httpserver.Server
}

// Addr returns the bound address, valid once the readiness signal reported a
// successful bind.
func (h *ServiceHandle) Addr() string {
	return h.server.Addr()
}

// Policy bounds the readiness phase.
type Policy struct {
	MaxWait      time.Duration
	PollInterval time.Duration
}

// LaunchState is the explicitly owned, process-local launch state. It is
// created by Run, threaded through the launch steps, and discarded at
// process exit; nothing here is a package-level singleton.
type LaunchState struct {
	ServicePort int
	Handle      *ServiceHandle
	Window      window.Window
}

// WindowOpener creates the shell. Swapped out in tests.
type WindowOpener func(ctx context.Context, url string, opts window.Options) (window.Window, error)

// Options configures coordinator wiring beyond the config file.
type Options struct {
	// BackendHandler is the host application's API surface, mounted under
	// /api/ on the embedded server. Optional.
	BackendHandler http.Handler

	// Recorder receives launch metrics. Defaults to NoopRecorder.
	Recorder metrics.Recorder

	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler

	// Journal records lifecycle events. Defaults to an in-memory SQLite
	// journal, degrading to a no-op journal if that fails.
	Journal journal.Journal

	// OpenWindow creates the shell. Defaults to window.Open.
	OpenWindow WindowOpener
}

// Coordinator owns the lifecycle of the embedded server and the window
// displaying it. Exactly one launch per process: Run rejects reinvocation.
type Coordinator struct {
	cfg  *config.Config
	opts Options

	launchID  string
	state     atomic.Value // State
	readiness atomic.Value // Readiness
	startTime time.Time
	ran       atomic.Bool

	journal  journal.Journal
	recorder metrics.Recorder

	server   *httpserver.Server
	watchdog *watchdog.Watchdog
	hub      *livereload.Hub
}

// New creates a Coordinator for the given configuration.
func New(cfg *config.Config, opts Options) (*Coordinator, error) {
	if cfg == nil {
		return nil, derrors.LaunchError("configuration is required").Build()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	if opts.OpenWindow == nil {
		opts.OpenWindow = window.Open
	}

	launchID := uuid.NewString()

	j := opts.Journal
	if j == nil {
		sj, err := journal.NewSQLiteJournal(launchID)
		if err != nil {
			slog.Warn("Failed to create launch journal, continuing without one",
				logfields.Error(err))
			j = journal.Noop{}
		} else {
			j = sj
		}
	}

	c := &Coordinator{
		cfg:      cfg,
		opts:     opts,
		launchID: launchID,
		journal:  j,
		recorder: opts.Recorder,
	}
	c.state.Store(StateStopped)
	c.readiness.Store(ReadinessStarting)
	return c, nil
}

// LaunchID returns the unique ID tagging this launch's journal and logs.
func (c *Coordinator) LaunchID() string { return c.launchID }

// State returns the coordinator's lifecycle state.
func (c *Coordinator) State() string {
	s, _ := c.state.Load().(State)
	return string(s)
}

// ReadinessState returns the service readiness as a string.
func (c *Coordinator) ReadinessState() string {
	r, _ := c.readiness.Load().(Readiness)
	return string(r)
}

// StartTime returns when Run began, zero before that.
func (c *Coordinator) StartTime() time.Time { return c.startTime }

// Journal exposes the launch journal, mainly for tests.
func (c *Coordinator) Journal() journal.Journal { return c.journal }

func (c *Coordinator) policy() Policy {
	return Policy{
		MaxWait:      c.cfg.Launch.MaxWait,
		PollInterval: c.cfg.Launch.PollInterval,
	}
}

// record appends a journal event, logging instead of failing on error.
func (c *Coordinator) record(ctx context.Context, event string, detail map[string]string) {
	if err := c.journal.Record(ctx, event, detail); err != nil {
		slog.Warn("Failed to record launch event",
			logfields.Event(event),
			logfields.Error(err))
	}
}
