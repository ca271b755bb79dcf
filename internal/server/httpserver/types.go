package httpserver

import (
	"net/http"
	"time"

	"git.home.luguber.info/inful/appshell/internal/journal"
	"git.home.luguber.info/inful/appshell/internal/metrics"
)

// LaunchInfo is the minimal interface the built-in handlers need from the
// launch coordinator. It intentionally stays read-only.
type LaunchInfo interface {
	LaunchID() string
	State() string
	ReadinessState() string
	StartTime() time.Time
}

// LiveReloadHub supports the live reload SSE endpoint and broadcast notifications.
type LiveReloadHub interface {
	http.Handler
	Broadcast(hash string)
	Shutdown()
}

// Options configures additional server wiring that is runtime-specific.
type Options struct {
	// BackendHandler serves application endpoints under /api/. The launcher
	// defines no API surface itself; this is the host application's hook.
	BackendHandler http.Handler

	// Optional: live reload support (dev mode).
	LiveReloadHub LiveReloadHub

	// LiveReloadScript serves the client script mounted at /livereload.js.
	LiveReloadScript http.Handler

	// Optional: Prometheus scrape endpoint.
	MetricsHandler http.Handler

	// Recorder counts served requests. Defaults to NoopRecorder.
	Recorder metrics.Recorder

	// Journal feeds recent lifecycle events into /api/status.
	Journal journal.Journal

	// Info exposes coordinator state to the health and status endpoints.
	Info LaunchInfo
}
