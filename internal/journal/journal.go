// Package journal records the ordered lifecycle events of a single launch.
//
// The journal is process-local and in-memory: it exists so the status
// endpoint and tests can observe launch ordering, not as persistence.
// Nothing is ever written to disk.
package journal

import (
	"context"
	"time"
)

// Lifecycle event names, in the order a successful launch emits them.
const (
	EventLaunchCreated    = "launch_created"
	EventServiceStarting  = "service_starting"
	EventServiceReady     = "service_ready"
	EventServiceFailed    = "service_failed"
	EventWindowOpened     = "window_opened"
	EventWindowClosed     = "window_closed"
	EventShutdownComplete = "shutdown_complete"
)

// Entry is one recorded lifecycle event.
type Entry struct {
	ID        int64             `json:"id"`
	LaunchID  string            `json:"launch_id"`
	Event     string            `json:"event"`
	Timestamp time.Time         `json:"timestamp"`
	Detail    map[string]string `json:"detail,omitempty"`
}

// Journal persists ordered lifecycle events for one launch.
type Journal interface {
	// Record appends an event. Detail may be nil.
	Record(ctx context.Context, event string, detail map[string]string) error

	// Entries returns all recorded events in insertion order.
	Entries(ctx context.Context) ([]Entry, error)

	// Close releases resources.
	Close() error
}

// Noop is a Journal that records nothing. It stands in when the real
// journal could not be created, so callers never need nil checks.
type Noop struct{}

func (Noop) Record(context.Context, string, map[string]string) error { return nil }
func (Noop) Entries(context.Context) ([]Entry, error)                { return nil, nil }
func (Noop) Close() error                                            { return nil }
