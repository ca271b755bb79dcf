package livereload

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounceWindow = 300 * time.Millisecond

// Watcher observes the asset root and broadcasts a fresh hash on the hub
// after changes settle. Asset directories are static in normal runs; the
// watcher only exists for dev mode where the frontend is rebuilt in place.
type Watcher struct {
	root    string
	hub     *Hub
	watcher *fsnotify.Watcher

	mu    sync.Mutex
	timer *time.Timer
}

// NewWatcher creates a watcher over root feeding hub. Call Run to start it.
func NewWatcher(root string, hub *Hub) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	if err := addDirsRecursive(fsw, root); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return &Watcher{root: root, hub: hub, watcher: fsw}, nil
}

// Run processes filesystem events until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	defer func() { _ = w.watcher.Close() }()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("Asset watcher error", "error", err)
		}
	}
}

// handleEvent registers newly created directories and schedules a broadcast.
func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if ev.Op.Has(fsnotify.Create) {
		if st, err := os.Stat(ev.Name); err == nil && st.IsDir() {
			if err := w.watcher.Add(ev.Name); err != nil {
				slog.Debug("Failed to watch new directory", "path", ev.Name, "error", err)
			}
		}
	}

	if ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create) ||
		ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename) {
		w.scheduleBroadcast()
	}
}

// scheduleBroadcast debounces bursts of events into one broadcast.
func (w *Watcher) scheduleBroadcast() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(debounceWindow, func() {
		hash := strconv.FormatInt(time.Now().UnixNano(), 10)
		w.hub.Broadcast(hash)
	})
}

// addDirsRecursive registers root and every subdirectory with the watcher.
func addDirsRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if err := watcher.Add(path); err != nil {
				return fmt.Errorf("watch %s: %w", path, err)
			}
		}
		return nil
	})
}
