package window

import (
	"context"
	"log/slog"
	"os/exec"
	"runtime"
	"sync"

	derrors "git.home.luguber.info/inful/appshell/internal/foundation/errors"
	"git.home.luguber.info/inful/appshell/internal/logfields"
)

// execCommand is swapped out in tests.
var execCommand = func(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}

// openBrowserWindow opens url in the default browser. The browser tab cannot
// report being closed, so the synthetic Done channel follows ctx instead:
// the process then runs until interrupted.
func openBrowserWindow(ctx context.Context, url string) (Window, error) {
	name, args := browserCommand(runtime.GOOS, url)
	if name == "" {
		return nil, derrors.WindowError("no way to open a browser on this platform").
			WithContext("goos", runtime.GOOS).
			Build()
	}

	if err := execCommand(name, args...); err != nil {
		return nil, derrors.WindowError("failed to open browser").
			WithContext("command", name).
			WithContext("cause", err.Error()).
			Build()
	}

	slog.Info("Opened default browser", logfields.URL(url))

	w := &browserWindow{done: make(chan struct{})}
	go func() {
		select {
		case <-ctx.Done():
			w.closeOnce.Do(func() { close(w.done) })
		case <-w.done:
		}
	}()
	return w, nil
}

// browserCommand returns the platform launcher for a URL.
func browserCommand(goos, url string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{url}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}
	case "linux":
		return "xdg-open", []string{url}
	default:
		return "", nil
	}
}

// browserWindow is the fallback shell: a plain browser tab.
type browserWindow struct {
	done      chan struct{}
	closeOnce sync.Once
}

func (w *browserWindow) Done() <-chan struct{} {
	return w.done
}

func (w *browserWindow) Close() error {
	w.closeOnce.Do(func() { close(w.done) })
	return nil
}
