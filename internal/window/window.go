// Package window owns the native shell: a Chrome app window pointed at the
// embedded server, with a default-browser fallback when no Chrome runtime is
// installed.
package window

import (
	"context"
	"log/slog"

	"github.com/zserge/lorca"

	derrors "git.home.luguber.info/inful/appshell/internal/foundation/errors"
	"git.home.luguber.info/inful/appshell/internal/logfields"
)

// Window is the visual shell rendering the served frontend. At most one
// exists per process.
type Window interface {
	// Done is closed when the window has been closed, by the user or by Close.
	Done() <-chan struct{}

	// Close programmatically closes the window. Safe to call more than once.
	Close() error
}

// Options configures the shell's appearance.
type Options struct {
	Title  string
	Width  int
	Height int
}

// Open creates the shell pointed at url and makes it visible. When the
// Chrome app window cannot be created the default browser takes over; the
// returned Window then synthesizes its close signal from ctx.
func Open(ctx context.Context, url string, opts Options) (Window, error) {
	if opts.Width <= 0 {
		opts.Width = 1280
	}
	if opts.Height <= 0 {
		opts.Height = 850
	}

	ui, err := lorca.New(url, "", opts.Width, opts.Height)
	if err != nil {
		slog.Warn("Failed to launch app window, falling back to browser",
			logfields.URL(url),
			logfields.Error(err))
		return openBrowserWindow(ctx, url)
	}

	if opts.Title != "" {
		// Best effort; the page's own <title> wins once loaded.
		_ = ui.Eval("document.title = " + jsString(opts.Title))
	}

	slog.Info("Window opened", logfields.URL(url))
	return &lorcaWindow{ui: ui}, nil
}

// lorcaWindow wraps a lorca.UI as a Window.
type lorcaWindow struct {
	ui lorca.UI
}

func (w *lorcaWindow) Done() <-chan struct{} {
	return w.ui.Done()
}

func (w *lorcaWindow) Close() error {
	if err := w.ui.Close(); err != nil {
		return derrors.WindowError("failed to close window").
			WithContext("cause", err.Error()).
			Build()
	}
	return nil
}

// jsString quotes a string for injection into a JS expression.
func jsString(s string) string {
	out := make([]rune, 0, len(s)+2)
	out = append(out, '"')
	for _, r := range s {
		switch r {
		case '"', '\\':
			out = append(out, '\\', r)
		case '\n':
			out = append(out, '\\', 'n')
		default:
			out = append(out, r)
		}
	}
	return string(append(out, '"'))
}
