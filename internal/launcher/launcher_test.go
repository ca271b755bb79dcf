package launcher

import (
	"context"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"git.home.luguber.info/inful/appshell/internal/config"
	derrors "git.home.luguber.info/inful/appshell/internal/foundation/errors"
	"git.home.luguber.info/inful/appshell/internal/journal"
	"git.home.luguber.info/inful/appshell/internal/window"
)

// stubWindow stands in for the native shell.
type stubWindow struct {
	done chan struct{}
	once sync.Once
}

func newStubWindow() *stubWindow { return &stubWindow{done: make(chan struct{})} }

func (w *stubWindow) Done() <-chan struct{} { return w.done }

func (w *stubWindow) Close() error {
	w.once.Do(func() { close(w.done) })
	return nil
}

// stubOpener records every invocation and hands out a stubWindow.
type stubOpener struct {
	mu     sync.Mutex
	calls  int
	urls   []string
	window *stubWindow
}

func (o *stubOpener) open(_ context.Context, url string, _ window.Options) (window.Window, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls++
	o.urls = append(o.urls, url)
	if o.window == nil {
		o.window = newStubWindow()
	}
	return o.window, nil
}

func (o *stubOpener) callCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.calls
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	index := `<!doctype html><html><head><title>Stub App</title></head><body></body></html>`
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte(index), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Server.Port = 0 // ephemeral, so tests never collide
	cfg.Assets.Dir = dir
	cfg.Launch.ShutdownGrace = 2 * time.Second
	return cfg
}

func eventNames(t *testing.T, j journal.Journal) []string {
	t.Helper()
	entries, err := j.Entries(context.Background())
	if err != nil {
		t.Fatalf("journal entries: %v", err)
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Event
	}
	return names
}

func indexOf(names []string, event string) int {
	for i, n := range names {
		if n == event {
			return i
		}
	}
	return -1
}

// runLaunch runs Run in a goroutine, waits for the window to be handed out,
// then closes it and returns Run's error.
func runLaunch(t *testing.T, c *Coordinator, opener *stubOpener) error {
	t.Helper()

	errCh := make(chan error, 1)
	go func() { errCh <- c.Run(context.Background()) }()

	deadline := time.Now().Add(5 * time.Second)
	for opener.callCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if opener.callCount() == 0 {
		t.Fatal("window was never opened")
	}

	_ = opener.window.Close()

	select {
	case err := <-errCh:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after window close")
		return nil
	}
}

func TestRunOpensWindowOnlyAfterReadiness(t *testing.T) {
	opener := &stubOpener{}
	c, err := New(testConfig(t), Options{OpenWindow: opener.open})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if err := runLaunch(t, c, opener); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	names := eventNames(t, c.Journal())
	readyIdx := indexOf(names, journal.EventServiceReady)
	openedIdx := indexOf(names, journal.EventWindowOpened)
	if readyIdx == -1 || openedIdx == -1 {
		t.Fatalf("missing lifecycle events: %v", names)
	}
	if readyIdx >= openedIdx {
		t.Errorf("window opened before readiness: %v", names)
	}
	if closedIdx := indexOf(names, journal.EventWindowClosed); closedIdx < openedIdx {
		t.Errorf("window_closed out of order: %v", names)
	}
	if doneIdx := indexOf(names, journal.EventShutdownComplete); doneIdx != len(names)-1 {
		t.Errorf("shutdown_complete not last: %v", names)
	}
}

func TestRunPointsWindowAtBoundAddress(t *testing.T) {
	opener := &stubOpener{}
	c, err := New(testConfig(t), Options{OpenWindow: opener.open})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if err := runLaunch(t, c, opener); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(opener.urls) != 1 {
		t.Fatalf("expected exactly one window, got %d", len(opener.urls))
	}
	url := opener.urls[0]
	if url != "http://"+c.server.Addr() {
		t.Errorf("window URL %q does not match bound address %q", url, c.server.Addr())
	}
}

func TestRunOccupiedPortFailsWithoutWindow(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	cfg := testConfig(t)
	cfg.Server.Port = ln.Addr().(*net.TCPAddr).Port

	opener := &stubOpener{}
	c, err := New(cfg, Options{OpenWindow: opener.open})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	err = c.Run(context.Background())
	if err == nil {
		t.Fatal("expected Run to fail on occupied port")
	}
	if !derrors.HasCategory(err, derrors.CategoryNetwork) {
		t.Errorf("expected network category, got %v", err)
	}
	if opener.callCount() != 0 {
		t.Error("window must never open after a failed launch")
	}

	names := eventNames(t, c.Journal())
	if indexOf(names, journal.EventServiceFailed) == -1 {
		t.Errorf("expected service_failed event, got %v", names)
	}
	if indexOf(names, journal.EventWindowOpened) != -1 {
		t.Errorf("window_opened must not appear, got %v", names)
	}
}

func TestRunRejectsSecondInvocation(t *testing.T) {
	opener := &stubOpener{}
	c, err := New(testConfig(t), Options{OpenWindow: opener.open})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if err := runLaunch(t, c, opener); err != nil {
		t.Fatalf("first Run failed: %v", err)
	}

	err = c.Run(context.Background())
	if err == nil {
		t.Fatal("second Run must be rejected")
	}
	if !derrors.HasCategory(err, derrors.CategoryLaunch) {
		t.Errorf("expected launch category, got %v", err)
	}
}

func TestRunReturnsWithinShutdownGrace(t *testing.T) {
	opener := &stubOpener{}
	cfg := testConfig(t)
	c, err := New(cfg, Options{OpenWindow: opener.open})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- c.Run(context.Background()) }()

	deadline := time.Now().Add(5 * time.Second)
	for opener.callCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if opener.callCount() == 0 {
		t.Fatal("window was never opened")
	}

	closed := time.Now()
	_ = opener.window.Close()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
	case <-time.After(cfg.Launch.ShutdownGrace + time.Second):
		t.Fatal("Run did not return within the shutdown grace")
	}
	if elapsed := time.Since(closed); elapsed > cfg.Launch.ShutdownGrace+500*time.Millisecond {
		t.Errorf("teardown took %s, beyond the grace period", elapsed)
	}

	// The service must be gone with the window.
	if _, err := http.Get("http://" + c.server.Addr() + "/readyz"); err == nil {
		t.Error("server still accepting connections after teardown")
	}
}

func TestRunContextCancelClosesWindow(t *testing.T) {
	opener := &stubOpener{}
	c, err := New(testConfig(t), Options{OpenWindow: opener.open})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- c.Run(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for opener.callCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if opener.callCount() == 0 {
		t.Fatal("window was never opened")
	}

	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after context cancel")
	}

	select {
	case <-opener.window.Done():
	default:
		t.Error("window should have been closed programmatically")
	}
}

func TestAwaitReadinessTimeoutIsDistinct(t *testing.T) {
	cfg := testConfig(t)
	cfg.Launch.MaxWait = 200 * time.Millisecond
	cfg.Launch.PollInterval = 50 * time.Millisecond

	c, err := New(cfg, Options{OpenWindow: (&stubOpener{}).open})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	// A handle whose readiness signal never fires: the bind outcome is lost.
	handle := &ServiceHandle{ready: make(chan ReadinessEvent)}

	start := time.Now()
	err = c.AwaitReadiness(context.Background(), handle, c.policy())
	if err == nil {
		t.Fatal("expected readiness timeout")
	}
	if !derrors.HasCategory(err, derrors.CategoryRuntime) {
		t.Errorf("expected runtime category for timeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed < cfg.Launch.MaxWait {
		t.Errorf("timeout fired early after %s", elapsed)
	}
	if c.ReadinessState() != string(ReadinessFailed) {
		t.Errorf("expected failed readiness, got %s", c.ReadinessState())
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Port = -1
	if _, err := New(cfg, Options{}); err == nil {
		t.Fatal("expected validation error")
	}

	if _, err := New(nil, Options{}); err == nil {
		t.Fatal("expected error for nil config")
	}
}
