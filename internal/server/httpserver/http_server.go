package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"git.home.luguber.info/inful/appshell/internal/config"
	derrors "git.home.luguber.info/inful/appshell/internal/foundation/errors"
	"git.home.luguber.info/inful/appshell/internal/metrics"
	smw "git.home.luguber.info/inful/appshell/internal/server/middleware"
)

// Server is the embedded loopback HTTP server hosting the frontend assets
// and the built-in endpoints (health, readiness, status, metrics).
type Server struct {
	cfg          *config.Config
	opts         Options
	errorAdapter *derrors.HTTPErrorAdapter

	srv       *http.Server
	boundAddr string
	assetRoot string
	ready     atomic.Bool
	startTime time.Time
	errCh     chan error

	// middleware chain
	mchain func(http.Handler) http.Handler
}

// New constructs a new HTTP server wiring instance.
func New(cfg *config.Config, opts Options) *Server {
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}

	s := &Server{
		cfg:          cfg,
		opts:         opts,
		errorAdapter: derrors.NewHTTPErrorAdapter(slog.Default()),
		errCh:        make(chan error, 1),
	}

	// Initialize middleware chain
	s.mchain = smw.Chain(slog.Default(), s.errorAdapter, opts.Recorder)

	return s
}

// Start resolves the asset root, binds the configured port, and begins
// serving. The listener is pre-bound so an occupied port surfaces here as a
// deterministic error instead of after partial initialization.
func (s *Server) Start(ctx context.Context) error {
	root, err := resolveAssetRoot(s.cfg.Assets.Dir)
	if err != nil {
		return err
	}
	s.assetRoot = root

	addr := s.cfg.Addr()
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryNetwork, "service startup failed").
			WithSeverity(derrors.SeverityFatal).
			WithContext("addr", addr).
			WithContext("port", s.cfg.Server.Port).
			Build()
	}
	s.boundAddr = ln.Addr().String()

	mux := s.buildMux()

	s.srv = &http.Server{Handler: mux, ReadTimeout: 30 * time.Second, WriteTimeout: 30 * time.Second, IdleTimeout: 120 * time.Second}
	s.startTime = time.Now()
	s.startServerWithListener("frontend", s.srv, ln)
	s.ready.Store(true)

	slog.Info("HTTP server started",
		slog.String("addr", s.boundAddr),
		slog.String("asset_root", root))
	return nil
}

// Stop gracefully shuts down the server within the context deadline.
func (s *Server) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	s.ready.Store(false)

	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}

	slog.Info("HTTP server stopped")
	return nil
}

// Addr returns the bound address, valid after Start.
func (s *Server) Addr() string {
	return s.boundAddr
}

// AssetRoot returns the resolved asset directory, valid after Start.
func (s *Server) AssetRoot() string {
	return s.assetRoot
}

// Ready reports whether the server is accepting requests.
func (s *Server) Ready() bool {
	return s.ready.Load()
}

// Done delivers at most one unexpected serve error after a successful Start.
func (s *Server) Done() <-chan error {
	return s.errCh
}

// buildMux wires the built-in endpoints around the static asset handler.
func (s *Server) buildMux() *http.ServeMux {
	mux := http.NewServeMux()

	// Health/readiness endpoints, with Kubernetes-style aliases for
	// compatibility with common probe configs.
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReadiness)
	mux.HandleFunc("/readyz", s.handleReadiness)

	// Launch status endpoint. The exact-match pattern wins over /api/.
	mux.HandleFunc("/api/status", s.handleStatus)

	if s.opts.BackendHandler != nil {
		mux.Handle("/api/", s.mchain(s.opts.BackendHandler))
	}

	if s.opts.MetricsHandler != nil {
		mux.Handle("/metrics", s.opts.MetricsHandler)
	}

	if s.opts.LiveReloadHub != nil {
		mux.Handle("/livereload", s.opts.LiveReloadHub)
		if s.opts.LiveReloadScript != nil {
			mux.Handle("/livereload.js", s.opts.LiveReloadScript)
		}
	}

	// Static frontend with entry-document fallback for client-side routes.
	rootHandler := s.staticHandler(s.assetRoot)
	rootWithCaching := s.addCacheControlHeaders(rootHandler)
	rootWithMiddleware := rootWithCaching
	if s.opts.LiveReloadHub != nil {
		rootWithMiddleware = s.injectLiveReloadScript(rootWithCaching)
	}
	mux.Handle("/", s.mchain(rootWithMiddleware))

	return mux
}

// startServerWithListener launches the http.Server on its pre-bound listener.
// Unexpected serve errors are logged and delivered on the Done channel so the
// coordinator can abort the launch.
func (s *Server) startServerWithListener(kind string, srv *http.Server, ln net.Listener) {
	go func() {
		err := srv.Serve(ln)
		if err != nil && err != http.ErrServerClosed {
			slog.Error(fmt.Sprintf("%s server error", kind), "error", err)
			select {
			case s.errCh <- err:
			default:
			}
		}
	}()
}
