package middleware

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	derrors "git.home.luguber.info/inful/appshell/internal/foundation/errors"
	"git.home.luguber.info/inful/appshell/internal/metrics"
)

func newTestChain() func(http.Handler) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return Chain(logger, derrors.NewHTTPErrorAdapter(logger), nil)
}

func TestChainPassesThroughResponses(t *testing.T) {
	handler := newTestChain()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pot", nil))

	if rec.Code != http.StatusTeapot {
		t.Errorf("expected status 418, got %d", rec.Code)
	}
	if rec.Body.String() != "short and stout" {
		t.Errorf("unexpected body: %q", rec.Body.String())
	}
}

func TestChainRecoversFromPanics(t *testing.T) {
	handler := newTestChain()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("handler exploded")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", rec.Code)
	}

	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("expected JSON error payload: %v", err)
	}
	if payload["error"] != "internal server error" {
		t.Errorf("unexpected error message: %v", payload["error"])
	}
	if payload["code"] != string(derrors.CategoryInternal) {
		t.Errorf("unexpected error code: %v", payload["code"])
	}
}

type countingRecorder struct {
	metrics.NoopRecorder
	routes   []string
	statuses []int
}

func (c *countingRecorder) IncHTTPRequest(route string, status int) {
	c.routes = append(c.routes, route)
	c.statuses = append(c.statuses, status)
}

func TestChainRecordsRequestMetrics(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rec := &countingRecorder{}
	chain := Chain(logger, derrors.NewHTTPErrorAdapter(logger), rec)

	handler := chain(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	// Recorded as a route class, never the raw path: each asset and
	// client-side route would otherwise mint a fresh label value.
	if len(rec.routes) != 1 || rec.routes[0] != "static" {
		t.Errorf("expected one recorded static route, got %v", rec.routes)
	}
	if len(rec.statuses) != 1 || rec.statuses[0] != http.StatusNotFound {
		t.Errorf("expected one recorded 404, got %v", rec.statuses)
	}
}

func TestRouteClass(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/healthz", "health"},
		{"/readyz", "health"},
		{"/metrics", "metrics"},
		{"/livereload", "livereload"},
		{"/livereload.js", "livereload"},
		{"/api/status", "api"},
		{"/api/ping", "api"},
		{"/", "static"},
		{"/assets/app-4f2a.css", "static"},
		{"/settings/profile", "static"},
	}
	for _, tt := range tests {
		if got := routeClass(tt.path); got != tt.want {
			t.Errorf("routeClass(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
