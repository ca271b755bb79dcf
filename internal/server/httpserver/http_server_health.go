package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"time"

	"git.home.luguber.info/inful/appshell/internal/journal"
	"git.home.luguber.info/inful/appshell/internal/version"
)

// HealthStatus represents the overall health of the launcher.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthCheck represents a single health check.
type HealthCheck struct {
	Name        string        `json:"name"`
	Status      HealthStatus  `json:"status"`
	Message     string        `json:"message,omitempty"`
	Duration    time.Duration `json:"duration"`
	LastChecked time.Time     `json:"last_checked"`
}

// HealthResponse represents the complete health check response.
type HealthResponse struct {
	Status    HealthStatus  `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
	Uptime    string        `json:"uptime"`
	Version   string        `json:"version"`
	Checks    []HealthCheck `json:"checks"`
}

// StatusResponse is the /api/status payload: the launch state as observable
// from outside the coordinator.
type StatusResponse struct {
	LaunchID  string          `json:"launch_id,omitempty"`
	State     string          `json:"state,omitempty"`
	Readiness string          `json:"readiness,omitempty"`
	Addr      string          `json:"addr"`
	AssetRoot string          `json:"asset_root"`
	Uptime    string          `json:"uptime"`
	Version   string          `json:"version"`
	Events    []journal.Entry `json:"events,omitempty"`
}

// handleHealth executes all health checks and reports the overall status.
// Any non-healthy check degrades the response to 503 so external probes
// treat the launcher as a single unit.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := s.performHealthChecks()

	status := http.StatusOK
	if resp.Status == HealthStatusUnhealthy {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, resp)
}

// handleReadiness reports whether the server is accepting requests. The
// coordinator's readiness probes poll this endpoint.
func (s *Server) handleReadiness(w http.ResponseWriter, _ *http.Request) {
	if !s.ready.Load() {
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("ok"))
}

// handleStatus reports the current launch state plus the recent journal.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Addr:      s.boundAddr,
		AssetRoot: s.assetRoot,
		Uptime:    time.Since(s.startTime).Round(time.Millisecond).String(),
		Version:   version.Version,
	}

	if info := s.opts.Info; info != nil {
		resp.LaunchID = info.LaunchID()
		resp.State = info.State()
		resp.Readiness = info.ReadinessState()
		resp.Uptime = time.Since(info.StartTime()).Round(time.Millisecond).String()
	}

	if j := s.opts.Journal; j != nil {
		entries, err := j.Entries(r.Context())
		if err != nil {
			slog.Warn("Failed to read launch journal", "error", err)
		} else {
			resp.Events = tailEntries(entries, 20)
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// performHealthChecks samples the launcher's components.
func (s *Server) performHealthChecks() *HealthResponse {
	var checks []HealthCheck
	overall := HealthStatusHealthy

	serverCheck := s.checkServerHealth()
	checks = append(checks, serverCheck)
	if serverCheck.Status != HealthStatusHealthy {
		overall = HealthStatusUnhealthy
	}

	assetCheck := s.checkAssetRootHealth()
	checks = append(checks, assetCheck)
	if assetCheck.Status != HealthStatusHealthy && overall == HealthStatusHealthy {
		overall = HealthStatusDegraded
	}

	if s.opts.Info != nil {
		coordCheck := s.checkCoordinatorHealth()
		checks = append(checks, coordCheck)
		if coordCheck.Status != HealthStatusHealthy && overall == HealthStatusHealthy {
			overall = HealthStatusDegraded
		}
	}

	return &HealthResponse{
		Status:    overall,
		Timestamp: time.Now(),
		Uptime:    time.Since(s.startTime).Round(time.Millisecond).String(),
		Version:   version.Version,
		Checks:    checks,
	}
}

// checkServerHealth verifies the server is accepting requests.
func (s *Server) checkServerHealth() HealthCheck {
	start := time.Now()
	check := HealthCheck{Name: "http_server", LastChecked: time.Now()}

	if s.ready.Load() {
		check.Status = HealthStatusHealthy
		check.Message = "Server is accepting requests"
	} else {
		check.Status = HealthStatusUnhealthy
		check.Message = "Server is not accepting requests"
	}

	check.Duration = time.Since(start)
	return check
}

// checkAssetRootHealth verifies the asset directory is still present. The
// launcher never writes to it, but it can disappear underneath us.
func (s *Server) checkAssetRootHealth() HealthCheck {
	start := time.Now()
	check := HealthCheck{Name: "asset_root", LastChecked: time.Now()}

	st, err := os.Stat(s.assetRoot)
	switch {
	case err != nil:
		check.Status = HealthStatusUnhealthy
		check.Message = "Asset directory is missing"
	case !st.IsDir():
		check.Status = HealthStatusUnhealthy
		check.Message = "Asset root is not a directory"
	default:
		check.Status = HealthStatusHealthy
	}

	check.Duration = time.Since(start)
	return check
}

// checkCoordinatorHealth reports the coordinator's launch state.
func (s *Server) checkCoordinatorHealth() HealthCheck {
	start := time.Now()
	check := HealthCheck{Name: "coordinator", LastChecked: time.Now()}

	switch state := s.opts.Info.State(); state {
	case "running":
		check.Status = HealthStatusHealthy
		check.Message = "Coordinator is running"
	case "starting":
		check.Status = HealthStatusDegraded
		check.Message = "Coordinator is still starting up"
	case "stopping":
		check.Status = HealthStatusDegraded
		check.Message = "Coordinator is shutting down"
	default:
		check.Status = HealthStatusUnhealthy
		check.Message = "Coordinator is in state " + state
	}

	check.Duration = time.Since(start)
	return check
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("Failed to encode JSON response", "error", err)
	}
}

func tailEntries(entries []journal.Entry, n int) []journal.Entry {
	if len(entries) <= n {
		return entries
	}
	return entries[len(entries)-n:]
}
