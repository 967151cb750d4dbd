package handlers

import (
	"context"
	"net/http"
	"time"

	"seniorguard/internal/domain/models"
	"seniorguard/internal/domain/services"
	"seniorguard/pkg/logger"
)

// Checker is a dependency probed by the readiness endpoint
type Checker interface {
	Ping(ctx context.Context) error
}

// CheckerFunc adapts a function to Checker
type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthHandler handles health check endpoints
type HealthHandler struct {
	engine    *services.Engine
	checks    map[string]Checker
	version   string
	logger    *logger.Logger
	startTime time.Time
}

func NewHealthHandler(engine *services.Engine, checks map[string]Checker, version string, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		engine:    engine,
		checks:    checks,
		version:   version,
		logger:    log.WithComponent("health"),
		startTime: time.Now(),
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status       string              `json:"status"`
	Version      string              `json:"version"`
	Uptime       string              `json:"uptime"`
	Timestamp    string              `json:"timestamp"`
	Capabilities []models.Capability `json:"capabilities,omitempty"`
	Checks       map[string]string   `json:"checks,omitempty"`
}

// Check handles GET /health. It reports which signal sources have credentials.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, HealthResponse{
		Status:       "healthy",
		Version:      h.version,
		Uptime:       time.Since(h.startTime).String(),
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		Capabilities: h.engine.Capabilities(),
	})
}

// Ready handles GET /ready - checks all dependencies
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := make(map[string]string, len(h.checks)+1)
	status := http.StatusOK
	overallStatus := "ready"

	for name, c := range h.checks {
		if err := c.Ping(ctx); err != nil {
			h.logger.Warn().Err(err).Str("dependency", name).Msg("readiness check failed")
			checks[name] = "unhealthy: " + err.Error()
			status = http.StatusServiceUnavailable
			overallStatus = "not ready"
			continue
		}
		checks[name] = "healthy"
	}
	checks["engine"] = "healthy"

	respondJSON(w, status, HealthResponse{
		Status:    overallStatus,
		Version:   h.version,
		Uptime:    time.Since(h.startTime).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	})
}
