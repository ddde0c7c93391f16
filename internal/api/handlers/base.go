// Package handlers implements the REST API endpoint handlers for dnslens.
//
// REST API Endpoints:
//
// System Health:
//   - GET /api/v1/health - Health check status (includes database ping)
//   - GET /api/v1/stats - Server statistics (uptime, memory, CPU, inspection counters)
//   - GET /api/v1/config - Current configuration (sensitive values redacted)
//
// Observations:
//   - GET /api/v1/anomalies - Recorded header anomalies, newest first
//   - GET /api/v1/anomalies/summary - Anomaly counts grouped by kind
//   - GET /api/v1/traffic - Per-minute traffic buckets for a time window
//
// Live Feed:
//   - GET /api/v1/live - WebSocket stream of inspection events
//
// Authentication:
//
// All endpoints support optional API key authentication via the X-API-Key
// header. If configured, the API key is required for every /api/v1 route
// except /health, which stays open for liveness probes.
//
// Security Considerations:
//
// - API is bound to localhost:8080 by default (not exposed to network)
// - Enable firewall rules to restrict access from trusted networks only
// - Use strong API keys (minimum 32 characters recommended)
// - Rotate API keys regularly
// - Log all API access in production
//
// @title dnslens Management API
// @version 1.0
// @description REST API for browsing DNS header observations and anomalies.
//
// @contact.name dnslens Support
// @contact.url https://github.com/jroosing/dnslens
//
// @license.name MIT
// @license.url https://opensource.org/licenses/MIT
//
// @host localhost:8080
// @BasePath /api/v1
//
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
package handlers

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jroosing/dnslens/internal/config"
	"github.com/jroosing/dnslens/internal/database"
	"github.com/jroosing/dnslens/internal/inspect"
)

// Handler contains dependencies for API handlers.
type Handler struct {
	cfg       *config.Config
	db        *database.DB
	logger    *slog.Logger
	startTime time.Time

	// Runtime components (set after capture starts)
	inspector *inspect.Inspector
	mu        sync.RWMutex
}

// New creates a new Handler with the given configuration and database.
func New(cfg *config.Config, db *database.DB, logger *slog.Logger) *Handler {
	return &Handler{
		cfg:       cfg,
		db:        db,
		logger:    logger,
		startTime: time.Now(),
	}
}

// DB returns the database connection for handlers that need it.
func (h *Handler) DB() *database.DB {
	return h.db
}

// SetInspector sets the inspector whose counters the stats endpoints expose.
func (h *Handler) SetInspector(i *inspect.Inspector) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.inspector = i
}

// GetInspector retrieves the inspector with safe read access.
func (h *Handler) GetInspector() *inspect.Inspector {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.inspector
}
