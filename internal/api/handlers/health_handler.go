package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/IlyaKonFetka/max-social-miniapp/internal/infrastructure/observability"
)

// Pinger reports whether a backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the banner and health check
type HealthHandler struct {
	db      Pinger
	version string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db Pinger, version string) *HealthHandler {
	return &HealthHandler{
		db:      db,
		version: version,
	}
}

// Banner handles GET /
func (h *HealthHandler) Banner(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{
		"message": "Volunteer assistance API",
		"version": h.version,
		"status":  "running",
	})
}

// Health handles GET /health. A failed database ping reports degraded.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			observability.LoggerFromContext(r.Context()).Warn().Err(err).Msg("Database ping failed")
			status = "degraded"
		}
	}

	respondWithJSON(w, http.StatusOK, map[string]string{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
