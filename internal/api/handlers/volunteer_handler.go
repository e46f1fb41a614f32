package handlers

import (
	"context"
	"net/http"

	"github.com/IlyaKonFetka/max-social-miniapp/internal/domain/entities"
)

// VolunteerService defines the volunteer read operations used by the handler.
type VolunteerService interface {
	ListAvailable(ctx context.Context) ([]*entities.User, error)
	GetStats(ctx context.Context, volunteerID int64) (*entities.VolunteerStats, error)
}

// VolunteerHandler serves volunteer availability and stats
type VolunteerHandler struct {
	service VolunteerService
}

// NewVolunteerHandler creates a new volunteer handler
func NewVolunteerHandler(service VolunteerService) *VolunteerHandler {
	return &VolunteerHandler{service: service}
}

// ListAvailable handles GET /api/volunteers/available
func (h *VolunteerHandler) ListAvailable(w http.ResponseWriter, r *http.Request) {
	volunteers, err := h.service.ListAvailable(r.Context())
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	if volunteers == nil {
		volunteers = []*entities.User{}
	}

	respondWithJSON(w, http.StatusOK, volunteers)
}

// GetStats handles GET /api/volunteers/{id}/stats
func (h *VolunteerHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	stats, err := h.service.GetStats(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, stats)
}
