package handlers

import (
	"context"
	"net/http"

	"github.com/IlyaKonFetka/max-social-miniapp/internal/api/loaders"
	"github.com/IlyaKonFetka/max-social-miniapp/internal/application/services"
	"github.com/IlyaKonFetka/max-social-miniapp/internal/domain/entities"
	"github.com/IlyaKonFetka/max-social-miniapp/internal/domain/repositories"
)

// SessionService defines the live session operations used by the handler.
type SessionService interface {
	OpenSession(ctx context.Context, input services.OpenSessionInput) (*entities.Session, error)
	CloseSession(ctx context.Context, id string, outcome entities.SessionOutcome) (*entities.Session, error)
	GetSession(ctx context.Context, id string) (*entities.Session, error)
	ListSessions(ctx context.Context, filter repositories.SessionFilter) ([]*entities.Session, error)
	ListActiveSessions(ctx context.Context, limit, offset int) ([]*entities.Session, error)
}

// SessionHandler handles live session HTTP requests
type SessionHandler struct {
	service SessionService
	users   repositories.UserRepository
}

// NewSessionHandler creates a new session handler. users backs the volunteer
// loader when the request carries none.
func NewSessionHandler(service SessionService, users repositories.UserRepository) *SessionHandler {
	return &SessionHandler{
		service: service,
		users:   users,
	}
}

// OpenSession handles POST /api/sessions
func (h *SessionHandler) OpenSession(w http.ResponseWriter, r *http.Request) {
	var input services.OpenSessionInput
	if err := decodeJSON(r, &input); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	session, err := h.service.OpenSession(r.Context(), input)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, session)
}

// CloseSession handles PUT /api/sessions/{id}/end
func (h *SessionHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	var outcome entities.SessionOutcome
	if err := decodeJSON(r, &outcome); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	session, err := h.service.CloseSession(r.Context(), r.PathValue("id"), outcome)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, session)
}

// GetSession handles GET /api/sessions/{id}
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.GetSession(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	if includeVolunteer(r) {
		h.embedVolunteers(r.Context(), []*entities.Session{session})
	}

	respondWithJSON(w, http.StatusOK, session)
}

// ListSessions handles GET /api/sessions
func (h *SessionHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := queryPage(r)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	userID, err := queryInt64Ptr(r, "user_id")
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	volunteerID, err := queryInt64Ptr(r, "volunteer_id")
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	sessions, err := h.service.ListSessions(r.Context(), repositories.SessionFilter{
		UserID:      userID,
		VolunteerID: volunteerID,
		RequestID:   r.URL.Query().Get("request_id"),
		Status:      entities.SessionStatus(r.URL.Query().Get("status")),
		Limit:       limit,
		Offset:      offset,
	})
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	h.respondWithSessions(w, r, sessions)
}

// ListActiveSessions handles GET /api/sessions/active
func (h *SessionHandler) ListActiveSessions(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := queryPage(r)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	sessions, err := h.service.ListActiveSessions(r.Context(), limit, offset)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	h.respondWithSessions(w, r, sessions)
}

func (h *SessionHandler) respondWithSessions(w http.ResponseWriter, r *http.Request, sessions []*entities.Session) {
	if sessions == nil {
		sessions = []*entities.Session{}
	}
	if includeVolunteer(r) {
		h.embedVolunteers(r.Context(), sessions)
	}
	respondWithJSON(w, http.StatusOK, sessions)
}

// embedVolunteers attaches volunteer summaries in one batched lookup.
// Volunteers that fail to load are left out.
func (h *SessionHandler) embedVolunteers(ctx context.Context, sessions []*entities.Session) {
	if len(sessions) == 0 {
		return
	}

	l := loaders.For(ctx)
	if l == nil {
		l = loaders.NewLoaders(h.users)
	}

	seen := make(map[int64]struct{}, len(sessions))
	ids := make([]int64, 0, len(sessions))
	for _, s := range sessions {
		if _, ok := seen[s.VolunteerID]; ok {
			continue
		}
		seen[s.VolunteerID] = struct{}{}
		ids = append(ids, s.VolunteerID)
	}

	volunteers := l.LoadVolunteers(ctx, ids)
	for _, s := range sessions {
		if v, ok := volunteers[s.VolunteerID]; ok {
			s.Volunteer = v.Summary()
		}
	}
}

func includeVolunteer(r *http.Request) bool {
	return r.URL.Query().Get("include") == "volunteer"
}
