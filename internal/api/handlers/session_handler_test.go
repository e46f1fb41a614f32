package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IlyaKonFetka/max-social-miniapp/internal/api/handlers"
	"github.com/IlyaKonFetka/max-social-miniapp/internal/application/services"
	"github.com/IlyaKonFetka/max-social-miniapp/internal/domain/entities"
	"github.com/IlyaKonFetka/max-social-miniapp/internal/domain/repositories"
	apperrors "github.com/IlyaKonFetka/max-social-miniapp/pkg/errors"
)

type stubSessionService struct {
	sessions []*entities.Session
	closed   map[string]bool
}

func (s *stubSessionService) OpenSession(ctx context.Context, input services.OpenSessionInput) (*entities.Session, error) {
	if input.VolunteerID == 10002 {
		return nil, apperrors.NewConflictError("volunteer 10002 is not available")
	}
	return &entities.Session{
		ID:          "session-1",
		RequestID:   input.RequestID,
		VolunteerID: input.VolunteerID,
		Kind:        entities.SessionKindVideo,
		Status:      entities.SessionStatusActive,
	}, nil
}

func (s *stubSessionService) CloseSession(ctx context.Context, id string, outcome entities.SessionOutcome) (*entities.Session, error) {
	if outcome.Duration < 0 {
		return nil, apperrors.NewValidationError("duration must not be negative")
	}
	if s.closed[id] {
		return nil, apperrors.NewConflictError("session is already completed")
	}
	s.closed[id] = true
	return &entities.Session{ID: id, Status: entities.SessionStatusCompleted}, nil
}

func (s *stubSessionService) GetSession(ctx context.Context, id string) (*entities.Session, error) {
	for _, session := range s.sessions {
		if session.ID == id {
			return session, nil
		}
	}
	return nil, apperrors.NewNotFoundError("session not found")
}

func (s *stubSessionService) ListSessions(ctx context.Context, filter repositories.SessionFilter) ([]*entities.Session, error) {
	return s.sessions, nil
}

func (s *stubSessionService) ListActiveSessions(ctx context.Context, limit, offset int) ([]*entities.Session, error) {
	return s.sessions, nil
}

// stubUserRepository answers batched lookups and counts them
type stubUserRepository struct {
	mu      sync.Mutex
	users   map[int64]*entities.User
	batches [][]int64
}

func (r *stubUserRepository) Create(ctx context.Context, user *entities.User) (bool, error) {
	return false, nil
}

func (r *stubUserRepository) GetByID(ctx context.Context, id int64) (*entities.User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, apperrors.NewNotFoundError("user not found")
}

func (r *stubUserRepository) GetByIDs(ctx context.Context, ids []int64) ([]*entities.User, error) {
	r.mu.Lock()
	r.batches = append(r.batches, append([]int64(nil), ids...))
	r.mu.Unlock()

	users := make([]*entities.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			users = append(users, u)
		}
	}
	return users, nil
}

func (r *stubUserRepository) Update(ctx context.Context, user *entities.User) error {
	return nil
}

func (r *stubUserRepository) List(ctx context.Context, filter repositories.UserFilter) ([]*entities.User, error) {
	return nil, nil
}

func (r *stubUserRepository) ListAvailableVolunteers(ctx context.Context) ([]*entities.User, error) {
	return nil, nil
}

func (r *stubUserRepository) GetVolunteerStats(ctx context.Context, volunteerID int64) (*entities.VolunteerStats, error) {
	return nil, apperrors.NewNotFoundError("volunteer not found")
}

func (r *stubUserRepository) Batches() [][]int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.batches
}

func TestSessionHandler_OpenSession(t *testing.T) {
	handler := handlers.NewSessionHandler(&stubSessionService{}, &stubUserRepository{})

	t.Run("created", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/sessions", strings.NewReader(`{"request_id":"request-1","volunteer_id":10001}`))
		w := httptest.NewRecorder()
		handler.OpenSession(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("busy volunteer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/sessions", strings.NewReader(`{"request_id":"request-1","volunteer_id":10002}`))
		w := httptest.NewRecorder()
		handler.OpenSession(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestSessionHandler_CloseSession(t *testing.T) {
	handler := handlers.NewSessionHandler(&stubSessionService{closed: make(map[string]bool)}, &stubUserRepository{})

	end := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPut, "/api/sessions/session-1/end", strings.NewReader(body))
		req.SetPathValue("id", "session-1")
		w := httptest.NewRecorder()
		handler.CloseSession(w, req)
		return w
	}

	assert.Equal(t, http.StatusUnprocessableEntity, end(`{"duration":-5}`).Code)
	assert.Equal(t, http.StatusOK, end(`{"duration":600,"rating":5}`).Code)
	assert.Equal(t, http.StatusConflict, end(`{"duration":600,"rating":5}`).Code)
}

func TestSessionHandler_ListSessions_IncludeVolunteer(t *testing.T) {
	users := &stubUserRepository{users: map[int64]*entities.User{
		10001: {ID: 10001, Name: "Anna", Role: entities.UserRoleVolunteer, Rating: 4.8, TotalCalls: 25},
		10002: {ID: 10002, Name: "Oleg", Role: entities.UserRoleVolunteer, Rating: 4.5, TotalCalls: 3},
	}}
	service := &stubSessionService{sessions: []*entities.Session{
		{ID: "session-1", VolunteerID: 10001},
		{ID: "session-2", VolunteerID: 10002},
		{ID: "session-3", VolunteerID: 10001},
		{ID: "session-4", VolunteerID: 10099},
	}}
	handler := handlers.NewSessionHandler(service, users)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions?include=volunteer", nil)
	w := httptest.NewRecorder()
	handler.ListSessions(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var sessions []entities.Session
	require.NoError(t, json.NewDecoder(w.Body).Decode(&sessions))
	require.Len(t, sessions, 4)
	require.NotNil(t, sessions[0].Volunteer)
	assert.Equal(t, "Anna", sessions[0].Volunteer.Name)
	assert.Equal(t, 25, sessions[0].Volunteer.TotalCalls)
	assert.Equal(t, "Oleg", sessions[1].Volunteer.Name)
	assert.Equal(t, "Anna", sessions[2].Volunteer.Name)
	assert.Nil(t, sessions[3].Volunteer)

	var requested []int64
	for _, batch := range users.Batches() {
		requested = append(requested, batch...)
	}
	assert.ElementsMatch(t, []int64{10001, 10002, 10099}, requested)
}

func TestSessionHandler_ListSessions_WithoutInclude(t *testing.T) {
	users := &stubUserRepository{}
	handler := handlers.NewSessionHandler(&stubSessionService{}, users)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/active", nil)
	w := httptest.NewRecorder()
	handler.ListActiveSessions(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
	assert.Empty(t, users.Batches())
}

func TestSessionHandler_GetSession_NotFound(t *testing.T) {
	handler := handlers.NewSessionHandler(&stubSessionService{}, &stubUserRepository{})

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/missing", nil)
	req.SetPathValue("id", "missing")
	w := httptest.NewRecorder()
	handler.GetSession(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
