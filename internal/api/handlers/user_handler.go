package handlers

import (
	"context"
	"net/http"

	"github.com/IlyaKonFetka/max-social-miniapp/internal/application/services"
	"github.com/IlyaKonFetka/max-social-miniapp/internal/domain/entities"
	"github.com/IlyaKonFetka/max-social-miniapp/internal/domain/repositories"
)

// UserService defines the user operations used by the handler.
type UserService interface {
	CreateUser(ctx context.Context, input services.CreateUserInput) (*entities.User, bool, error)
	GetUser(ctx context.Context, id int64) (*entities.User, error)
	UpdateUser(ctx context.Context, id int64, patch entities.UserPatch) (*entities.User, error)
	ListUsers(ctx context.Context, filter repositories.UserFilter) ([]*entities.User, error)
}

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	service UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(service UserService) *UserHandler {
	return &UserHandler{service: service}
}

// CreateUser handles POST /api/users
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var input services.CreateUserInput
	if err := decodeJSON(r, &input); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	user, created, err := h.service.CreateUser(r.Context(), input)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	respondWithJSON(w, status, user)
}

// GetUser handles GET /api/users/{id}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	user, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, user)
}

// UpdateUser handles PUT /api/users/{id}
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	var patch entities.UserPatch
	if err := decodeJSON(r, &patch); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	user, err := h.service.UpdateUser(r.Context(), id, patch)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, user)
}

// ListUsers handles GET /api/users
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := queryPage(r)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	banned, err := queryBoolPtr(r, "banned")
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	users, err := h.service.ListUsers(r.Context(), repositories.UserFilter{
		Role:   entities.UserRole(r.URL.Query().Get("role")),
		Banned: banned,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	if users == nil {
		users = []*entities.User{}
	}

	respondWithJSON(w, http.StatusOK, users)
}
