package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/IlyaKonFetka/max-social-miniapp/internal/domain/entities"
	"github.com/IlyaKonFetka/max-social-miniapp/internal/domain/providers"
	"github.com/IlyaKonFetka/max-social-miniapp/internal/domain/repositories"
	"github.com/IlyaKonFetka/max-social-miniapp/internal/infrastructure/observability"
	apperrors "github.com/IlyaKonFetka/max-social-miniapp/pkg/errors"
)

// UserService handles user registration and profile changes
type UserService struct {
	repo     repositories.UserRepository
	eventBus providers.EventBus
}

// NewUserService creates a new user service
func NewUserService(repo repositories.UserRepository) *UserService {
	return &UserService{repo: repo}
}

// SetEventBus sets the event bus used to announce volunteer changes
func (s *UserService) SetEventBus(eventBus providers.EventBus) {
	s.eventBus = eventBus
}

// CreateUserInput is the payload of a registration
type CreateUserInput struct {
	ID   int64             `json:"id"`
	Name string            `json:"name"`
	Role entities.UserRole `json:"role"`
}

// CreateUser registers a user. Registration is idempotent: an existing ID
// returns the stored user and created=false.
func (s *UserService) CreateUser(ctx context.Context, input CreateUserInput) (*entities.User, bool, error) {
	if input.ID <= 0 {
		return nil, false, apperrors.NewValidationError("id must be a positive messenger user id")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, false, apperrors.NewValidationError("name is required")
	}
	role := input.Role
	if role == "" {
		role = entities.UserRoleUser
	}
	if !role.IsValid() {
		return nil, false, apperrors.NewValidationError(fmt.Sprintf("unknown role %q", input.Role))
	}

	at := now()
	user := &entities.User{
		ID:           input.ID,
		Name:         name,
		Role:         role,
		IsAvailable:  true,
		CreatedAt:    at,
		UpdatedAt:    at,
		LastActiveAt: at,
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, false, err
	}
	if !created {
		existing, err := s.repo.GetByID(ctx, input.ID)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}

	observability.LoggerFromContext(ctx).Info().
		Int64("user_id", user.ID).
		Str("role", string(user.Role)).
		Msg("User registered")

	if user.IsVolunteer() {
		publishSessionEvent(ctx, s.eventBus, entities.SessionEventVolunteerUpdated, nil, user.ID)
	}

	return user, true, nil
}

// GetUser retrieves a user by ID
func (s *UserService) GetUser(ctx context.Context, id int64) (*entities.User, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateUser applies a partial update to a user
func (s *UserService) UpdateUser(ctx context.Context, id int64, patch entities.UserPatch) (*entities.User, error) {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, apperrors.NewValidationError("name must not be empty")
		}
		patch.Name = &name
	}
	if patch.Role != nil && !patch.Role.IsValid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown role %q", *patch.Role))
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	wasVolunteer := user.IsVolunteer()
	user.Apply(patch)
	at := now()
	user.UpdatedAt = at
	user.LastActiveAt = at

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	if wasVolunteer || user.IsVolunteer() {
		publishSessionEvent(ctx, s.eventBus, entities.SessionEventVolunteerUpdated, nil, user.ID)
	}

	return user, nil
}

// ListUsers lists users oldest first
func (s *UserService) ListUsers(ctx context.Context, filter repositories.UserFilter) ([]*entities.User, error) {
	if filter.Role != "" && !filter.Role.IsValid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown role %q", filter.Role))
	}

	limit, offset, err := normalizePage(filter.Limit, filter.Offset)
	if err != nil {
		return nil, err
	}
	filter.Limit, filter.Offset = limit, offset

	return s.repo.List(ctx, filter)
}
