package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/IlyaKonFetka/max-social-miniapp/internal/domain/entities"
	"github.com/IlyaKonFetka/max-social-miniapp/internal/domain/repositories"
	"github.com/IlyaKonFetka/max-social-miniapp/internal/infrastructure/observability"
	apperrors "github.com/IlyaKonFetka/max-social-miniapp/pkg/errors"
)

// RequestService handles the lifecycle of deferred help requests
type RequestService struct {
	repo     repositories.RequestRepository
	userRepo repositories.UserRepository
}

// NewRequestService creates a new request service
func NewRequestService(repo repositories.RequestRepository, userRepo repositories.UserRepository) *RequestService {
	return &RequestService{
		repo:     repo,
		userRepo: userRepo,
	}
}

// CreateRequestInput is the payload of a new help request
type CreateRequestInput struct {
	UserID      int64                `json:"user_id"`
	Description string               `json:"description"`
	Type        entities.RequestType `json:"type"`
	Latitude    *float64             `json:"latitude"`
	Longitude   *float64             `json:"longitude"`
	Address     string               `json:"address"`
	District    string               `json:"district"`
	WhenNeeded  *time.Time           `json:"when_needed"`
}

func (in CreateRequestInput) validate() error {
	if in.UserID <= 0 {
		return apperrors.NewValidationError("user_id is required")
	}
	if in.Type != "" && !in.Type.IsValid() {
		return apperrors.NewValidationError(fmt.Sprintf("unknown request type %q", in.Type))
	}
	if strings.TrimSpace(in.Description) == "" && in.Type == "" {
		return apperrors.NewValidationError("description is required")
	}
	if in.Latitude != nil && (*in.Latitude < -90 || *in.Latitude > 90) {
		return apperrors.NewValidationError("latitude must be between -90 and 90")
	}
	if in.Longitude != nil && (*in.Longitude < -180 || *in.Longitude > 180) {
		return apperrors.NewValidationError("longitude must be between -180 and 180")
	}
	return nil
}

// CreateRequest creates a pending request for an existing user
func (s *RequestService) CreateRequest(ctx context.Context, input CreateRequestInput) (*entities.Request, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	if _, err := s.userRepo.GetByID(ctx, input.UserID); err != nil {
		return nil, err
	}

	at := now()
	request := &entities.Request{
		ID:          uuid.New().String(),
		UserID:      input.UserID,
		Description: strings.TrimSpace(input.Description),
		Type:        input.Type,
		Latitude:    input.Latitude,
		Longitude:   input.Longitude,
		Address:     strings.TrimSpace(input.Address),
		District:    strings.TrimSpace(input.District),
		WhenNeeded:  input.WhenNeeded,
		Status:      entities.RequestStatusPending,
		CreatedAt:   at,
		UpdatedAt:   at,
	}

	if err := s.repo.Create(ctx, request); err != nil {
		return nil, err
	}

	observability.LoggerFromContext(ctx).Info().
		Str("request_id", request.ID).
		Int64("user_id", request.UserID).
		Msg("Request created")

	return request, nil
}

// GetRequest retrieves a request by ID
func (s *RequestService) GetRequest(ctx context.Context, id string) (*entities.Request, error) {
	return s.repo.GetByID(ctx, id)
}

// ListRequests lists requests newest first
func (s *RequestService) ListRequests(ctx context.Context, filter repositories.RequestFilter) ([]*entities.Request, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown request status %q", filter.Status))
	}

	limit, offset, err := normalizePage(filter.Limit, filter.Offset)
	if err != nil {
		return nil, err
	}
	filter.Limit, filter.Offset = limit, offset

	return s.repo.List(ctx, filter)
}

// ListPendingRequests lists the pending queue oldest first
func (s *RequestService) ListPendingRequests(ctx context.Context, limit, offset int) ([]*entities.Request, error) {
	limit, offset, err := normalizePage(limit, offset)
	if err != nil {
		return nil, err
	}
	return s.repo.ListPending(ctx, limit, offset)
}

// UpdateRequest applies a partial update. Status only moves forward and a
// finished request accepts nothing but its rating and comment. While a session
// is running the request can be neither finished nor reassigned.
func (s *RequestService) UpdateRequest(ctx context.Context, id string, patch entities.RequestPatch) (*entities.Request, error) {
	if err := validateRating(patch.Rating); err != nil {
		return nil, err
	}
	if patch.Status != nil && !patch.Status.IsValid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown request status %q", *patch.Status))
	}

	request, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// active belongs to the session lifecycle: opening sets it, closing ends it
	if patch.Status != nil && *patch.Status == entities.RequestStatusActive && request.Status != entities.RequestStatusActive {
		return nil, apperrors.NewValidationError("a request becomes active only when a session opens")
	}
	if request.Status == entities.RequestStatusActive &&
		((patch.Status != nil && *patch.Status != request.Status) || patch.VolunteerID != nil) {
		return nil, apperrors.NewConflictError(
			fmt.Sprintf("request %s has an active session, end the session first", id),
		)
	}

	if patch.Status != nil && *patch.Status != request.Status && !request.Status.CanTransitionTo(*patch.Status) {
		return nil, apperrors.NewConflictError(
			fmt.Sprintf("request %s cannot move from %s to %s", id, request.Status, *patch.Status),
		)
	}
	if request.Status.IsTerminal() && (patch.VolunteerID != nil || patch.Description != nil) {
		return nil, apperrors.NewConflictError(fmt.Sprintf("request %s is %s", id, request.Status))
	}

	if patch.VolunteerID != nil {
		if err := s.checkVolunteer(ctx, *patch.VolunteerID); err != nil {
			return nil, err
		}
	}

	from := request.Status
	request.Apply(patch, now())

	if err := s.repo.Update(ctx, request, from); err != nil {
		return nil, err
	}

	if from != request.Status {
		observability.LoggerFromContext(ctx).Info().
			Str("request_id", id).
			Str("from", string(from)).
			Str("to", string(request.Status)).
			Msg("Request status changed")
	}

	return request, nil
}

// AcceptRequest assigns a volunteer to a pending request
func (s *RequestService) AcceptRequest(ctx context.Context, id string, volunteerID int64) (*entities.Request, error) {
	if volunteerID <= 0 {
		return nil, apperrors.NewValidationError("volunteer_id is required")
	}
	if err := s.checkVolunteer(ctx, volunteerID); err != nil {
		return nil, err
	}

	accepted, err := s.repo.Accept(ctx, id, volunteerID)
	if err != nil {
		return nil, err
	}

	request, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !accepted {
		return nil, apperrors.NewConflictError(
			fmt.Sprintf("request %s is %s, only pending requests can be accepted", id, request.Status),
		)
	}

	observability.LoggerFromContext(ctx).Info().
		Str("request_id", id).
		Int64("volunteer_id", volunteerID).
		Msg("Request accepted")

	return request, nil
}

// CompleteRequest marks a request completed with an optional rating and comment
func (s *RequestService) CompleteRequest(ctx context.Context, id string, rating *int, comment string) (*entities.Request, error) {
	status := entities.RequestStatusCompleted
	patch := entities.RequestPatch{Status: &status, Rating: rating}
	if comment != "" {
		patch.Comment = &comment
	}
	return s.UpdateRequest(ctx, id, patch)
}

// CancelRequest cancels a request that has not finished yet
func (s *RequestService) CancelRequest(ctx context.Context, id string) (*entities.Request, error) {
	status := entities.RequestStatusCancelled
	return s.UpdateRequest(ctx, id, entities.RequestPatch{Status: &status})
}

func (s *RequestService) checkVolunteer(ctx context.Context, volunteerID int64) error {
	volunteer, err := s.userRepo.GetByID(ctx, volunteerID)
	if err != nil {
		return err
	}
	if !volunteer.IsVolunteer() {
		return apperrors.NewValidationError(fmt.Sprintf("user %d is not a volunteer", volunteerID))
	}
	if volunteer.Banned {
		return apperrors.NewConflictError(fmt.Sprintf("volunteer %d is banned", volunteerID))
	}
	return nil
}
