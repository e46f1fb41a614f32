package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/IlyaKonFetka/max-social-miniapp/internal/domain/entities"
	"github.com/IlyaKonFetka/max-social-miniapp/internal/domain/providers"
	"github.com/IlyaKonFetka/max-social-miniapp/internal/domain/repositories"
	"github.com/IlyaKonFetka/max-social-miniapp/internal/infrastructure/observability"
	apperrors "github.com/IlyaKonFetka/max-social-miniapp/pkg/errors"
)

// SessionService pairs requests with volunteers in live sessions
type SessionService struct {
	repo        repositories.SessionRepository
	requestRepo repositories.RequestRepository
	userRepo    repositories.UserRepository
	eventBus    providers.EventBus
	metrics     *observability.Metrics
}

// NewSessionService creates a new session service
func NewSessionService(
	repo repositories.SessionRepository,
	requestRepo repositories.RequestRepository,
	userRepo repositories.UserRepository,
) *SessionService {
	return &SessionService{
		repo:        repo,
		requestRepo: requestRepo,
		userRepo:    userRepo,
	}
}

// SetEventBus sets the event bus used to announce session changes
func (s *SessionService) SetEventBus(eventBus providers.EventBus) {
	s.eventBus = eventBus
}

// SetMetrics sets the session counters
func (s *SessionService) SetMetrics(metrics *observability.Metrics) {
	s.metrics = metrics
}

// OpenSessionInput is the payload that starts a live session
type OpenSessionInput struct {
	RequestID   string               `json:"request_id"`
	VolunteerID int64                `json:"volunteer_id"`
	RoomID      string               `json:"room_id"`
	Kind        entities.SessionKind `json:"kind"`
}

// OpenSession starts a session for a pending request, or for an accepted one
// held by the same volunteer. The request becomes active and the volunteer
// unavailable in the same transaction.
func (s *SessionService) OpenSession(ctx context.Context, input OpenSessionInput) (*entities.Session, error) {
	ctx, span := observability.StartSpan(ctx, "SessionService.OpenSession")
	defer span.End()

	if strings.TrimSpace(input.RequestID) == "" {
		return nil, apperrors.NewValidationError("request_id is required")
	}
	if input.VolunteerID <= 0 {
		return nil, apperrors.NewValidationError("volunteer_id is required")
	}
	kind := input.Kind
	if kind == "" {
		kind = entities.SessionKindVideo
	}
	if !kind.IsValid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown session kind %q", input.Kind))
	}

	request, err := s.requestRepo.GetByID(ctx, input.RequestID)
	if err != nil {
		return nil, err
	}
	if request.Status.IsTerminal() || request.Status == entities.RequestStatusActive {
		return nil, apperrors.NewConflictError(fmt.Sprintf("request %s is %s", request.ID, request.Status))
	}
	if request.VolunteerID != nil && *request.VolunteerID != input.VolunteerID {
		return nil, apperrors.NewConflictError(
			fmt.Sprintf("request %s is held by volunteer %d", request.ID, *request.VolunteerID),
		)
	}

	volunteer, err := s.userRepo.GetByID(ctx, input.VolunteerID)
	if err != nil {
		return nil, err
	}
	if !volunteer.CanTakeSession() {
		return nil, apperrors.NewConflictError(
			fmt.Sprintf("user %d cannot take a session: %s", volunteer.ID, unavailableReason(volunteer)),
		)
	}

	roomID := strings.TrimSpace(input.RoomID)
	if roomID == "" {
		roomID = uuid.New().String()
	}

	session := &entities.Session{
		ID:          uuid.New().String(),
		RequestID:   request.ID,
		VolunteerID: volunteer.ID,
		UserID:      request.UserID,
		RoomID:      roomID,
		Kind:        kind,
		Status:      entities.SessionStatusActive,
		StartedAt:   now(),
	}

	if err := s.repo.Open(ctx, session); err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	observability.SetSpanAttributes(span,
		attribute.String("session.id", session.ID),
		attribute.Int64("volunteer.id", session.VolunteerID),
	)
	if s.metrics != nil {
		s.metrics.SessionsOpened.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", string(kind))))
	}

	observability.LoggerFromContext(ctx).Info().
		Str("session_id", session.ID).
		Str("request_id", session.RequestID).
		Int64("volunteer_id", session.VolunteerID).
		Msg("Session opened")

	publishSessionEvent(ctx, s.eventBus, entities.SessionEventOpened, session, session.VolunteerID)

	return session, nil
}

// CloseSession ends an active session, completes its request and folds the
// rating into the volunteer's stats
func (s *SessionService) CloseSession(ctx context.Context, id string, outcome entities.SessionOutcome) (*entities.Session, error) {
	ctx, span := observability.StartSpan(ctx, "SessionService.CloseSession")
	defer span.End()

	if outcome.Duration < 0 {
		return nil, apperrors.NewValidationError("duration must not be negative")
	}
	if err := validateRating(outcome.Rating); err != nil {
		return nil, err
	}

	session, err := s.repo.Close(ctx, id, outcome)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.SessionsClosed.Add(ctx, 1, metric.WithAttributes(attribute.Bool("rated", outcome.Rating != nil)))
	}

	observability.LoggerFromContext(ctx).Info().
		Str("session_id", session.ID).
		Int64("volunteer_id", session.VolunteerID).
		Int("duration", outcome.Duration).
		Msg("Session closed")

	publishSessionEvent(ctx, s.eventBus, entities.SessionEventClosed, session, session.VolunteerID)

	return session, nil
}

// GetSession retrieves a session by ID
func (s *SessionService) GetSession(ctx context.Context, id string) (*entities.Session, error) {
	return s.repo.GetByID(ctx, id)
}

// ListSessions lists sessions newest first
func (s *SessionService) ListSessions(ctx context.Context, filter repositories.SessionFilter) ([]*entities.Session, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown session status %q", filter.Status))
	}

	limit, offset, err := normalizePage(filter.Limit, filter.Offset)
	if err != nil {
		return nil, err
	}
	filter.Limit, filter.Offset = limit, offset

	return s.repo.List(ctx, filter)
}

// ListActiveSessions lists sessions still in progress
func (s *SessionService) ListActiveSessions(ctx context.Context, limit, offset int) ([]*entities.Session, error) {
	return s.ListSessions(ctx, repositories.SessionFilter{
		Status: entities.SessionStatusActive,
		Limit:  limit,
		Offset: offset,
	})
}

func unavailableReason(u *entities.User) string {
	switch {
	case !u.IsVolunteer():
		return "not a volunteer"
	case u.Banned:
		return "banned"
	default:
		return "not available"
	}
}
