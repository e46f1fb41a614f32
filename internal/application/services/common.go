package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/IlyaKonFetka/max-social-miniapp/internal/domain/entities"
	"github.com/IlyaKonFetka/max-social-miniapp/internal/domain/providers"
	"github.com/IlyaKonFetka/max-social-miniapp/internal/infrastructure/observability"
	apperrors "github.com/IlyaKonFetka/max-social-miniapp/pkg/errors"
)

// Page bounds applied to every listing
const (
	DefaultListLimit = 100
	MaxListLimit     = 500
)

// normalizePage clamps limit into [1, MaxListLimit] and rejects negative offsets
func normalizePage(limit, offset int) (int, int, error) {
	if limit < 0 {
		return 0, 0, apperrors.NewValidationError("limit must not be negative")
	}
	if offset < 0 {
		return 0, 0, apperrors.NewValidationError("skip must not be negative")
	}
	if limit == 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return limit, offset, nil
}

func validateRating(rating *int) error {
	if rating != nil && (*rating < 1 || *rating > 5) {
		return apperrors.NewValidationError(fmt.Sprintf("rating must be between 1 and 5, got %d", *rating))
	}
	return nil
}

func now() time.Time {
	return time.Now().UTC()
}

// publishSessionEvent publishes on the sessions channel. Delivery is best
// effort: a failure is logged and never fails the operation that committed.
func publishSessionEvent(ctx context.Context, bus providers.EventBus, eventType entities.SessionEventType, session *entities.Session, volunteerID int64) {
	if bus == nil {
		return
	}

	event := &entities.SessionEvent{
		ID:          uuid.New().String(),
		Type:        eventType,
		VolunteerID: volunteerID,
		Timestamp:   now(),
	}
	if session != nil {
		event.SessionID = session.ID
		event.RequestID = session.RequestID
	}

	if err := bus.Publish(ctx, providers.EventChannelSessions, event); err != nil {
		observability.LoggerFromContext(ctx).Warn().
			Err(err).
			Str("event_type", string(eventType)).
			Int64("volunteer_id", volunteerID).
			Msg("Failed to publish session event")
	}
}
