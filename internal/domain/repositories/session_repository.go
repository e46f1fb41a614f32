package repositories

import (
	"context"

	"github.com/IlyaKonFetka/max-social-miniapp/internal/domain/entities"
)

// SessionRepository defines the interface for live session data operations.
// Open and Close touch the session, its request and the volunteer in one
// transaction.
type SessionRepository interface {
	// Open inserts an active session, marks its request active and the
	// volunteer unavailable
	Open(ctx context.Context, session *entities.Session) error

	// Close completes an active session, completes its request and records the
	// call on the volunteer. Conflict when the session is not active, NotFound
	// when it does not exist.
	Close(ctx context.Context, id string, outcome entities.SessionOutcome) (*entities.Session, error)

	// GetByID retrieves a session by ID; NotFound when absent
	GetByID(ctx context.Context, id string) (*entities.Session, error)

	// List retrieves sessions with filters, newest first
	List(ctx context.Context, filter SessionFilter) ([]*entities.Session, error)
}

// SessionFilter defines filters for listing sessions
type SessionFilter struct {
	UserID      *int64
	VolunteerID *int64
	RequestID   string
	Status      entities.SessionStatus
	Limit       int
	Offset      int
}
