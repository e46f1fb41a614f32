package repositories

import (
	"context"

	"github.com/IlyaKonFetka/max-social-miniapp/internal/domain/entities"
)

// RequestRepository defines the interface for help request data operations
type RequestRepository interface {
	// Create creates a new request
	Create(ctx context.Context, request *entities.Request) error

	// GetByID retrieves a request by ID; NotFound when absent
	GetByID(ctx context.Context, id string) (*entities.Request, error)

	// Update writes every mutable field of the request while its stored status
	// still equals expected; Conflict otherwise
	Update(ctx context.Context, request *entities.Request, expected entities.RequestStatus) error

	// Accept assigns the volunteer and moves the request to accepted, but only
	// while it is still pending. It reports whether the row changed.
	Accept(ctx context.Context, id string, volunteerID int64) (bool, error)

	// List retrieves requests with filters, newest first
	List(ctx context.Context, filter RequestFilter) ([]*entities.Request, error)

	// ListPending retrieves pending requests, oldest first
	ListPending(ctx context.Context, limit, offset int) ([]*entities.Request, error)
}

// RequestFilter defines filters for listing requests
type RequestFilter struct {
	UserID      *int64
	VolunteerID *int64
	Status      entities.RequestStatus
	Limit       int
	Offset      int
}
