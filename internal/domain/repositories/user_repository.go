package repositories

import (
	"context"

	"github.com/IlyaKonFetka/max-social-miniapp/internal/domain/entities"
)

// UserRepository defines the interface for user and volunteer data operations
type UserRepository interface {
	// Create inserts the user unless a row with the same ID exists.
	// It reports whether a row was inserted.
	Create(ctx context.Context, user *entities.User) (bool, error)

	// GetByID retrieves a user by external ID; NotFound when absent
	GetByID(ctx context.Context, id int64) (*entities.User, error)

	// GetByIDs retrieves the users that exist among ids
	GetByIDs(ctx context.Context, ids []int64) ([]*entities.User, error)

	// Update updates a user
	Update(ctx context.Context, user *entities.User) error

	// List retrieves users with filters, oldest first
	List(ctx context.Context, filter UserFilter) ([]*entities.User, error)

	// ListAvailableVolunteers retrieves volunteers that are available and not banned
	ListAvailableVolunteers(ctx context.Context) ([]*entities.User, error)

	// GetVolunteerStats aggregates the stats of a volunteer; NotFound unless the
	// user exists and is a volunteer
	GetVolunteerStats(ctx context.Context, volunteerID int64) (*entities.VolunteerStats, error)
}

// UserFilter defines filters for listing users
type UserFilter struct {
	Role   entities.UserRole
	Banned *bool
	Limit  int
	Offset int
}
