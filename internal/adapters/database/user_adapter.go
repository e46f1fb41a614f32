package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/IlyaKonFetka/max-social-miniapp/internal/domain/entities"
	"github.com/IlyaKonFetka/max-social-miniapp/internal/domain/repositories"
	"github.com/IlyaKonFetka/max-social-miniapp/internal/infrastructure/clients/postgres"
	apperrors "github.com/IlyaKonFetka/max-social-miniapp/pkg/errors"
)

var userColumns = []interface{}{
	"id", "name", "role", "is_available", "banned", "rating",
	"total_calls", "created_at", "updated_at", "last_active_at",
}

// UserAdapter implements the UserRepository interface
type UserAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewUserAdapter creates a new user adapter
func NewUserAdapter(client *postgres.Client) repositories.UserRepository {
	return &UserAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create inserts the user unless the ID is already taken
func (a *UserAdapter) Create(ctx context.Context, user *entities.User) (bool, error) {
	record := goqu.Record{
		"id":             user.ID,
		"name":           user.Name,
		"role":           user.Role,
		"is_available":   user.IsAvailable,
		"banned":         user.Banned,
		"rating":         user.Rating,
		"total_calls":    user.TotalCalls,
		"created_at":     user.CreatedAt,
		"updated_at":     user.UpdatedAt,
		"last_active_at": user.LastActiveAt,
	}

	query, args, err := a.db.Insert("users").
		Rows(record).
		OnConflict(goqu.DoNothing()).
		ToSQL()
	if err != nil {
		return false, apperrors.NewInternalError("failed to build insert query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return false, apperrors.NewInternalError("failed to create user", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.NewInternalError("failed to get rows affected", err)
	}

	return rows == 1, nil
}

// GetByID retrieves a user by ID
func (a *UserAdapter) GetByID(ctx context.Context, id int64) (*entities.User, error) {
	query, args, err := a.db.Select(userColumns...).
		From("users").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	user, err := scanUser(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("user with id %d not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get user", err)
	}

	return user, nil
}

// GetByIDs retrieves the users among ids that exist
func (a *UserAdapter) GetByIDs(ctx context.Context, ids []int64) ([]*entities.User, error) {
	if len(ids) == 0 {
		return []*entities.User{}, nil
	}

	query, args, err := a.db.Select(userColumns...).
		From("users").
		Where(goqu.Ex{"id": ids}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	return a.queryUsers(ctx, query, args)
}

// Update writes the profile fields of a user. Rating and total_calls are
// owned by session close and never written here. Marking a volunteer available
// is refused while one of their sessions is still active.
func (a *UserAdapter) Update(ctx context.Context, user *entities.User) error {
	record := goqu.Record{
		"name":           user.Name,
		"role":           user.Role,
		"is_available":   user.IsAvailable,
		"banned":         user.Banned,
		"updated_at":     user.UpdatedAt,
		"last_active_at": user.LastActiveAt,
	}

	where := []exp.Expression{goqu.Ex{"id": user.ID}}
	if user.IsAvailable {
		activeSession := a.db.From("sessions").
			Select(goqu.L("1")).
			Where(goqu.Ex{
				"sessions.volunteer_id": goqu.I("users.id"),
				"sessions.status":       entities.SessionStatusActive,
			})
		where = append(where, goqu.L("NOT EXISTS ?", activeSession))
	}

	query, args, err := a.db.Update("users").
		Set(record).
		Where(where...).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update user", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}

	if rows == 0 {
		if user.IsAvailable {
			return apperrors.NewConflictError(
				fmt.Sprintf("user %d has an active session and cannot be marked available", user.ID),
			)
		}
		return apperrors.NewNotFoundError(fmt.Sprintf("user with id %d not found", user.ID))
	}

	return nil
}

// List retrieves users with filters, oldest first
func (a *UserAdapter) List(ctx context.Context, filter repositories.UserFilter) ([]*entities.User, error) {
	ds := a.db.Select(userColumns...).From("users")

	if filter.Role != "" {
		ds = ds.Where(goqu.Ex{"role": filter.Role})
	}
	if filter.Banned != nil {
		ds = ds.Where(goqu.Ex{"banned": *filter.Banned})
	}

	ds = paginate(ds.Order(goqu.I("created_at").Asc(), goqu.I("id").Asc()), filter.Limit, filter.Offset)

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	return a.queryUsers(ctx, query, args)
}

// ListAvailableVolunteers retrieves volunteers that can take a session, best rated first
func (a *UserAdapter) ListAvailableVolunteers(ctx context.Context) ([]*entities.User, error) {
	query, args, err := a.db.Select(userColumns...).
		From("users").
		Where(goqu.Ex{
			"role":         entities.UserRoleVolunteer,
			"is_available": true,
			"banned":       false,
		}).
		Order(goqu.I("rating").Desc(), goqu.I("total_calls").Desc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	return a.queryUsers(ctx, query, args)
}

// GetVolunteerStats aggregates the volunteer row with the requests assigned to it
func (a *UserAdapter) GetVolunteerStats(ctx context.Context, volunteerID int64) (*entities.VolunteerStats, error) {
	query, args, err := a.db.From(goqu.T("users").As("u")).
		LeftJoin(
			goqu.T("requests").As("r"),
			goqu.On(goqu.I("r.volunteer_id").Eq(goqu.I("u.id"))),
		).
		Select(
			goqu.I("u.id"),
			goqu.I("u.rating"),
			goqu.I("u.total_calls"),
			goqu.COUNT(goqu.I("r.id")).As("total_requests"),
			goqu.L("COUNT(r.id) FILTER (WHERE r.status = ?)", entities.RequestStatusCompleted).As("completed_requests"),
		).
		Where(goqu.Ex{
			"u.id":   volunteerID,
			"u.role": entities.UserRoleVolunteer,
		}).
		GroupBy(goqu.I("u.id"), goqu.I("u.rating"), goqu.I("u.total_calls")).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build stats query", err)
	}

	stats := &entities.VolunteerStats{}
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&stats.VolunteerID,
		&stats.AverageRating,
		&stats.TotalCalls,
		&stats.TotalRequests,
		&stats.CompletedRequests,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("volunteer with id %d not found", volunteerID))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get volunteer stats", err)
	}

	return stats, nil
}

func (a *UserAdapter) queryUsers(ctx context.Context, query string, args []interface{}) ([]*entities.User, error) {
	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list users", err)
	}
	defer rows.Close()

	users := make([]*entities.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan user", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating users", err)
	}

	return users, nil
}

func scanUser(row rowScanner) (*entities.User, error) {
	user := &entities.User{}
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Role,
		&user.IsAvailable,
		&user.Banned,
		&user.Rating,
		&user.TotalCalls,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.LastActiveAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}
