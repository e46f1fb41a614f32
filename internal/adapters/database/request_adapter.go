package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/IlyaKonFetka/max-social-miniapp/internal/domain/entities"
	"github.com/IlyaKonFetka/max-social-miniapp/internal/domain/repositories"
	"github.com/IlyaKonFetka/max-social-miniapp/internal/infrastructure/clients/postgres"
	apperrors "github.com/IlyaKonFetka/max-social-miniapp/pkg/errors"
)

var requestColumns = []interface{}{
	"id", "user_id", "volunteer_id", "description", "type",
	"latitude", "longitude", "address", "district", "when_needed",
	"status", "rating", "comment", "created_at", "updated_at", "completed_at",
}

// RequestAdapter implements the RequestRepository interface
type RequestAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewRequestAdapter creates a new request adapter
func NewRequestAdapter(client *postgres.Client) repositories.RequestRepository {
	return &RequestAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new request
func (a *RequestAdapter) Create(ctx context.Context, request *entities.Request) error {
	record := goqu.Record{
		"id":           request.ID,
		"user_id":      request.UserID,
		"volunteer_id": nullInt64(request.VolunteerID),
		"description":  request.Description,
		"type":         nullString(string(request.Type)),
		"latitude":     nullFloat64(request.Latitude),
		"longitude":    nullFloat64(request.Longitude),
		"address":      nullString(request.Address),
		"district":     nullString(request.District),
		"when_needed":  nullTime(request.WhenNeeded),
		"status":       request.Status,
		"rating":       nullInt(request.Rating),
		"comment":      nullString(request.Comment),
		"created_at":   request.CreatedAt,
		"updated_at":   request.UpdatedAt,
		"completed_at": nullTime(request.CompletedAt),
	}

	query, args, err := a.db.Insert("requests").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create request", err)
	}

	return nil
}

// GetByID retrieves a request by ID
func (a *RequestAdapter) GetByID(ctx context.Context, id string) (*entities.Request, error) {
	query, args, err := a.db.Select(requestColumns...).
		From("requests").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	request, err := scanRequest(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("request with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get request", err)
	}

	return request, nil
}

// Update writes every mutable field of the request, provided the stored status
// is still expected
func (a *RequestAdapter) Update(ctx context.Context, request *entities.Request, expected entities.RequestStatus) error {
	record := goqu.Record{
		"volunteer_id": nullInt64(request.VolunteerID),
		"description":  request.Description,
		"status":       request.Status,
		"rating":       nullInt(request.Rating),
		"comment":      nullString(request.Comment),
		"updated_at":   request.UpdatedAt,
		"completed_at": nullTime(request.CompletedAt),
	}

	query, args, err := a.db.Update("requests").
		Set(record).
		Where(goqu.Ex{
			"id":     request.ID,
			"status": expected,
		}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update request", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}

	if rows == 0 {
		return apperrors.NewConflictError(
			fmt.Sprintf("request %s is no longer %s", request.ID, expected),
		)
	}

	return nil
}

// Accept assigns the volunteer while the request is still pending
func (a *RequestAdapter) Accept(ctx context.Context, id string, volunteerID int64) (bool, error) {
	query, args, err := a.db.Update("requests").
		Set(goqu.Record{
			"volunteer_id": volunteerID,
			"status":       entities.RequestStatusAccepted,
			"updated_at":   time.Now().UTC(),
		}).
		Where(goqu.Ex{
			"id":     id,
			"status": entities.RequestStatusPending,
		}).
		ToSQL()
	if err != nil {
		return false, apperrors.NewInternalError("failed to build accept query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return false, apperrors.NewInternalError("failed to accept request", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.NewInternalError("failed to get rows affected", err)
	}

	return rows == 1, nil
}

// List retrieves requests with filters, newest first
func (a *RequestAdapter) List(ctx context.Context, filter repositories.RequestFilter) ([]*entities.Request, error) {
	ds := a.db.Select(requestColumns...).From("requests")

	if filter.UserID != nil {
		ds = ds.Where(goqu.Ex{"user_id": *filter.UserID})
	}
	if filter.VolunteerID != nil {
		ds = ds.Where(goqu.Ex{"volunteer_id": *filter.VolunteerID})
	}
	if filter.Status != "" {
		ds = ds.Where(goqu.Ex{"status": filter.Status})
	}

	ds = paginate(ds.Order(goqu.I("created_at").Desc()), filter.Limit, filter.Offset)

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	return a.queryRequests(ctx, query, args)
}

// ListPending retrieves the pending queue, oldest first
func (a *RequestAdapter) ListPending(ctx context.Context, limit, offset int) ([]*entities.Request, error) {
	ds := a.db.Select(requestColumns...).
		From("requests").
		Where(goqu.Ex{"status": entities.RequestStatusPending}).
		Order(goqu.I("created_at").Asc())

	query, args, err := paginate(ds, limit, offset).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	return a.queryRequests(ctx, query, args)
}

func (a *RequestAdapter) queryRequests(ctx context.Context, query string, args []interface{}) ([]*entities.Request, error) {
	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list requests", err)
	}
	defer rows.Close()

	requests := make([]*entities.Request, 0)
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan request", err)
		}
		requests = append(requests, request)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating requests", err)
	}

	return requests, nil
}

func scanRequest(row rowScanner) (*entities.Request, error) {
	request := &entities.Request{}
	var volunteerID, rating sql.NullInt64
	var requestType, address, district, comment sql.NullString
	var latitude, longitude sql.NullFloat64
	var whenNeeded, completedAt sql.NullTime

	err := row.Scan(
		&request.ID,
		&request.UserID,
		&volunteerID,
		&request.Description,
		&requestType,
		&latitude,
		&longitude,
		&address,
		&district,
		&whenNeeded,
		&request.Status,
		&rating,
		&comment,
		&request.CreatedAt,
		&request.UpdatedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	request.VolunteerID = int64Ptr(volunteerID)
	request.Type = entities.RequestType(requestType.String)
	request.Latitude = float64Ptr(latitude)
	request.Longitude = float64Ptr(longitude)
	request.Address = address.String
	request.District = district.String
	request.WhenNeeded = timePtr(whenNeeded)
	request.Rating = intPtr(rating)
	request.Comment = comment.String
	request.CompletedAt = timePtr(completedAt)

	return request, nil
}
