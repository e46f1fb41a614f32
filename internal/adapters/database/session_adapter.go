package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/IlyaKonFetka/max-social-miniapp/internal/domain/entities"
	"github.com/IlyaKonFetka/max-social-miniapp/internal/domain/repositories"
	"github.com/IlyaKonFetka/max-social-miniapp/internal/infrastructure/clients/postgres"
	apperrors "github.com/IlyaKonFetka/max-social-miniapp/pkg/errors"
)

var sessionColumns = []interface{}{
	"id", "request_id", "volunteer_id", "user_id", "room_id", "kind", "status",
	"started_at", "ended_at", "duration", "rating", "feedback",
}

// SessionAdapter implements the SessionRepository interface. Open and Close
// run in a single transaction each so the session, its request and the
// volunteer never disagree.
type SessionAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewSessionAdapter creates a new session adapter
func NewSessionAdapter(client *postgres.Client) repositories.SessionRepository {
	return &SessionAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Open inserts the session, activates the request and takes the volunteer off
// the available list. The request must be pending, or accepted by this volunteer.
func (a *SessionAdapter) Open(ctx context.Context, session *entities.Session) error {
	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	requestQuery, _, err := a.db.Update("requests").
		Set(goqu.Record{
			"status":       entities.RequestStatusActive,
			"volunteer_id": session.VolunteerID,
			"updated_at":   session.StartedAt,
		}).
		Where(
			goqu.Ex{"id": session.RequestID},
			goqu.C("status").In(entities.RequestStatusPending, entities.RequestStatusAccepted),
			goqu.Or(
				goqu.C("volunteer_id").IsNull(),
				goqu.C("volunteer_id").Eq(session.VolunteerID),
			),
		).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build request update query", err)
	}

	if err := execOne(ctx, tx, requestQuery, apperrors.NewConflictError(
		fmt.Sprintf("request %s is not open for volunteer %d", session.RequestID, session.VolunteerID),
	)); err != nil {
		return err
	}

	volunteerQuery, _, err := a.db.Update("users").
		Set(goqu.Record{
			"is_available":   false,
			"updated_at":     session.StartedAt,
			"last_active_at": session.StartedAt,
		}).
		Where(goqu.Ex{
			"id":           session.VolunteerID,
			"role":         entities.UserRoleVolunteer,
			"is_available": true,
			"banned":       false,
		}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build volunteer update query", err)
	}

	if err := execOne(ctx, tx, volunteerQuery, apperrors.NewConflictError(
		fmt.Sprintf("volunteer %d is not available", session.VolunteerID),
	)); err != nil {
		return err
	}

	insertQuery, _, err := a.db.Insert("sessions").Rows(goqu.Record{
		"id":           session.ID,
		"request_id":   session.RequestID,
		"volunteer_id": session.VolunteerID,
		"user_id":      session.UserID,
		"room_id":      session.RoomID,
		"kind":         session.Kind,
		"status":       session.Status,
		"started_at":   session.StartedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build session insert query", err)
	}

	if _, err := tx.ExecContext(ctx, insertQuery); err != nil {
		return apperrors.NewInternalError("failed to create session", err)
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit session open", err)
	}

	return nil
}

// Close completes an active session, its request and records the call on the
// volunteer. A request that is already completed or cancelled is left as is.
func (a *SessionAdapter) Close(ctx context.Context, id string, outcome entities.SessionOutcome) (*entities.Session, error) {
	now := time.Now().UTC()

	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	selectQuery, _, err := a.db.Select(sessionColumns...).
		From("sessions").
		Where(goqu.Ex{"id": id}).
		ForUpdate(exp.Wait).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	session, err := scanSession(tx.QueryRowContext(ctx, selectQuery))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("session with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get session", err)
	}
	if session.Status != entities.SessionStatusActive {
		return nil, apperrors.NewConflictError(fmt.Sprintf("session %s is already completed", id))
	}

	session.Close(outcome, now)

	sessionQuery, _, err := a.db.Update("sessions").
		Set(goqu.Record{
			"status":   session.Status,
			"ended_at": now,
			"duration": nullInt(session.Duration),
			"rating":   nullInt(session.Rating),
			"feedback": nullString(session.Feedback),
		}).
		Where(goqu.Ex{
			"id":     id,
			"status": entities.SessionStatusActive,
		}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build session update query", err)
	}

	if err := execOne(ctx, tx, sessionQuery, apperrors.NewConflictError(
		fmt.Sprintf("session %s is already completed", id),
	)); err != nil {
		return nil, err
	}

	requestQuery, _, err := a.db.Update("requests").
		Set(goqu.Record{
			"status":       entities.RequestStatusCompleted,
			"updated_at":   now,
			"completed_at": now,
		}).
		Where(
			goqu.Ex{"id": session.RequestID},
			goqu.C("status").NotIn(entities.RequestStatusCompleted, entities.RequestStatusCancelled),
		).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build request update query", err)
	}

	// A request that already finished keeps its status; the session still closes
	if _, err := tx.ExecContext(ctx, requestQuery); err != nil {
		return nil, apperrors.NewInternalError("failed to complete request", err)
	}

	volunteerSelect, _, err := a.db.Select(userColumns...).
		From("users").
		Where(goqu.Ex{"id": session.VolunteerID}).
		ForUpdate(exp.Wait).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	volunteer, err := scanUser(tx.QueryRowContext(ctx, volunteerSelect))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("volunteer with id %d not found", session.VolunteerID))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get volunteer", err)
	}

	volunteer.RecordCall(outcome.Rating, now)

	volunteerUpdate, _, err := a.db.Update("users").
		Set(goqu.Record{
			"rating":         volunteer.Rating,
			"total_calls":    volunteer.TotalCalls,
			"is_available":   volunteer.IsAvailable,
			"updated_at":     volunteer.UpdatedAt,
			"last_active_at": volunteer.LastActiveAt,
		}).
		Where(goqu.Ex{"id": volunteer.ID}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build volunteer update query", err)
	}

	if _, err := tx.ExecContext(ctx, volunteerUpdate); err != nil {
		return nil, apperrors.NewInternalError("failed to update volunteer", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.NewInternalError("failed to commit session close", err)
	}

	return session, nil
}

// GetByID retrieves a session by ID
func (a *SessionAdapter) GetByID(ctx context.Context, id string) (*entities.Session, error) {
	query, args, err := a.db.Select(sessionColumns...).
		From("sessions").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	session, err := scanSession(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("session with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get session", err)
	}

	return session, nil
}

// List retrieves sessions with filters, newest first
func (a *SessionAdapter) List(ctx context.Context, filter repositories.SessionFilter) ([]*entities.Session, error) {
	ds := a.db.Select(sessionColumns...).From("sessions")

	if filter.UserID != nil {
		ds = ds.Where(goqu.Ex{"user_id": *filter.UserID})
	}
	if filter.VolunteerID != nil {
		ds = ds.Where(goqu.Ex{"volunteer_id": *filter.VolunteerID})
	}
	if filter.RequestID != "" {
		ds = ds.Where(goqu.Ex{"request_id": filter.RequestID})
	}
	if filter.Status != "" {
		ds = ds.Where(goqu.Ex{"status": filter.Status})
	}

	ds = paginate(ds.Order(goqu.I("started_at").Desc()), filter.Limit, filter.Offset)

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list sessions", err)
	}
	defer rows.Close()

	sessions := make([]*entities.Session, 0)
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan session", err)
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating sessions", err)
	}

	return sessions, nil
}

// execOne runs an update inside tx and returns notMatched when no row was touched
func execOne(ctx context.Context, tx *sql.Tx, query string, notMatched error) error {
	result, err := tx.ExecContext(ctx, query)
	if err != nil {
		return apperrors.NewInternalError("failed to execute update", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}

	if rows == 0 {
		return notMatched
	}
	return nil
}

func scanSession(row rowScanner) (*entities.Session, error) {
	session := &entities.Session{}
	var endedAt sql.NullTime
	var duration, rating sql.NullInt64
	var feedback sql.NullString

	err := row.Scan(
		&session.ID,
		&session.RequestID,
		&session.VolunteerID,
		&session.UserID,
		&session.RoomID,
		&session.Kind,
		&session.Status,
		&session.StartedAt,
		&endedAt,
		&duration,
		&rating,
		&feedback,
	)
	if err != nil {
		return nil, err
	}

	session.EndedAt = timePtr(endedAt)
	session.Duration = intPtr(duration)
	session.Rating = intPtr(rating)
	session.Feedback = feedback.String

	return session, nil
}
