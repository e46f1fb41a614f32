package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/IlyaKonFetka/max-social-miniapp/internal/domain/entities"
	"github.com/IlyaKonFetka/max-social-miniapp/internal/domain/repositories"
	"github.com/IlyaKonFetka/max-social-miniapp/internal/infrastructure/clients/postgres"
	apperrors "github.com/IlyaKonFetka/max-social-miniapp/pkg/errors"
)

var reportColumns = []interface{}{
	"id", "reporter_id", "request_id", "session_id", "reason", "status",
	"resolution", "created_at", "updated_at", "resolved_at",
}

// ReportAdapter implements the ReportRepository interface
type ReportAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewReportAdapter creates a new report adapter
func NewReportAdapter(client *postgres.Client) repositories.ReportRepository {
	return &ReportAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new report
func (a *ReportAdapter) Create(ctx context.Context, report *entities.Report) error {
	record := goqu.Record{
		"id":          report.ID,
		"reporter_id": report.ReporterID,
		"request_id":  nullStringPtr(report.RequestID),
		"session_id":  nullStringPtr(report.SessionID),
		"reason":      report.Reason,
		"status":      report.Status,
		"resolution":  nullString(report.Resolution),
		"created_at":  report.CreatedAt,
		"updated_at":  report.UpdatedAt,
		"resolved_at": nullTime(report.ResolvedAt),
	}

	query, args, err := a.db.Insert("reports").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create report", err)
	}

	return nil
}

// GetByID retrieves a report by ID
func (a *ReportAdapter) GetByID(ctx context.Context, id string) (*entities.Report, error) {
	query, args, err := a.db.Select(reportColumns...).
		From("reports").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	report, err := scanReport(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("report with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get report", err)
	}

	return report, nil
}

// Update updates the moderation fields of a report
func (a *ReportAdapter) Update(ctx context.Context, report *entities.Report) error {
	query, args, err := a.db.Update("reports").
		Set(goqu.Record{
			"status":      report.Status,
			"resolution":  nullString(report.Resolution),
			"updated_at":  report.UpdatedAt,
			"resolved_at": nullTime(report.ResolvedAt),
		}).
		Where(goqu.Ex{"id": report.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update report", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}

	if rows == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("report with id %s not found", report.ID))
	}

	return nil
}

// List retrieves reports with filters, newest first
func (a *ReportAdapter) List(ctx context.Context, filter repositories.ReportFilter) ([]*entities.Report, error) {
	ds := a.db.Select(reportColumns...).From("reports")

	if filter.ReporterID != nil {
		ds = ds.Where(goqu.Ex{"reporter_id": *filter.ReporterID})
	}
	if filter.Status != "" {
		ds = ds.Where(goqu.Ex{"status": filter.Status})
	}

	ds = paginate(ds.Order(goqu.I("created_at").Desc()), filter.Limit, filter.Offset)

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list reports", err)
	}
	defer rows.Close()

	reports := make([]*entities.Report, 0)
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan report", err)
		}
		reports = append(reports, report)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating reports", err)
	}

	return reports, nil
}

func scanReport(row rowScanner) (*entities.Report, error) {
	report := &entities.Report{}
	var requestID, sessionID, resolution sql.NullString
	var resolvedAt sql.NullTime

	err := row.Scan(
		&report.ID,
		&report.ReporterID,
		&requestID,
		&sessionID,
		&report.Reason,
		&report.Status,
		&resolution,
		&report.CreatedAt,
		&report.UpdatedAt,
		&resolvedAt,
	)
	if err != nil {
		return nil, err
	}

	report.RequestID = stringPtr(requestID)
	report.SessionID = stringPtr(sessionID)
	report.Resolution = resolution.String
	report.ResolvedAt = timePtr(resolvedAt)

	return report, nil
}
