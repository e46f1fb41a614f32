package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/IlyaKonFetka/max-social-miniapp/internal/domain/entities"
	"github.com/IlyaKonFetka/max-social-miniapp/internal/domain/repositories"
	"github.com/IlyaKonFetka/max-social-miniapp/internal/infrastructure/observability"
	apperrors "github.com/IlyaKonFetka/max-social-miniapp/pkg/errors"
)

// ReportService handles complaints about requests and sessions
type ReportService struct {
	repo        repositories.ReportRepository
	userRepo    repositories.UserRepository
	requestRepo repositories.RequestRepository
	sessionRepo repositories.SessionRepository
}

// NewReportService creates a new report service
func NewReportService(
	repo repositories.ReportRepository,
	userRepo repositories.UserRepository,
	requestRepo repositories.RequestRepository,
	sessionRepo repositories.SessionRepository,
) *ReportService {
	return &ReportService{
		repo:        repo,
		userRepo:    userRepo,
		requestRepo: requestRepo,
		sessionRepo: sessionRepo,
	}
}

// CreateReportInput is the payload of a new report
type CreateReportInput struct {
	ReporterID int64   `json:"reporter_id"`
	RequestID  *string `json:"request_id"`
	SessionID  *string `json:"session_id"`
	Reason     string  `json:"reason"`
}

// CreateReport files a report. Referenced rows must exist.
func (s *ReportService) CreateReport(ctx context.Context, input CreateReportInput) (*entities.Report, error) {
	if input.ReporterID <= 0 {
		return nil, apperrors.NewValidationError("reporter_id is required")
	}
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, apperrors.NewValidationError("reason is required")
	}

	if _, err := s.userRepo.GetByID(ctx, input.ReporterID); err != nil {
		return nil, err
	}
	if input.RequestID != nil {
		if _, err := s.requestRepo.GetByID(ctx, *input.RequestID); err != nil {
			return nil, err
		}
	}
	if input.SessionID != nil {
		if _, err := s.sessionRepo.GetByID(ctx, *input.SessionID); err != nil {
			return nil, err
		}
	}

	at := now()
	report := &entities.Report{
		ID:         uuid.New().String(),
		ReporterID: input.ReporterID,
		RequestID:  input.RequestID,
		SessionID:  input.SessionID,
		Reason:     reason,
		Status:     entities.ReportStatusPending,
		CreatedAt:  at,
		UpdatedAt:  at,
	}

	if err := s.repo.Create(ctx, report); err != nil {
		return nil, err
	}

	observability.LoggerFromContext(ctx).Info().
		Str("report_id", report.ID).
		Int64("reporter_id", report.ReporterID).
		Msg("Report filed")

	return report, nil
}

// GetReport retrieves a report by ID
func (s *ReportService) GetReport(ctx context.Context, id string) (*entities.Report, error) {
	return s.repo.GetByID(ctx, id)
}

// ListReports lists reports newest first
func (s *ReportService) ListReports(ctx context.Context, filter repositories.ReportFilter) ([]*entities.Report, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown report status %q", filter.Status))
	}

	limit, offset, err := normalizePage(filter.Limit, filter.Offset)
	if err != nil {
		return nil, err
	}
	filter.Limit, filter.Offset = limit, offset

	return s.repo.List(ctx, filter)
}

// UpdateReport moves a report through moderation
func (s *ReportService) UpdateReport(ctx context.Context, id string, patch entities.ReportPatch) (*entities.Report, error) {
	if patch.Status != nil && !patch.Status.IsValid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown report status %q", *patch.Status))
	}

	report, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Status != nil && *patch.Status != report.Status && !report.Status.CanTransitionTo(*patch.Status) {
		return nil, apperrors.NewConflictError(
			fmt.Sprintf("report %s cannot move from %s to %s", id, report.Status, *patch.Status),
		)
	}

	report.Apply(patch, now())

	if err := s.repo.Update(ctx, report); err != nil {
		return nil, err
	}

	return report, nil
}
