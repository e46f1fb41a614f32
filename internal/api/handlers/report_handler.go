package handlers

import (
	"context"
	"net/http"

	"github.com/IlyaKonFetka/max-social-miniapp/internal/application/services"
	"github.com/IlyaKonFetka/max-social-miniapp/internal/domain/entities"
	"github.com/IlyaKonFetka/max-social-miniapp/internal/domain/repositories"
)

// ReportService defines the moderation operations used by the handler.
type ReportService interface {
	CreateReport(ctx context.Context, input services.CreateReportInput) (*entities.Report, error)
	GetReport(ctx context.Context, id string) (*entities.Report, error)
	ListReports(ctx context.Context, filter repositories.ReportFilter) ([]*entities.Report, error)
	UpdateReport(ctx context.Context, id string, patch entities.ReportPatch) (*entities.Report, error)
}

// ReportHandler handles report HTTP requests
type ReportHandler struct {
	service ReportService
}

// NewReportHandler creates a new report handler
func NewReportHandler(service ReportService) *ReportHandler {
	return &ReportHandler{service: service}
}

// CreateReport handles POST /api/reports
func (h *ReportHandler) CreateReport(w http.ResponseWriter, r *http.Request) {
	var input services.CreateReportInput
	if err := decodeJSON(r, &input); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	report, err := h.service.CreateReport(r.Context(), input)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, report)
}

// GetReport handles GET /api/reports/{id}
func (h *ReportHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.GetReport(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, report)
}

// ListReports handles GET /api/reports
func (h *ReportHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := queryPage(r)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	reporterID, err := queryInt64Ptr(r, "reporter_id")
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	reports, err := h.service.ListReports(r.Context(), repositories.ReportFilter{
		ReporterID: reporterID,
		Status:     entities.ReportStatus(r.URL.Query().Get("status")),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	if reports == nil {
		reports = []*entities.Report{}
	}

	respondWithJSON(w, http.StatusOK, reports)
}

// UpdateReport handles PUT /api/reports/{id}
func (h *ReportHandler) UpdateReport(w http.ResponseWriter, r *http.Request) {
	var patch entities.ReportPatch
	if err := decodeJSON(r, &patch); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	report, err := h.service.UpdateReport(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, report)
}
