package repositories

import (
	"context"

	"github.com/IlyaKonFetka/max-social-miniapp/internal/domain/entities"
)

// ReportRepository defines the interface for report operations
type ReportRepository interface {
	Create(ctx context.Context, report *entities.Report) error
	GetByID(ctx context.Context, id string) (*entities.Report, error)
	Update(ctx context.Context, report *entities.Report) error
	List(ctx context.Context, filter ReportFilter) ([]*entities.Report, error)
}

// ReportFilter defines filters for listing reports
type ReportFilter struct {
	ReporterID *int64
	Status     entities.ReportStatus
	Limit      int
	Offset     int
}
