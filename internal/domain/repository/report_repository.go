package repository

import (
	"context"

	"github.com/oksasatya/smartagricare-api/internal/domain/entity"
)

// ReportRepository persists disease reports.
type ReportRepository interface {
	// Save appends the report and returns its new ID.
	Save(ctx context.Context, r *entity.DiseaseReport) (int64, error)
	// ListByUser returns the user's reports, most recent first.
	ListByUser(ctx context.Context, userID int64) ([]entity.DiseaseReport, error)
}
