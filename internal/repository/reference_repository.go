package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-report-cards/internal/models"
)

// ReferenceRepository resolves display names copied onto report cards.
type ReferenceRepository struct {
	db *sqlx.DB
}

// NewReferenceRepository constructs the repository.
func NewReferenceRepository(db *sqlx.DB) *ReferenceRepository {
	return &ReferenceRepository{db: db}
}

// DisplayNames looks up school, academic year and term names. Missing rows yield nil names.
func (r *ReferenceRepository) DisplayNames(ctx context.Context, schoolID string, academicYearID, termID *string) (models.ReportDisplayNames, error) {
	const query = `SELECT
(SELECT name FROM schools WHERE id = $1) AS school_name,
(SELECT name FROM academic_years WHERE id = $2) AS academic_year_name,
(SELECT name FROM terms WHERE id = $3) AS term_name`
	var names models.ReportDisplayNames
	if err := r.db.GetContext(ctx, &names, query, schoolID, academicYearID, termID); err != nil {
		return models.ReportDisplayNames{}, fmt.Errorf("lookup display names: %w", err)
	}
	return names, nil
}
