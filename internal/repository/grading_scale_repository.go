package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-report-cards/internal/models"
)

const gradingScaleColumns = `id, school_id, department, name, status, is_default, ranges`

// GradingScaleRepository reads grading scales configured by schools.
type GradingScaleRepository struct {
	db *sqlx.DB
}

// NewGradingScaleRepository constructs the repository.
func NewGradingScaleRepository(db *sqlx.DB) *GradingScaleRepository {
	return &GradingScaleRepository{db: db}
}

// FindActiveByDepartment returns the active scale scoped to a department.
func (r *GradingScaleRepository) FindActiveByDepartment(ctx context.Context, schoolID, department string) (*models.GradingScale, error) {
	query := fmt.Sprintf(`SELECT %s FROM grading_scales WHERE school_id = $1 AND department = $2 AND status = $3 ORDER BY is_default DESC, id ASC LIMIT 1`, gradingScaleColumns)
	var scale models.GradingScale
	if err := r.db.GetContext(ctx, &scale, query, schoolID, department, models.GradingScaleStatusActive); err != nil {
		return nil, fmt.Errorf("find department grading scale: %w", err)
	}
	return &scale, nil
}

// FindDefault returns the school's default active scale.
func (r *GradingScaleRepository) FindDefault(ctx context.Context, schoolID string) (*models.GradingScale, error) {
	query := fmt.Sprintf(`SELECT %s FROM grading_scales WHERE school_id = $1 AND is_default = TRUE AND status = $2 ORDER BY id ASC LIMIT 1`, gradingScaleColumns)
	var scale models.GradingScale
	if err := r.db.GetContext(ctx, &scale, query, schoolID, models.GradingScaleStatusActive); err != nil {
		return nil, fmt.Errorf("find default grading scale: %w", err)
	}
	return &scale, nil
}
