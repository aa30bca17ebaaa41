package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-report-cards/internal/models"
)

// ClassRepository reads classes.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs a new class repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// FindByCode looks a class up by its class code within a school.
func (r *ClassRepository) FindByCode(ctx context.Context, schoolID, code string) (*models.Class, error) {
	const query = `SELECT id, class_code, school_id, name, department FROM classes WHERE class_code = $1 AND school_id = $2 LIMIT 1`
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, code, schoolID); err != nil {
		return nil, fmt.Errorf("find class by code: %w", err)
	}
	return &class, nil
}

// FindByID fetches a class by primary key.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.Class, error) {
	const query = `SELECT id, class_code, school_id, name, department FROM classes WHERE id = $1`
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		return nil, fmt.Errorf("get class: %w", err)
	}
	return &class, nil
}
