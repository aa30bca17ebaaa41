package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-report-cards/internal/models"
)

const studentColumns = `id, student_code, school_id, class_id, full_name, department, status`

// StudentRepository reads student records maintained by the platform.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByCode looks a student up by business identifier within a school.
func (r *StudentRepository) FindByCode(ctx context.Context, schoolID, code string) (*models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students WHERE student_code = $1 AND school_id = $2 LIMIT 1`, studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, code, schoolID); err != nil {
		return nil, fmt.Errorf("find student by code: %w", err)
	}
	return &student, nil
}

// ListActiveByClass returns the students of a class that have not graduated.
func (r *StudentRepository) ListActiveByClass(ctx context.Context, classID string) ([]models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students WHERE class_id = $1 AND status <> $2 ORDER BY full_name ASC, id ASC`, studentColumns)
	students := make([]models.Student, 0)
	if err := r.db.SelectContext(ctx, &students, query, classID, models.StudentStatusGraduated); err != nil {
		return nil, fmt.Errorf("list class students: %w", err)
	}
	return students, nil
}
