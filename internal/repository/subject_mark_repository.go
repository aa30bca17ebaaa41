package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-report-cards/internal/models"
)

const subjectMarkColumns = `id, exam_id, student_id, class_id, subject_name, class_score, exam_score, total_score, max_marks, percentage, position, grade_number, remarks`

// SubjectMarkRepository reads subject marks entered upstream.
type SubjectMarkRepository struct {
	db *sqlx.DB
}

// NewSubjectMarkRepository constructs the repository.
func NewSubjectMarkRepository(db *sqlx.DB) *SubjectMarkRepository {
	return &SubjectMarkRepository{db: db}
}

// ListByStudent returns one student's marks for an exam.
func (r *SubjectMarkRepository) ListByStudent(ctx context.Context, examID, studentID string) ([]models.SubjectMark, error) {
	query := fmt.Sprintf(`SELECT %s FROM subject_marks WHERE exam_id = $1 AND student_id = $2 ORDER BY created_at ASC, id ASC`, subjectMarkColumns)
	marks := make([]models.SubjectMark, 0)
	if err := r.db.SelectContext(ctx, &marks, query, examID, studentID); err != nil {
		return nil, fmt.Errorf("list student marks: %w", err)
	}
	return marks, nil
}

// ListByClass returns every mark of a class for an exam in entry order,
// which fixes the tie-break order of the class ranking.
func (r *SubjectMarkRepository) ListByClass(ctx context.Context, examID, classID string) ([]models.SubjectMark, error) {
	query := fmt.Sprintf(`SELECT %s FROM subject_marks WHERE exam_id = $1 AND class_id = $2 ORDER BY created_at ASC, id ASC`, subjectMarkColumns)
	marks := make([]models.SubjectMark, 0)
	if err := r.db.SelectContext(ctx, &marks, query, examID, classID); err != nil {
		return nil, fmt.Errorf("list class marks: %w", err)
	}
	return marks, nil
}
