package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-report-cards/internal/models"
)

const reportCardColumns = `id, report_code, school_id, student_id, class_id, exam_id, academic_year_id, term_id,
student_name, class_name, school_name, academic_year_name, term_name,
subjects, raw_score, total_score, percentage, overall_grade, overall_remark, position, total_students, grading_scale_id, grading_scale_name,
teacher_comment, head_teacher_comment, attendance_present, attendance_total, conduct, interest, class_teacher_signature, head_teacher_signature, next_term_begins,
status, version, previous_version_id, promotion_status, generated_at, created_by, created_at, updated_at,
published_at, published_by, published_by_role, unpublished_at, unpublished_by, unpublish_reason`

// ReportCardRepository persists generated report cards and their snapshots.
type ReportCardRepository struct {
	db *sqlx.DB
}

// NewReportCardRepository constructs the repository.
func NewReportCardRepository(db *sqlx.DB) *ReportCardRepository {
	return &ReportCardRepository{db: db}
}

// FindByStudent returns every report of a student within a school.
func (r *ReportCardRepository) FindByStudent(ctx context.Context, schoolID, studentID string) ([]models.ReportCard, error) {
	query := fmt.Sprintf(`SELECT %s FROM report_cards WHERE school_id = $1 AND student_id = $2 ORDER BY created_at ASC`, reportCardColumns)
	var cards []models.ReportCard
	if err := r.db.SelectContext(ctx, &cards, query, schoolID, studentID); err != nil {
		return nil, fmt.Errorf("find report cards by student: %w", err)
	}
	return cards, nil
}

// FindByID fetches a single report card.
func (r *ReportCardRepository) FindByID(ctx context.Context, id string) (*models.ReportCard, error) {
	query := fmt.Sprintf(`SELECT %s FROM report_cards WHERE id = $1`, reportCardColumns)
	var card models.ReportCard
	if err := r.db.GetContext(ctx, &card, query, id); err != nil {
		return nil, fmt.Errorf("get report card: %w", err)
	}
	return &card, nil
}

// FindByIDs fetches the report cards matching the identifiers, in any order.
func (r *ReportCardRepository) FindByIDs(ctx context.Context, ids []string) ([]models.ReportCard, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM report_cards WHERE id = ANY($1)`, reportCardColumns)
	var cards []models.ReportCard
	if err := r.db.SelectContext(ctx, &cards, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("find report cards by ids: %w", err)
	}
	return cards, nil
}

// CodeExists reports whether a report code is already taken.
func (r *ReportCardRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM report_cards WHERE report_code = $1)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, code); err != nil {
		return false, fmt.Errorf("check report code: %w", err)
	}
	return exists, nil
}

// Create inserts a new report card.
func (r *ReportCardRepository) Create(ctx context.Context, card *models.ReportCard) error {
	if card.ID == "" {
		card.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if card.CreatedAt.IsZero() {
		card.CreatedAt = now
	}
	if card.UpdatedAt.IsZero() {
		card.UpdatedAt = now
	}
	if card.GeneratedAt.IsZero() {
		card.GeneratedAt = now
	}
	query := fmt.Sprintf(`INSERT INTO report_cards (%s) VALUES (%s)`, reportCardColumns, namedList(reportCardColumns))
	if _, err := r.db.NamedExecContext(ctx, query, card); err != nil {
		return fmt.Errorf("create report card: %w", err)
	}
	return nil
}

const updateReportCardQuery = `UPDATE report_cards SET
class_id = :class_id, exam_id = :exam_id,
student_name = :student_name, class_name = :class_name, school_name = :school_name, academic_year_name = :academic_year_name, term_name = :term_name,
subjects = :subjects, raw_score = :raw_score, total_score = :total_score, percentage = :percentage, overall_grade = :overall_grade,
overall_remark = :overall_remark, position = :position, total_students = :total_students, grading_scale_id = :grading_scale_id, grading_scale_name = :grading_scale_name,
teacher_comment = :teacher_comment, head_teacher_comment = :head_teacher_comment, attendance_present = :attendance_present, attendance_total = :attendance_total,
conduct = :conduct, interest = :interest, class_teacher_signature = :class_teacher_signature, head_teacher_signature = :head_teacher_signature, next_term_begins = :next_term_begins,
version = :version, previous_version_id = :previous_version_id, generated_at = :generated_at, updated_at = :updated_at
WHERE id = :id`

// Update overwrites the generated content of an existing report card.
func (r *ReportCardRepository) Update(ctx context.Context, card *models.ReportCard) error {
	if _, err := r.db.NamedExecContext(ctx, updateReportCardQuery, card); err != nil {
		return fmt.Errorf("update report card: %w", err)
	}
	return nil
}

// UpdateWithSnapshot stores the pre-update snapshot and applies the update atomically.
func (r *ReportCardRepository) UpdateWithSnapshot(ctx context.Context, card *models.ReportCard, snapshot *models.ReportCardVersion) error {
	if snapshot.ID == "" {
		snapshot.ID = uuid.NewString()
	}
	if snapshot.CreatedAt.IsZero() {
		snapshot.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin report card update: %w", err)
	}
	const insertVersion = `INSERT INTO report_card_versions (id, report_id, version_number, snapshot, created_at)
VALUES (:id, :report_id, :version_number, :snapshot, :created_at)`
	if _, err := tx.NamedExecContext(ctx, insertVersion, snapshot); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("insert report card version: %w", err)
	}
	if _, err := tx.NamedExecContext(ctx, updateReportCardQuery, card); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("update report card: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit report card update: %w", err)
	}
	return nil
}

// Publish moves a draft to published. It reports false when the card was not a draft.
func (r *ReportCardRepository) Publish(ctx context.Context, id, publishedBy, role string, at time.Time) (bool, error) {
	const query = `UPDATE report_cards SET status = $2, published_at = $3, published_by = $4, published_by_role = $5, updated_at = $3
WHERE id = $1 AND status = $6`
	res, err := r.db.ExecContext(ctx, query, id, models.ReportCardStatusPublished, at, publishedBy, role, models.ReportCardStatusDraft)
	if err != nil {
		return false, fmt.Errorf("publish report card: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check publish rows: %w", err)
	}
	return rows > 0, nil
}

// Unpublish returns a published card to draft and records who did it and why.
func (r *ReportCardRepository) Unpublish(ctx context.Context, id, unpublishedBy, reason string, at time.Time) (bool, error) {
	const query = `UPDATE report_cards SET status = $2, published_at = NULL, published_by = NULL, published_by_role = NULL,
unpublished_at = $3, unpublished_by = $4, unpublish_reason = $5, updated_at = $3
WHERE id = $1 AND status = $6`
	res, err := r.db.ExecContext(ctx, query, id, models.ReportCardStatusDraft, at, unpublishedBy, reason, models.ReportCardStatusPublished)
	if err != nil {
		return false, fmt.Errorf("unpublish report card: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check unpublish rows: %w", err)
	}
	return rows > 0, nil
}

// Delete removes a report card and its snapshots.
func (r *ReportCardRepository) Delete(ctx context.Context, id string) error {
	return r.DeleteMany(ctx, []string{id})
}

// DeleteMany removes report cards and their snapshots in one transaction.
func (r *ReportCardRepository) DeleteMany(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin report card delete: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM report_card_versions WHERE report_id = ANY($1)`, pq.Array(ids)); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("delete report card versions: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM report_cards WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("delete report cards: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit report card delete: %w", err)
	}
	return nil
}

// List returns report cards of a school, optionally narrowed by class, term, exam or status.
func (r *ReportCardRepository) List(ctx context.Context, filter models.ReportCardFilter) ([]models.ReportCard, error) {
	conditions := []string{"school_id = $1"}
	args := []interface{}{filter.SchoolID}

	if filter.ClassID != "" {
		args = append(args, filter.ClassID)
		conditions = append(conditions, fmt.Sprintf("class_id = $%d", len(args)))
	}
	if filter.TermID != "" {
		args = append(args, filter.TermID)
		conditions = append(conditions, fmt.Sprintf("term_id = $%d", len(args)))
	}
	if filter.ExamID != "" {
		args = append(args, filter.ExamID)
		conditions = append(conditions, fmt.Sprintf("exam_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	query := fmt.Sprintf(`SELECT %s FROM report_cards WHERE %s ORDER BY position ASC, student_name ASC`, reportCardColumns, strings.Join(conditions, " AND "))
	cards := make([]models.ReportCard, 0)
	if err := r.db.SelectContext(ctx, &cards, query, args...); err != nil {
		return nil, fmt.Errorf("list report cards: %w", err)
	}
	return cards, nil
}

// ListVersions returns stored snapshots of a report, newest first.
func (r *ReportCardRepository) ListVersions(ctx context.Context, reportID string) ([]models.ReportCardVersion, error) {
	const query = `SELECT id, report_id, version_number, snapshot, created_at FROM report_card_versions WHERE report_id = $1 ORDER BY version_number DESC`
	versions := make([]models.ReportCardVersion, 0)
	if err := r.db.SelectContext(ctx, &versions, query, reportID); err != nil {
		return nil, fmt.Errorf("list report card versions: %w", err)
	}
	return versions, nil
}

// namedList turns a column list into sqlx named placeholders.
func namedList(columns string) string {
	fields := strings.Split(columns, ",")
	for i, f := range fields {
		fields[i] = ":" + strings.TrimSpace(f)
	}
	return strings.Join(fields, ", ")
}
