package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// ReportCardStatus is the visibility state of a report card.
type ReportCardStatus string

const (
	ReportCardStatusDraft     ReportCardStatus = "draft"
	ReportCardStatusPublished ReportCardStatus = "published"
)

// SubjectSummary is the per-subject line printed on a report card.
type SubjectSummary struct {
	SubjectName string  `json:"subjectName"`
	ClassScore  float64 `json:"classScore"`
	ExamScore   float64 `json:"examScore"`
	TotalScore  float64 `json:"totalScore"`
	MaxMarks    float64 `json:"maxMarks"`
	Percentage  float64 `json:"percentage"`
	Position    int     `json:"position"`
	GradeNumber string  `json:"gradeNumber"`
	Remarks     string  `json:"remarks"`
}

// SubjectSummaries is stored as a JSON array column.
type SubjectSummaries []SubjectSummary

// Value marshals the summaries for persistence.
func (s SubjectSummaries) Value() (driver.Value, error) {
	if s == nil {
		s = SubjectSummaries{}
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal subject summaries: %w", err)
	}
	return data, nil
}

// Scan unmarshals the JSON column.
func (s *SubjectSummaries) Scan(value interface{}) error {
	if value == nil {
		*s = SubjectSummaries{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for SubjectSummaries", value)
	}
	if len(data) == 0 {
		*s = SubjectSummaries{}
		return nil
	}
	if err := json.Unmarshal(data, s); err != nil {
		return fmt.Errorf("unmarshal subject summaries: %w", err)
	}
	return nil
}

// Percentage is an overall percentage. Non-finite values, possible when a
// student's max marks sum to zero, are encoded as JSON null.
type Percentage float64

// MarshalJSON implements json.Marshaler.
func (p Percentage) MarshalJSON() ([]byte, error) {
	v := float64(p)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

// ReportCardKey identifies the single logical report per student and period.
type ReportCardKey struct {
	SchoolID       string
	StudentID      string
	AcademicYearID *string
	TermID         *string
}

// ReportCardComputed holds every field derived from marks. Regeneration overwrites all of them.
type ReportCardComputed struct {
	Subjects         SubjectSummaries `db:"subjects" json:"subjects"`
	RawScore         float64          `db:"raw_score" json:"rawScore"`
	TotalScore       float64          `db:"total_score" json:"totalScore"`
	Percentage       Percentage       `db:"percentage" json:"percentage"`
	OverallGrade     string           `db:"overall_grade" json:"overallGrade"`
	OverallRemark    string           `db:"overall_remark" json:"overallRemark"`
	Position         int              `db:"position" json:"position"`
	TotalStudents    int              `db:"total_students" json:"totalStudents"`
	GradingScaleID   *string          `db:"grading_scale_id" json:"gradingScaleId,omitempty"`
	GradingScaleName *string          `db:"grading_scale_name" json:"gradingScaleName,omitempty"`
}

// ReportCardNarrative holds free-form content supplied by staff.
type ReportCardNarrative struct {
	TeacherComment        *string `db:"teacher_comment" json:"teacherComment,omitempty"`
	HeadTeacherComment    *string `db:"head_teacher_comment" json:"headTeacherComment,omitempty"`
	AttendancePresent     *int    `db:"attendance_present" json:"attendancePresent,omitempty"`
	AttendanceTotal       *int    `db:"attendance_total" json:"attendanceTotal,omitempty"`
	Conduct               *string `db:"conduct" json:"conduct,omitempty"`
	Interest              *string `db:"interest" json:"interest,omitempty"`
	ClassTeacherSignature *string `db:"class_teacher_signature" json:"classTeacherSignature,omitempty"`
	HeadTeacherSignature  *string `db:"head_teacher_signature" json:"headTeacherSignature,omitempty"`
	NextTermBegins        *string `db:"next_term_begins" json:"nextTermBegins,omitempty"`
}

// ReportCardDisplay carries denormalized names for rendering without joins.
type ReportCardDisplay struct {
	StudentName      string  `db:"student_name" json:"studentName"`
	ClassName        string  `db:"class_name" json:"className"`
	SchoolName       *string `db:"school_name" json:"schoolName,omitempty"`
	AcademicYearName *string `db:"academic_year_name" json:"academicYearName,omitempty"`
	TermName         *string `db:"term_name" json:"termName,omitempty"`
}

// ReportCard is the persisted per-student, per-period report.
type ReportCard struct {
	ID             string  `db:"id" json:"id"`
	ReportCode     string  `db:"report_code" json:"reportCode"`
	SchoolID       string  `db:"school_id" json:"schoolId"`
	StudentID      string  `db:"student_id" json:"studentId"`
	ClassID        string  `db:"class_id" json:"classId"`
	ExamID         string  `db:"exam_id" json:"examId"`
	AcademicYearID *string `db:"academic_year_id" json:"academicYearId,omitempty"`
	TermID         *string `db:"term_id" json:"termId,omitempty"`

	ReportCardDisplay
	ReportCardComputed
	ReportCardNarrative

	Status            ReportCardStatus `db:"status" json:"status"`
	Version           int              `db:"version" json:"version"`
	PreviousVersionID *string          `db:"previous_version_id" json:"previousVersionId,omitempty"`
	PromotionStatus   *string          `db:"promotion_status" json:"promotionStatus,omitempty"`
	GeneratedAt       time.Time        `db:"generated_at" json:"generatedAt"`
	CreatedBy         string           `db:"created_by" json:"createdBy"`
	CreatedAt         time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time        `db:"updated_at" json:"updatedAt"`
	PublishedAt       *time.Time       `db:"published_at" json:"publishedAt,omitempty"`
	PublishedBy       *string          `db:"published_by" json:"publishedBy,omitempty"`
	PublishedByRole   *string          `db:"published_by_role" json:"publishedByRole,omitempty"`
	UnpublishedAt     *time.Time       `db:"unpublished_at" json:"unpublishedAt,omitempty"`
	UnpublishedBy     *string          `db:"unpublished_by" json:"unpublishedBy,omitempty"`
	UnpublishReason   *string          `db:"unpublish_reason" json:"unpublishReason,omitempty"`
}

// Key returns the reconciliation key of the report.
func (r *ReportCard) Key() ReportCardKey {
	return ReportCardKey{SchoolID: r.SchoolID, StudentID: r.StudentID, AcademicYearID: r.AcademicYearID, TermID: r.TermID}
}

// ReportCardFilter scopes the list read path.
type ReportCardFilter struct {
	SchoolID string
	ClassID  string
	TermID   string
	ExamID   string
	Status   ReportCardStatus
}

// ReportCardVersion is an immutable snapshot taken before a regeneration overwrote the record.
type ReportCardVersion struct {
	ID            string             `db:"id" json:"id"`
	ReportID      string             `db:"report_id" json:"reportId"`
	VersionNumber int                `db:"version_number" json:"versionNumber"`
	Snapshot      ReportCardSnapshot `db:"snapshot" json:"snapshot"`
	CreatedAt     time.Time          `db:"created_at" json:"createdAt"`
}

// ReportCardSnapshot wraps a full report card stored as JSON.
type ReportCardSnapshot struct {
	ReportCard
}

// Value marshals the snapshot for persistence.
func (s ReportCardSnapshot) Value() (driver.Value, error) {
	data, err := json.Marshal(s.ReportCard)
	if err != nil {
		return nil, fmt.Errorf("marshal report card snapshot: %w", err)
	}
	return data, nil
}

// Scan unmarshals a stored snapshot.
func (s *ReportCardSnapshot) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		s.ReportCard = ReportCard{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for ReportCardSnapshot", value)
	}
	if err := json.Unmarshal(data, &s.ReportCard); err != nil {
		return fmt.Errorf("unmarshal report card snapshot: %w", err)
	}
	return nil
}
