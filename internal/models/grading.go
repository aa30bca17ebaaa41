package models

// GradingScaleStatusActive marks a scale as usable for evaluation.
const GradingScaleStatusActive = "active"

// GradingScale maps percentage ranges to grades for a school or department.
// Ranges is kept as the raw stored JSON; parsing happens in the grading package.
type GradingScale struct {
	ID         string  `db:"id" json:"id"`
	SchoolID   string  `db:"school_id" json:"schoolId"`
	Department *string `db:"department" json:"department,omitempty"`
	Name       string  `db:"name" json:"name"`
	Status     string  `db:"status" json:"status"`
	IsDefault  bool    `db:"is_default" json:"isDefault"`
	Ranges     string  `db:"ranges" json:"ranges"`
}

// SubjectMark is one subject result for a student in an exam, maintained upstream.
type SubjectMark struct {
	ID          string  `db:"id" json:"id"`
	ExamID      string  `db:"exam_id" json:"examId"`
	StudentID   string  `db:"student_id" json:"studentId"`
	ClassID     string  `db:"class_id" json:"classId"`
	SubjectName string  `db:"subject_name" json:"subjectName"`
	ClassScore  float64 `db:"class_score" json:"classScore"`
	ExamScore   float64 `db:"exam_score" json:"examScore"`
	TotalScore  float64 `db:"total_score" json:"totalScore"`
	MaxMarks    float64 `db:"max_marks" json:"maxMarks"`
	Percentage  float64 `db:"percentage" json:"percentage"`
	Position    *int    `db:"position" json:"position,omitempty"`
	GradeNumber *string `db:"grade_number" json:"gradeNumber,omitempty"`
	Remarks     *string `db:"remarks" json:"remarks,omitempty"`
}
