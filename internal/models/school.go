package models

// StudentStatusGraduated students are skipped by class-wide generation.
const StudentStatusGraduated = "graduated"

// Student is a learner record owned by the platform.
type Student struct {
	ID          string  `db:"id" json:"id"`
	StudentCode string  `db:"student_code" json:"studentCode"`
	SchoolID    string  `db:"school_id" json:"schoolId"`
	ClassID     string  `db:"class_id" json:"classId"`
	FullName    string  `db:"full_name" json:"fullName"`
	Department  *string `db:"department" json:"department,omitempty"`
	Status      string  `db:"status" json:"status"`
}

// Class is a class/section looked up by its business code.
type Class struct {
	ID         string  `db:"id" json:"id"`
	ClassCode  string  `db:"class_code" json:"classCode"`
	SchoolID   string  `db:"school_id" json:"schoolId"`
	Name       string  `db:"name" json:"name"`
	Department *string `db:"department" json:"department,omitempty"`
}

// Exam scopes a set of subject marks for a class.
type Exam struct {
	ID             string  `db:"id" json:"id"`
	SchoolID       string  `db:"school_id" json:"schoolId"`
	Name           string  `db:"name" json:"name"`
	AcademicYearID *string `db:"academic_year_id" json:"academicYearId,omitempty"`
	TermID         *string `db:"term_id" json:"termId,omitempty"`
}

// ReportDisplayNames are looked up once per batch and copied onto every report.
type ReportDisplayNames struct {
	SchoolName       *string `db:"school_name"`
	AcademicYearName *string `db:"academic_year_name"`
	TermName         *string `db:"term_name"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
