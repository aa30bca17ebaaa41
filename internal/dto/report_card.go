package dto

import "github.com/noah-isme/sma-report-cards/internal/models"

// NarrativeFields are the staff-authored parts of a report card.
type NarrativeFields struct {
	TeacherComment        *string `json:"teacherComment,omitempty" validate:"omitempty,max=2000"`
	HeadTeacherComment    *string `json:"headTeacherComment,omitempty" validate:"omitempty,max=2000"`
	AttendancePresent     *int    `json:"attendancePresent,omitempty" validate:"omitempty,min=0"`
	AttendanceTotal       *int    `json:"attendanceTotal,omitempty" validate:"omitempty,min=0"`
	Conduct               *string `json:"conduct,omitempty" validate:"omitempty,max=255"`
	Interest              *string `json:"interest,omitempty" validate:"omitempty,max=255"`
	ClassTeacherSignature *string `json:"classTeacherSignature,omitempty"`
	HeadTeacherSignature  *string `json:"headTeacherSignature,omitempty"`
	NextTermBegins        *string `json:"nextTermBegins,omitempty"`
}

// ToModel copies the narrative onto the persisted shape.
func (n NarrativeFields) ToModel() models.ReportCardNarrative {
	return models.ReportCardNarrative{
		TeacherComment:        n.TeacherComment,
		HeadTeacherComment:    n.HeadTeacherComment,
		AttendancePresent:     n.AttendancePresent,
		AttendanceTotal:       n.AttendanceTotal,
		Conduct:               n.Conduct,
		Interest:              n.Interest,
		ClassTeacherSignature: n.ClassTeacherSignature,
		HeadTeacherSignature:  n.HeadTeacherSignature,
		NextTermBegins:        n.NextTermBegins,
	}
}

// GenerateReportCardRequest captures POST /report-cards/generate.
// StudentID is the student's business code and ClassID the class code.
type GenerateReportCardRequest struct {
	SchoolID       string  `json:"schoolId" validate:"required"`
	StudentID      string  `json:"studentId" validate:"required"`
	ClassID        string  `json:"classId" validate:"required"`
	ExamID         string  `json:"examId" validate:"required"`
	AcademicYearID *string `json:"academicYearId,omitempty"`
	TermID         *string `json:"termId,omitempty"`
	NarrativeFields
}

// GenerateClassReportCardsRequest captures POST /report-cards/generate/class.
// The narrative, when given, is applied to every student of the class.
type GenerateClassReportCardsRequest struct {
	ExamID  string `json:"examId" validate:"required"`
	ClassID string `json:"classId" validate:"required"`
	NarrativeFields
}

// BatchGenerateResult reports a class generation that produced at least one card.
type BatchGenerateResult struct {
	Success   bool     `json:"success"`
	Count     int      `json:"count"`
	ReportIDs []string `json:"reportIds"`
	Errors    []string `json:"errors"`
}

// PublishReportCardRequest captures POST /report-cards/:id/publish.
type PublishReportCardRequest struct {
	SchoolID string `json:"schoolId" validate:"required"`
}

// UnpublishReportCardRequest captures POST /report-cards/:id/unpublish.
type UnpublishReportCardRequest struct {
	SchoolID string `json:"schoolId" validate:"required"`
	Reason   string `json:"reason" validate:"required,max=500"`
}

// DeleteReportCardRequest carries the school for DELETE /report-cards/:id.
type DeleteReportCardRequest struct {
	SchoolID string `json:"schoolId" form:"schoolId" validate:"required"`
}

// BulkDeleteReportCardsRequest captures POST /report-cards/bulk-delete.
type BulkDeleteReportCardsRequest struct {
	SchoolID  string   `json:"schoolId" validate:"required"`
	ReportIDs []string `json:"reportIds" validate:"required,min=1,max=500,dive,required"`
}

// BulkDeleteResult reports how many cards were removed.
type BulkDeleteResult struct {
	Deleted int `json:"deleted"`
}

// ListReportCardsQuery binds GET /report-cards query parameters.
type ListReportCardsQuery struct {
	SchoolID string `form:"schoolId" validate:"required"`
	ClassID  string `form:"classId"`
	TermID   string `form:"termId"`
}

// ReportCardExportRequest captures POST /report-cards/exports.
type ReportCardExportRequest struct {
	SchoolID string              `json:"schoolId" validate:"required"`
	ClassID  string              `json:"classId" validate:"required"`
	ExamID   *string             `json:"examId,omitempty"`
	TermID   *string             `json:"termId,omitempty"`
	Format   models.ExportFormat `json:"format" validate:"required,oneof=csv pdf"`
}

// ExportJobResponse is returned after enqueueing an export.
type ExportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ExportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ExportStatusResponse exposes export progress.
type ExportStatusResponse struct {
	ID        string              `json:"id"`
	Status    models.ExportStatus `json:"status"`
	Progress  int                 `json:"progress"`
	ResultURL *string             `json:"resultUrl,omitempty"`
	Error     *string             `json:"error,omitempty"`
}
