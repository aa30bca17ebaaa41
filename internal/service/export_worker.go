package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-report-cards/internal/models"
	"github.com/noah-isme/sma-report-cards/internal/repository"
	"github.com/noah-isme/sma-report-cards/pkg/export"
	"github.com/noah-isme/sma-report-cards/pkg/jobs"
)

type reportCardLister interface {
	List(ctx context.Context, filter models.ReportCardFilter) ([]models.ReportCard, error)
}

type csvRenderer interface {
	Render(cards []export.Card) ([]byte, error)
}

type pdfRenderer interface {
	Render(cards []export.Card, title string) ([]byte, error)
}

// ExportWorker renders queued export jobs into files.
type ExportWorker struct {
	repo    exportJobStore
	reports reportCardLister
	files   exportFileStore
	signer  downloadSigner
	csv     csvRenderer
	pdf     pdfRenderer
	metrics *MetricsService
	logger  *zap.Logger
	cfg     ExportConfig
	now     func() time.Time
}

// NewExportWorker constructs a worker. Nil renderers default to the pkg/export ones.
func NewExportWorker(repo exportJobStore, reports reportCardLister, files exportFileStore, signer downloadSigner, csv csvRenderer, pdf pdfRenderer, metrics *MetricsService, logger *zap.Logger, cfg ExportConfig) *ExportWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportWorker{
		repo:    repo,
		reports: reports,
		files:   files,
		signer:  signer,
		csv:     csv,
		pdf:     pdf,
		metrics: metrics,
		logger:  logger,
		cfg:     cfg.withDefaults(),
		now:     time.Now,
	}
}

// Handle processes one queue job. A returned error asks the queue to retry.
func (w *ExportWorker) Handle(ctx context.Context, job jobs.Job) error {
	record, err := w.repo.GetByID(ctx, job.ID)
	if err != nil {
		return err
	}
	if record.Status == models.ExportStatusFinished || record.Status == models.ExportStatusFailed {
		return nil
	}
	if err := w.setProgress(ctx, job.ID, models.ExportStatusProcessing, 10, nil); err != nil {
		return err
	}

	url, err := w.render(ctx, record)
	if errors.Is(err, export.ErrNoCards) {
		w.Fail(job, err)
		return nil
	}
	if err != nil {
		msg := err.Error()
		if updateErr := w.setProgress(ctx, job.ID, models.ExportStatusQueued, 0, &msg); updateErr != nil {
			w.logger.Sugar().Warnw("failed to requeue export", "job_id", job.ID, "error", updateErr)
		}
		return err
	}

	finished := models.ExportStatusFinished
	progress := 100
	noError := ""
	now := w.now().UTC()
	if err := w.repo.Update(ctx, job.ID, repository.UpdateExportParams{
		Status:       &finished,
		Progress:     &progress,
		ResultURL:    &url,
		ErrorMessage: &noError,
		FinishedAt:   &now,
	}); err != nil {
		w.logger.Sugar().Warnw("failed to mark export finished", "job_id", job.ID, "error", err)
		return err
	}
	w.metrics.RecordExport(string(record.Format), string(models.ExportStatusFinished))
	return nil
}

// Fail marks a job FAILED. It serves as the queue's exhaustion hook.
func (w *ExportWorker) Fail(job jobs.Job, cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	failed := models.ExportStatusFailed
	progress := 100
	msg := cause.Error()
	now := w.now().UTC()
	if err := w.repo.Update(ctx, job.ID, repository.UpdateExportParams{
		Status:       &failed,
		Progress:     &progress,
		ErrorMessage: &msg,
		FinishedAt:   &now,
	}); err != nil {
		w.logger.Sugar().Warnw("failed to mark export failed", "job_id", job.ID, "error", err)
	}
	format := ""
	if record, err := w.repo.GetByID(ctx, job.ID); err == nil {
		format = string(record.Format)
	}
	w.metrics.RecordExport(format, string(models.ExportStatusFailed))
}

func (w *ExportWorker) setProgress(ctx context.Context, id string, status models.ExportStatus, progress int, msg *string) error {
	return w.repo.Update(ctx, id, repository.UpdateExportParams{Status: &status, Progress: &progress, ErrorMessage: msg})
}

// render builds the file for a job, stores it and returns the signed download URL.
func (w *ExportWorker) render(ctx context.Context, record *models.ReportExport) (string, error) {
	filter := models.ReportCardFilter{SchoolID: record.SchoolID, ClassID: record.ClassID}
	if record.TermID != nil {
		filter.TermID = *record.TermID
	}
	if record.ExamID != nil {
		filter.ExamID = *record.ExamID
	}
	reports, err := w.reports.List(ctx, filter)
	if err != nil {
		return "", fmt.Errorf("load report cards: %w", err)
	}
	cards := make([]export.Card, 0, len(reports))
	for i := range reports {
		cards = append(cards, toExportCard(&reports[i]))
	}

	var payload []byte
	switch record.Format {
	case models.ExportFormatCSV:
		payload, err = w.csv.Render(cards)
	case models.ExportFormatPDF:
		payload, err = w.pdf.Render(cards, exportTitle(reports))
	default:
		err = fmt.Errorf("unsupported format %s", record.Format)
	}
	if err != nil {
		return "", err
	}
	if err := w.setProgress(ctx, record.ID, models.ExportStatusProcessing, 70, nil); err != nil {
		w.logger.Sugar().Warnw("failed to update export progress", "job_id", record.ID, "error", err)
	}

	name := fmt.Sprintf("%s/report-cards_%s_%s.%s",
		sanitizeFilename(record.SchoolID), sanitizeFilename(record.ClassID), w.now().UTC().Format("20060102_150405"), record.Format)
	path, err := w.files.Save(name, payload)
	if err != nil {
		return "", err
	}
	token, _, err := w.signer.Generate(record.ID, path)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/export/%s", strings.TrimRight(w.cfg.APIPrefix, "/"), token), nil
}

func exportTitle(reports []models.ReportCard) string {
	if len(reports) == 0 {
		return "Report Card"
	}
	parts := []string{"Report Card"}
	if r := reports[0]; r.AcademicYearName != nil && *r.AcademicYearName != "" {
		parts = append(parts, *r.AcademicYearName)
	}
	if r := reports[0]; r.TermName != nil && *r.TermName != "" {
		parts = append(parts, *r.TermName)
	}
	return strings.Join(parts, " - ")
}

func toExportCard(r *models.ReportCard) export.Card {
	card := export.Card{
		ReportCode:         r.ReportCode,
		StudentName:        r.StudentName,
		ClassName:          r.ClassName,
		SchoolName:         deref(r.SchoolName),
		AcademicYear:       deref(r.AcademicYearName),
		Term:               deref(r.TermName),
		TotalScore:         r.TotalScore,
		RawScore:           r.RawScore,
		Percentage:         float64(r.Percentage),
		Grade:              r.OverallGrade,
		Remark:             r.OverallRemark,
		Position:           r.Position,
		TotalStudents:      r.TotalStudents,
		Conduct:            deref(r.Conduct),
		Interest:           deref(r.Interest),
		TeacherComment:     deref(r.TeacherComment),
		HeadTeacherComment: deref(r.HeadTeacherComment),
		NextTermBegins:     deref(r.NextTermBegins),
		Status:             string(r.Status),
	}
	if r.AttendancePresent != nil && r.AttendanceTotal != nil {
		card.Attendance = fmt.Sprintf("%d / %d", *r.AttendancePresent, *r.AttendanceTotal)
	}
	card.Subjects = make([]export.Subject, 0, len(r.Subjects))
	for _, s := range r.Subjects {
		card.Subjects = append(card.Subjects, export.Subject{
			Name:       s.SubjectName,
			ClassScore: s.ClassScore,
			ExamScore:  s.ExamScore,
			Total:      s.TotalScore,
			Max:        s.MaxMarks,
			Position:   s.Position,
			Grade:      s.GradeNumber,
			Remark:     s.Remarks,
		})
	}
	return card
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func deref(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}
