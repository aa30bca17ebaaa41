package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-report-cards/internal/models"
)

var exportTestColumns = []string{"id", "school_id", "class_id", "exam_id", "term_id", "format", "status", "progress", "result_url", "error_message", "created_by", "created_at", "finished_at"}

func TestExportRepositoryCreateAndGet(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewExportRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO report_exports")).
		WithArgs(sqlmock.AnyArg(), "school-1", "class-1", nil, nil, models.ExportFormatPDF, models.ExportStatusQueued, 0, nil, nil, "user-1", sqlmock.AnyArg(), nil).
		WillReturnResult(sqlmock.NewResult(1, 1))

	job := &models.ReportExport{SchoolID: "school-1", ClassID: "class-1", Format: models.ExportFormatPDF, CreatedBy: "user-1"}
	require.NoError(t, repo.Create(context.Background(), job))
	require.NotEmpty(t, job.ID)

	mock.ExpectQuery(regexp.QuoteMeta("FROM report_exports WHERE id = $1")).
		WithArgs(job.ID).
		WillReturnRows(sqlmock.NewRows(exportTestColumns).AddRow(job.ID, "school-1", "class-1", nil, nil, "pdf", "QUEUED", 0, nil, nil, "user-1", time.Now(), nil))

	fetched, err := repo.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusQueued, fetched.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExportRepositoryUpdate(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewExportRepository(db)

	now := time.Now()
	status := models.ExportStatusFinished
	progress := 100
	result := "/api/v1/export/token"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE report_exports SET status = $1, progress = $2, result_url = $3, finished_at = $4 WHERE id = $5")).
		WithArgs(status, progress, result, now, "job-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), "job-1", UpdateExportParams{Status: &status, Progress: &progress, ResultURL: &result, FinishedAt: &now})
	require.NoError(t, err)
	require.NoError(t, repo.Update(context.Background(), "job-1", UpdateExportParams{}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExportRepositoryListFinishedBefore(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewExportRepository(db)

	rows := sqlmock.NewRows(exportTestColumns).
		AddRow("job-1", "school-1", "class-1", "exam-1", nil, "csv", "FINISHED", 100, "/api/v1/export/token", nil, "user-1", time.Now().Add(-48*time.Hour), time.Now().Add(-25*time.Hour))
	mock.ExpectQuery(regexp.QuoteMeta("FROM report_exports WHERE status = $1 AND finished_at IS NOT NULL AND finished_at < $2 ORDER BY finished_at ASC LIMIT $3")).
		WithArgs(models.ExportStatusFinished, sqlmock.AnyArg(), 50).
		WillReturnRows(rows)

	jobs, err := repo.ListFinishedBefore(context.Background(), time.Now(), 0)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "exam-1", *jobs[0].ExamID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
