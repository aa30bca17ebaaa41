package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/sma-report-cards/internal/models"
	"github.com/noah-isme/sma-report-cards/internal/repository"
	"github.com/noah-isme/sma-report-cards/pkg/export"
	"github.com/noah-isme/sma-report-cards/pkg/jobs"
)

type failingCSV struct{ calls int }

func (f *failingCSV) Render([]export.Card) ([]byte, error) {
	f.calls++
	return nil, errors.New("disk full")
}

func TestExportWorkerRequeuesOnFailure(t *testing.T) {
	f := newExportFixture(t)
	renderer := &failingCSV{}
	f.worker.csv = renderer
	ctx := context.Background()

	created, err := f.svc.CreateJob(ctx, exportRequest(models.ExportFormatCSV), "admin-1")
	require.NoError(t, err)

	err = f.worker.Handle(ctx, f.queue.enqueued[0])
	require.Error(t, err)
	assert.Equal(t, 1, renderer.calls)

	job := f.repo.jobs[created.ID]
	assert.Equal(t, models.ExportStatusQueued, job.Status)
	require.NotNil(t, job.ErrorMessage)
	assert.Contains(t, *job.ErrorMessage, "disk full")

	f.worker.Fail(f.queue.enqueued[0], err)
	assert.Equal(t, models.ExportStatusFailed, job.Status)
	assert.Equal(t, 100, job.Progress)
	assert.NotNil(t, job.FinishedAt)
}

// progressFailingRepo rejects intermediate progress updates only.
type progressFailingRepo struct {
	*exportRepoStub
}

func (r progressFailingRepo) Update(ctx context.Context, id string, params repository.UpdateExportParams) error {
	if params.Progress != nil && *params.Progress == 70 {
		return errors.New("connection reset")
	}
	return r.exportRepoStub.Update(ctx, id, params)
}

func TestExportWorkerLogsProgressUpdateFailure(t *testing.T) {
	f := newExportFixture(t)
	core, logs := observer.New(zapcore.WarnLevel)
	f.worker.repo = progressFailingRepo{f.repo}
	f.worker.logger = zap.New(core)

	created, err := f.svc.CreateJob(context.Background(), exportRequest(models.ExportFormatCSV), "admin-1")
	require.NoError(t, err)
	require.NoError(t, f.worker.Handle(context.Background(), f.queue.enqueued[0]))

	assert.Equal(t, models.ExportStatusFinished, f.repo.jobs[created.ID].Status)
	entries := logs.FilterMessage("failed to update export progress").All()
	require.Len(t, entries, 1)
	assert.Equal(t, created.ID, entries[0].ContextMap()["job_id"])
	assert.Equal(t, "connection reset", entries[0].ContextMap()["error"])
}

func TestExportWorkerSkipsTerminalJobs(t *testing.T) {
	f := newExportFixture(t)
	renderer := &failingCSV{}
	f.worker.csv = renderer
	require.NoError(t, f.repo.Create(context.Background(), &models.ReportExport{
		ID:       "done",
		SchoolID: "school-1",
		Format:   models.ExportFormatCSV,
		Status:   models.ExportStatusFinished,
	}))

	require.NoError(t, f.worker.Handle(context.Background(), jobs.Job{ID: "done", Type: ExportJobType}))
	assert.Zero(t, renderer.calls)
}

func TestExportWorkerFiltersByJobScope(t *testing.T) {
	f := newExportFixture(t)
	other := exportableCard()
	other.ID = "r2"
	other.ReportCode = "RPT00000002"
	other.ClassID = "class-2"
	f.cards.cards = append(f.cards.cards, other)

	created, err := f.svc.CreateJob(context.Background(), exportRequest(models.ExportFormatCSV), "admin-1")
	require.NoError(t, err)
	require.NoError(t, f.worker.Handle(context.Background(), f.queue.enqueued[0]))

	url := *f.repo.jobs[created.ID].ResultURL
	download, err := f.svc.ResolveDownload(context.Background(), lastSegment(url))
	require.NoError(t, err)
	defer download.File.Close() //nolint:errcheck

	buf := new(strings.Builder)
	_, err = io.Copy(buf, download.File)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "RPT00000001")
	assert.NotContains(t, buf.String(), "RPT00000002")
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "na", sanitizeFilename(""))
	assert.Equal(t, "X_IPA-1", sanitizeFilename("X IPA/1"))
	assert.Len(t, sanitizeFilename(strings.Repeat("a", 150)), 100)
}

func TestExportTitle(t *testing.T) {
	assert.Equal(t, "Report Card", exportTitle(nil))
	card := exportableCard()
	card.AcademicYearName = stringRef("2024/2025")
	assert.Equal(t, "Report Card - 2024/2025 - Semester 1", exportTitle([]models.ReportCard{card}))
}

func TestExportWorkerFailWithNilLogger(t *testing.T) {
	f := newExportFixture(t)
	w := NewExportWorker(f.repo, f.cards, f.files, nil, nil, nil, nil, zap.NewNop(), ExportConfig{})
	require.NoError(t, f.repo.Create(context.Background(), &models.ReportExport{ID: "x", Status: models.ExportStatusProcessing}))
	w.Fail(jobs.Job{ID: "x"}, errors.New("boom"))
	assert.Equal(t, models.ExportStatusFailed, f.repo.jobs["x"].Status)
}
