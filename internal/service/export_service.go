package service

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-report-cards/internal/dto"
	"github.com/noah-isme/sma-report-cards/internal/models"
	"github.com/noah-isme/sma-report-cards/internal/repository"
	appErrors "github.com/noah-isme/sma-report-cards/pkg/errors"
	"github.com/noah-isme/sma-report-cards/pkg/jobs"
	"github.com/noah-isme/sma-report-cards/pkg/storage"
)

// ExportJobType is the queue job type of report card exports.
const ExportJobType = "report_card_export"

type exportJobStore interface {
	Create(ctx context.Context, job *models.ReportExport) error
	GetByID(ctx context.Context, id string) (*models.ReportExport, error)
	Update(ctx context.Context, id string, params repository.UpdateExportParams) error
	ListQueued(ctx context.Context, limit int) ([]models.ReportExport, error)
	ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ReportExport, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type exportFileStore interface {
	Save(name string, data []byte) (string, error)
	Open(name string) (*os.File, error)
	Delete(name string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type downloadSigner interface {
	Generate(jobID, path string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (storage.DownloadToken, error)
}

// ExportConfig governs link lifetime, cleanup and retries.
type ExportConfig struct {
	APIPrefix       string
	ResultTTL       time.Duration
	CleanupInterval time.Duration
	MaxRetries      int
}

func (c ExportConfig) withDefaults() ExportConfig {
	if c.ResultTTL <= 0 {
		c.ResultTTL = 24 * time.Hour
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if strings.TrimSpace(c.APIPrefix) == "" {
		c.APIPrefix = "/api/v1"
	}
	return c
}

// ExportDownload is an opened export file ready to stream.
type ExportDownload struct {
	File      *os.File
	Filename  string
	Format    models.ExportFormat
	ExpiresAt time.Time
}

// ExportService manages the lifecycle of report card export jobs.
type ExportService struct {
	repo      exportJobStore
	access    schoolAuthorizer
	queue     jobDispatcher
	files     exportFileStore
	signer    downloadSigner
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ExportConfig
}

// NewExportService constructs the service.
func NewExportService(repo exportJobStore, access schoolAuthorizer, queue jobDispatcher, files exportFileStore, signer downloadSigner, validate *validator.Validate, logger *zap.Logger, cfg ExportConfig) *ExportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		repo:      repo,
		access:    access,
		queue:     queue,
		files:     files,
		signer:    signer,
		validator: validate,
		logger:    logger,
		cfg:       cfg.withDefaults(),
	}
}

// SetQueue attaches the dispatcher once the worker pool exists.
func (s *ExportService) SetQueue(queue jobDispatcher) {
	s.queue = queue
}

// CreateJob persists an export request for the caller's school and queues it.
func (s *ExportService) CreateJob(ctx context.Context, req dto.ReportCardExportRequest, callerID string) (*dto.ExportJobResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	if err := s.access.AuthorizeSchool(ctx, callerID, req.SchoolID); err != nil {
		return nil, err
	}
	job := &models.ReportExport{
		SchoolID:  req.SchoolID,
		ClassID:   req.ClassID,
		ExamID:    req.ExamID,
		TermID:    req.TermID,
		Format:    req.Format,
		Status:    models.ExportStatusQueued,
		CreatedBy: callerID,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create export job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: ExportJobType}); err != nil {
		failed := models.ExportStatusFailed
		progress := 100
		msg := "failed to enqueue export"
		now := time.Now().UTC()
		_ = s.repo.Update(ctx, job.ID, repository.UpdateExportParams{
			Status:       &failed,
			Progress:     &progress,
			ErrorMessage: &msg,
			FinishedAt:   &now,
		})
		return nil, appErrors.Wrap(err, appErrors.ErrServiceUnavailable.Code, appErrors.ErrServiceUnavailable.Status, "export queue unavailable")
	}
	return &dto.ExportJobResponse{ID: job.ID, Status: job.Status, Progress: job.Progress}, nil
}

// GetStatus reports progress of an export of the caller's school.
func (s *ExportService) GetStatus(ctx context.Context, schoolID, id, callerID string) (*dto.ExportStatusResponse, error) {
	if err := s.access.AuthorizeSchool(ctx, callerID, schoolID); err != nil {
		return nil, err
	}
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOrInternal(err, "export not found", "failed to load export job")
	}
	if job.SchoolID != schoolID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export not found")
	}
	resp := &dto.ExportStatusResponse{
		ID:        job.ID,
		Status:    job.Status,
		Progress:  job.Progress,
		ResultURL: job.ResultURL,
	}
	if job.ErrorMessage != nil && *job.ErrorMessage != "" {
		resp.Error = job.ErrorMessage
	}
	return resp, nil
}

// ResolveDownload verifies a signed token and opens the export file.
func (s *ExportService) ResolveDownload(ctx context.Context, token string) (*ExportDownload, error) {
	parsed, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	job, err := s.repo.GetByID(ctx, parsed.JobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	if job.Status != models.ExportStatusFinished {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "export not ready")
	}
	if job.ResultURL == nil || !strings.HasSuffix(*job.ResultURL, "/"+token) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token does not match export")
	}
	file, err := s.files.Open(parsed.Path)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export file no longer available")
	}
	return &ExportDownload{
		File:      file,
		Filename:  filepath.Base(parsed.Path),
		Format:    job.Format,
		ExpiresAt: parsed.ExpiresAt,
	}, nil
}

// RecoverPendingJobs re-enqueues exports left QUEUED by a previous process.
func (s *ExportService) RecoverPendingJobs(ctx context.Context) {
	pending, err := s.repo.ListQueued(ctx, 50)
	if err != nil {
		s.logger.Sugar().Warnw("failed to recover queued exports", "error", err)
		return
	}
	for _, job := range pending {
		if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: ExportJobType}); err != nil {
			s.logger.Sugar().Warnw("failed to requeue export", "job_id", job.ID, "error", err)
		}
	}
}

// StartCleanup removes expired export files on every CleanupInterval tick until ctx ends.
func (s *ExportService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.cleanupExpired(ctx)
			}
		}
	}()
}

func (s *ExportService) cleanupExpired(ctx context.Context) {
	cutoff := time.Now().Add(-s.cfg.ResultTTL)
	expired, err := s.repo.ListFinishedBefore(ctx, cutoff, 100)
	if err != nil {
		s.logger.Sugar().Warnw("export cleanup list failed", "error", err)
		return
	}
	for _, job := range expired {
		if job.ResultURL == nil {
			continue
		}
		parsed, err := s.signer.Parse(lastSegment(*job.ResultURL), true)
		if err != nil {
			continue
		}
		if err := s.files.Delete(parsed.Path); err != nil {
			s.logger.Sugar().Warnw("export cleanup delete failed", "job_id", job.ID, "error", err)
		}
	}
	if removed, err := s.files.CleanupOlderThan(s.cfg.ResultTTL); err != nil {
		s.logger.Sugar().Warnw("export directory cleanup failed", "error", err)
	} else if len(removed) > 0 {
		s.logger.Sugar().Infow("expired exports removed", "count", len(removed))
	}
}

func lastSegment(url string) string {
	if i := strings.LastIndex(url, "/"); i >= 0 {
		return url[i+1:]
	}
	return url
}
