package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-report-cards/internal/models"
	appErrors "github.com/noah-isme/sma-report-cards/pkg/errors"
)

type reportCardStore interface {
	FindByStudent(ctx context.Context, schoolID, studentID string) ([]models.ReportCard, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	Create(ctx context.Context, card *models.ReportCard) error
	Update(ctx context.Context, card *models.ReportCard) error
	UpdateWithSnapshot(ctx context.Context, card *models.ReportCard, snapshot *models.ReportCardVersion) error
}

// ReconcileInput is everything needed to write one student's report.
type ReconcileInput struct {
	Key       models.ReportCardKey
	ClassID   string
	ExamID    string
	Display   models.ReportCardDisplay
	Computed  models.ReportCardComputed
	Narrative models.ReportCardNarrative
	CreatedBy string
}

// ReconcilerConfig controls history and report code generation.
type ReconcilerConfig struct {
	KeepVersionHistory bool
	CodeRetries        int
}

// ReportCardReconciler creates or patches the single report card of a student
// and period.
type ReportCardReconciler struct {
	store   reportCardStore
	cfg     ReconcilerConfig
	logger  *zap.Logger
	newCode func() (string, error)
	now     func() time.Time
}

// NewReportCardReconciler constructs the reconciler.
func NewReportCardReconciler(store reportCardStore, cfg ReconcilerConfig, logger *zap.Logger) *ReportCardReconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CodeRetries <= 0 {
		cfg.CodeRetries = 5
	}
	return &ReportCardReconciler{
		store:   store,
		cfg:     cfg,
		logger:  logger,
		newCode: randomReportCode,
		now:     time.Now,
	}
}

// Reconcile writes the report for in.Key. An existing record is overwritten in
// place and its version bumped; otherwise a new draft is created.
func (r *ReportCardReconciler) Reconcile(ctx context.Context, in ReconcileInput) (*models.ReportCard, error) {
	existing, err := r.find(ctx, in.Key)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return r.patch(ctx, existing, in)
	}
	return r.create(ctx, in)
}

func (r *ReportCardReconciler) find(ctx context.Context, key models.ReportCardKey) (*models.ReportCard, error) {
	cards, err := r.store.FindByStudent(ctx, key.SchoolID, key.StudentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load existing report cards")
	}
	for i := range cards {
		if sameRef(cards[i].AcademicYearID, key.AcademicYearID) && sameRef(cards[i].TermID, key.TermID) {
			return &cards[i], nil
		}
	}
	return nil, nil
}

func (r *ReportCardReconciler) patch(ctx context.Context, existing *models.ReportCard, in ReconcileInput) (*models.ReportCard, error) {
	before := *existing
	now := r.now().UTC()

	card := *existing
	card.ClassID = in.ClassID
	card.ExamID = in.ExamID
	card.ReportCardDisplay = in.Display
	card.ReportCardComputed = in.Computed
	card.ReportCardNarrative = in.Narrative
	prev := existing.Version
	if prev <= 0 {
		prev = 1
	}
	card.Version = prev + 1
	previousID := existing.ID
	card.PreviousVersionID = &previousID
	card.GeneratedAt = now
	card.UpdatedAt = now

	if r.cfg.KeepVersionHistory {
		snapshot := &models.ReportCardVersion{
			ID:            uuid.NewString(),
			ReportID:      existing.ID,
			VersionNumber: prev,
			Snapshot:      models.ReportCardSnapshot{ReportCard: before},
			CreatedAt:     now,
		}
		if err := r.store.UpdateWithSnapshot(ctx, &card, snapshot); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update report card")
		}
	} else if err := r.store.Update(ctx, &card); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update report card")
	}

	r.logger.Debug("report card regenerated",
		zap.String("report_id", card.ID),
		zap.Int("version", card.Version),
	)
	return &card, nil
}

func (r *ReportCardReconciler) create(ctx context.Context, in ReconcileInput) (*models.ReportCard, error) {
	code, err := r.uniqueCode(ctx)
	if err != nil {
		return nil, err
	}
	now := r.now().UTC()
	card := &models.ReportCard{
		ID:                  uuid.NewString(),
		ReportCode:          code,
		SchoolID:            in.Key.SchoolID,
		StudentID:           in.Key.StudentID,
		ClassID:             in.ClassID,
		ExamID:              in.ExamID,
		AcademicYearID:      in.Key.AcademicYearID,
		TermID:              in.Key.TermID,
		ReportCardDisplay:   in.Display,
		ReportCardComputed:  in.Computed,
		ReportCardNarrative: in.Narrative,
		Status:              models.ReportCardStatusDraft,
		Version:             1,
		GeneratedAt:         now,
		CreatedBy:           in.CreatedBy,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := r.store.Create(ctx, card); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create report card")
	}
	return card, nil
}

func (r *ReportCardReconciler) uniqueCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < r.cfg.CodeRetries; attempt++ {
		code, err := r.newCode()
		if err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate report code")
		}
		taken, err := r.store.CodeExists(ctx, code)
		if err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check report code")
		}
		if !taken {
			return code, nil
		}
		r.logger.Warn("report code collision", zap.String("code", code), zap.Int("attempt", attempt+1))
	}
	return "", appErrors.Clone(appErrors.ErrConflict, "could not allocate a unique report code")
}

var reportCodeSpace = big.NewInt(100_000_000)

func randomReportCode() (string, error) {
	n, err := rand.Int(rand.Reader, reportCodeSpace)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("RPT%08d", n.Int64()), nil
}

// sameRef treats two absent references as equal and never matches an absent
// reference against a present one.
func sameRef(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
