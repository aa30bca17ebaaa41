package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-report-cards/internal/grading"
	"github.com/noah-isme/sma-report-cards/internal/models"
	appErrors "github.com/noah-isme/sma-report-cards/pkg/errors"
)

type gradingScaleRepository interface {
	FindActiveByDepartment(ctx context.Context, schoolID, department string) (*models.GradingScale, error)
	FindDefault(ctx context.Context, schoolID string) (*models.GradingScale, error)
}

// GradingScaleService picks the grading scale that applies to a student.
type GradingScaleService struct {
	repo   gradingScaleRepository
	logger *zap.Logger
}

// NewGradingScaleService constructs the resolver.
func NewGradingScaleService(repo gradingScaleRepository, logger *zap.Logger) *GradingScaleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradingScaleService{repo: repo, logger: logger}
}

// Resolve prefers an active department scale, then the school's default active
// scale. A nil scale with a nil error means the school has none.
func (s *GradingScaleService) Resolve(ctx context.Context, schoolID string, department *string) (*models.GradingScale, error) {
	if department != nil && strings.TrimSpace(*department) != "" {
		scale, err := s.repo.FindActiveByDepartment(ctx, schoolID, *department)
		switch {
		case err == nil:
			return scale, nil
		case !errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department grading scale")
		}
	}

	scale, err := s.repo.FindDefault(ctx, schoolID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load default grading scale")
	}
	return scale, nil
}

// ResolvedScale pairs a stored scale with its parsed ranges.
type ResolvedScale struct {
	Scale  *models.GradingScale
	Parsed grading.ParsedScale
}

// Evaluate grades a percentage. Without a stored scale the fixed ladder applies.
func (r ResolvedScale) Evaluate(percentage float64) grading.Result {
	if r.Scale == nil {
		return grading.FallbackGrade(percentage)
	}
	return grading.Evaluate(percentage, r.Parsed)
}

// Load resolves and parses the applicable scale in one step.
func (s *GradingScaleService) Load(ctx context.Context, schoolID string, department *string) (ResolvedScale, error) {
	scale, err := s.Resolve(ctx, schoolID, department)
	if err != nil {
		return ResolvedScale{}, err
	}
	if scale == nil {
		return ResolvedScale{}, nil
	}
	parsed := grading.ParseScale(scale.Ranges)
	if !parsed.IsValid() {
		s.logger.Warn("grading scale ranges unreadable, using fallback ladder",
			zap.String("school_id", schoolID), zap.String("scale_id", scale.ID))
	}
	return ResolvedScale{Scale: scale, Parsed: parsed}, nil
}
