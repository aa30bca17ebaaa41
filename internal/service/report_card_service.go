package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-report-cards/internal/dto"
	"github.com/noah-isme/sma-report-cards/internal/grading"
	"github.com/noah-isme/sma-report-cards/internal/models"
	appErrors "github.com/noah-isme/sma-report-cards/pkg/errors"
)

type schoolAuthorizer interface {
	AuthorizeSchool(ctx context.Context, callerID, schoolID string) error
}

type studentReader interface {
	FindByCode(ctx context.Context, schoolID, code string) (*models.Student, error)
	ListActiveByClass(ctx context.Context, classID string) ([]models.Student, error)
}

type classReader interface {
	FindByCode(ctx context.Context, schoolID, code string) (*models.Class, error)
}

type examReader interface {
	FindByID(ctx context.Context, id string) (*models.Exam, error)
}

type markReader interface {
	ListByStudent(ctx context.Context, examID, studentID string) ([]models.SubjectMark, error)
	ListByClass(ctx context.Context, examID, classID string) ([]models.SubjectMark, error)
}

type displayNameReader interface {
	DisplayNames(ctx context.Context, schoolID string, academicYearID, termID *string) (models.ReportDisplayNames, error)
}

type scaleLoader interface {
	Load(ctx context.Context, schoolID string, department *string) (ResolvedScale, error)
}

type reportCardReconciler interface {
	Reconcile(ctx context.Context, in ReconcileInput) (*models.ReportCard, error)
}

type reportCardRepository interface {
	FindByID(ctx context.Context, id string) (*models.ReportCard, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.ReportCard, error)
	Publish(ctx context.Context, id, publishedBy, role string, at time.Time) (bool, error)
	Unpublish(ctx context.Context, id, unpublishedBy, reason string, at time.Time) (bool, error)
	Delete(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, ids []string) error
	List(ctx context.Context, filter models.ReportCardFilter) ([]models.ReportCard, error)
	ListVersions(ctx context.Context, reportID string) ([]models.ReportCardVersion, error)
}

// Transition actions recorded in metrics.
const (
	TransitionPublish    = "publish"
	TransitionUnpublish  = "unpublish"
	TransitionDelete     = "delete"
	TransitionBulkDelete = "bulk_delete"
)

// ReportCardDeps groups the collaborators of ReportCardService.
type ReportCardDeps struct {
	Access     schoolAuthorizer
	Students   studentReader
	Classes    classReader
	Exams      examReader
	Marks      markReader
	Names      displayNameReader
	Scales     scaleLoader
	Reconciler reportCardReconciler
	Reports    reportCardRepository
	Cache      *CacheService
	Metrics    *MetricsService
}

// ReportCardService orchestrates generation and the lifecycle of report cards.
type ReportCardService struct {
	deps      ReportCardDeps
	policy    grading.PercentagePolicy
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewReportCardService constructs the orchestrator.
func NewReportCardService(deps ReportCardDeps, policy grading.PercentagePolicy, validate *validator.Validate, logger *zap.Logger) *ReportCardService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if policy == "" {
		policy = grading.PolicyZero
	}
	return &ReportCardService{deps: deps, policy: policy, validator: validate, logger: logger, now: time.Now}
}

// generation is the per-call context shared by every student of one run.
type generation struct {
	exam           *models.Exam
	class          *models.Class
	academicYearID *string
	termID         *string
	names          models.ReportDisplayNames
	ranking        *grading.ClassRanking
	narrative      models.ReportCardNarrative
	callerID       string
	scales         map[string]ResolvedScale
}

// GenerateForStudent builds or regenerates one student's report card.
func (s *ReportCardService) GenerateForStudent(ctx context.Context, req dto.GenerateReportCardRequest, callerID string) (*models.ReportCard, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	if err := s.deps.Access.AuthorizeSchool(ctx, callerID, req.SchoolID); err != nil {
		return nil, err
	}

	exam, err := s.loadExam(ctx, req.ExamID)
	if err != nil {
		return nil, err
	}
	if exam.SchoolID != req.SchoolID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "exam not found")
	}
	student, err := s.deps.Students.FindByCode(ctx, req.SchoolID, req.StudentID)
	if err != nil {
		return nil, notFoundOrInternal(err, "student not found", "failed to load student")
	}
	if student.SchoolID != req.SchoolID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	class, err := s.loadClass(ctx, req.ClassID, req.SchoolID)
	if err != nil {
		return nil, err
	}

	gen, err := s.prepare(ctx, exam, class, firstRef(req.AcademicYearID, exam.AcademicYearID), firstRef(req.TermID, exam.TermID), req.NarrativeFields.ToModel(), callerID)
	if err != nil {
		return nil, err
	}

	card, err := s.generateOne(ctx, gen, student)
	if err != nil {
		s.deps.Metrics.RecordGeneration(GenerationModeStudent, OutcomeFailure, 1)
		return nil, err
	}
	s.deps.Metrics.RecordGeneration(GenerationModeStudent, OutcomeSuccess, 1)
	s.invalidate(ctx, req.SchoolID)
	return card, nil
}

// GenerateForClass generates report cards for every non-graduated student of
// a class. Students that fail are reported and do not stop the run.
func (s *ReportCardService) GenerateForClass(ctx context.Context, req dto.GenerateClassReportCardsRequest, callerID string) (*dto.BatchGenerateResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	exam, err := s.loadExam(ctx, req.ExamID)
	if err != nil {
		return nil, err
	}
	if err := s.deps.Access.AuthorizeSchool(ctx, callerID, exam.SchoolID); err != nil {
		return nil, err
	}
	class, err := s.loadClass(ctx, req.ClassID, exam.SchoolID)
	if err != nil {
		return nil, err
	}

	gen, err := s.prepare(ctx, exam, class, exam.AcademicYearID, exam.TermID, req.NarrativeFields.ToModel(), callerID)
	if err != nil {
		return nil, err
	}
	students, err := s.deps.Students.ListActiveByClass(ctx, class.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class students")
	}
	s.deps.Metrics.ObserveBatchSize(len(students))
	if len(students) == 0 {
		return nil, appErrors.Clone(appErrors.ErrAggregateFailure, "no report cards generated: class has no active students")
	}

	successes := make([]string, 0, len(students))
	failures := make([]string, 0)
	for i := range students {
		student := &students[i]
		card, err := s.generateOne(ctx, gen, student)
		if err != nil {
			if ctx.Err() != nil {
				return nil, appErrors.Wrap(ctx.Err(), appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "class generation cancelled")
			}
			failures = append(failures, fmt.Sprintf("%s: %s", student.FullName, failureReason(err)))
			s.logger.Warn("report card generation failed",
				zap.String("exam_id", exam.ID),
				zap.String("class_id", class.ID),
				zap.String("student_id", student.ID),
				zap.Error(err),
			)
			continue
		}
		successes = append(successes, card.ID)
	}

	s.deps.Metrics.RecordGeneration(GenerationModeClass, OutcomeSuccess, len(successes))
	s.deps.Metrics.RecordGeneration(GenerationModeClass, OutcomeFailure, len(failures))
	s.logger.Info("class report cards generated",
		zap.String("exam_id", exam.ID),
		zap.String("class_id", class.ID),
		zap.Int("generated", len(successes)),
		zap.Int("failed", len(failures)),
	)

	if len(successes) == 0 {
		return nil, appErrors.Clone(appErrors.ErrAggregateFailure, "no report cards generated: "+strings.Join(failures, "; "))
	}
	s.invalidate(ctx, exam.SchoolID)
	return &dto.BatchGenerateResult{
		Success:   true,
		Count:     len(successes),
		ReportIDs: successes,
		Errors:    failures,
	}, nil
}

// prepare loads everything shared by the students of one generation call,
// including the class ranking which is computed exactly once.
func (s *ReportCardService) prepare(ctx context.Context, exam *models.Exam, class *models.Class, yearID, termID *string, narrative models.ReportCardNarrative, callerID string) (*generation, error) {
	names, err := s.deps.Names.DisplayNames(ctx, exam.SchoolID, yearID, termID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load display names")
	}
	classMarks, err := s.deps.Marks.ListByClass(ctx, exam.ID, class.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class marks")
	}
	return &generation{
		exam:           exam,
		class:          class,
		academicYearID: yearID,
		termID:         termID,
		names:          names,
		ranking:        grading.RankClass(classMarks),
		narrative:      narrative,
		callerID:       callerID,
		scales:         make(map[string]ResolvedScale),
	}, nil
}

func (s *ReportCardService) generateOne(ctx context.Context, gen *generation, student *models.Student) (*models.ReportCard, error) {
	marks, err := s.deps.Marks.ListByStudent(ctx, gen.exam.ID, student.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load marks")
	}
	totals, err := grading.Aggregate(marks, s.policy)
	switch {
	case errors.Is(err, grading.ErrNoMarks):
		return nil, appErrors.Clone(appErrors.ErrNoMarksFound, "no marks found for this exam")
	case errors.Is(err, grading.ErrZeroMaxScore):
		return nil, appErrors.Clone(appErrors.ErrDivisionByZero, "maximum score of all subjects is zero")
	case err != nil:
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate marks")
	}

	scale, err := s.scaleFor(ctx, gen, student.Department)
	if err != nil {
		return nil, err
	}
	result := scale.Evaluate(totals.Percentage)

	computed := models.ReportCardComputed{
		Subjects:      totals.Subjects,
		RawScore:      totals.RawScore,
		TotalScore:    totals.TotalScore,
		Percentage:    models.Percentage(totals.Percentage),
		OverallGrade:  result.Grade,
		OverallRemark: result.Remark,
		Position:      gen.ranking.Position(student.ID),
		TotalStudents: gen.ranking.Len(),
	}
	if scale.Scale != nil {
		id, name := scale.Scale.ID, scale.Scale.Name
		computed.GradingScaleID, computed.GradingScaleName = &id, &name
	}

	return s.deps.Reconciler.Reconcile(ctx, ReconcileInput{
		Key: models.ReportCardKey{
			SchoolID:       gen.exam.SchoolID,
			StudentID:      student.ID,
			AcademicYearID: gen.academicYearID,
			TermID:         gen.termID,
		},
		ClassID: gen.class.ID,
		ExamID:  gen.exam.ID,
		Display: models.ReportCardDisplay{
			StudentName:      student.FullName,
			ClassName:        gen.class.Name,
			SchoolName:       gen.names.SchoolName,
			AcademicYearName: gen.names.AcademicYearName,
			TermName:         gen.names.TermName,
		},
		Computed:  computed,
		Narrative: gen.narrative,
		CreatedBy: gen.callerID,
	})
}

// scaleFor memoizes scale resolution per department for one generation call.
func (s *ReportCardService) scaleFor(ctx context.Context, gen *generation, department *string) (ResolvedScale, error) {
	key := ""
	if department != nil {
		key = *department
	}
	if scale, ok := gen.scales[key]; ok {
		return scale, nil
	}
	scale, err := s.deps.Scales.Load(ctx, gen.exam.SchoolID, department)
	if err != nil {
		return ResolvedScale{}, err
	}
	gen.scales[key] = scale
	return scale, nil
}

// Publish makes a draft report visible.
func (s *ReportCardService) Publish(ctx context.Context, schoolID, reportID, callerID, role string) (*models.ReportCard, error) {
	card, err := s.authorizedReport(ctx, schoolID, reportID, callerID)
	if err != nil {
		return nil, err
	}
	if card.Status == models.ReportCardStatusPublished {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "report card is already published")
	}
	now := s.now().UTC()
	ok, err := s.deps.Reports.Publish(ctx, card.ID, callerID, role, now)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to publish report card")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "report card is already published")
	}
	card.Status = models.ReportCardStatusPublished
	card.PublishedAt, card.PublishedBy, card.PublishedByRole = &now, &callerID, &role
	card.UpdatedAt = now

	s.deps.Metrics.RecordTransition(TransitionPublish)
	s.invalidate(ctx, schoolID)
	return card, nil
}

// Unpublish returns a published report to draft. A reason is mandatory.
func (s *ReportCardService) Unpublish(ctx context.Context, schoolID, reportID, callerID, reason string) (*models.ReportCard, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "reason is required")
	}
	card, err := s.authorizedReport(ctx, schoolID, reportID, callerID)
	if err != nil {
		return nil, err
	}
	if card.Status != models.ReportCardStatusPublished {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "report card is not published")
	}
	now := s.now().UTC()
	ok, err := s.deps.Reports.Unpublish(ctx, card.ID, callerID, reason, now)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to unpublish report card")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "report card is not published")
	}
	card.Status = models.ReportCardStatusDraft
	card.PublishedAt, card.PublishedBy, card.PublishedByRole = nil, nil, nil
	card.UnpublishedAt, card.UnpublishedBy, card.UnpublishReason = &now, &callerID, &reason
	card.UpdatedAt = now

	s.deps.Metrics.RecordTransition(TransitionUnpublish)
	s.invalidate(ctx, schoolID)
	return card, nil
}

// Delete removes one report card and its stored versions.
func (s *ReportCardService) Delete(ctx context.Context, schoolID, reportID, callerID string) error {
	card, err := s.authorizedReport(ctx, schoolID, reportID, callerID)
	if err != nil {
		return err
	}
	if err := s.deps.Reports.Delete(ctx, card.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete report card")
	}
	s.deps.Metrics.RecordTransition(TransitionDelete)
	s.invalidate(ctx, schoolID)
	return nil
}

// BulkDelete removes several report cards. Every id must exist and belong to
// the school, otherwise nothing is deleted.
func (s *ReportCardService) BulkDelete(ctx context.Context, schoolID string, reportIDs []string, callerID string) (int, error) {
	ids := uniqueIDs(reportIDs)
	if len(ids) == 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "reportIds must not be empty")
	}
	if err := s.deps.Access.AuthorizeSchool(ctx, callerID, schoolID); err != nil {
		return 0, err
	}
	cards, err := s.deps.Reports.FindByIDs(ctx, ids)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report cards")
	}
	owned := make(map[string]bool, len(cards))
	for _, card := range cards {
		if card.SchoolID == schoolID {
			owned[card.ID] = true
		}
	}
	for _, id := range ids {
		if !owned[id] {
			return 0, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("report card %s not found", id))
		}
	}
	if err := s.deps.Reports.DeleteMany(ctx, ids); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete report cards")
	}
	s.deps.Metrics.RecordTransition(TransitionBulkDelete)
	s.invalidate(ctx, schoolID)
	return len(ids), nil
}

// List returns the report cards of a school, optionally narrowed by class and term.
func (s *ReportCardService) List(ctx context.Context, schoolID, classID, termID, callerID string) ([]models.ReportCard, error) {
	if err := s.deps.Access.AuthorizeSchool(ctx, callerID, schoolID); err != nil {
		return nil, err
	}
	key := reportCardListKey(schoolID, classID, termID)
	var cached []models.ReportCard
	if hit, _ := s.deps.Cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}
	cards, err := s.deps.Reports.List(ctx, models.ReportCardFilter{SchoolID: schoolID, ClassID: classID, TermID: termID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list report cards")
	}
	_ = s.deps.Cache.Set(ctx, key, cards, 0)
	return cards, nil
}

// Get returns one report card of the school.
func (s *ReportCardService) Get(ctx context.Context, schoolID, reportID, callerID string) (*models.ReportCard, error) {
	return s.authorizedReport(ctx, schoolID, reportID, callerID)
}

// Versions returns the stored snapshots of a report card, newest first.
func (s *ReportCardService) Versions(ctx context.Context, schoolID, reportID, callerID string) ([]models.ReportCardVersion, error) {
	card, err := s.authorizedReport(ctx, schoolID, reportID, callerID)
	if err != nil {
		return nil, err
	}
	versions, err := s.deps.Reports.ListVersions(ctx, card.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list report card versions")
	}
	if versions == nil {
		versions = []models.ReportCardVersion{}
	}
	return versions, nil
}

// authorizedReport checks the caller against the school before reading the
// report, then hides reports of other schools behind NotFound.
func (s *ReportCardService) authorizedReport(ctx context.Context, schoolID, reportID, callerID string) (*models.ReportCard, error) {
	if strings.TrimSpace(reportID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "report id is required")
	}
	if err := s.deps.Access.AuthorizeSchool(ctx, callerID, schoolID); err != nil {
		return nil, err
	}
	card, err := s.deps.Reports.FindByID(ctx, reportID)
	if err != nil {
		return nil, notFoundOrInternal(err, "report card not found", "failed to load report card")
	}
	if card.SchoolID != schoolID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "report card not found")
	}
	return card, nil
}

func (s *ReportCardService) loadExam(ctx context.Context, examID string) (*models.Exam, error) {
	exam, err := s.deps.Exams.FindByID(ctx, examID)
	if err != nil {
		return nil, notFoundOrInternal(err, "exam not found", "failed to load exam")
	}
	return exam, nil
}

func (s *ReportCardService) loadClass(ctx context.Context, code, schoolID string) (*models.Class, error) {
	class, err := s.deps.Classes.FindByCode(ctx, schoolID, code)
	if err != nil {
		return nil, notFoundOrInternal(err, "class not found", "failed to load class")
	}
	if class.SchoolID != schoolID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
	}
	return class, nil
}

func (s *ReportCardService) invalidate(ctx context.Context, schoolID string) {
	_ = s.deps.Cache.Invalidate(ctx, reportCardSchoolPattern(schoolID))
}

func notFoundOrInternal(err error, notFound, internal string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, internal)
}

// failureReason is the client-facing message of a per-student failure.
func failureReason(err error) string {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

func firstRef(values ...*string) *string {
	for _, v := range values {
		if v != nil && strings.TrimSpace(*v) != "" {
			return v
		}
	}
	return nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
