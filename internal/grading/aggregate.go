package grading

import (
	"errors"
	"math"

	"github.com/noah-isme/sma-report-cards/internal/models"
)

var (
	// ErrNoMarks is returned when a student has no subject marks for an exam.
	ErrNoMarks = errors.New("grading: no marks to aggregate")
	// ErrZeroMaxScore is returned under PolicyError when the summed max marks are zero.
	ErrZeroMaxScore = errors.New("grading: total max marks is zero")
)

// PercentagePolicy decides what a zero max score does to the percentage.
type PercentagePolicy string

const (
	PolicyZero      PercentagePolicy = "zero"
	PolicyPropagate PercentagePolicy = "propagate"
	PolicyError     PercentagePolicy = "error"
)

// Totals is the aggregate of one student's marks for an exam.
// RawScore is the sum of max marks, not of achieved marks.
type Totals struct {
	Subjects   models.SubjectSummaries
	RawScore   float64
	TotalScore float64
	Percentage float64
}

// Aggregate sums a student's marks and copies each subject into a summary.
func Aggregate(marks []models.SubjectMark, policy PercentagePolicy) (Totals, error) {
	if len(marks) == 0 {
		return Totals{}, ErrNoMarks
	}

	totals := Totals{Subjects: make(models.SubjectSummaries, 0, len(marks))}
	for _, m := range marks {
		totals.TotalScore += m.TotalScore
		totals.RawScore += m.MaxMarks
		totals.Subjects = append(totals.Subjects, summarize(m))
	}

	if totals.RawScore == 0 {
		switch policy {
		case PolicyPropagate:
			totals.Percentage = totals.TotalScore / totals.RawScore * 100
		case PolicyError:
			return Totals{}, ErrZeroMaxScore
		default:
			totals.Percentage = 0
		}
		return totals, nil
	}

	totals.Percentage = totals.TotalScore / totals.RawScore * 100
	return totals, nil
}

// IsFinite reports whether a percentage can be serialized as JSON.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func summarize(m models.SubjectMark) models.SubjectSummary {
	s := models.SubjectSummary{
		SubjectName: m.SubjectName,
		ClassScore:  m.ClassScore,
		ExamScore:   m.ExamScore,
		TotalScore:  m.TotalScore,
		MaxMarks:    m.MaxMarks,
		Percentage:  m.Percentage,
	}
	if m.Position != nil {
		s.Position = *m.Position
	}
	if m.GradeNumber != nil {
		s.GradeNumber = *m.GradeNumber
	}
	if m.Remarks != nil {
		s.Remarks = *m.Remarks
	}
	return s
}
