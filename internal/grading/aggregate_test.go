package grading

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-report-cards/internal/models"
)

func intPtr(v int) *int { return &v }
func strPtr(v string) *string { return &v }

func TestAggregateTotals(t *testing.T) {
	marks := []models.SubjectMark{
		{SubjectName: "Mathematics", ClassScore: 15, ExamScore: 25, TotalScore: 40, MaxMarks: 50, Position: intPtr(2), GradeNumber: strPtr("2"), Remarks: strPtr("Very Good")},
		{SubjectName: "English", ClassScore: 10, ExamScore: 20, TotalScore: 30, MaxMarks: 50},
	}

	totals, err := Aggregate(marks, PolicyZero)
	require.NoError(t, err)
	assert.Equal(t, 100.0, totals.RawScore)
	assert.Equal(t, 70.0, totals.TotalScore)
	assert.InDelta(t, 70.0, totals.Percentage, 1e-9)
	require.Len(t, totals.Subjects, 2)

	assert.Equal(t, 2, totals.Subjects[0].Position)
	assert.Equal(t, "Very Good", totals.Subjects[0].Remarks)
	assert.Equal(t, 0, totals.Subjects[1].Position)
	assert.Equal(t, "", totals.Subjects[1].GradeNumber)
}

func TestAggregateNoMarks(t *testing.T) {
	_, err := Aggregate(nil, PolicyZero)
	assert.ErrorIs(t, err, ErrNoMarks)
}

func TestAggregateZeroMaxPolicies(t *testing.T) {
	marks := []models.SubjectMark{{SubjectName: "Art", TotalScore: 0, MaxMarks: 0}}

	totals, err := Aggregate(marks, PolicyZero)
	require.NoError(t, err)
	assert.Equal(t, 0.0, totals.Percentage)
	assert.True(t, IsFinite(totals.Percentage))

	totals, err = Aggregate(marks, PolicyPropagate)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(totals.Percentage))
	assert.False(t, IsFinite(totals.Percentage))

	positive := []models.SubjectMark{{SubjectName: "Art", TotalScore: 5, MaxMarks: 0}}
	totals, err = Aggregate(positive, PolicyPropagate)
	require.NoError(t, err)
	assert.True(t, math.IsInf(totals.Percentage, 1))

	_, err = Aggregate(marks, PolicyError)
	assert.ErrorIs(t, err, ErrZeroMaxScore)
}

func TestAggregateUnknownPolicyDefaultsToZero(t *testing.T) {
	totals, err := Aggregate([]models.SubjectMark{{TotalScore: 3}}, PercentagePolicy("bogus"))
	require.NoError(t, err)
	assert.Equal(t, 0.0, totals.Percentage)
}
