package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const schoolScale = `[
	{"grade": "1", "minPercent": 80, "maxPercent": 100, "remark": "Excellent"},
	{"grade": "2", "minPercent": 70, "maxPercent": 79.999, "remark": "Very Good"},
	{"grade": 3, "minPercent": 60, "maxPercent": 69.999, "remark": "Good"}
]`

func TestParseScaleValid(t *testing.T) {
	scale := ParseScale(schoolScale)
	require.True(t, scale.IsValid())
	require.Len(t, scale.Ranges(), 3)
	assert.Equal(t, "3", scale.Ranges()[2].Grade)
	assert.Equal(t, "Very Good", scale.Ranges()[1].Remark)
}

func TestParseScaleInvalid(t *testing.T) {
	cases := map[string]string{
		"empty":             "",
		"malformed":         `[{"grade": "1",`,
		"object":            `{"grade": "1", "minPercent": 0, "maxPercent": 100}`,
		"empty list":        `[]`,
		"missing bound":     `[{"grade": "1", "minPercent": 0}]`,
		"null bound":        `[{"grade": "1", "minPercent": null, "maxPercent": 100}]`,
		"non-numeric bound": `[{"grade": "1", "minPercent": "low", "maxPercent": 100}]`,
		"boolean bound":     `[{"grade": "1", "minPercent": true, "maxPercent": 100}]`,
		"null":              `null`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			assert.False(t, ParseScale(raw).IsValid())
		})
	}
}

func TestParseScaleAcceptsStringBounds(t *testing.T) {
	scale := ParseScale(`[{"grade": "A", "minPercent": "80", "maxPercent": " 100 ", "remark": "Top"}, {"grade": "B", "minPercent": 0, "maxPercent": "79.99"}]`)
	require.True(t, scale.IsValid())
	assert.Equal(t, 80.0, scale.Ranges()[0].MinPercent)
	assert.Equal(t, 100.0, scale.Ranges()[0].MaxPercent)
	assert.Equal(t, 79.99, scale.Ranges()[1].MaxPercent)
	assert.Equal(t, Result{Grade: "A", Remark: "Top"}, Evaluate(90, scale))
	assert.Equal(t, "B", Evaluate(50, scale).Grade)
}

func TestEvaluateBoundaries(t *testing.T) {
	scale := ParseScale(schoolScale)

	assert.Equal(t, "1", Evaluate(80, scale).Grade)
	assert.Equal(t, "2", Evaluate(79.999, scale).Grade)
	assert.Equal(t, "1", Evaluate(100, scale).Grade)
	assert.Equal(t, "Good", Evaluate(65, scale).Remark)
}

func TestEvaluateOverlapFirstMatchWins(t *testing.T) {
	scale := Valid([]Range{
		{Grade: "B", MinPercent: 60, MaxPercent: 80},
		{Grade: "A", MinPercent: 80, MaxPercent: 100},
	})
	assert.Equal(t, "B", Evaluate(80, scale).Grade)
}

func TestEvaluateNoMatchReturnsLastRange(t *testing.T) {
	unsorted := Valid([]Range{
		{Grade: "C", MinPercent: 50, MaxPercent: 59, Remark: "Credit"},
		{Grade: "F", MinPercent: 0, MaxPercent: 10, Remark: "Fail"},
		{Grade: "A", MinPercent: 80, MaxPercent: 100, Remark: "Excellent"},
	})

	got := Evaluate(30, unsorted)
	assert.Equal(t, Result{Grade: "A", Remark: "Excellent"}, got)

	got = Evaluate(-5, unsorted)
	assert.Equal(t, "A", got.Grade)
}

func TestEvaluateInvalidUsesLadder(t *testing.T) {
	invalid := ParseScale(`not json`)
	cases := []struct {
		pct    float64
		grade  string
		remark string
	}{
		{85, "1", "Excellent"},
		{72, "2", "Very Good"},
		{66, "3", "Good"},
		{61, "4", "High Average"},
		{56, "5", "Average"},
		{51, "6", "Low Average"},
		{46, "7", "Pass"},
		{41, "8", "Pass"},
		{10, "9", "Fail"},
	}
	for _, tc := range cases {
		got := Evaluate(tc.pct, invalid)
		assert.Equal(t, Result{Grade: tc.grade, Remark: tc.remark}, got, "percentage %v", tc.pct)
		assert.Equal(t, FallbackGrade(tc.pct), got)
	}
}

func TestFallbackGradeThresholds(t *testing.T) {
	assert.Equal(t, "1", FallbackGrade(80).Grade)
	assert.Equal(t, "2", FallbackGrade(79.99).Grade)
	assert.Equal(t, "8", FallbackGrade(40).Grade)
	assert.Equal(t, "9", FallbackGrade(39.99).Grade)
}

func TestZeroValueScaleIsInvalid(t *testing.T) {
	var scale ParsedScale
	assert.False(t, scale.IsValid())
	assert.Equal(t, "9", Evaluate(0, scale).Grade)
	assert.False(t, Valid(nil).IsValid())
}
