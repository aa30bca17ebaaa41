package models

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentageMarshalNonFinite(t *testing.T) {
	data, err := json.Marshal(struct {
		A Percentage `json:"a"`
		B Percentage `json:"b"`
		C Percentage `json:"c"`
	}{A: 72.5, B: Percentage(math.NaN()), C: Percentage(math.Inf(1))})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":72.5,"b":null,"c":null}`, string(data))
}

func TestReportCardJSONFlattensEmbeddedSections(t *testing.T) {
	comment := "Keep it up"
	card := ReportCard{ID: "rc-1", Version: 2}
	card.StudentName = "Ama"
	card.OverallGrade = "1"
	card.TeacherComment = &comment

	data, err := json.Marshal(card)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "Ama", raw["studentName"])
	assert.Equal(t, "1", raw["overallGrade"])
	assert.Equal(t, "Keep it up", raw["teacherComment"])
	assert.NotContains(t, raw, "termId")
}

func TestSubjectSummariesScan(t *testing.T) {
	var s SubjectSummaries
	require.NoError(t, s.Scan([]byte(`[{"subjectName":"Maths","position":3}]`)))
	require.Len(t, s, 1)
	assert.Equal(t, 3, s[0].Position)

	require.NoError(t, s.Scan(nil))
	assert.Empty(t, s)
	assert.Error(t, s.Scan(42))

	value, err := SubjectSummaries(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), value)
}

func TestReportCardSnapshotRoundTrip(t *testing.T) {
	card := ReportCard{ID: "rc-1", Version: 3}
	card.OverallGrade = "2"
	value, err := ReportCardSnapshot{ReportCard: card}.Value()
	require.NoError(t, err)

	var snap ReportCardSnapshot
	require.NoError(t, snap.Scan(value))
	assert.Equal(t, "rc-1", snap.ID)
	assert.Equal(t, 3, snap.Version)
	assert.Equal(t, "2", snap.OverallGrade)
}
