package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCards() []Card {
	ada := Card{
		ReportCode:     "RPT00000001",
		StudentName:    "Ada",
		ClassName:      "X IPA 1",
		SchoolName:     "SMA Negeri 1",
		Subjects:       []Subject{{Name: "Math", Total: 40, Max: 50, Grade: "2"}, {Name: "Physics", Total: 30, Max: 50, Grade: "4"}},
		TotalScore:     70,
		RawScore:       100,
		Percentage:     70,
		Grade:          "2",
		Remark:         "Very Good",
		Position:       2,
		TotalStudents:  3,
		TeacherComment: "Keep going",
		Status:         "draft",
	}
	budi := Card{
		ReportCode:    "RPT00000002",
		StudentName:   "Budi",
		ClassName:     "X IPA 1",
		Subjects:      []Subject{{Name: "Biology", Total: 45, Max: 50, Grade: "1"}},
		TotalScore:    45,
		Percentage:    math.NaN(),
		Grade:         "9",
		Remark:        "Fail",
		Position:      1,
		TotalStudents: 3,
		Status:        "published",
	}
	return []Card{ada, budi}
}

func TestCSVExporterRendersClassSheet(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleCards())
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"Position", "Report Code", "Student", "Total", "Max", "Percentage", "Grade", "Remark", "Math", "Physics", "Biology", "Status"}, records[0])
	assert.Equal(t, []string{"2 of 3", "RPT00000001", "Ada", "70", "100", "70.00", "2", "Very Good", "40 (2)", "30 (4)", "", "draft"}, records[1])
	assert.Equal(t, "-", records[2][5])
	assert.Equal(t, "45 (1)", records[2][10])
}

func TestPDFExporterRendersPages(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleCards(), "Midterm Report")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestExportersRejectEmptyInput(t *testing.T) {
	_, err := NewCSVExporter().Render(nil)
	assert.True(t, errors.Is(err, ErrNoCards))
	_, err = NewPDFExporter().Render(nil, "")
	assert.True(t, errors.Is(err, ErrNoCards))
}
