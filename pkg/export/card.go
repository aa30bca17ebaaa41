package export

import (
	"math"
	"strconv"
)

// Subject is one line of a rendered report card.
type Subject struct {
	Name       string
	ClassScore float64
	ExamScore  float64
	Total      float64
	Max        float64
	Position   int
	Grade      string
	Remark     string
}

// Card is the renderer-facing view of a report card.
type Card struct {
	ReportCode         string
	StudentName        string
	ClassName          string
	SchoolName         string
	AcademicYear       string
	Term               string
	Subjects           []Subject
	TotalScore         float64
	RawScore           float64
	Percentage         float64
	Grade              string
	Remark             string
	Position           int
	TotalStudents      int
	Attendance         string
	Conduct            string
	Interest           string
	TeacherComment     string
	HeadTeacherComment string
	NextTermBegins     string
	Status             string
}

// formatScore prints scores without trailing zeros.
func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatPercent prints two decimals, or "-" when the value is not a number.
func formatPercent(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatPosition(position, total int) string {
	if position <= 0 {
		return "-"
	}
	return strconv.Itoa(position) + " of " + strconv.Itoa(total)
}
