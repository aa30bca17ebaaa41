package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

var pdfSubjectColumns = []struct {
	title string
	width float64
}{
	{"Subject", 52}, {"Class", 18}, {"Exam", 18}, {"Total", 18}, {"Max", 16}, {"Pos", 14}, {"Grade", 16}, {"Remark", 38},
}

// PDFExporter renders one A4 page per report card.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render produces the document. title is printed under the school name on every page.
func (e *PDFExporter) Render(cards []Card, title string) ([]byte, error) {
	if len(cards) == 0 {
		return nil, ErrNoCards
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 12)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for _, card := range cards {
		pdf.AddPage()
		writeHeader(pdf, tr, card, title)
		writeSubjects(pdf, tr, card.Subjects)
		writeSummary(pdf, tr, card)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func writeHeader(pdf *gofpdf.Fpdf, tr func(string) string, card Card, title string) {
	pdf.SetFont("Arial", "B", 14)
	if card.SchoolName != "" {
		pdf.CellFormat(0, 8, tr(strings.ToUpper(card.SchoolName)), "", 1, "C", false, 0, "")
	}
	if title != "" {
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 7, tr(title), "", 1, "C", false, 0, "")
	}
	pdf.Ln(3)

	pdf.SetFont("Arial", "", 10)
	lines := [][2]string{
		{"Student", card.StudentName},
		{"Class", card.ClassName},
		{"Academic year", card.AcademicYear},
		{"Term", card.Term},
		{"Report code", card.ReportCode},
	}
	for _, l := range lines {
		if l[1] == "" {
			continue
		}
		pdf.CellFormat(35, 6, l[0], "", 0, "", false, 0, "")
		pdf.CellFormat(0, 6, tr(": "+l[1]), "", 1, "", false, 0, "")
	}
	pdf.Ln(3)
}

func writeSubjects(pdf *gofpdf.Fpdf, tr func(string) string, subjects []Subject) {
	pdf.SetFont("Arial", "B", 9)
	for _, col := range pdfSubjectColumns {
		pdf.CellFormat(col.width, 7, col.title, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, s := range subjects {
		position := "-"
		if s.Position > 0 {
			position = fmt.Sprintf("%d", s.Position)
		}
		values := []string{
			s.Name,
			formatScore(s.ClassScore),
			formatScore(s.ExamScore),
			formatScore(s.Total),
			formatScore(s.Max),
			position,
			s.Grade,
			s.Remark,
		}
		for i, col := range pdfSubjectColumns {
			align := "C"
			if i == 0 || i == len(pdfSubjectColumns)-1 {
				align = "L"
			}
			pdf.CellFormat(col.width, 6, tr(values[i]), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(4)
}

func writeSummary(pdf *gofpdf.Fpdf, tr func(string) string, card Card) {
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Total: %s / %s   Percentage: %s   Grade: %s (%s)",
		formatScore(card.TotalScore), formatScore(card.RawScore), formatPercent(card.Percentage), card.Grade, tr(card.Remark)), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 6, "Position in class: "+formatPosition(card.Position, card.TotalStudents), "", 1, "", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	details := [][2]string{
		{"Attendance", card.Attendance},
		{"Conduct", card.Conduct},
		{"Interest", card.Interest},
		{"Class teacher", card.TeacherComment},
		{"Head teacher", card.HeadTeacherComment},
		{"Next term begins", card.NextTermBegins},
	}
	pdf.Ln(2)
	for _, d := range details {
		if d[1] == "" {
			continue
		}
		pdf.MultiCell(0, 5, tr(d[0]+": "+d[1]), "", "", false)
	}
}
