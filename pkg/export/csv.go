package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
)

// ErrNoCards is returned when there is nothing to render.
var ErrNoCards = errors.New("export: no report cards to render")

var csvLeadingColumns = []string{"Position", "Report Code", "Student", "Total", "Max", "Percentage", "Grade", "Remark"}

// CSVExporter renders a class sheet: one row per student and one column per subject.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render writes the sheet. Subject columns follow first appearance across cards.
func (e *CSVExporter) Render(cards []Card) ([]byte, error) {
	if len(cards) == 0 {
		return nil, ErrNoCards
	}
	subjects := subjectColumns(cards)

	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	header := append(append([]string{}, csvLeadingColumns...), subjects...)
	header = append(header, "Status")
	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}

	for _, card := range cards {
		scores := make(map[string]string, len(card.Subjects))
		for _, s := range card.Subjects {
			scores[s.Name] = fmt.Sprintf("%s (%s)", formatScore(s.Total), s.Grade)
		}
		record := []string{
			formatPosition(card.Position, card.TotalStudents),
			card.ReportCode,
			card.StudentName,
			formatScore(card.TotalScore),
			formatScore(card.RawScore),
			formatPercent(card.Percentage),
			card.Grade,
			card.Remark,
		}
		for _, name := range subjects {
			record = append(record, scores[name])
		}
		record = append(record, card.Status)
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func subjectColumns(cards []Card) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, card := range cards {
		for _, s := range card.Subjects {
			if _, ok := seen[s.Name]; ok {
				continue
			}
			seen[s.Name] = struct{}{}
			names = append(names, s.Name)
		}
	}
	return names
}
