package grading

import (
	"sort"

	"github.com/noah-isme/sma-report-cards/internal/models"
)

// ClassRanking orders the students of one class and exam by total score.
// It is built once per call and shared read-only by every per-student step.
type ClassRanking struct {
	order  []string
	totals map[string]float64
	index  map[string]int
}

// RankClass groups marks by student, sums totals and sorts descending.
// Ties keep first-seen order and still get distinct positions.
func RankClass(marks []models.SubjectMark) *ClassRanking {
	totals := make(map[string]float64)
	order := make([]string, 0)
	for _, m := range marks {
		if _, seen := totals[m.StudentID]; !seen {
			order = append(order, m.StudentID)
		}
		totals[m.StudentID] += m.TotalScore
	}

	sort.SliceStable(order, func(i, j int) bool {
		return totals[order[i]] > totals[order[j]]
	})

	index := make(map[string]int, len(order))
	for i, id := range order {
		index[id] = i
	}
	return &ClassRanking{order: order, totals: totals, index: index}
}

// Position returns the 1-based rank of the student, or 0 when absent.
func (r *ClassRanking) Position(studentID string) int {
	if r == nil {
		return 0
	}
	i, ok := r.index[studentID]
	if !ok {
		return 0
	}
	return i + 1
}

// Order returns student ids from highest to lowest total.
func (r *ClassRanking) Order() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Total returns the summed total score of a student.
func (r *ClassRanking) Total(studentID string) float64 {
	if r == nil {
		return 0
	}
	return r.totals[studentID]
}

// Len is the number of ranked students.
func (r *ClassRanking) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}
