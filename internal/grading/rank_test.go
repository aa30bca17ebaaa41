package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/sma-report-cards/internal/models"
)

func TestRankClassStableDenseOrder(t *testing.T) {
	marks := []models.SubjectMark{
		{StudentID: "A", TotalScore: 150},
		{StudentID: "B", TotalScore: 200},
		{StudentID: "C", TotalScore: 250},
		{StudentID: "A", TotalScore: 150},
		{StudentID: "B", TotalScore: 100},
	}

	ranking := RankClass(marks)
	assert.Equal(t, []string{"A", "B", "C"}, ranking.Order())
	assert.Equal(t, 1, ranking.Position("A"))
	assert.Equal(t, 2, ranking.Position("B"))
	assert.Equal(t, 3, ranking.Position("C"))
	assert.Equal(t, 300.0, ranking.Total("A"))
	assert.Equal(t, 3, ranking.Len())
}

func TestRankClassOrdersDescending(t *testing.T) {
	ranking := RankClass([]models.SubjectMark{
		{StudentID: "low", TotalScore: 10},
		{StudentID: "high", TotalScore: 90},
		{StudentID: "mid", TotalScore: 50},
	})
	assert.Equal(t, []string{"high", "mid", "low"}, ranking.Order())
}

func TestRankClassUnknownStudent(t *testing.T) {
	ranking := RankClass(nil)
	assert.Equal(t, 0, ranking.Position("ghost"))
	assert.Equal(t, 0, ranking.Len())

	var missing *ClassRanking
	assert.Equal(t, 0, missing.Position("ghost"))
	assert.Nil(t, missing.Order())
}

func TestRankClassOrderIsCopy(t *testing.T) {
	ranking := RankClass([]models.SubjectMark{{StudentID: "A", TotalScore: 1}, {StudentID: "B", TotalScore: 2}})
	order := ranking.Order()
	order[0] = "mutated"
	assert.Equal(t, 1, ranking.Position("B"))
	assert.Equal(t, "B", ranking.Order()[0])
}
