package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *MetricsService) string {
	t.Helper()
	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func TestMetricsServiceCounters(t *testing.T) {
	m := NewMetricsService()
	m.RecordGeneration(GenerationModeClass, OutcomeSuccess, 3)
	m.RecordGeneration(GenerationModeClass, OutcomeFailure, 0)
	m.RecordTransition("publish")
	m.RecordCacheOperation(true, time.Millisecond)
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/report-cards", http.StatusOK, time.Millisecond)

	body := scrape(t, m)
	assert.Contains(t, body, `report_cards_generated_total{mode="class",outcome="success"} 3`)
	assert.NotContains(t, body, `outcome="failure"`)
	assert.Contains(t, body, `report_cards_transitions_total{action="publish"} 1`)
	assert.Contains(t, body, "cache_hits_total 1")
	assert.Contains(t, body, `http_requests_total{method="GET",path="/api/v1/report-cards",status="200"} 1`)
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	m.RecordGeneration(GenerationModeStudent, OutcomeSuccess, 1)
	m.RecordExport("csv", "FINISHED")

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
