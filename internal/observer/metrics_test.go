package observer

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveInsightRequest(t *testing.T) {
	InitMetrics(true)
	before := testutil.ToFloat64(InsightRequestsTotal.WithLabelValues("http", "ok"))

	ObserveInsightRequest("http", "ok", 20*time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(InsightRequestsTotal.WithLabelValues("http", "ok")))
}

func TestInitMetrics_DisabledStopsRecording(t *testing.T) {
	InitMetrics(false)
	defer InitMetrics(true)

	before := testutil.ToFloat64(EnrichmentResultsTotal.WithLabelValues("used"))
	IncEnrichmentResult("used")
	assert.Equal(t, before, testutil.ToFloat64(EnrichmentResultsTotal.WithLabelValues("used")))
	assert.False(t, Enabled())
}

func TestObserveDbOperationDuration_Status(t *testing.T) {
	InitMetrics(true)
	ObserveDbOperationDuration("ListInteractions", "interaction", time.Millisecond, errors.New("boom"))
	ObserveDbOperationDuration("ListInteractions", "interaction", time.Millisecond, nil)

	assert.Equal(t, 2, testutil.CollectAndCount(DatabaseOperationDurationSeconds, "crm_insights_db_operation_duration_seconds"))
}

func TestSanitizeErrorType(t *testing.T) {
	tests := map[string]string{
		"":                                 "none",
		"database error: connection reset": "database",
		"validation failed: field":         "validation",
		"resource not found":               "not_found",
		"nats communication error":         "nats",
		"context deadline exceeded":        "timeout",
		"json: cannot unmarshal":           "unmarshal",
		"panic recovered: x":               "panic",
		"something else":                   "unknown",
	}
	for input, expected := range tests {
		assert.Equal(t, expected, SanitizeErrorType(input), input)
	}
}
