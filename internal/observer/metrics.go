package observer

import (
	"strings"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var metricsEnabled atomic.Bool

func init() {
	metricsEnabled.Store(true)
}

// Insight request metrics
var (
	insightRequestLabels = []string{"transport", "outcome"}

	InsightRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_insights_requests_total",
			Help: "Total number of insight requests, labeled by transport and outcome.",
		},
		insightRequestLabels,
	)
	InsightRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crm_insights_request_duration_seconds",
			Help:    "Histogram of end-to-end insight request durations.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 14), // 5ms to ~40s
		},
		insightRequestLabels,
	)
	InsightEngagementTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_insights_engagement_level_total",
			Help: "Count of produced profiles by engagement level.",
		},
		[]string{"engagement_level", "ai_powered"},
	)
)

// Enrichment metrics
var (
	EnrichmentResultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_insights_enrichment_results_total",
			Help: "Outcomes of enrichment attempts (used, skipped, unavailable, rejected, invalid_response, parse).",
		},
		[]string{"result"},
	)
	EnrichmentDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crm_insights_enrichment_duration_seconds",
			Help:    "Histogram of text-generation call durations.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 11), // 50ms to ~50s
		},
		[]string{"result"},
	)
)

// Ingestion metrics
var (
	eventProcessingLabels = []string{"event_type", "consumer_type"}
	eventActionLabels     = []string{"event_type", "consumer_type", "action", "error_type"}

	EventsReceivedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_insights_events_received_total",
			Help: "Total number of CRM events received from NATS.",
		},
		eventProcessingLabels,
	)
	EventsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_insights_events_processed_total",
			Help: "Total number of CRM events successfully processed and acknowledged.",
		},
		eventProcessingLabels,
	)
	EventsFailedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_insights_events_failed_total",
			Help: "Total number of CRM events that failed processing.",
		},
		eventProcessingLabels,
	)
	EventProcessingDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crm_insights_event_processing_duration_seconds",
			Help:    "Histogram of event processing durations.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~20s
		},
		eventProcessingLabels,
	)
	EventProcessingActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_insights_event_processing_actions_total",
			Help: "Total count of ack/nak/term decisions taken after event processing, labeled by error type.",
		},
		eventActionLabels,
	)
)

// Database metrics
var (
	DatabaseOperationDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crm_insights_db_operation_duration_seconds",
			Help:    "Histogram of database operation durations.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~16s
		},
		[]string{"operation", "entity", "status"},
	)
)

// Worker pool metrics
var (
	insightPoolQueueLength = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "crm_insights_pool_waiting",
		Help: "Number of submitters blocked waiting for an insight worker.",
	})
	insightPoolRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "crm_insights_pool_running",
		Help: "Number of insight workers currently running.",
	})
)

// Load generator metrics
var (
	loadgenLabels = []string{"subject"}

	loadgenMessagesPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_insights_loadgen_messages_published_total",
			Help: "Total number of messages successfully published by the load generator.",
		},
		loadgenLabels,
	)
	loadgenPublishErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_insights_loadgen_publish_errors_total",
			Help: "Total number of errors encountered by the load generator during publishing.",
		},
		loadgenLabels,
	)
)

// InitMetrics toggles metric collection. Collectors are registered by
// promauto at package init; disabling only stops the helpers from recording.
func InitMetrics(enabled bool) {
	metricsEnabled.Store(enabled)
}

// Enabled reports whether the helpers currently record.
func Enabled() bool {
	return metricsEnabled.Load()
}

// ObserveInsightRequest records the outcome and duration of one insight request.
func ObserveInsightRequest(transport, outcome string, duration time.Duration) {
	if !Enabled() {
		return
	}
	InsightRequestsTotal.WithLabelValues(transport, outcome).Inc()
	InsightRequestDurationSeconds.WithLabelValues(transport, outcome).Observe(duration.Seconds())
}

// IncInsightEngagement counts a produced profile by its level.
func IncInsightEngagement(level string, aiPowered bool) {
	if !Enabled() {
		return
	}
	ai := "false"
	if aiPowered {
		ai = "true"
	}
	InsightEngagementTotal.WithLabelValues(level, ai).Inc()
}

// IncEnrichmentResult counts an enrichment outcome.
func IncEnrichmentResult(result string) {
	if !Enabled() {
		return
	}
	EnrichmentResultsTotal.WithLabelValues(result).Inc()
}

// ObserveEnrichmentDuration records the latency of a text-generation call.
func ObserveEnrichmentDuration(result string, duration time.Duration) {
	if !Enabled() {
		return
	}
	EnrichmentDurationSeconds.WithLabelValues(result).Observe(duration.Seconds())
}

// IncEventsReceived increments the events received counter.
func IncEventsReceived(eventType, consumerType string) {
	if !Enabled() {
		return
	}
	EventsReceivedTotal.WithLabelValues(eventType, consumerType).Inc()
}

// IncEventsProcessed increments the events processed counter.
func IncEventsProcessed(eventType, consumerType string) {
	if !Enabled() {
		return
	}
	EventsProcessedTotal.WithLabelValues(eventType, consumerType).Inc()
}

// IncEventsFailed increments the events failed counter.
func IncEventsFailed(eventType, consumerType string) {
	if !Enabled() {
		return
	}
	EventsFailedTotal.WithLabelValues(eventType, consumerType).Inc()
}

// ObserveEventProcessingDuration records the processing time for a specific event.
func ObserveEventProcessingDuration(eventType, consumerType string, duration time.Duration) {
	if !Enabled() {
		return
	}
	EventProcessingDurationSeconds.WithLabelValues(eventType, consumerType).Observe(duration.Seconds())
}

// IncEventProcessingAction increments the counter for a specific processing outcome.
func IncEventProcessingAction(eventType, consumerType, action, errorType string) {
	if !Enabled() {
		return
	}
	EventProcessingActionsTotal.WithLabelValues(eventType, consumerType, action, SanitizeErrorType(errorType)).Inc()
}

// ObserveDbOperationDuration records the duration for a database operation.
func ObserveDbOperationDuration(operation, entity string, duration time.Duration, err error) {
	if !Enabled() {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	DatabaseOperationDurationSeconds.WithLabelValues(operation, entity, status).Observe(duration.Seconds())
}

// SetInsightPoolStats publishes the current worker pool occupancy.
func SetInsightPoolStats(running, waiting int) {
	if !Enabled() {
		return
	}
	insightPoolRunning.Set(float64(running))
	insightPoolQueueLength.Set(float64(waiting))
}

// IncLoadgenMessagesPublished increments the counter for successfully published messages.
func IncLoadgenMessagesPublished(subject string) {
	if !Enabled() {
		return
	}
	loadgenMessagesPublishedTotal.WithLabelValues(subject).Inc()
}

// IncLoadgenPublishErrors increments the counter for publishing errors.
func IncLoadgenPublishErrors(subject string) {
	if !Enabled() {
		return
	}
	loadgenPublishErrorsTotal.WithLabelValues(subject).Inc()
}

// SanitizeErrorType maps specific errors or provides a default category.
// Keep this simple to avoid high cardinality.
func SanitizeErrorType(errStr string) string {
	if errStr == "" || errStr == "none" {
		return "none"
	}

	switch {
	case strings.Contains(errStr, "database"), strings.Contains(errStr, "SQL"), strings.Contains(errStr, "duplicate key"), strings.Contains(errStr, "constraint"), strings.Contains(errStr, "connection"):
		return "database"
	case strings.Contains(errStr, "validation failed"), strings.Contains(errStr, "bad request"), strings.Contains(errStr, "invalid"), strings.Contains(errStr, "missing field"):
		return "validation"
	case strings.Contains(errStr, "not found"), strings.Contains(errStr, "no rows"):
		return "not_found"
	case strings.Contains(errStr, "nats"), strings.Contains(errStr, "jetstream"):
		return "nats"
	case strings.Contains(errStr, "timeout"), strings.Contains(errStr, "deadline exceeded"):
		return "timeout"
	case strings.Contains(errStr, "unmarshal"), strings.Contains(errStr, "json"):
		return "unmarshal"
	case strings.Contains(errStr, "panic"):
		return "panic"
	default:
		return "unknown"
	}
}
