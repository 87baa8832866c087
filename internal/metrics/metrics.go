// Package metrics defines the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Case workflow metrics
	IncidentsReported = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "safecase_incidents_reported_total",
			Help: "Total number of incident reports received",
		},
	)

	CasesCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "safecase_cases_created_total",
			Help: "Total number of cases opened from incidents",
		},
	)

	CasesUpdated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "safecase_cases_updated_total",
			Help: "Total number of case mutations",
		},
	)

	// Export metrics
	ExportsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "safecase_case_exports_total",
			Help: "Total number of case exports produced",
		},
	)

	ExportRows = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "safecase_case_export_rows_total",
			Help: "Total number of rows written across all exports",
		},
	)

	// Chat relay metrics
	ChatStreams = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "safecase_chat_streams_total",
			Help: "Total number of chat relay streams by outcome",
		},
		[]string{"outcome"},
	)

	ChatFragments = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "safecase_chat_fragments_total",
			Help: "Total number of fragments relayed to clients",
		},
	)

	ChatStreamDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "safecase_chat_stream_duration_seconds",
			Help:    "Duration of chat relay streams in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Chat stream outcomes.
const (
	OutcomeCompleted = "completed"
	OutcomeCancelled = "cancelled"
	OutcomeError     = "error"
)
