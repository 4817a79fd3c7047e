package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all custom Prometheus metrics for the application
type Metrics struct {
	ChatRequests       prometheus.Counter
	ChatRequestLatency prometheus.Histogram
	ChatErrors         *prometheus.CounterVec
	IntentTotal        *prometheus.CounterVec
	DocumentsIngested  prometheus.Counter
}

var globalMetrics *Metrics

// InitMetrics initializes the Prometheus metrics
func InitMetrics() *Metrics {
	metrics := &Metrics{
		ChatRequests: promauto.NewCounter(prometheus.CounterOpts{
			Name: "noxy_chat_requests_total",
			Help: "Total number of chat requests processed",
		}),

		ChatRequestLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "noxy_chat_request_duration_seconds",
			Help:    "Chat request latency in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}),

		ChatErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "noxy_chat_errors_total",
			Help: "Total number of chat errors by type",
		}, []string{"error_type"}),

		IntentTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "noxy_intents_total",
			Help: "Total number of classified intents by label",
		}, []string{"intent"}),

		DocumentsIngested: promauto.NewCounter(prometheus.CounterOpts{
			Name: "noxy_documents_ingested_total",
			Help: "Total number of knowledge chunks added to the vector index",
		}),
	}

	globalMetrics = metrics
	return metrics
}

// GetMetrics returns the global metrics instance (nil until InitMetrics)
func GetMetrics() *Metrics {
	return globalMetrics
}
