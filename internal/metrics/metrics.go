// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests"},
		[]string{"route", "method", "status"},
	)
	ReqDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Request duration seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	InFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "http_in_flight_requests", Help: "In-flight HTTP requests"},
	)

	// ProviderCalls counts bank-data provider calls by operation and outcome (ok, error).
	ProviderCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "provider_calls_total", Help: "Bank-data provider calls"},
		[]string{"op", "outcome"},
	)
	ProviderDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "provider_call_duration_seconds",
			Help:    "Bank-data provider call duration seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	// TransactionsIngested counts provider transactions by ingestion result
	// (inserted, duplicate, pending, reattached).
	TransactionsIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "transactions_ingested_total", Help: "Provider transactions seen during link and sync"},
		[]string{"mode", "result"},
	)
)

// MustRegister registers every collector with the default registry.
func MustRegister() {
	MustRegisterWith(prometheus.DefaultRegisterer)
}

// MustRegisterWith registers every collector with r.
func MustRegisterWith(r prometheus.Registerer) {
	r.MustRegister(RequestsTotal, ReqDuration, InFlight, ProviderCalls, ProviderDuration, TransactionsIngested)
}
