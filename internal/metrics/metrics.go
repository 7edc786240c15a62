// Package metrics holds the Prometheus collectors for the scanner.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry bundles all niftyscan metrics on a private Prometheus registry.
type Registry struct {
	reg *prometheus.Registry

	ScanIterations prometheus.Counter
	FetchErrors    prometheus.Counter
	QuotesFetched  prometheus.Counter
	ShiftsDetected *prometheus.CounterVec
	FetchLatency   prometheus.Histogram
	TrackedSymbols prometheus.Gauge
}

// NewRegistry creates and registers the scanner metrics.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		ScanIterations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "niftyscan_scan_iterations_total",
			Help: "Total number of scan loop iterations executed",
		}),
		FetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "niftyscan_fetch_errors_total",
			Help: "Total number of failed NSE fetches",
		}),
		QuotesFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "niftyscan_quotes_fetched_total",
			Help: "Total number of constituent quotes fetched",
		}),
		ShiftsDetected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "niftyscan_shifts_detected_total",
			Help: "Total number of momentum shifts detected by direction",
		}, []string{"direction"}),
		FetchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "niftyscan_fetch_latency_seconds",
			Help:    "Latency of index fetches in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		}),
		TrackedSymbols: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "niftyscan_tracked_symbols",
			Help: "Number of symbols with an active price window",
		}),
	}

	r.reg.MustRegister(
		r.ScanIterations,
		r.FetchErrors,
		r.QuotesFetched,
		r.ShiftsDetected,
		r.FetchLatency,
		r.TrackedSymbols,
	)
	return r
}

// Gatherer exposes the underlying registry for the /metrics handler.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }
