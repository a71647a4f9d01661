package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds the Prometheus metrics of the HTTP API.
type Collector struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RowsServed      *prometheus.CounterVec
	Collections     *prometheus.GaugeVec

	Reloads      prometheus.Counter
	ReloadErrors prometheus.Counter
}

// NewCollector creates the metrics and registers them with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "nanomodel",
				Name:      "requests_total",
				Help:      "Total number of requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "nanomodel",
				Name:      "request_duration_seconds",
				Help:      "Request duration in seconds",
				Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"method", "route"},
		),
		RowsServed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "nanomodel",
				Name:      "rows_served_total",
				Help:      "Total number of rows returned, by collection",
			},
			[]string{"collection"},
		),
		Collections: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "nanomodel",
				Name:      "collection_rows",
				Help:      "Number of rows held per collection after the last load",
			},
			[]string{"collection"},
		),
		Reloads: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "nanomodel",
				Name:      "reloads_total",
				Help:      "Total number of snapshot reloads",
			},
		),
		ReloadErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "nanomodel",
				Name:      "reload_errors_total",
				Help:      "Total number of failed snapshot reloads",
			},
		),
	}
}
