// Package metrics provides Prometheus metrics for the ingestion service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "docingest"

// Pipeline metrics track Item throughput.
var (
	// ItemsTotal counts processed Items by source and final status.
	ItemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "items_total",
		Help:      "Total number of pipeline items by source and status",
	}, []string{"source", "status"})

	// ItemDuration is a histogram of per-Item pipeline duration in seconds.
	ItemDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "item_duration_seconds",
		Help:      "Duration of one item's full pipeline run in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12), // 0.1s to ~409s
	}, []string{"source"})
)

// Failure metrics break down where Items die.
var (
	// ProcessorFailuresTotal counts processor failures by processor name.
	ProcessorFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "processor_failures_total",
		Help:      "Total number of processor failures",
	}, []string{"processor"})

	// SinkFailuresTotal counts sink failures by sink name.
	SinkFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sink_failures_total",
		Help:      "Total number of sink failures",
	}, []string{"sink"})
)

// HTTP metrics track the API surface.
var (
	// RequestsTotal counts API requests by route and status code.
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests",
	}, []string{"route", "code"})

	// QueuedTasksTotal counts async ingestion tasks enqueued.
	QueuedTasksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "queued_tasks_total",
		Help:      "Total number of async ingestion tasks enqueued",
	})
)

// Handler returns the Prometheus scrape endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
