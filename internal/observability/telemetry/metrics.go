package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Business metrics
	ReportsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fleetsight_reports_generated_total",
		Help: "Reports rendered successfully, by kind and format",
	}, []string{"kind", "format"})

	RenderDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fleetsight_render_duration_seconds",
		Help:    "Time spent rendering report documents",
		Buckets: prometheus.DefBuckets,
	}, []string{"format"})

	RenderFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fleetsight_render_failures_total",
		Help: "Failed or rejected render attempts, by format",
	}, []string{"format"})

	ReportDispatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fleetsight_report_dispatches_total",
		Help: "Asynchronous report dispatch outcomes",
	}, []string{"status"})

	PreviewCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fleetsight_preview_cache_hits_total",
		Help: "Report previews served from cache",
	})

	PreviewCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fleetsight_preview_cache_misses_total",
		Help: "Report previews assembled from storage",
	})

	// Infrastructure metrics
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fleetsight_http_requests_total",
		Help: "HTTP requests, by method, route and status code",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fleetsight_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	DatabaseLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fleetsight_database_latency_seconds",
		Help:    "Database query latency",
		Buckets: prometheus.DefBuckets,
	})
)
