package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Define global variables for metrics.
// We use 'promauto' which automatically registers metrics without complex initialization.

var (
	// HTTP Requests Total (Counter)
	// Counts how many requests arrive, labeled by method, path, and status code.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "treebrowser_http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "path", "status"},
	)

	// HTTP Request Duration (Histogram)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "treebrowser_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	// Node-view cache effectiveness on the data API.
	CacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "treebrowser_cache_hits_total",
		Help: "Total number of node-view cache hits",
	})
	CacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "treebrowser_cache_misses_total",
		Help: "Total number of node-view cache misses",
	})

	// Scene engine state gauges, updated by the cluster registry.
	SceneInstancesLive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "treebrowser_scene_instances_live",
		Help: "Number of node instances currently held by the cluster registry",
	})
	SceneInstancesEnabled = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "treebrowser_scene_instances_enabled",
		Help: "Number of node instances currently enabled (visible)",
	})
	SceneVisibleClusters = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "treebrowser_scene_visible_clusters",
		Help: "Number of clusters in the visible set",
	})

	// Synchronization passes, labeled by outcome: ok, partial, failed, superseded.
	SyncPassesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "treebrowser_sync_passes_total",
			Help: "Total number of focus-change synchronization passes",
		},
		[]string{"outcome"},
	)

	// SweepDuration measures mark-and-sweep cleanup time.
	SweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "treebrowser_sweep_duration_seconds",
		Help:    "Duration of registry cleanup sweeps in seconds",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	})
	SweptInstancesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "treebrowser_swept_instances_total",
		Help: "Total number of instances disposed by cleanup sweeps",
	})

	// Diagnostics for absorbed programmer errors and degraded placements.
	InvariantViolationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "treebrowser_invariant_violations_total",
		Help: "Total number of absorbed registry invariant violations",
	})
	DegradedPositionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "treebrowser_degraded_positions_total",
		Help: "Total number of positions computed without a resolved parent",
	})
)
