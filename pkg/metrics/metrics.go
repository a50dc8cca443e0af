// Package metrics holds the prometheus collectors for the pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Extraction outcomes
	ExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enquote_extractions_total",
			Help: "Total number of citation extractions",
		},
		[]string{"kind", "status"}, // status: success, no_match, error
	)

	ExtractionLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "enquote_extraction_latency_seconds",
			Help:    "End-to-end extraction latency in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"kind"},
	)

	// Archive capture
	ArchiveWaitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enquote_archive_waits_total",
			Help: "Archive waits by outcome",
		},
		[]string{"outcome"}, // outcome: captured, timeout, cancelled, rejected
	)

	ArchiveWaitSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "enquote_archive_wait_seconds",
			Help:    "Time spent waiting for an archive permanent link",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 60},
		},
	)

	PendingArchiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "enquote_archive_pending_requests",
			Help: "Archive requests currently awaiting a permanent link",
		},
	)

	// Structured data
	StructuredBlocksSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "enquote_structured_blocks_skipped_total",
			Help: "Malformed linked-data blocks skipped during fallback extraction",
		},
	)

	CatalogLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enquote_catalog_lookups_total",
			Help: "Catalog API lookups by cache result",
		},
		[]string{"cache"}, // cache: hit, miss
	)
)
