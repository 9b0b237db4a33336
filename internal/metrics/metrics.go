// Package metrics holds the Prometheus collectors for census ingestion.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ingestion outcomes.
const (
	OutcomeCreated       = "created"
	OutcomeInvalidFile   = "invalid_file"
	OutcomeNoValidRows   = "no_valid_rows"
	OutcomeStorageFailed = "storage_failed"
)

// Classification outcomes.
const (
	ClassifyClassified   = "classified"
	ClassifyUnclassified = "unclassified"
	ClassifyFailed       = "failed"
	ClassifyTimeout      = "timeout"
	ClassifyDisabled     = "disabled"
)

var (
	// Ingestions counts ingestion attempts by outcome.
	Ingestions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "herdsnap",
		Name:      "ingestions_total",
		Help:      "Census ingestions by outcome",
	}, []string{"outcome"})

	// IngestRows counts validated rows by result (accepted or rejected).
	IngestRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "herdsnap",
		Name:      "ingest_rows_total",
		Help:      "Census rows by validation result",
	}, []string{"result"})

	// Classifications counts per-row classifier calls by outcome.
	Classifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "herdsnap",
		Name:      "classifications_total",
		Help:      "Per-row classification outcomes",
	}, []string{"outcome"})

	// IngestDuration tracks end-to-end ingestion latency.
	IngestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "herdsnap",
		Name:      "ingest_duration_seconds",
		Help:      "Census ingestion duration in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
	})

	// ArchivesSwept counts orphaned archives removed by the janitor.
	ArchivesSwept = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "herdsnap",
		Name:      "archives_swept_total",
		Help:      "Orphaned census archives deleted by the janitor",
	})
)
