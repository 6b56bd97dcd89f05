// Package metrics exposes the pipeline's aggregate counters to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline counters. All are cumulative; the worker also reports a snapshot
// of its own counters on shutdown.
var (
	JobsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "signalhound_jobs_processed_total",
		Help: "Jobs driven through the classification pipeline, any outcome.",
	})

	JobsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "signalhound_jobs_skipped_total",
		Help: "Jobs resolved by the skip-cache without a classification call.",
	})

	JobsErrored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "signalhound_jobs_errored_total",
		Help: "Jobs marked processed with a terminal classification error.",
	})

	Detections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "signalhound_detections_total",
		Help: "Positive tool detections merged into the company registry.",
	}, []string{"tool"})

	ClassifyRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "signalhound_classify_retries_total",
		Help: "Classification call retries after transient failures.",
	})

	ClassifyLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "signalhound_classify_latency_seconds",
		Help:    "Latency of classification calls, including retries.",
		Buckets: prometheus.DefBuckets,
	})
)
