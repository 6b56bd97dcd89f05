// Package worker owns the classification control loop: it drains
// unprocessed jobs and resolves each one to a verdict, or a terminal
// failure, exactly once.
package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mwhitfield/signalhound/internal/classifier"
	"github.com/mwhitfield/signalhound/internal/metrics"
	"github.com/mwhitfield/signalhound/internal/skipcache"
	"github.com/mwhitfield/signalhound/internal/store"
	"github.com/mwhitfield/signalhound/internal/types"
)

// JobStore is the job-store surface the worker consumes.
type JobStore interface {
	SelectUnprocessed(ctx context.Context, limit int) ([]store.Job, error)
	MarkProcessed(ctx context.Context, jobID string, skipped bool, errMsg string) error
}

// Registry is the company-registry surface the worker consumes.
type Registry interface {
	UpsertDetection(ctx context.Context, det store.Detection) (*store.IdentifiedCompany, bool, error)
}

// Classifier resolves one job to a verdict.
type Classifier interface {
	Classify(ctx context.Context, req classifier.Request) (types.Verdict, error)
}

// Cache is the skip-cache surface the worker consumes.
type Cache interface {
	ShouldSkip(company string, tool types.Tool) (bool, string)
	Insert(rec *store.IdentifiedCompany)
}

// Options tune the loop. Zero values are replaced with the defaults below.
type Options struct {
	BatchSize       int
	ClassifyTimeout time.Duration
	Retry           RetryPolicy
	CallDelay       time.Duration
	IdleBackoffMin  time.Duration
	IdleBackoffMax  time.Duration
}

func (o *Options) applyDefaults() {
	if o.BatchSize <= 0 {
		o.BatchSize = 20
	}
	if o.ClassifyTimeout <= 0 {
		o.ClassifyTimeout = 30 * time.Second
	}
	if o.Retry.MaxRetries == 0 {
		o.Retry.MaxRetries = 3
	}
	if o.Retry.BaseDelay <= 0 {
		o.Retry.BaseDelay = 2 * time.Second
	}
	if o.IdleBackoffMin <= 0 {
		o.IdleBackoffMin = 5 * time.Second
	}
	if o.IdleBackoffMax < o.IdleBackoffMin {
		o.IdleBackoffMax = 30 * time.Second
	}
}

// Stats are the worker's cumulative counters, reported on shutdown.
type Stats struct {
	Processed int64 // jobs driven through the loop, any outcome
	Skipped   int64 // resolved by the skip-cache without a remote call
	Detected  int64 // positive verdicts merged into the registry
	Errors    int64 // jobs marked processed with a terminal error
}

// Worker is the single sequential control loop per pipeline instance.
// Classification calls are issued one at a time, deliberately: the remote
// service is rate limited and sequential processing keeps the registry's
// select-then-write upsert race-free.
type Worker struct {
	jobs     JobStore
	registry Registry
	clf      Classifier
	cache    Cache
	opts     Options
	logger   *zap.SugaredLogger

	mu    sync.Mutex
	stats Stats
}

// New creates a Worker.
func New(jobs JobStore, registry Registry, clf Classifier, cache Cache, opts Options, logger *zap.SugaredLogger) *Worker {
	opts.applyDefaults()
	return &Worker{
		jobs:     jobs,
		registry: registry,
		clf:      clf,
		cache:    cache,
		opts:     opts,
		logger:   logger,
	}
}

// Stats returns a snapshot of the cumulative counters.
func (w *Worker) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

// Run drives the loop until ctx is cancelled. On cancellation the in-flight
// job is finished and marked, the cumulative counters are logged, and Run
// returns nil; no job is ever left stuck mid-processing.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Infow("classification worker started",
		"batch_size", w.opts.BatchSize,
		"classify_timeout", w.opts.ClassifyTimeout,
		"max_retries", w.opts.Retry.MaxRetries,
	)

	pace := newPacer(w.opts.CallDelay)
	idle := w.opts.IdleBackoffMin

	for {
		if err := ctx.Err(); err != nil {
			break
		}

		batch, err := w.jobs.SelectUnprocessed(ctx, w.opts.BatchSize)
		if err != nil {
			// A store hiccup never aborts the loop; back off and re-poll.
			// The backoff grows like the empty-queue path so a down store
			// is not hammered at the minimum interval.
			w.logger.Errorw("failed to pull batch", "error", err)
			if !w.sleep(ctx, idle) {
				break
			}
			idle = min(idle*2, w.opts.IdleBackoffMax)
			continue
		}

		if len(batch) == 0 {
			// Polling design: the job store is passive, so an empty pull
			// sleeps with growing backoff instead of busy-looping.
			if !w.sleep(ctx, idle) {
				break
			}
			idle = min(idle*2, w.opts.IdleBackoffMax)
			continue
		}
		idle = w.opts.IdleBackoffMin

		for i := range batch {
			if ctx.Err() != nil {
				break
			}
			w.processJob(ctx, &batch[i], pace)
		}
	}

	stats := w.Stats()
	w.logger.Infow("classification worker stopped",
		"processed", stats.Processed,
		"skipped", stats.Skipped,
		"detected", stats.Detected,
		"errors", stats.Errors,
	)
	return nil
}

// processJob resolves one job end to end. The job's own work runs on a
// context detached from the stop signal so that cancellation finishes the
// in-flight job instead of abandoning it half-marked; only the waits in
// between honor ctx directly.
func (w *Worker) processJob(ctx context.Context, job *store.Job, pace *pacer) {
	jobCtx := context.WithoutCancel(ctx)
	tool := skipcache.ToolFromSearchTerm(job.SearchTerm)

	if skip, reason := w.cache.ShouldSkip(job.Company, tool); skip {
		w.logger.Debugw("job skipped", "job_id", job.JobID, "company", job.Company, "reason", reason)
		w.finishJob(jobCtx, job.JobID, true, "")
		w.count(func(s *Stats) { s.Skipped++ })
		metrics.JobsSkipped.Inc()
		return
	}

	if err := pace.wait(ctx); err != nil {
		// Stop signal while pacing; the job was not claimed yet and stays
		// unprocessed for the next run.
		return
	}
	pace.record()

	verdict, err := w.classifyWithRetry(jobCtx, job)
	if err != nil {
		// Retries exhausted: record the error and move on with an implicit
		// no-detection outcome. A flaky remote call never strands a job.
		w.logger.Warnw("classification failed terminally",
			"job_id", job.JobID, "company", job.Company, "error", err)
		w.finishJob(jobCtx, job.JobID, false, err.Error())
		w.count(func(s *Stats) { s.Errors++ })
		metrics.JobsErrored.Inc()
		return
	}

	var upsertErr string
	if verdict.Positive() {
		record, created, err := w.registry.UpsertDetection(jobCtx, store.Detection{
			Company:        job.Company,
			Tool:           verdict.Tool,
			Signal:         verdict.Signal,
			Evidence:       verdict.Evidence,
			SourceJobTitle: job.JobTitle,
			SourceJobURL:   job.JobURL,
			Platform:       job.Platform,
		})
		if err != nil {
			w.logger.Errorw("registry upsert failed",
				"job_id", job.JobID, "company", job.Company, "error", err)
			upsertErr = err.Error()
		} else {
			w.cache.Insert(record)
			w.count(func(s *Stats) { s.Detected++ })
			metrics.Detections.WithLabelValues(string(verdict.Tool)).Inc()
			w.logger.Infow("tool detected",
				"company", job.Company,
				"tool", verdict.Tool,
				"signal", verdict.Signal,
				"new_record", created,
			)
		}
	}

	w.finishJob(jobCtx, job.JobID, false, upsertErr)
	if upsertErr != "" {
		w.count(func(s *Stats) { s.Errors++ })
		metrics.JobsErrored.Inc()
	}
}

// classifyWithRetry issues the classification call under the hard per-call
// timeout, retrying transient failures per the retry policy.
func (w *Worker) classifyWithRetry(ctx context.Context, job *store.Job) (types.Verdict, error) {
	var verdict types.Verdict

	start := time.Now()
	err := retryDo(ctx, w.opts.Retry, w.logger, metrics.ClassifyRetries.Inc, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, w.opts.ClassifyTimeout)
		defer cancel()

		v, err := w.clf.Classify(callCtx, classifier.Request{
			Company:     job.Company,
			JobTitle:    job.JobTitle,
			Description: job.Description,
		})
		if err != nil {
			return err
		}
		verdict = v
		return nil
	})
	metrics.ClassifyLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		return types.DefaultVerdict(), err
	}
	return verdict, nil
}

// finishJob marks the job processed exactly once, with its outcome.
func (w *Worker) finishJob(ctx context.Context, jobID string, skipped bool, errMsg string) {
	if err := w.jobs.MarkProcessed(ctx, jobID, skipped, errMsg); err != nil {
		w.logger.Errorw("failed to mark job processed", "job_id", jobID, "error", err)
		return
	}
	w.count(func(s *Stats) { s.Processed++ })
	metrics.JobsProcessed.Inc()
}

func (w *Worker) count(mutate func(*Stats)) {
	w.mu.Lock()
	mutate(&w.stats)
	w.mu.Unlock()
}

// sleep waits for d or until ctx is cancelled; returns false on cancel.
func (w *Worker) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
