// Package dedup decides whether a newly scraped job duplicates an already
// stored one, before it ever reaches the classification queue.
package dedup

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mwhitfield/signalhound/internal/store"
)

// Store is the job-store surface the engine consumes.
type Store interface {
	JobExists(ctx context.Context, jobID string) (bool, error)
	FindJobByCompanyTitle(ctx context.Context, company, title string) (*store.Job, error)
	InsertJob(ctx context.Context, job *store.Job) error
}

// Candidate is a raw scraped posting as handed over by the scraper.
type Candidate struct {
	Company     string    `json:"company"`
	JobTitle    string    `json:"job_title"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	JobURL      string    `json:"job_url"`
	Platform    string    `json:"platform"`
	SearchTerm  string    `json:"search_term"`
	ScrapedAt   time.Time `json:"scraped_at"`
}

// Result is the duplicate verdict for one candidate.
type Result struct {
	Status      string // store.DedupStatus* constant
	Confidence  int    // 100 exact, 85 fuzzy, 0 new
	DuplicateOf string // job_id of the matched prior job, if any
}

// Engine checks candidates against the job store and writes them in with
// their duplicate marker. Ingestion is never blocked: every candidate is
// stored, only its classification eligibility differs.
type Engine struct {
	store  Store
	logger *zap.SugaredLogger
}

// New creates a dedup engine.
func New(s Store, logger *zap.SugaredLogger) *Engine {
	return &Engine{store: s, logger: logger}
}

// Ingest computes the candidate's duplicate verdict and writes it to the job
// store. Exact matches share a fingerprint with a stored job; fuzzy matches
// share the (normalized company, normalized title) key under a different
// listing, which would otherwise re-classify the same employer/role pair.
func (e *Engine) Ingest(ctx context.Context, c Candidate) (*store.Job, Result, error) {
	if c.Platform == "" {
		c.Platform = store.DetectPlatform(c.JobURL)
	}
	if c.ScrapedAt.IsZero() {
		c.ScrapedAt = time.Now().UTC()
	}

	jobID := store.JobFingerprint(c.Platform, c.Company, c.JobTitle, c.Location, c.JobURL)

	result, err := e.classify(ctx, jobID, c)
	if err != nil {
		return nil, Result{}, err
	}

	job := &store.Job{
		JobID:       jobID,
		Company:     c.Company,
		JobTitle:    c.JobTitle,
		Location:    c.Location,
		Description: c.Description,
		JobURL:      c.JobURL,
		Platform:    c.Platform,
		SearchTerm:  c.SearchTerm,
		ScrapedAt:   c.ScrapedAt,
		DedupStatus: result.Status,
	}
	if result.DuplicateOf != "" {
		job.DuplicateOf = &result.DuplicateOf
	}

	if err := e.store.InsertJob(ctx, job); err != nil {
		return nil, Result{}, fmt.Errorf("ingesting %q at %q: %w", c.JobTitle, c.Company, err)
	}

	e.logger.Debugw("candidate ingested",
		"job_id", jobID,
		"company", c.Company,
		"dedup_status", result.Status,
		"confidence", result.Confidence,
	)

	return job, result, nil
}

func (e *Engine) classify(ctx context.Context, jobID string, c Candidate) (Result, error) {
	exists, err := e.store.JobExists(ctx, jobID)
	if err != nil {
		return Result{}, fmt.Errorf("checking exact duplicate: %w", err)
	}
	if exists {
		return Result{Status: store.DedupStatusExactDuplicate, Confidence: 100, DuplicateOf: jobID}, nil
	}

	// Missing company or title disables the fuzzy check for this record.
	if store.NormalizeCompany(c.Company) == "" || store.NormalizeTitle(c.JobTitle) == "" {
		return Result{Status: store.DedupStatusNew}, nil
	}

	prior, err := e.store.FindJobByCompanyTitle(ctx, c.Company, c.JobTitle)
	if err != nil {
		return Result{}, fmt.Errorf("checking fuzzy duplicate: %w", err)
	}
	if prior != nil {
		return Result{Status: store.DedupStatusFuzzyDuplicate, Confidence: 85, DuplicateOf: prior.JobID}, nil
	}

	return Result{Status: store.DedupStatusNew}, nil
}
