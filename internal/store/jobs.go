package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

const jobColumns = `job_id, company, job_title, location, description, job_url,
	platform, search_term, scraped_at, dedup_status, duplicate_of,
	processed, processed_at, skipped, last_error, created_at`

func scanJob(row pgx.Row) (*Job, error) {
	var j Job
	err := row.Scan(&j.JobID, &j.Company, &j.JobTitle, &j.Location, &j.Description,
		&j.JobURL, &j.Platform, &j.SearchTerm, &j.ScrapedAt, &j.DedupStatus,
		&j.DuplicateOf, &j.Processed, &j.ProcessedAt, &j.Skipped, &j.LastError,
		&j.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan job: %w", err)
	}
	return &j, nil
}

// InsertJob writes a job record. Candidates are always written regardless of
// their dedup verdict; classification eligibility is carried by dedup_status.
// An insert racing a re-scrape of the same posting is a no-op.
func (db *DB) InsertJob(ctx context.Context, job *Job) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO jobs (job_id, company, job_title, location, description,
		                   job_url, platform, search_term, scraped_at,
		                   dedup_status, duplicate_of)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (job_id) DO NOTHING`,
		job.JobID, job.Company, job.JobTitle, job.Location, job.Description,
		job.JobURL, job.Platform, job.SearchTerm, job.ScrapedAt,
		job.DedupStatus, job.DuplicateOf,
	)
	if err != nil {
		return fmt.Errorf("failed to insert job: %w", err)
	}
	return nil
}

// GetJob retrieves a job by its fingerprint ID.
func (db *DB) GetJob(ctx context.Context, jobID string) (*Job, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE job_id = $1`, jobID)
	return scanJob(row)
}

// JobExists reports whether a job with the given fingerprint is stored.
func (db *DB) JobExists(ctx context.Context, jobID string) (bool, error) {
	var exists bool
	err := db.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM jobs WHERE job_id = $1)`, jobID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check job existence: %w", err)
	}
	return exists, nil
}

// FindJobByCompanyTitle returns the oldest stored job sharing the
// (normalized company, normalized title) lookup key, or nil.
func (db *DB) FindJobByCompanyTitle(ctx context.Context, company, title string) (*Job, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM jobs
		 WHERE LOWER(TRIM(company)) = $1 AND LOWER(TRIM(job_title)) = $2
		 ORDER BY scraped_at ASC LIMIT 1`,
		NormalizeCompany(company), NormalizeTitle(title))
	return scanJob(row)
}

// SelectUnprocessed pulls a bounded batch of classification-eligible jobs,
// oldest first. Duplicates never enter the batch.
func (db *DB) SelectUnprocessed(ctx context.Context, limit int) ([]Job, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+jobColumns+` FROM jobs
		 WHERE NOT processed AND dedup_status = $1
		 ORDER BY scraped_at ASC LIMIT $2`,
		DedupStatusNew, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select unprocessed jobs: %w", err)
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var j Job
		if err := rows.Scan(&j.JobID, &j.Company, &j.JobTitle, &j.Location,
			&j.Description, &j.JobURL, &j.Platform, &j.SearchTerm, &j.ScrapedAt,
			&j.DedupStatus, &j.DuplicateOf, &j.Processed, &j.ProcessedAt,
			&j.Skipped, &j.LastError, &j.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// MarkProcessed transitions a job out of the unprocessed pool exactly once,
// recording the outcome. errMsg is empty for clean outcomes.
func (db *DB) MarkProcessed(ctx context.Context, jobID string, skipped bool, errMsg string) error {
	var lastError *string
	if errMsg != "" {
		lastError = &errMsg
	}
	tag, err := db.pool.Exec(ctx,
		`UPDATE jobs SET processed = TRUE, processed_at = $2, skipped = $3, last_error = $4
		 WHERE job_id = $1`,
		jobID, time.Now().UTC(), skipped, lastError)
	if err != nil {
		return fmt.Errorf("failed to mark job processed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("job not found: %s", jobID)
	}
	return nil
}

// CountJobs returns total, unprocessed, and duplicate job counts for the
// stats surface.
func (db *DB) CountJobs(ctx context.Context) (total, unprocessed, duplicates int64, err error) {
	err = db.pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE NOT processed AND dedup_status = $1),
		        COUNT(*) FILTER (WHERE dedup_status <> $1)
		 FROM jobs`,
		DedupStatusNew,
	).Scan(&total, &unprocessed, &duplicates)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("failed to count jobs: %w", err)
	}
	return total, unprocessed, duplicates, nil
}
