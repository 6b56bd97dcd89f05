package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mwhitfield/signalhound/internal/types"
)

const companyColumns = `id, company, company_normalized, tool, signal_type,
	evidence, source_job_title, source_job_url, platform,
	first_identified_at, last_confirmed_at`

func scanCompany(row pgx.Row) (*IdentifiedCompany, error) {
	var c IdentifiedCompany
	err := row.Scan(&c.ID, &c.Company, &c.CompanyNormalized, &c.Tool, &c.Signal,
		&c.Evidence, &c.SourceJobTitle, &c.SourceJobURL, &c.Platform,
		&c.FirstIdentifiedAt, &c.LastConfirmedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan identified company: %w", err)
	}
	return &c, nil
}

// GetByCompanyTool retrieves the registry row for a (normalized company,
// tool) pair, or nil if none exists.
func (db *DB) GetByCompanyTool(ctx context.Context, normalized string, tool types.Tool) (*IdentifiedCompany, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+companyColumns+` FROM identified_companies
		 WHERE company_normalized = $1 AND tool = $2`,
		normalized, tool)
	return scanCompany(row)
}

// ListIdentified returns all registry rows, for skip-cache loads.
func (db *DB) ListIdentified(ctx context.Context) ([]IdentifiedCompany, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+companyColumns+` FROM identified_companies
		 ORDER BY first_identified_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list identified companies: %w", err)
	}
	defer rows.Close()

	var companies []IdentifiedCompany
	for rows.Next() {
		var c IdentifiedCompany
		if err := rows.Scan(&c.ID, &c.Company, &c.CompanyNormalized, &c.Tool,
			&c.Signal, &c.Evidence, &c.SourceJobTitle, &c.SourceJobURL,
			&c.Platform, &c.FirstIdentifiedAt, &c.LastConfirmedAt); err != nil {
			return nil, fmt.Errorf("failed to scan identified company: %w", err)
		}
		companies = append(companies, c)
	}
	return companies, rows.Err()
}

// UpsertDetection merges a positive verdict into the registry. If no row
// exists for the (normalized company, tool) pair a new one is created;
// otherwise evidence and source metadata are refreshed and last_confirmed_at
// is bumped. first_identified_at is never overwritten.
//
// The worker processes jobs sequentially, so the select-then-write here is
// race-free as designed. The unique constraint still backs it: a
// duplicate-candidate insert degrades to an update, never a dropped job.
func (db *DB) UpsertDetection(ctx context.Context, det Detection) (*IdentifiedCompany, bool, error) {
	normalized := NormalizeCompany(det.Company)
	if normalized == "" {
		return nil, false, fmt.Errorf("company name cannot be empty")
	}

	existing, err := db.GetByCompanyTool(ctx, normalized, det.Tool)
	if err != nil {
		return nil, false, err
	}

	var record *IdentifiedCompany
	created := false
	if existing == nil {
		record, err = db.insertDetection(ctx, normalized, det)
		if err != nil {
			return nil, false, err
		}
		created = true
	} else {
		record, err = db.refreshDetection(ctx, existing.ID.String(), det)
		if err != nil {
			return nil, false, err
		}
	}

	// A 'both' verdict subsumes the singular rows: keep one row carrying the
	// earliest first-seen timestamp across all three.
	if det.Tool == types.ToolBoth {
		record, err = db.mergeBoth(ctx, normalized)
		if err != nil {
			return nil, false, err
		}
	}

	return record, created, nil
}

func (db *DB) insertDetection(ctx context.Context, normalized string, det Detection) (*IdentifiedCompany, error) {
	row := db.pool.QueryRow(ctx,
		`INSERT INTO identified_companies
		     (company, company_normalized, tool, signal_type, evidence,
		      source_job_title, source_job_url, platform)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (company_normalized, tool) DO UPDATE SET
		     signal_type = EXCLUDED.signal_type,
		     evidence = EXCLUDED.evidence,
		     source_job_title = EXCLUDED.source_job_title,
		     source_job_url = EXCLUDED.source_job_url,
		     platform = EXCLUDED.platform,
		     last_confirmed_at = NOW()
		 RETURNING `+companyColumns,
		det.Company, normalized, det.Tool, det.Signal,
		types.TruncateEvidence(det.Evidence),
		det.SourceJobTitle, det.SourceJobURL, det.Platform)

	record, err := scanCompany(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			return nil, fmt.Errorf("failed to insert detection (%s): %w", pgErr.Code, err)
		}
		return nil, fmt.Errorf("failed to insert detection: %w", err)
	}
	return record, nil
}

func (db *DB) refreshDetection(ctx context.Context, id string, det Detection) (*IdentifiedCompany, error) {
	row := db.pool.QueryRow(ctx,
		`UPDATE identified_companies SET
		     signal_type = $2,
		     evidence = $3,
		     source_job_title = $4,
		     source_job_url = $5,
		     platform = $6,
		     last_confirmed_at = NOW()
		 WHERE id = $1
		 RETURNING `+companyColumns,
		id, det.Signal, types.TruncateEvidence(det.Evidence),
		det.SourceJobTitle, det.SourceJobURL, det.Platform)

	record, err := scanCompany(row)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh detection: %w", err)
	}
	if record == nil {
		return nil, fmt.Errorf("identified company vanished during refresh: %s", id)
	}
	return record, nil
}

// mergeBoth collapses outreach/salesloft rows into the company's 'both' row,
// preserving the earliest first_identified_at among them.
func (db *DB) mergeBoth(ctx context.Context, normalized string) (*IdentifiedCompany, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin merge: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var earliest time.Time
	err = tx.QueryRow(ctx,
		`SELECT MIN(first_identified_at) FROM identified_companies
		 WHERE company_normalized = $1`,
		normalized,
	).Scan(&earliest)
	if err != nil {
		return nil, fmt.Errorf("failed to find earliest identification: %w", err)
	}

	_, err = tx.Exec(ctx,
		`DELETE FROM identified_companies
		 WHERE company_normalized = $1 AND tool IN ($2, $3)`,
		normalized, types.ToolOutreach, types.ToolSalesloft)
	if err != nil {
		return nil, fmt.Errorf("failed to remove subsumed rows: %w", err)
	}

	row := tx.QueryRow(ctx,
		`UPDATE identified_companies SET first_identified_at = $2
		 WHERE company_normalized = $1 AND tool = $3
		 RETURNING `+companyColumns,
		normalized, earliest, types.ToolBoth)
	record, err := scanCompany(row)
	if err != nil {
		return nil, fmt.Errorf("failed to update merged row: %w", err)
	}
	if record == nil {
		return nil, fmt.Errorf("missing 'both' row for %s during merge", normalized)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit merge: %w", err)
	}
	return record, nil
}

// CountByTool returns registry row counts keyed by tool, for the stats
// surface.
func (db *DB) CountByTool(ctx context.Context) (map[types.Tool]int64, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT tool, COUNT(*) FROM identified_companies GROUP BY tool`)
	if err != nil {
		return nil, fmt.Errorf("failed to count identified companies: %w", err)
	}
	defer rows.Close()

	counts := make(map[types.Tool]int64)
	for rows.Next() {
		var tool types.Tool
		var n int64
		if err := rows.Scan(&tool, &n); err != nil {
			return nil, fmt.Errorf("failed to scan tool count: %w", err)
		}
		counts[tool] = n
	}
	return counts, rows.Err()
}
