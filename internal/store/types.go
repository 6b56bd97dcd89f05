package store

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mwhitfield/signalhound/internal/types"
)

// Platform constants for job boards.
const (
	PlatformLinkedIn = "linkedin"
	PlatformIndeed   = "indeed"
	PlatformUnknown  = "unknown"
)

// DedupStatus constants; assigned once at ingest and never revisited.
const (
	DedupStatusNew            = "new"
	DedupStatusExactDuplicate = "exact_duplicate"
	DedupStatusFuzzyDuplicate = "probable_duplicate"
)

// Job represents a scraped posting. The scraper creates these; only the
// dedup engine (dedup_status) and the classification worker (processed,
// processed_at, skipped, last_error) mutate them afterwards.
type Job struct {
	JobID       string    `json:"job_id"`
	Company     string    `json:"company"`
	JobTitle    string    `json:"job_title"`
	Location    string    `json:"location,omitempty"`
	Description string    `json:"description,omitempty"`
	JobURL      string    `json:"job_url,omitempty"`
	Platform    string    `json:"platform,omitempty"`
	SearchTerm  string    `json:"search_term,omitempty"`
	ScrapedAt   time.Time `json:"scraped_at"`

	DedupStatus string  `json:"dedup_status"`
	DuplicateOf *string `json:"duplicate_of,omitempty"`

	Processed   bool       `json:"processed"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	Skipped     bool       `json:"skipped"`
	LastError   *string    `json:"last_error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// IdentifiedCompany is a resolved fact: this company was observed using
// this tool. At most one row exists per (normalized company, tool).
type IdentifiedCompany struct {
	ID                uuid.UUID    `json:"id"`
	Company           string       `json:"company"`
	CompanyNormalized string       `json:"company_normalized"`
	Tool              types.Tool   `json:"tool"`
	Signal            types.Signal `json:"signal_type"`
	Evidence          string       `json:"evidence,omitempty"`
	SourceJobTitle    string       `json:"source_job_title,omitempty"`
	SourceJobURL      string       `json:"source_job_url,omitempty"`
	Platform          string       `json:"platform,omitempty"`
	FirstIdentifiedAt time.Time    `json:"first_identified_at"`
	LastConfirmedAt   time.Time    `json:"last_confirmed_at"`
}

// Detection is the input for merging a positive verdict into the registry.
type Detection struct {
	Company        string
	Tool           types.Tool
	Signal         types.Signal
	Evidence       string
	SourceJobTitle string
	SourceJobURL   string
	Platform       string
}

// NormalizeCompany lower-cases and trims a company name for identity
// comparison. This is the registry's unique-key normalization; keep it in
// sync with the fuzzy-duplicate lookup key.
func NormalizeCompany(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NormalizeTitle lower-cases and trims a job title for the fuzzy-duplicate
// lookup key.
func NormalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// JobFingerprint computes the stable job identity from the posting's
// signature fields. Re-scrapes of the same posting collapse to one key.
func JobFingerprint(platform, company, title, location, jobURL string) string {
	sig := strings.Join([]string{
		strings.ToLower(strings.TrimSpace(platform)),
		NormalizeCompany(company),
		NormalizeTitle(title),
		strings.ToLower(strings.TrimSpace(location)),
		strings.TrimSpace(jobURL),
	}, "|")
	hash := sha256.Sum256([]byte(sig))
	return hex.EncodeToString(hash[:])
}

// DetectPlatform attempts to detect the job board platform from a URL.
func DetectPlatform(url string) string {
	urlLower := strings.ToLower(url)
	switch {
	case strings.Contains(urlLower, "linkedin.com"):
		return PlatformLinkedIn
	case strings.Contains(urlLower, "indeed.com"):
		return PlatformIndeed
	default:
		return PlatformUnknown
	}
}
