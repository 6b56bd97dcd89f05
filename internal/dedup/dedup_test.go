package dedup

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mwhitfield/signalhound/internal/store"
)

// fakeStore is an in-memory Store for exercising the engine.
type fakeStore struct {
	byID    map[string]*store.Job
	byFuzzy map[string]*store.Job
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		byID:    make(map[string]*store.Job),
		byFuzzy: make(map[string]*store.Job),
	}
}

func fuzzyKey(company, title string) string {
	return store.NormalizeCompany(company) + "\x00" + store.NormalizeTitle(title)
}

func (f *fakeStore) JobExists(_ context.Context, jobID string) (bool, error) {
	_, ok := f.byID[jobID]
	return ok, nil
}

func (f *fakeStore) FindJobByCompanyTitle(_ context.Context, company, title string) (*store.Job, error) {
	return f.byFuzzy[fuzzyKey(company, title)], nil
}

func (f *fakeStore) InsertJob(_ context.Context, job *store.Job) error {
	if _, ok := f.byID[job.JobID]; ok {
		return nil // ON CONFLICT DO NOTHING
	}
	f.byID[job.JobID] = job
	key := fuzzyKey(job.Company, job.JobTitle)
	if _, ok := f.byFuzzy[key]; !ok {
		f.byFuzzy[key] = job
	}
	return nil
}

func testEngine() (*Engine, *fakeStore) {
	fs := newFakeStore()
	return New(fs, zap.NewNop().Sugar()), fs
}

func candidate(company, title, url string) Candidate {
	return Candidate{
		Company:   company,
		JobTitle:  title,
		Location:  "Austin, TX",
		JobURL:    url,
		Platform:  "linkedin",
		ScrapedAt: time.Now().UTC(),
	}
}

func TestIngestNewJob(t *testing.T) {
	engine, fs := testEngine()

	job, res, err := engine.Ingest(context.Background(), candidate("Acme Inc", "SDR", "https://example.com/j/1"))
	require.NoError(t, err)

	assert.Equal(t, store.DedupStatusNew, res.Status)
	assert.Zero(t, res.Confidence)
	assert.Empty(t, res.DuplicateOf)
	assert.Len(t, fs.byID, 1)
	assert.Equal(t, store.DedupStatusNew, job.DedupStatus)
}

func TestIngestExactDuplicate(t *testing.T) {
	engine, fs := testEngine()
	ctx := context.Background()

	first, _, err := engine.Ingest(ctx, candidate("Acme Inc", "SDR", "https://example.com/j/1"))
	require.NoError(t, err)

	// Same signature fields collapse to the same fingerprint.
	_, res, err := engine.Ingest(ctx, candidate("acme inc", "sdr", "https://example.com/j/1"))
	require.NoError(t, err)

	assert.Equal(t, store.DedupStatusExactDuplicate, res.Status)
	assert.Equal(t, 100, res.Confidence)
	assert.Equal(t, first.JobID, res.DuplicateOf)
	assert.Len(t, fs.byID, 1, "re-scrape should not create a second record")
}

func TestIngestFuzzyDuplicate(t *testing.T) {
	engine, fs := testEngine()
	ctx := context.Background()

	first, _, err := engine.Ingest(ctx, candidate("Acme Inc", "SDR", "https://example.com/j/1"))
	require.NoError(t, err)

	// Same employer/role, different listing URL: probable duplicate, still
	// written to the store but never eligible for classification.
	job, res, err := engine.Ingest(ctx, candidate("acme inc", "SDR", "https://example.com/j/2"))
	require.NoError(t, err)

	assert.Equal(t, store.DedupStatusFuzzyDuplicate, res.Status)
	assert.Equal(t, 85, res.Confidence)
	assert.Equal(t, first.JobID, res.DuplicateOf)
	require.NotNil(t, job.DuplicateOf)
	assert.Equal(t, first.JobID, *job.DuplicateOf)
	assert.Len(t, fs.byID, 2, "fuzzy duplicates are still ingested")
}

func TestIngestDifferentTitleIsNew(t *testing.T) {
	engine, _ := testEngine()
	ctx := context.Background()

	_, _, err := engine.Ingest(ctx, candidate("Acme Inc", "SDR", "https://example.com/j/1"))
	require.NoError(t, err)

	_, res, err := engine.Ingest(ctx, candidate("Acme Inc", "AE", "https://example.com/j/3"))
	require.NoError(t, err)

	assert.Equal(t, store.DedupStatusNew, res.Status)
}

func TestIngestEmptyCompanyDisablesFuzzy(t *testing.T) {
	engine, _ := testEngine()
	ctx := context.Background()

	_, _, err := engine.Ingest(ctx, candidate("", "SDR", "https://example.com/j/1"))
	require.NoError(t, err)

	_, res, err := engine.Ingest(ctx, candidate("", "SDR", "https://example.com/j/2"))
	require.NoError(t, err)

	assert.Equal(t, store.DedupStatusNew, res.Status, "fuzzy check is disabled without a company")
}

func TestIngestFillsDefaults(t *testing.T) {
	engine, _ := testEngine()

	job, _, err := engine.Ingest(context.Background(), Candidate{
		Company:  "Acme Inc",
		JobTitle: "SDR",
		JobURL:   "https://www.linkedin.com/jobs/view/9",
	})
	require.NoError(t, err)

	assert.Equal(t, store.PlatformLinkedIn, job.Platform)
	assert.False(t, job.ScrapedAt.IsZero())
}
