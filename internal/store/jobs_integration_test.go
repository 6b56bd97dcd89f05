//go:build integration

package store

import (
	"context"
	"testing"
	"time"
)

func testJob(id, company, title string, scrapedAt time.Time) *Job {
	return &Job{
		JobID:       id,
		Company:     company,
		JobTitle:    title,
		Platform:    PlatformLinkedIn,
		ScrapedAt:   scrapedAt,
		DedupStatus: DedupStatusNew,
	}
}

func TestIntegration_InsertJobConflictIsNoOp(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()
	ctx := context.Background()

	job := testJob("testco-j1", "Testco Alpha", "SDR", time.Now().UTC())
	if err := db.InsertJob(ctx, job); err != nil {
		t.Fatalf("InsertJob failed: %v", err)
	}

	// A re-scrape with the same fingerprint never errors and never clobbers.
	dup := testJob("testco-j1", "Testco Alpha", "SDR (reposted)", time.Now().UTC())
	if err := db.InsertJob(ctx, dup); err != nil {
		t.Fatalf("InsertJob (conflict) failed: %v", err)
	}

	stored, err := db.GetJob(ctx, "testco-j1")
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if stored == nil {
		t.Fatal("Expected stored job, got nil")
	}
	if stored.JobTitle != "SDR" {
		t.Errorf("Expected original title to survive the conflict, got %q", stored.JobTitle)
	}
}

func TestIntegration_SelectUnprocessedOldestFirst(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	// Inserted newest first; selection must come back oldest first.
	for i, id := range []string{"testco-j3", "testco-j2", "testco-j1"} {
		job := testJob(id, "Testco Beta", "SDR", base.Add(time.Duration(3-i)*time.Minute))
		if err := db.InsertJob(ctx, job); err != nil {
			t.Fatalf("InsertJob(%s) failed: %v", id, err)
		}
	}

	// A duplicate never enters the batch regardless of age.
	duplicate := testJob("testco-j0", "Testco Beta", "SDR", base)
	duplicate.DedupStatus = DedupStatusFuzzyDuplicate
	if err := db.InsertJob(ctx, duplicate); err != nil {
		t.Fatalf("InsertJob (duplicate) failed: %v", err)
	}

	batch, err := db.SelectUnprocessed(ctx, 10)
	if err != nil {
		t.Fatalf("SelectUnprocessed failed: %v", err)
	}
	if len(batch) != 3 {
		t.Fatalf("Expected 3 eligible jobs, got %d", len(batch))
	}
	if batch[0].JobID != "testco-j1" {
		t.Errorf("Expected oldest job first, got %s", batch[0].JobID)
	}
	for _, j := range batch {
		if j.DedupStatus != DedupStatusNew {
			t.Errorf("Duplicate leaked into the batch: %s (%s)", j.JobID, j.DedupStatus)
		}
	}

	// A bounded pull respects the limit.
	batch, err = db.SelectUnprocessed(ctx, 1)
	if err != nil {
		t.Fatalf("SelectUnprocessed (limit) failed: %v", err)
	}
	if len(batch) != 1 || batch[0].JobID != "testco-j1" {
		t.Errorf("Expected only the oldest job, got %+v", batch)
	}
}

func TestIntegration_MarkProcessed(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()
	ctx := context.Background()

	if err := db.InsertJob(ctx, testJob("testco-j1", "Testco Gamma", "SDR", time.Now().UTC())); err != nil {
		t.Fatalf("InsertJob failed: %v", err)
	}

	if err := db.MarkProcessed(ctx, "testco-j1", false, "upstream 503"); err != nil {
		t.Fatalf("MarkProcessed failed: %v", err)
	}

	job, err := db.GetJob(ctx, "testco-j1")
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if !job.Processed || job.ProcessedAt == nil {
		t.Error("Expected job to be marked processed with a timestamp")
	}
	if job.LastError == nil || *job.LastError != "upstream 503" {
		t.Errorf("Expected recorded error, got %v", job.LastError)
	}

	// A processed job leaves the unprocessed pool.
	batch, err := db.SelectUnprocessed(ctx, 10)
	if err != nil {
		t.Fatalf("SelectUnprocessed failed: %v", err)
	}
	for _, j := range batch {
		if j.JobID == "testco-j1" {
			t.Error("Processed job still appears in the unprocessed batch")
		}
	}

	if err := db.MarkProcessed(ctx, "testco-missing", false, ""); err == nil {
		t.Error("Expected an error marking an unknown job")
	}
}

func TestIntegration_FindJobByCompanyTitle(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	if err := db.InsertJob(ctx, testJob("testco-j1", "Testco Delta", "SDR", base)); err != nil {
		t.Fatalf("InsertJob failed: %v", err)
	}
	if err := db.InsertJob(ctx, testJob("testco-j2", "Testco Delta", "SDR", base.Add(time.Minute))); err != nil {
		t.Fatalf("InsertJob failed: %v", err)
	}

	// Lookup is case-insensitive and returns the oldest match.
	found, err := db.FindJobByCompanyTitle(ctx, "TESTCO DELTA", "sdr")
	if err != nil {
		t.Fatalf("FindJobByCompanyTitle failed: %v", err)
	}
	if found == nil {
		t.Fatal("Expected a match, got nil")
	}
	if found.JobID != "testco-j1" {
		t.Errorf("Expected the oldest matching job, got %s", found.JobID)
	}

	missing, err := db.FindJobByCompanyTitle(ctx, "Testco Delta", "AE")
	if err != nil {
		t.Fatalf("FindJobByCompanyTitle (missing) failed: %v", err)
	}
	if missing != nil {
		t.Errorf("Expected nil for an unknown title, got %+v", missing)
	}
}
