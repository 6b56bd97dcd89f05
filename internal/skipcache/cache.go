// Package skipcache avoids re-spending classification calls on companies
// whose tool status is already known and still fresh.
package skipcache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mwhitfield/signalhound/internal/store"
	"github.com/mwhitfield/signalhound/internal/types"
)

// Registry is the company-registry surface the cache loads from.
type Registry interface {
	ListIdentified(ctx context.Context) ([]store.IdentifiedCompany, error)
}

// Cache is an in-memory index of known (company, tool) verdicts with a
// two-tier freshness policy:
//
//   - a record younger than the freshness window skips any job for that
//     company, regardless of tool;
//   - an older record skips only jobs asking about the same tool, because a
//     different tool for a stale company is worth re-checking.
//
// Full-skip-forever would silently suppress tool-migration signals, which is
// why staleness demotes a company-level skip to a tool-level one.
type Cache struct {
	mu      sync.RWMutex
	window  time.Duration
	entries map[string]map[types.Tool]time.Time // normalized company → tool → first identified
	logger  *zap.SugaredLogger

	now func() time.Time
}

// New creates an empty cache with the given freshness window.
func New(window time.Duration, logger *zap.SugaredLogger) *Cache {
	return &Cache{
		window:  window,
		entries: make(map[string]map[types.Tool]time.Time),
		logger:  logger,
		now:     time.Now,
	}
}

// Refresh rebuilds the cache wholesale from the registry.
func (c *Cache) Refresh(ctx context.Context, reg Registry) error {
	records, err := reg.ListIdentified(ctx)
	if err != nil {
		return fmt.Errorf("refreshing skip-cache: %w", err)
	}

	entries := make(map[string]map[types.Tool]time.Time, len(records))
	for _, rec := range records {
		key := rec.CompanyNormalized
		if entries[key] == nil {
			entries[key] = make(map[types.Tool]time.Time)
		}
		entries[key][rec.Tool] = rec.FirstIdentifiedAt
	}

	c.mu.Lock()
	c.entries = entries
	c.mu.Unlock()

	c.logger.Infow("skip-cache refreshed", "companies", len(entries), "records", len(records))
	return nil
}

// Insert records a worker-created registry row without a full reload, so the
// cache stays consistent with inserts the worker itself performed.
func (c *Cache) Insert(rec *store.IdentifiedCompany) {
	if rec == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	key := rec.CompanyNormalized
	if c.entries[key] == nil {
		c.entries[key] = make(map[types.Tool]time.Time)
	}
	c.entries[key][rec.Tool] = rec.FirstIdentifiedAt
}

// ShouldSkip reports whether a job for the given company can skip its
// classification call, and why. tool is the tool in question for the job
// (derived from its search term); ToolNone means unknown, which only a
// fresh company-level entry can skip.
func (c *Cache) ShouldSkip(company string, tool types.Tool) (bool, string) {
	key := store.NormalizeCompany(company)
	if key == "" {
		return false, ""
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	tools, ok := c.entries[key]
	if !ok {
		return false, ""
	}

	cutoff := c.now().Add(-c.window)
	// Age counts from first identification, not last confirmation: repeated
	// re-confirmations must not pin a company in the fully-skipped tier
	// forever, or tool migrations would never be re-checked.
	for _, identified := range tools {
		if identified.After(cutoff) {
			return true, "company verdict still fresh"
		}
	}

	if tool == types.ToolNone {
		return false, ""
	}
	if _, ok := tools[tool]; ok {
		return true, "tool already confirmed"
	}
	if _, ok := tools[types.ToolBoth]; ok {
		return true, "tool already confirmed"
	}
	return false, ""
}

// Len returns the number of companies currently indexed.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// ToolFromSearchTerm derives the tool a scraped job was hunting for from its
// search term, for tool-level skip decisions on stale companies.
func ToolFromSearchTerm(term string) types.Tool {
	t := strings.ToLower(term)
	hasOutreach := strings.Contains(t, "outreach")
	hasSalesloft := strings.Contains(t, "salesloft") || strings.Contains(t, "sales loft")
	switch {
	case hasOutreach && hasSalesloft:
		return types.ToolBoth
	case hasOutreach:
		return types.ToolOutreach
	case hasSalesloft:
		return types.ToolSalesloft
	default:
		return types.ToolNone
	}
}
