package analysis

import (
	"context"
	"time"

	"github.com/privlens/privlens/pkg/types/common"
)

// Repository is the persistence contract for the analysis cache.  The store
// must support concurrent readers and writers on the same key; Lookup's
// access-telemetry update and Upsert must be atomic at the row level.
type Repository interface {
	// Lookup returns the cached analysis for (hash, contentType), or
	// (nil, nil) on a miss.  A hit increments access_count and updates
	// last_accessed_at as an observable side effect; analysis content is
	// never mutated by a read.
	Lookup(ctx context.Context, hash ContentHash, contentType ContentType) (*CachedAnalysis, error)

	// Peek returns the cached analysis without touching access telemetry.
	// Used by health/introspection paths and tests.
	Peek(ctx context.Context, hash ContentHash, contentType ContentType) (*CachedAnalysis, error)

	// Upsert inserts a new row for (hash, contentType) or replaces the
	// analysis content of an existing one.  Replacement resets access_count
	// to 1 and last_accessed_at to now: a fresh analysis starts a fresh
	// access history.  Replacement also clears is_stale.
	Upsert(ctx context.Context, a *CachedAnalysis) error

	// MarkStaleBySite flags every cached analysis attributable to the site
	// as stale and returns the number of rows flagged.  Nothing is deleted
	// or recomputed.
	MarkStaleBySite(ctx context.Context, siteID common.SiteID) (int64, error)

	// Evict deletes rows whose last_accessed_at is older than the horizon
	// AND whose access_count is below minAccessCount; both conditions are
	// required.  Returns the number of rows deleted.
	Evict(ctx context.Context, olderThan time.Time, minAccessCount int64) (int64, error)
}
