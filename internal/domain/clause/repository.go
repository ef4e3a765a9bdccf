package clause

import (
	"context"

	"github.com/privlens/privlens/internal/domain/analysis"
	"github.com/privlens/privlens/pkg/types/common"
)

// ListFilter carries the optional filters for browsing the clause library.
type ListFilter struct {
	Category    analysis.RiskCategory
	Severity    analysis.Severity
	MinPopularity int64
}

// Repository is the persistence contract for the clause library.  Upsert on
// the same fingerprint must be an atomic insert-or-increment; concurrent
// upserts of the same clause must never produce two records or lose an
// increment.
type Repository interface {
	// Upsert inserts the record, or — when a record with the same
	// fingerprint exists — increments found_in_sites_count by exactly one
	// and refreshes last_seen_at, leaving descriptive fields to the newest
	// values.  Returns the stored record.
	Upsert(ctx context.Context, r *Record) (*Record, error)

	// GetByFingerprint returns the record or a ErrCodeClauseNotFound error.
	GetByFingerprint(ctx context.Context, fp Fingerprint) (*Record, error)

	// List returns records matching the filter ordered by popularity
	// descending, then recency.
	List(ctx context.Context, filter ListFilter, page common.Pagination) ([]*Record, int64, error)
}
