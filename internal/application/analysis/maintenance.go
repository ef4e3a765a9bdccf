package analysis

import (
	"context"
	"time"

	"github.com/privlens/privlens/internal/domain/analysis"
	"github.com/privlens/privlens/internal/infrastructure/monitoring/logging"
	"github.com/privlens/privlens/pkg/errors"
	"github.com/privlens/privlens/pkg/types/common"
)

// Maintenance bundles the administrative cache operations: eviction and
// stale-marking.  Both run out of band from the request path (CLI, change
// consumer).
type Maintenance struct {
	cache  analysis.Repository
	logger logging.Logger
}

// NewMaintenance wires the maintenance service.
func NewMaintenance(cache analysis.Repository, logger logging.Logger) *Maintenance {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Maintenance{cache: cache, logger: logger.Named("maintenance")}
}

// Evict deletes cache rows that are both older than the retention window and
// below the access-count floor.  Rows matching only one of the conditions
// are kept.
func (m *Maintenance) Evict(ctx context.Context, retention time.Duration, minAccessCount int64) (int64, error) {
	if retention <= 0 {
		return 0, errors.NewValidation("retention must be positive")
	}
	if minAccessCount < 0 {
		return 0, errors.NewValidation("min access count must not be negative")
	}
	horizon := time.Now().UTC().Add(-retention)
	n, err := m.cache.Evict(ctx, horizon, minAccessCount)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeEvictionFailed, "cache eviction failed")
	}
	m.logger.Info("cache eviction complete",
		logging.Int64("evicted", n),
		logging.String("older_than", horizon.Format(time.RFC3339)),
		logging.Int64("min_access_count", minAccessCount),
	)
	return n, nil
}

// MarkSiteStale flags every cached analysis attributable to the site as
// stale.  Stale rows keep serving until a fresh analysis replaces them.
func (m *Maintenance) MarkSiteStale(ctx context.Context, siteID common.SiteID) (int64, error) {
	if siteID == "" {
		return 0, errors.NewValidation("site_id is required")
	}
	n, err := m.cache.MarkStaleBySite(ctx, siteID)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeStaleMarkFailed, "failed to mark analyses stale")
	}
	m.logger.Info("analyses marked stale",
		logging.String("site_id", string(siteID)),
		logging.Int64("flagged", n),
	)
	return n, nil
}

// Peek returns the cached analysis for (hash, contentType) without touching
// access telemetry, or an ErrCodeAnalysisNotFound error.
func (m *Maintenance) Peek(ctx context.Context, hash analysis.ContentHash, ct analysis.ContentType) (*analysis.CachedAnalysis, error) {
	if !ct.IsValid() {
		return nil, errors.New(errors.ErrCodeInvalidContentType, "unknown content type").WithDetail(string(ct))
	}
	a, err := m.cache.Peek(ctx, hash, ct)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, errors.New(errors.ErrCodeAnalysisNotFound, "cached analysis not found")
	}
	return a, nil
}
