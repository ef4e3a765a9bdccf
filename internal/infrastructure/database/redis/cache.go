package redis

import (
	"context"
	"encoding/json"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/privlens/privlens/internal/domain/analysis"
	"github.com/privlens/privlens/internal/infrastructure/monitoring/logging"
	"github.com/privlens/privlens/pkg/types/common"
)

// CachedAnalysisRepository layers a Redis hot cache in front of the durable
// analysis repository.  PostgreSQL stays the source of truth: access
// telemetry and all writes go through the inner repository; Redis only
// accelerates telemetry-free reads.  Hot entries expire on the configured
// TTL, which bounds how long a Peek may miss a staleness flag set directly
// in the database.
type CachedAnalysisRepository struct {
	inner  analysis.Repository
	client *Client
	logger logging.Logger
}

// NewCachedAnalysisRepository wraps inner with the hot cache.
func NewCachedAnalysisRepository(inner analysis.Repository, client *Client, logger logging.Logger) *CachedAnalysisRepository {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &CachedAnalysisRepository{inner: inner, client: client, logger: logger.Named("hotcache")}
}

func (r *CachedAnalysisRepository) hotKey(hash analysis.ContentHash, ct analysis.ContentType) string {
	return r.client.Key("analysis", string(hash), string(ct))
}

// Lookup delegates to the durable store so the telemetry update stays atomic,
// then refreshes the hot copy.
func (r *CachedAnalysisRepository) Lookup(ctx context.Context, hash analysis.ContentHash, ct analysis.ContentType) (*analysis.CachedAnalysis, error) {
	a, err := r.inner.Lookup(ctx, hash, ct)
	if err != nil || a == nil {
		return a, err
	}
	r.setHot(ctx, a)
	return a, nil
}

// Peek serves from the hot cache when possible.
func (r *CachedAnalysisRepository) Peek(ctx context.Context, hash analysis.ContentHash, ct analysis.ContentType) (*analysis.CachedAnalysis, error) {
	raw, err := r.client.Raw().Get(ctx, r.hotKey(hash, ct)).Bytes()
	if err == nil {
		var a analysis.CachedAnalysis
		if jsonErr := json.Unmarshal(raw, &a); jsonErr == nil {
			return &a, nil
		}
	} else if err != goredis.Nil {
		r.logger.Warn("hot cache read failed", logging.Err(err))
	}

	a, err := r.inner.Peek(ctx, hash, ct)
	if err != nil || a == nil {
		return a, err
	}
	r.setHot(ctx, a)
	return a, nil
}

// Upsert writes through to the hot cache.
func (r *CachedAnalysisRepository) Upsert(ctx context.Context, a *analysis.CachedAnalysis) error {
	if err := r.inner.Upsert(ctx, a); err != nil {
		return err
	}
	r.setHot(ctx, a)
	return nil
}

// MarkStaleBySite invalidates nothing directly; hot entries age out on TTL.
func (r *CachedAnalysisRepository) MarkStaleBySite(ctx context.Context, siteID common.SiteID) (int64, error) {
	return r.inner.MarkStaleBySite(ctx, siteID)
}

// Evict passes through; evicted rows linger in the hot cache at most one TTL.
func (r *CachedAnalysisRepository) Evict(ctx context.Context, olderThan time.Time, minAccessCount int64) (int64, error) {
	return r.inner.Evict(ctx, olderThan, minAccessCount)
}

func (r *CachedAnalysisRepository) setHot(ctx context.Context, a *analysis.CachedAnalysis) {
	raw, err := json.Marshal(a)
	if err != nil {
		return
	}
	if err := r.client.Raw().Set(ctx, r.hotKey(a.ContentHash, a.ContentType), raw, r.client.ttl).Err(); err != nil {
		r.logger.Warn("hot cache write failed", logging.Err(err))
	}
}
