package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/privlens/privlens/internal/domain/analysis"
	"github.com/privlens/privlens/internal/infrastructure/monitoring/logging"
	"github.com/privlens/privlens/pkg/errors"
	"github.com/privlens/privlens/pkg/types/common"
)

// analysisColumns is the canonical column list for cached_analyses.
const analysisColumns = `
	id, content_hash, content_type, overall_risk_score, risk_breakdown,
	confidence, detected_clauses, recommendation_summary, model_version,
	tokens_used, latency_ms, access_count, last_accessed_at, is_stale,
	created_at`

// AnalysisRepository is the PostgreSQL implementation of the analysis cache.
type AnalysisRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewAnalysisRepository constructs a ready-to-use AnalysisRepository.
func NewAnalysisRepository(pool *pgxpool.Pool, logger logging.Logger) *AnalysisRepository {
	return &AnalysisRepository{pool: pool, logger: logger}
}

// Lookup returns the row for (hash, contentType) and atomically bumps its
// access telemetry in the same statement.  A miss is (nil, nil).
func (r *AnalysisRepository) Lookup(ctx context.Context, hash analysis.ContentHash, ct analysis.ContentType) (*analysis.CachedAnalysis, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE cached_analyses
		SET access_count = access_count + 1,
		    last_accessed_at = now()
		WHERE content_hash = $1 AND content_type = $2
		RETURNING `+analysisColumns,
		string(hash), string(ct),
	)
	a, err := scanAnalysis(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "analysis lookup failed")
	}
	return a, nil
}

// Peek reads the row without touching access telemetry.  A miss is (nil, nil).
func (r *AnalysisRepository) Peek(ctx context.Context, hash analysis.ContentHash, ct analysis.ContentType) (*analysis.CachedAnalysis, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+analysisColumns+`
		FROM cached_analyses
		WHERE content_hash = $1 AND content_type = $2`,
		string(hash), string(ct),
	)
	a, err := scanAnalysis(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "analysis peek failed")
	}
	return a, nil
}

// Upsert inserts the analysis or replaces the row's content.  Replacement
// resets access_count to 1 and clears is_stale: a fresh analysis starts a
// fresh access history.
func (r *AnalysisRepository) Upsert(ctx context.Context, a *analysis.CachedAnalysis) error {
	breakdown, err := mustJSON(a.RiskBreakdown)
	if err != nil {
		return err
	}
	clauses, err := mustJSON(a.DetectedClauses)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO cached_analyses (
			id, content_hash, content_type, overall_risk_score, risk_breakdown,
			confidence, detected_clauses, recommendation_summary, model_version,
			tokens_used, latency_ms, access_count, last_accessed_at, is_stale,
			created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,1,now(),false,$12)
		ON CONFLICT (content_hash, content_type) DO UPDATE SET
			id = EXCLUDED.id,
			overall_risk_score = EXCLUDED.overall_risk_score,
			risk_breakdown = EXCLUDED.risk_breakdown,
			confidence = EXCLUDED.confidence,
			detected_clauses = EXCLUDED.detected_clauses,
			recommendation_summary = EXCLUDED.recommendation_summary,
			model_version = EXCLUDED.model_version,
			tokens_used = EXCLUDED.tokens_used,
			latency_ms = EXCLUDED.latency_ms,
			access_count = 1,
			last_accessed_at = now(),
			is_stale = false,
			created_at = EXCLUDED.created_at`,
		string(a.ID), string(a.ContentHash), string(a.ContentType),
		a.OverallRiskScore, breakdown, a.Confidence, clauses,
		a.Recommendation, a.ModelVersion, a.TokensUsed, a.LatencyMS,
		a.CreatedAt,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "analysis upsert failed")
	}
	return nil
}

// MarkStaleBySite flags every cached analysis whose content hash matches one
// of the site's last-seen document hashes.
func (r *AnalysisRepository) MarkStaleBySite(ctx context.Context, siteID common.SiteID) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE cached_analyses ca
		SET is_stale = true
		FROM sites s
		WHERE s.id = $1
		  AND ca.content_hash IN (s.tos_hash, s.policy_hash)
		  AND NOT ca.is_stale`,
		string(siteID),
	)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "mark stale failed")
	}
	return tag.RowsAffected(), nil
}

// Evict deletes rows satisfying BOTH retention conditions.
func (r *AnalysisRepository) Evict(ctx context.Context, olderThan time.Time, minAccessCount int64) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM cached_analyses
		WHERE last_accessed_at < $1 AND access_count < $2`,
		olderThan, minAccessCount,
	)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "eviction failed")
	}
	return tag.RowsAffected(), nil
}

func scanAnalysis(row pgx.Row) (*analysis.CachedAnalysis, error) {
	var (
		a         analysis.CachedAnalysis
		breakdown []byte
		clauses   []byte
	)
	err := row.Scan(
		&a.ID, &a.ContentHash, &a.ContentType, &a.OverallRiskScore, &breakdown,
		&a.Confidence, &clauses, &a.Recommendation, &a.ModelVersion,
		&a.TokensUsed, &a.LatencyMS, &a.AccessCount, &a.LastAccessedAt,
		&a.IsStale, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := fromJSON(breakdown, &a.RiskBreakdown); err != nil {
		return nil, err
	}
	if err := fromJSON(clauses, &a.DetectedClauses); err != nil {
		return nil, err
	}
	return &a, nil
}
