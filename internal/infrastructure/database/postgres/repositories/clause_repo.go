package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/privlens/privlens/internal/domain/analysis"
	"github.com/privlens/privlens/internal/domain/clause"
	"github.com/privlens/privlens/internal/infrastructure/monitoring/logging"
	"github.com/privlens/privlens/pkg/errors"
	"github.com/privlens/privlens/pkg/types/common"
)

const clauseColumns = `
	fingerprint, clause_text, category, severity, score, explanation,
	user_impact, mitigation_advice, keywords, found_in_sites_count,
	first_seen_at, last_seen_at`

// ClauseRepository is the PostgreSQL implementation of the clause library.
type ClauseRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewClauseRepository constructs a ready-to-use ClauseRepository.
func NewClauseRepository(pool *pgxpool.Pool, logger logging.Logger) *ClauseRepository {
	return &ClauseRepository{pool: pool, logger: logger}
}

// Upsert inserts the record or atomically increments the popularity count of
// the existing one.  The increment happens inside the conflict arm of a
// single statement, so concurrent upserts of the same fingerprint can never
// race a read-modify-write or create a duplicate.
func (r *ClauseRepository) Upsert(ctx context.Context, rec *clause.Record) (*clause.Record, error) {
	keywords, err := mustJSON(rec.Keywords)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO clauses (
			fingerprint, clause_text, category, severity, score, explanation,
			user_impact, mitigation_advice, keywords, found_in_sites_count,
			first_seen_at, last_seen_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,1,$10,$10)
		ON CONFLICT (fingerprint) DO UPDATE SET
			category = EXCLUDED.category,
			severity = EXCLUDED.severity,
			score = EXCLUDED.score,
			explanation = EXCLUDED.explanation,
			user_impact = EXCLUDED.user_impact,
			mitigation_advice = EXCLUDED.mitigation_advice,
			keywords = EXCLUDED.keywords,
			found_in_sites_count = clauses.found_in_sites_count + 1,
			last_seen_at = EXCLUDED.last_seen_at
		RETURNING `+clauseColumns,
		string(rec.Fingerprint), rec.Text, string(rec.Category),
		string(rec.Severity), rec.Score, rec.Explanation, rec.UserImpact,
		rec.MitigationAdvice, keywords, rec.LastSeenAt,
	)
	stored, err := scanClause(row)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeClauseUpsertFailed, "clause upsert failed")
	}
	return stored, nil
}

// GetByFingerprint returns the record or an ErrCodeClauseNotFound error.
func (r *ClauseRepository) GetByFingerprint(ctx context.Context, fp clause.Fingerprint) (*clause.Record, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+clauseColumns+`
		FROM clauses
		WHERE fingerprint = $1`,
		string(fp),
	)
	rec, err := scanClause(row)
	if err == pgx.ErrNoRows {
		return nil, errors.New(errors.ErrCodeClauseNotFound, "clause not found").WithDetail(string(fp))
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "clause fetch failed")
	}
	return rec, nil
}

// List returns records matching the filter ordered by popularity descending,
// then recency.
func (r *ClauseRepository) List(ctx context.Context, filter clause.ListFilter, page common.Pagination) ([]*clause.Record, int64, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.Category != "" {
		args = append(args, string(filter.Category))
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.Severity != "" {
		args = append(args, string(filter.Severity))
		conds = append(conds, fmt.Sprintf("severity = $%d", len(args)))
	}
	if filter.MinPopularity > 0 {
		args = append(args, filter.MinPopularity)
		conds = append(conds, fmt.Sprintf("found_in_sites_count >= $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	if err := r.pool.QueryRow(ctx, "SELECT count(*) FROM clauses"+where, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "clause count failed")
	}

	args = append(args, page.PageSize, page.Offset())
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM clauses%s
		ORDER BY found_in_sites_count DESC, last_seen_at DESC
		LIMIT $%d OFFSET $%d`,
		clauseColumns, where, len(args)-1, len(args)),
		args...,
	)
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "clause list failed")
	}
	defer rows.Close()

	var out []*clause.Record
	for rows.Next() {
		rec, err := scanClause(rows)
		if err != nil {
			return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "clause scan failed")
		}
		out = append(out, rec)
	}
	return out, total, rows.Err()
}

func scanClause(row pgx.Row) (*clause.Record, error) {
	var (
		rec      clause.Record
		category string
		severity string
		keywords []byte
	)
	err := row.Scan(
		&rec.Fingerprint, &rec.Text, &category, &severity, &rec.Score,
		&rec.Explanation, &rec.UserImpact, &rec.MitigationAdvice, &keywords,
		&rec.FoundInSitesCount, &rec.FirstSeenAt, &rec.LastSeenAt,
	)
	if err != nil {
		return nil, err
	}
	rec.Category = analysis.RiskCategory(category)
	rec.Severity = analysis.Severity(severity)
	if err := fromJSON(keywords, &rec.Keywords); err != nil {
		return nil, err
	}
	return &rec, nil
}
