package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/privlens/privlens/internal/domain/personalization"
	"github.com/privlens/privlens/internal/infrastructure/monitoring/logging"
	"github.com/privlens/privlens/pkg/errors"
	"github.com/privlens/privlens/pkg/types/common"
)

const resultColumns = `
	id, user_id, site_id, analysis_id, personalized_score,
	violated_preferences, warnings, recommendation, created_at,
	decision, decision_at`

// ResultRepository is the PostgreSQL implementation of personalization
// history.
type ResultRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewResultRepository constructs a ready-to-use ResultRepository.
func NewResultRepository(pool *pgxpool.Pool, logger logging.Logger) *ResultRepository {
	return &ResultRepository{pool: pool, logger: logger}
}

// Record appends a result row.
func (r *ResultRepository) Record(ctx context.Context, res *personalization.Result) error {
	violated, err := mustJSON(res.ViolatedPreferences)
	if err != nil {
		return err
	}
	warnings, err := mustJSON(res.Warnings)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO personalized_results (
			id, user_id, site_id, analysis_id, personalized_score,
			violated_preferences, warnings, recommendation, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		string(res.ID), string(res.UserID), string(res.SiteID),
		string(res.AnalysisID), res.PersonalizedScore, violated, warnings,
		string(res.Recommendation), res.CreatedAt,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeResultRecordFailed, "result insert failed")
	}
	return nil
}

// GetByID returns a result or an ErrCodeResultNotFound error.
func (r *ResultRepository) GetByID(ctx context.Context, id common.ID) (*personalization.Result, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+resultColumns+`
		FROM personalized_results
		WHERE id = $1`,
		string(id),
	)
	res, err := scanResult(row)
	if err == pgx.ErrNoRows {
		return nil, errors.New(errors.ErrCodeResultNotFound, "personalized result not found").WithDetail(string(id))
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "result fetch failed")
	}
	return res, nil
}

// ListByUser returns the user's history, newest first.
func (r *ResultRepository) ListByUser(ctx context.Context, userID common.UserID, page common.Pagination) ([]*personalization.Result, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM personalized_results WHERE user_id = $1`,
		string(userID),
	).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "result count failed")
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+resultColumns+`
		FROM personalized_results
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		string(userID), page.PageSize, page.Offset(),
	)
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "result list failed")
	}
	defer rows.Close()

	var out []*personalization.Result
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "result scan failed")
		}
		out = append(out, res)
	}
	return out, total, rows.Err()
}

// ListUsersBySite returns the distinct users with history for a site.
func (r *ResultRepository) ListUsersBySite(ctx context.Context, siteID common.SiteID) ([]common.UserID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT user_id
		FROM personalized_results
		WHERE site_id = $1`,
		string(siteID),
	)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "site user list failed")
	}
	defer rows.Close()

	var out []common.UserID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "site user scan failed")
		}
		out = append(out, common.UserID(id))
	}
	return out, rows.Err()
}

// RecordDecision sets the decision on a row that has none yet.  A second
// update is a conflict; an unknown id is not found.
func (r *ResultRepository) RecordDecision(ctx context.Context, id common.ID, d personalization.Decision) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE personalized_results
		SET decision = $2, decision_at = now()
		WHERE id = $1 AND decision IS NULL`,
		string(id), string(d),
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "decision update failed")
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a missing row from an already-decided one.
		var exists bool
		if err := r.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM personalized_results WHERE id = $1)`,
			string(id),
		).Scan(&exists); err != nil {
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "decision check failed")
		}
		if !exists {
			return errors.New(errors.ErrCodeResultNotFound, "personalized result not found").WithDetail(string(id))
		}
		return errors.Conflict("decision already recorded")
	}
	return nil
}

func scanResult(row pgx.Row) (*personalization.Result, error) {
	var (
		res      personalization.Result
		violated []byte
		warnings []byte
		decision *string
	)
	err := row.Scan(
		&res.ID, &res.UserID, &res.SiteID, &res.AnalysisID,
		&res.PersonalizedScore, &violated, &warnings, &res.Recommendation,
		&res.CreatedAt, &decision, &res.DecisionAt,
	)
	if err != nil {
		return nil, err
	}
	if decision != nil {
		res.Decision = personalization.Decision(*decision)
	}
	if err := fromJSON(violated, &res.ViolatedPreferences); err != nil {
		return nil, err
	}
	if err := fromJSON(warnings, &res.Warnings); err != nil {
		return nil, err
	}
	return &res, nil
}
