package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/privlens/privlens/internal/domain/analysis"
	"github.com/privlens/privlens/internal/domain/site"
	"github.com/privlens/privlens/internal/infrastructure/monitoring/logging"
	"github.com/privlens/privlens/pkg/errors"
	"github.com/privlens/privlens/pkg/types/common"
)

const siteColumns = `
	id, domain, name, tos_url, policy_url, tos_hash, policy_hash,
	last_analyzed_at, created_at, updated_at`

// SiteRepository is the PostgreSQL implementation of the site registry.
type SiteRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewSiteRepository constructs a ready-to-use SiteRepository.
func NewSiteRepository(pool *pgxpool.Pool, logger logging.Logger) *SiteRepository {
	return &SiteRepository{pool: pool, logger: logger}
}

// Create persists a new site.  A duplicate domain is a conflict.
func (r *SiteRepository) Create(ctx context.Context, s *site.Site) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO sites (
			id, domain, name, tos_url, policy_url, tos_hash, policy_hash,
			last_analyzed_at, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		string(s.ID), s.Domain, s.Name, s.TOSURL, s.PolicyURL,
		string(s.TOSHash), string(s.PolicyHash), s.LastAnalyzedAt,
		s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "site insert failed")
	}
	return nil
}

// GetByID returns a site or an ErrCodeSiteNotFound error.
func (r *SiteRepository) GetByID(ctx context.Context, id common.SiteID) (*site.Site, error) {
	return r.getOne(ctx, `WHERE id = $1`, string(id))
}

// GetByDomain returns a site or an ErrCodeSiteNotFound error.
func (r *SiteRepository) GetByDomain(ctx context.Context, domain string) (*site.Site, error) {
	return r.getOne(ctx, `WHERE domain = $1`, domain)
}

func (r *SiteRepository) getOne(ctx context.Context, where string, arg interface{}) (*site.Site, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+siteColumns+` FROM sites `+where, arg)
	s, err := scanSite(row)
	if err == pgx.ErrNoRows {
		return nil, errors.New(errors.ErrCodeSiteNotFound, "site not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "site fetch failed")
	}
	return s, nil
}

// List returns all sites, newest first.
func (r *SiteRepository) List(ctx context.Context, page common.Pagination) ([]*site.Site, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM sites`).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "site count failed")
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+siteColumns+`
		FROM sites
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`,
		page.PageSize, page.Offset(),
	)
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "site list failed")
	}
	defer rows.Close()

	var out []*site.Site
	for rows.Next() {
		s, err := scanSite(rows)
		if err != nil {
			return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "site scan failed")
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}

// UpdateDocumentHash records the last-analyzed hash for one document type and
// stamps last_analyzed_at.
func (r *SiteRepository) UpdateDocumentHash(ctx context.Context, id common.SiteID, ct analysis.ContentType, hash analysis.ContentHash) error {
	var column string
	switch ct {
	case analysis.ContentTermsOfService:
		column = "tos_hash"
	case analysis.ContentPrivacyPolicy:
		column = "policy_hash"
	default:
		return errors.New(errors.ErrCodeInvalidContentType, "unknown content type").WithDetail(string(ct))
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE sites
		SET `+column+` = $2, last_analyzed_at = now(), updated_at = now()
		WHERE id = $1`,
		string(id), string(hash),
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "site hash update failed")
	}
	if tag.RowsAffected() == 0 {
		return errors.New(errors.ErrCodeSiteNotFound, "site not found")
	}
	return nil
}

// ListDueForAnalysis returns sites never analyzed or last analyzed before the
// cutoff, oldest first.
func (r *SiteRepository) ListDueForAnalysis(ctx context.Context, staleBefore time.Time, limit int) ([]*site.Site, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+siteColumns+`
		FROM sites
		WHERE last_analyzed_at IS NULL OR last_analyzed_at < $1
		ORDER BY last_analyzed_at NULLS FIRST
		LIMIT $2`,
		staleBefore, limit,
	)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "due-site query failed")
	}
	defer rows.Close()

	var out []*site.Site
	for rows.Next() {
		s, err := scanSite(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "site scan failed")
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanSite(row pgx.Row) (*site.Site, error) {
	var s site.Site
	err := row.Scan(
		&s.ID, &s.Domain, &s.Name, &s.TOSURL, &s.PolicyURL,
		&s.TOSHash, &s.PolicyHash, &s.LastAnalyzedAt, &s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
