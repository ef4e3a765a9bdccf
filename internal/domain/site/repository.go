package site

import (
	"context"
	"time"

	"github.com/privlens/privlens/internal/domain/analysis"
	"github.com/privlens/privlens/pkg/types/common"
)

// Repository is the persistence contract for the site registry.
type Repository interface {
	// Create persists a new site.
	Create(ctx context.Context, s *Site) error

	// GetByID returns a site or an ErrCodeSiteNotFound error.
	GetByID(ctx context.Context, id common.SiteID) (*Site, error)

	// GetByDomain returns a site or an ErrCodeSiteNotFound error.
	GetByDomain(ctx context.Context, domain string) (*Site, error)

	// List returns all sites, newest first.
	List(ctx context.Context, page common.Pagination) ([]*Site, int64, error)

	// UpdateDocumentHash records the hash of the document last analyzed for
	// the site and stamps last_analyzed_at.
	UpdateDocumentHash(ctx context.Context, id common.SiteID, ct analysis.ContentType, hash analysis.ContentHash) error

	// ListDueForAnalysis returns sites whose documents have never been
	// analyzed or were last analyzed before the freshness cutoff.  The batch
	// scheduler drives its cycles off this query.
	ListDueForAnalysis(ctx context.Context, staleBefore time.Time, limit int) ([]*Site, error)
}
