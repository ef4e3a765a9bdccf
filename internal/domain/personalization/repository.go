package personalization

import (
	"context"

	"github.com/privlens/privlens/pkg/types/common"
)

// Repository is the persistence contract for personalization history.
type Repository interface {
	// Record appends a result row.  Rows are write-once; only the decision
	// fields may change afterwards, via RecordDecision.
	Record(ctx context.Context, r *Result) error

	// GetByID returns a result or an ErrCodeResultNotFound error.
	GetByID(ctx context.Context, id common.ID) (*Result, error)

	// ListByUser returns the user's history, newest first.
	ListByUser(ctx context.Context, userID common.UserID, page common.Pagination) ([]*Result, int64, error)

	// ListUsersBySite returns the distinct users that have a recorded
	// result for the site.
	ListUsersBySite(ctx context.Context, siteID common.SiteID) ([]common.UserID, error)

	// RecordDecision sets the user's decision on an existing result.
	// A second decision update on the same row is a conflict.
	RecordDecision(ctx context.Context, id common.ID, d Decision) error
}
