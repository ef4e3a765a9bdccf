package preference

import (
	"context"

	"github.com/privlens/privlens/pkg/types/common"
)

// Repository is the persistence contract for preference sets: one row per
// user, flag choices stored as a JSON object keyed by flag name.
type Repository interface {
	// Get returns the user's set, materializing a default set (without
	// persisting it) when the user has never saved preferences.
	Get(ctx context.Context, userID common.UserID) (*Set, error)

	// Save upserts the user's set.
	Save(ctx context.Context, s *Set) error
}
