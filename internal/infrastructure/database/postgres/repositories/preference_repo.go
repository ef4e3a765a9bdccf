package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/privlens/privlens/internal/domain/preference"
	"github.com/privlens/privlens/internal/infrastructure/monitoring/logging"
	"github.com/privlens/privlens/pkg/errors"
	"github.com/privlens/privlens/pkg/types/common"
)

// PreferenceRepository is the PostgreSQL implementation of preference-set
// storage.  Flags are stored as one JSONB object per user.
type PreferenceRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewPreferenceRepository constructs a ready-to-use PreferenceRepository.
func NewPreferenceRepository(pool *pgxpool.Pool, logger logging.Logger) *PreferenceRepository {
	return &PreferenceRepository{pool: pool, logger: logger}
}

// Get returns the user's saved set.  A user with no saved row receives a
// materialized default set; the default is not persisted until Save.
func (r *PreferenceRepository) Get(ctx context.Context, userID common.UserID) (*preference.Set, error) {
	var (
		flags     []byte
		updatedAt time.Time
	)
	err := r.pool.QueryRow(ctx, `
		SELECT flags, updated_at
		FROM preference_sets
		WHERE user_id = $1`,
		string(userID),
	).Scan(&flags, &updatedAt)
	if err == pgx.ErrNoRows {
		return preference.NewDefaultSet(userID), nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "preference fetch failed")
	}

	set := &preference.Set{
		UserID:    userID,
		Flags:     map[preference.FlagName]bool{},
		UpdatedAt: updatedAt,
	}
	if err := fromJSON(flags, &set.Flags); err != nil {
		return nil, err
	}
	return set, nil
}

// Save upserts the user's set.
func (r *PreferenceRepository) Save(ctx context.Context, s *preference.Set) error {
	if err := s.Validate(); err != nil {
		return err
	}
	flags, err := mustJSON(s.Flags)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO preference_sets (user_id, flags, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET
			flags = EXCLUDED.flags,
			updated_at = EXCLUDED.updated_at`,
		string(s.UserID), flags, s.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "preference save failed")
	}
	return nil
}
