package preference

import (
	"time"

	"github.com/privlens/privlens/pkg/errors"
	"github.com/privlens/privlens/pkg/types/common"
)

// Set is one user's preference set.  Flags holds only explicit choices; any
// flag absent from the map resolves to its registered per-flag default.
type Set struct {
	UserID    common.UserID     `json:"user_id"`
	Flags     map[FlagName]bool `json:"flags"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// NewDefaultSet returns a Set with every registered flag materialized at its
// default value.
func NewDefaultSet(userID common.UserID) *Set {
	flags := make(map[FlagName]bool, FlagCount())
	for name, spec := range registry {
		flags[name] = spec.Default
	}
	return &Set{
		UserID:    userID,
		Flags:     flags,
		UpdatedAt: time.Now().UTC(),
	}
}

// Allows resolves a flag: the explicit value when present, the registered
// default otherwise.
func (s *Set) Allows(name FlagName) bool {
	if s == nil || s.Flags == nil {
		return DefaultOf(name)
	}
	if v, ok := s.Flags[name]; ok {
		return v
	}
	return DefaultOf(name)
}

// Apply merges explicit flag choices into the set, rejecting unknown names.
func (s *Set) Apply(updates map[FlagName]bool) error {
	for name := range updates {
		if !IsKnown(name) {
			return errors.New(errors.ErrCodeUnknownFlag, "unknown preference flag").
				WithDetail(string(name))
		}
	}
	if s.Flags == nil {
		s.Flags = make(map[FlagName]bool, len(updates))
	}
	for name, v := range updates {
		s.Flags[name] = v
	}
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// Validate rejects sets carrying unregistered flags, e.g. after a bad
// deserialization.  A malformed set fails the single personalization request
// that used it, never the shared stores.
func (s *Set) Validate() error {
	if s.UserID == "" {
		return errors.New(errors.ErrCodePreferencesInvalid, "user_id is required")
	}
	for name := range s.Flags {
		if !IsKnown(name) {
			return errors.New(errors.ErrCodePreferencesInvalid, "preference set carries unknown flag").
				WithDetail(string(name))
		}
	}
	return nil
}
