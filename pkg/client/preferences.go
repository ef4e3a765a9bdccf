package client

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// PreferencesClient groups the preference endpoints.
type PreferencesClient struct {
	client *Client
}

// PreferenceSet is a user's effective privacy tolerance flags.
type PreferenceSet struct {
	UserID    string          `json:"user_id"`
	Flags     map[string]bool `json:"flags"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// FlagInfo describes one registered preference flag.
type FlagInfo struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Default  bool   `json:"default"`
}

// Get returns the user's effective preference set.  Users who never saved
// preferences see the defaults.
func (pc *PreferencesClient) Get(ctx context.Context, userID string) (*PreferenceSet, error) {
	if userID == "" {
		return nil, fmt.Errorf("client: userID is required")
	}
	var out PreferenceSet
	if _, err := pc.client.get(ctx, "/v1/users/"+url.PathEscape(userID)+"/preferences", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update merges explicit flag choices into the user's set and returns the
// stored result.
func (pc *PreferencesClient) Update(ctx context.Context, userID string, flags map[string]bool) (*PreferenceSet, error) {
	if userID == "" {
		return nil, fmt.Errorf("client: userID is required")
	}
	if len(flags) == 0 {
		return nil, fmt.Errorf("client: at least one flag is required")
	}
	body := map[string]interface{}{"flags": flags}
	var out PreferenceSet
	if err := pc.client.put(ctx, "/v1/users/"+url.PathEscape(userID)+"/preferences", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Flags lists every registered preference flag with its category and
// default value.
func (pc *PreferencesClient) Flags(ctx context.Context) ([]FlagInfo, error) {
	var out []FlagInfo
	if _, err := pc.client.get(ctx, "/v1/preferences/flags", &out); err != nil {
		return nil, err
	}
	return out, nil
}
