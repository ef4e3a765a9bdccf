package client

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// ClausesClient groups the clause library endpoints.
type ClausesClient struct {
	client *Client
}

// Clause mirrors the server's clause library record.
type Clause struct {
	Fingerprint       string    `json:"fingerprint"`
	Text              string    `json:"clause_text"`
	Category          string    `json:"category"`
	Severity          string    `json:"severity"`
	Score             int       `json:"score"`
	Explanation       string    `json:"explanation"`
	UserImpact        string    `json:"user_impact"`
	MitigationAdvice  string    `json:"mitigation_advice"`
	Keywords          []string  `json:"keywords"`
	FoundInSitesCount int64     `json:"found_in_sites_count"`
	FirstSeenAt       time.Time `json:"first_seen_at"`
	LastSeenAt        time.Time `json:"last_seen_at"`
}

// ClauseFilter narrows a List call.  Zero values mean no filtering.
type ClauseFilter struct {
	Category      string
	Severity      string
	MinPopularity int64
}

// List browses the clause library, most popular first.
func (cc *ClausesClient) List(ctx context.Context, filter ClauseFilter, page, pageSize int) ([]Clause, *PageInfo, error) {
	q := url.Values{}
	q.Set("page", fmt.Sprintf("%d", page))
	q.Set("page_size", fmt.Sprintf("%d", pageSize))
	if filter.Category != "" {
		q.Set("category", filter.Category)
	}
	if filter.Severity != "" {
		q.Set("severity", filter.Severity)
	}
	if filter.MinPopularity > 0 {
		q.Set("min_popularity", fmt.Sprintf("%d", filter.MinPopularity))
	}

	var out []Clause
	info, err := cc.client.get(ctx, "/v1/clauses?"+q.Encode(), &out)
	if err != nil {
		return nil, nil, err
	}
	return out, info, nil
}

// Get returns one clause by its text fingerprint.
func (cc *ClausesClient) Get(ctx context.Context, fingerprint string) (*Clause, error) {
	if fingerprint == "" {
		return nil, fmt.Errorf("client: fingerprint is required")
	}
	var out Clause
	if _, err := cc.client.get(ctx, "/v1/clauses/"+url.PathEscape(fingerprint), &out); err != nil {
		return nil, err
	}
	return &out, nil
}
