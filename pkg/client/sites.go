package client

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// SitesClient groups the site registry endpoints.
type SitesClient struct {
	client *Client
}

// Site mirrors the server's monitored-site representation.
type Site struct {
	ID             string     `json:"id"`
	Domain         string     `json:"domain"`
	Name           string     `json:"name"`
	TOSURL         string     `json:"tos_url,omitempty"`
	PolicyURL      string     `json:"policy_url,omitempty"`
	TOSHash        string     `json:"tos_hash,omitempty"`
	PolicyHash     string     `json:"policy_hash,omitempty"`
	LastAnalyzedAt *time.Time `json:"last_analyzed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// RegisterSiteRequest is the input to Register.
type RegisterSiteRequest struct {
	Domain    string `json:"domain"`
	Name      string `json:"name,omitempty"`
	TOSURL    string `json:"tos_url,omitempty"`
	PolicyURL string `json:"policy_url,omitempty"`
}

// Register adds a site to the monitoring registry.
func (sc *SitesClient) Register(ctx context.Context, req RegisterSiteRequest) (*Site, error) {
	if req.Domain == "" {
		return nil, fmt.Errorf("client: domain is required")
	}
	var out Site
	if err := sc.client.post(ctx, "/v1/sites", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// List returns a page of registered sites.
func (sc *SitesClient) List(ctx context.Context, page, pageSize int) ([]Site, *PageInfo, error) {
	path := fmt.Sprintf("/v1/sites?page=%d&page_size=%d", page, pageSize)
	var out []Site
	info, err := sc.client.get(ctx, path, &out)
	if err != nil {
		return nil, nil, err
	}
	return out, info, nil
}

// Get returns one site by ID.
func (sc *SitesClient) Get(ctx context.Context, siteID string) (*Site, error) {
	if siteID == "" {
		return nil, fmt.Errorf("client: siteID is required")
	}
	var out Site
	if _, err := sc.client.get(ctx, "/v1/sites/"+url.PathEscape(siteID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ObserveDocument reports a document hash observed for the site.  The
// returned bool is true when the hash differs from the last-analyzed one.
func (sc *SitesClient) ObserveDocument(ctx context.Context, siteID, contentType, contentHash string) (bool, error) {
	if siteID == "" || contentType == "" || contentHash == "" {
		return false, fmt.Errorf("client: siteID, contentType and contentHash are required")
	}
	body := map[string]string{"content_type": contentType, "content_hash": contentHash}
	var out struct {
		Changed bool `json:"changed"`
	}
	path := "/v1/sites/" + url.PathEscape(siteID) + "/documents"
	if err := sc.client.post(ctx, path, body, &out); err != nil {
		return false, err
	}
	return out.Changed, nil
}
