// Package scraper is the HTTP client for the external document extraction
// service.  PrivLens never fetches or parses site documents itself; the
// extractor returns cleaned plain text for a document URL.
package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/privlens/privlens/internal/config"
	"github.com/privlens/privlens/internal/domain/analysis"
	"github.com/privlens/privlens/internal/domain/site"
	"github.com/privlens/privlens/internal/infrastructure/monitoring/logging"
	"github.com/privlens/privlens/pkg/errors"
)

const maxDocumentBytes = 8 << 20

// Client fetches extracted document text over HTTP.  It implements the
// scheduler's DocumentSource contract.
type Client struct {
	baseURL string
	http    *http.Client
	logger  logging.Logger
}

// NewClient builds the extraction client.
func NewClient(cfg config.ScraperConfig, logger logging.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.NewValidation("scraper base_url is required")
	}
	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  logger.Named("scraper"),
	}, nil
}

type extractResponse struct {
	Content string `json:"content"`
}

// FetchDocument returns the extracted text of the site's document of the
// given type.  A site without that document returns ("", nil).
func (c *Client) FetchDocument(ctx context.Context, s *site.Site, ct analysis.ContentType) (string, error) {
	var docURL string
	switch ct {
	case analysis.ContentTermsOfService:
		docURL = s.TOSURL
	case analysis.ContentPrivacyPolicy:
		docURL = s.PolicyURL
	}
	if docURL == "" {
		return "", nil
	}

	endpoint := fmt.Sprintf("%s/v1/extract?url=%s&type=%s",
		c.baseURL, url.QueryEscape(docURL), url.QueryEscape(string(ct)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeInternal, "failed to build extraction request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeExternalService, "extraction request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.New(errors.ErrCodeExternalService, "extraction service returned an error").
			WithDetail(fmt.Sprintf("status %d for %s", resp.StatusCode, docURL))
	}

	var out extractResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxDocumentBytes)).Decode(&out); err != nil {
		return "", errors.Wrap(err, errors.ErrCodeExternalService, "malformed extraction response")
	}
	return out.Content, nil
}
