package scraper

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/privlens/privlens/internal/config"
	"github.com/privlens/privlens/internal/domain/analysis"
	"github.com/privlens/privlens/internal/domain/site"
	"github.com/privlens/privlens/internal/infrastructure/monitoring/logging"
	"github.com/privlens/privlens/pkg/errors"
)

func newExtractionClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(config.ScraperConfig{
		BaseURL: srv.URL,
		Timeout: 2 * time.Second,
	}, logging.NewNopLogger())
	require.NoError(t, err)
	return c
}

func TestFetchDocument(t *testing.T) {
	c := newExtractionClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/extract", r.URL.Path)
		assert.Equal(t, "https://example.com/tos", r.URL.Query().Get("url"))
		assert.Equal(t, "terms_of_service", r.URL.Query().Get("type"))
		json.NewEncoder(w).Encode(map[string]string{"content": "extracted terms text"})
	})

	st := &site.Site{
		ID:     "sit_1",
		Domain: "example.com",
		TOSURL: "https://example.com/tos",
	}
	content, err := c.FetchDocument(context.Background(), st, analysis.ContentTermsOfService)
	require.NoError(t, err)
	assert.Equal(t, "extracted terms text", content)
}

func TestFetchDocumentMissingURLIsNotAnError(t *testing.T) {
	c := newExtractionClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for a site without the document")
	})

	st := &site.Site{ID: "sit_1", Domain: "example.com"}
	content, err := c.FetchDocument(context.Background(), st, analysis.ContentPrivacyPolicy)
	require.NoError(t, err)
	assert.Empty(t, content)
}

func TestFetchDocumentServiceError(t *testing.T) {
	c := newExtractionClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	st := &site.Site{ID: "sit_1", Domain: "example.com", TOSURL: "https://example.com/tos"}
	_, err := c.FetchDocument(context.Background(), st, analysis.ContentTermsOfService)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeExternalService))
}

func TestFetchDocumentMalformedResponse(t *testing.T) {
	c := newExtractionClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	})

	st := &site.Site{ID: "sit_1", Domain: "example.com", TOSURL: "https://example.com/tos"}
	_, err := c.FetchDocument(context.Background(), st, analysis.ContentTermsOfService)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeExternalService))
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := NewClient(config.ScraperConfig{}, logging.NewNopLogger())
	require.Error(t, err)
}
