package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL,
		WithAPIKey("test-key"),
		WithRetry(2, time.Millisecond, 5*time.Millisecond),
	)
	require.NoError(t, err)
	return c
}

func writeEnvelope(w http.ResponseWriter, status int, data interface{}) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":    status < 400,
		"data":       data,
		"request_id": "req_test",
	})
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient("")
	require.Error(t, err)

	_, err = NewClient("ftp://example.com")
	require.Error(t, err)

	c, err := NewClient("http://localhost:8080/")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", c.baseURL)
}

func TestClientSendsAuthAndRequestID(t *testing.T) {
	var seen atomic.Value
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		seen.Store(r.Header.Clone())
		writeEnvelope(w, http.StatusOK, map[string]string{"id": "ana_1"})
	})

	var out struct {
		ID string `json:"id"`
	}
	_, err := c.get(context.Background(), "/v1/ping", &out)
	require.NoError(t, err)
	assert.Equal(t, "ana_1", out.ID)

	headers := seen.Load().(http.Header)
	assert.Equal(t, "Bearer test-key", headers.Get("Authorization"))
	assert.NotEmpty(t, headers.Get("X-Request-ID"))
	assert.Contains(t, headers.Get("User-Agent"), "privlens-go-sdk")
}

func TestClientUnwrapsAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":    false,
			"error":      map[string]string{"code": "ANL_001", "message": "cached analysis not found"},
			"request_id": "req_404",
		})
	})

	_, err := c.get(context.Background(), "/v1/analyses/deadbeef", nil)
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "ANL_001", apiErr.Code)
	assert.Equal(t, "req_404", apiErr.RequestID)
	assert.True(t, apiErr.IsNotFound())
	assert.False(t, apiErr.IsServerError())
	assert.Contains(t, apiErr.Error(), "ANL_001")
}

func TestClientRetriesServerErrors(t *testing.T) {
	var calls atomic.Int64
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		writeEnvelope(w, http.StatusOK, map[string]string{"id": "ana_1"})
	})

	_, err := c.get(context.Background(), "/v1/analyses/x", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), calls.Load())
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int64
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"error":   map[string]string{"code": "COMMON_002", "message": "bad request"},
		})
	})

	_, err := c.get(context.Background(), "/v1/analyses/x", nil)
	require.Error(t, err)
	assert.Equal(t, int64(1), calls.Load())
}

func TestClientReturnsPagination(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":    true,
			"data":       []map[string]string{{"id": "sit_1"}},
			"pagination": map[string]interface{}{"page": 2, "page_size": 10, "total": 41},
		})
	})

	var out []map[string]string
	info, err := c.get(context.Background(), "/v1/sites", &out)
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, 2, info.Page)
	assert.Equal(t, int64(41), info.Total)
	require.Len(t, out, 1)
}

func TestAnalyzeDefaultsContentType(t *testing.T) {
	var gotType atomic.Value
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/analyses", r.URL.Path)
		var req AnalyzeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotType.Store(req.ContentType)
		writeEnvelope(w, http.StatusOK, AnalyzeResult{
			Analysis: &Analysis{ID: "ana_1", OverallRiskScore: 55},
			Source:   "fresh",
		})
	})

	out, err := c.Analyses().Analyze(context.Background(), AnalyzeRequest{Content: "terms text"})
	require.NoError(t, err)
	assert.Equal(t, "terms_of_service", gotType.Load())
	assert.Equal(t, 55, out.Analysis.OverallRiskScore)
	assert.Equal(t, "fresh", out.Source)
}

func TestAnalyzeRequiresContent(t *testing.T) {
	c, err := NewClient("http://localhost:8080")
	require.NoError(t, err)
	_, err = c.Analyses().Analyze(context.Background(), AnalyzeRequest{})
	require.Error(t, err)
}

func TestHistoryPassesPagingParams(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/users/usr_1/history", r.URL.Path)
		assert.Equal(t, "3", r.URL.Query().Get("page"))
		assert.Equal(t, "25", r.URL.Query().Get("page_size"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":    true,
			"data":       []PersonalizationResult{{ID: "res_1", PersonalizedScore: 80}},
			"pagination": map[string]interface{}{"page": 3, "page_size": 25, "total": 60},
		})
	})

	results, info, err := c.Analyses().History(context.Background(), "usr_1", 3, 25)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 80, results[0].PersonalizedScore)
	assert.Equal(t, int64(60), info.Total)
}

func TestSubClientsAreSingletons(t *testing.T) {
	c, err := NewClient("http://localhost:8080")
	require.NoError(t, err)
	assert.Same(t, c.Analyses(), c.Analyses())
	assert.Same(t, c.Sites(), c.Sites())
	assert.Same(t, c.Preferences(), c.Preferences())
	assert.Same(t, c.Clauses(), c.Clauses())
}
