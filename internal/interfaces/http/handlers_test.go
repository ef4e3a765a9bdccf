package http

import (
	"bytes"
	"context"
	"encoding/json"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appanalysis "github.com/privlens/privlens/internal/application/analysis"
	"github.com/privlens/privlens/internal/domain/analysis"
	"github.com/privlens/privlens/internal/domain/clause"
	"github.com/privlens/privlens/internal/domain/preference"
	"github.com/privlens/privlens/internal/intelligence/policyai"
	"github.com/privlens/privlens/pkg/types/common"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubCache struct {
	stored []*analysis.CachedAnalysis
}

func (s *stubCache) Lookup(context.Context, analysis.ContentHash, analysis.ContentType) (*analysis.CachedAnalysis, error) {
	return nil, nil
}

func (s *stubCache) Peek(_ context.Context, hash analysis.ContentHash, ct analysis.ContentType) (*analysis.CachedAnalysis, error) {
	for _, a := range s.stored {
		if a.ContentHash == hash && a.ContentType == ct {
			return a, nil
		}
	}
	return nil, nil
}

func (s *stubCache) Upsert(_ context.Context, a *analysis.CachedAnalysis) error {
	s.stored = append(s.stored, a)
	return nil
}

func (s *stubCache) MarkStaleBySite(context.Context, common.SiteID) (int64, error) { return 0, nil }

func (s *stubCache) Evict(context.Context, time.Time, int64) (int64, error) { return 0, nil }

type stubClauses struct{}

func (stubClauses) Upsert(_ context.Context, r *clause.Record) (*clause.Record, error) {
	return r, nil
}

func (stubClauses) GetByFingerprint(context.Context, clause.Fingerprint) (*clause.Record, error) {
	return nil, nil
}

func (stubClauses) List(context.Context, clause.ListFilter, common.Pagination) ([]*clause.Record, int64, error) {
	return nil, 0, nil
}

type stubAnalyzer struct{}

func (stubAnalyzer) Analyze(context.Context, *policyai.AnalyzeRequest) (*policyai.AnalyzeResponse, error) {
	return &policyai.AnalyzeResponse{
		OverallRiskScore: 48,
		ConfidenceScore:  0.9,
		DetectedClauses:  []policyai.DetectedClauseDTO{},
		RiskBreakdown:    map[string]int{"data_collection": 50},
		ModelVersion:     "policyai-v2",
	}, nil
}

// analyzableDoc builds content that clears the quality gate.
func analyzableDoc() string {
	var sb strings.Builder
	sb.WriteString("TERMS OF SERVICE AGREEMENT\n")
	sb.WriteString("See Section 1 for definitions.\n")
	for i := 0; i < 20; i++ {
		sb.WriteString("1. The service provides features to users who access it from their devices in accordance with this agreement.\n")
	}
	return sb.String()
}

func newAnalysisRouter(t *testing.T) *gin.Engine {
	t.Helper()
	cache := &stubCache{}
	orch := appanalysis.NewOrchestrator(cache, stubClauses{}, stubAnalyzer{}, nil, nil, nil,
		appanalysis.OrchestratorConfig{AITimeout: time.Second})
	maint := appanalysis.NewMaintenance(cache, nil)
	h := NewAnalysisHandler(orch, maint, nil)

	r := gin.New()
	r.POST("/v1/analyses", h.Analyze)
	r.POST("/v1/analyses/quality", h.Quality)
	r.GET("/v1/analyses/:hash", h.Get)
	return r
}

func postJSON(r *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(nethttp.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAnalyzeEndpoint(t *testing.T) {
	r := newAnalysisRouter(t)

	w := postJSON(r, "/v1/analyses", gin.H{
		"content":      analyzableDoc(),
		"content_type": "terms_of_service",
	})
	require.Equal(t, nethttp.StatusOK, w.Code)

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Analysis struct {
				OverallRiskScore int `json:"overall_risk_score"`
			} `json:"analysis"`
			Source    string `json:"source"`
			RiskLevel struct {
				Level string `json:"level"`
				Color string `json:"color"`
			} `json:"risk_level"`
		} `json:"data"`
		RequestID string `json:"request_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "fresh", resp.Data.Source)
	assert.Equal(t, 48, resp.Data.Analysis.OverallRiskScore)
	assert.Equal(t, "elevated", resp.Data.RiskLevel.Level)
	assert.NotEmpty(t, resp.RequestID)
}

func TestAnalyzeRejectsMissingFields(t *testing.T) {
	r := newAnalysisRouter(t)
	w := postJSON(r, "/v1/analyses", gin.H{"content": "x"})
	assert.Equal(t, nethttp.StatusUnprocessableEntity, w.Code)
}

func TestAnalyzeRejectsLowQualityContent(t *testing.T) {
	r := newAnalysisRouter(t)
	w := postJSON(r, "/v1/analyses", gin.H{
		"content":      "too short",
		"content_type": "terms_of_service",
	})
	require.Equal(t, nethttp.StatusUnprocessableEntity, w.Code)

	var resp struct {
		Success bool `json:"success"`
		Error   struct {
			Code string `json:"code"`
		} `json:"error"`
		Quality struct {
			IsAnalyzable    bool     `json:"is_analyzable"`
			Recommendations []string `json:"recommendations"`
		} `json:"quality"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "ANL_003", resp.Error.Code)
	assert.False(t, resp.Quality.IsAnalyzable)
	assert.NotEmpty(t, resp.Quality.Recommendations)
}

func TestQualityEndpoint(t *testing.T) {
	r := newAnalysisRouter(t)
	w := postJSON(r, "/v1/analyses/quality", gin.H{"content": analyzableDoc()})
	require.Equal(t, nethttp.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Score        float64 `json:"score"`
			IsAnalyzable bool    `json:"is_analyzable"`
			WordCount    int     `json:"word_count"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Data.IsAnalyzable)
	assert.Greater(t, resp.Data.Score, 0.6)
	assert.Greater(t, resp.Data.WordCount, 100)
}

func TestGetCachedAnalysis(t *testing.T) {
	r := newAnalysisRouter(t)
	doc := analyzableDoc()

	w := postJSON(r, "/v1/analyses", gin.H{"content": doc, "content_type": "terms_of_service"})
	require.Equal(t, nethttp.StatusOK, w.Code)

	hash := string(analysis.HashContent(doc))
	req := httptest.NewRequest(nethttp.MethodGet, "/v1/analyses/"+hash, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, nethttp.StatusOK, rec.Code)

	// An unknown hash is a 404 with the analysis-specific code.
	req = httptest.NewRequest(nethttp.MethodGet, "/v1/analyses/deadbeef", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, nethttp.StatusNotFound, rec.Code)

	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ANL_001", resp.Error.Code)
}

type stubPrefRepo struct {
	saved *preference.Set
}

func (s *stubPrefRepo) Get(_ context.Context, userID common.UserID) (*preference.Set, error) {
	if s.saved != nil && s.saved.UserID == userID {
		return s.saved, nil
	}
	return preference.NewDefaultSet(userID), nil
}

func (s *stubPrefRepo) Save(_ context.Context, set *preference.Set) error {
	s.saved = set
	return nil
}

func newPreferenceRouter(repo *stubPrefRepo) *gin.Engine {
	h := NewPreferenceHandler(repo)
	r := gin.New()
	r.GET("/v1/users/:user_id/preferences", h.Get)
	r.PUT("/v1/users/:user_id/preferences", h.Update)
	r.GET("/v1/preferences/flags", h.Flags)
	return r
}

func TestPreferenceGetReturnsDefaults(t *testing.T) {
	r := newPreferenceRouter(&stubPrefRepo{})

	req := httptest.NewRequest(nethttp.MethodGet, "/v1/users/usr_1/preferences", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, nethttp.StatusOK, w.Code)

	var resp struct {
		Data struct {
			UserID string          `json:"user_id"`
			Flags  map[string]bool `json:"flags"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "usr_1", resp.Data.UserID)
	assert.Len(t, resp.Data.Flags, preference.FlagCount())
	assert.False(t, resp.Data.Flags["AllowDataSelling"])
}

func TestPreferenceUpdate(t *testing.T) {
	repo := &stubPrefRepo{}
	r := newPreferenceRouter(repo)

	raw, _ := json.Marshal(gin.H{"flags": gin.H{"AllowDataSelling": true}})
	req := httptest.NewRequest(nethttp.MethodPut, "/v1/users/usr_1/preferences", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, nethttp.StatusOK, w.Code)

	require.NotNil(t, repo.saved)
	assert.True(t, repo.saved.Flags["AllowDataSelling"])
}

func TestPreferenceUpdateRejectsUnknownFlag(t *testing.T) {
	repo := &stubPrefRepo{}
	r := newPreferenceRouter(repo)

	raw, _ := json.Marshal(gin.H{"flags": gin.H{"AllowTimeTravel": true}})
	req := httptest.NewRequest(nethttp.MethodPut, "/v1/users/usr_1/preferences", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, nethttp.StatusBadRequest, w.Code)
	assert.Nil(t, repo.saved)

	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "PRF_003", resp.Error.Code)
}

func TestPreferenceFlagCatalog(t *testing.T) {
	r := newPreferenceRouter(&stubPrefRepo{})

	req := httptest.NewRequest(nethttp.MethodGet, "/v1/preferences/flags", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, nethttp.StatusOK, w.Code)

	var resp struct {
		Data []struct {
			Name     string `json:"name"`
			Category string `json:"category"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, preference.FlagCount())
	for _, f := range resp.Data {
		assert.NotEmpty(t, f.Name)
		assert.NotEmpty(t, f.Category)
	}
}
