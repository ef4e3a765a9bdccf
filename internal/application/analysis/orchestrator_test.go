package analysis

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/privlens/privlens/internal/domain/analysis"
	"github.com/privlens/privlens/internal/domain/clause"
	"github.com/privlens/privlens/internal/intelligence/policyai"
	"github.com/privlens/privlens/pkg/errors"
	"github.com/privlens/privlens/pkg/types/common"
)

type mockCache struct {
	mu      sync.Mutex
	lookups int
	upserts []*analysis.CachedAnalysis

	lookupFn func(hash analysis.ContentHash, ct analysis.ContentType) (*analysis.CachedAnalysis, error)
}

func (m *mockCache) Lookup(_ context.Context, hash analysis.ContentHash, ct analysis.ContentType) (*analysis.CachedAnalysis, error) {
	m.mu.Lock()
	m.lookups++
	m.mu.Unlock()
	if m.lookupFn != nil {
		return m.lookupFn(hash, ct)
	}
	return nil, nil
}

func (m *mockCache) Peek(context.Context, analysis.ContentHash, analysis.ContentType) (*analysis.CachedAnalysis, error) {
	return nil, nil
}

func (m *mockCache) Upsert(_ context.Context, a *analysis.CachedAnalysis) error {
	m.mu.Lock()
	m.upserts = append(m.upserts, a)
	m.mu.Unlock()
	return nil
}

func (m *mockCache) MarkStaleBySite(context.Context, common.SiteID) (int64, error) { return 0, nil }

func (m *mockCache) Evict(context.Context, time.Time, int64) (int64, error) { return 0, nil }

func (m *mockCache) upsertCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.upserts)
}

type mockClauses struct {
	mu      sync.Mutex
	upserts []*clause.Record
}

func (m *mockClauses) Upsert(_ context.Context, r *clause.Record) (*clause.Record, error) {
	m.mu.Lock()
	m.upserts = append(m.upserts, r)
	m.mu.Unlock()
	return r, nil
}

func (m *mockClauses) GetByFingerprint(context.Context, clause.Fingerprint) (*clause.Record, error) {
	return nil, errors.New(errors.ErrCodeClauseNotFound, "not found")
}

func (m *mockClauses) List(context.Context, clause.ListFilter, common.Pagination) ([]*clause.Record, int64, error) {
	return nil, 0, nil
}

type mockAnalyzer struct {
	calls     atomic.Int64
	analyzeFn func(ctx context.Context, req *policyai.AnalyzeRequest) (*policyai.AnalyzeResponse, error)
}

func (m *mockAnalyzer) Analyze(ctx context.Context, req *policyai.AnalyzeRequest) (*policyai.AnalyzeResponse, error) {
	m.calls.Add(1)
	return m.analyzeFn(ctx, req)
}

func goodAIResponse() *policyai.AnalyzeResponse {
	return &policyai.AnalyzeResponse{
		OverallRiskScore: 72,
		ConfidenceScore:  0.91,
		DetectedClauses: []policyai.DetectedClauseDTO{
			{
				ClauseText:   "We may sell your personal information to partners.",
				RiskLevel:    "critical",
				RiskCategory: "data_sharing",
			},
		},
		RiskBreakdown:         map[string]int{"data_sharing": 85},
		RecommendationSummary: "High risk of data sale.",
		ModelVersion:          "policyai-v2",
		TokensUsed:            1830,
	}
}

func newTestOrchestrator(cache *mockCache, clauses *mockClauses, ai *mockAnalyzer) *Orchestrator {
	return NewOrchestrator(cache, clauses, ai, nil, nil, nil, OrchestratorConfig{AITimeout: time.Second})
}

func TestAnalyzeServesCacheHit(t *testing.T) {
	cached := &analysis.CachedAnalysis{
		ID:               "anl_cached",
		ContentHash:      analysis.HashContent(legalDoc(60)),
		ContentType:      analysis.ContentTermsOfService,
		OverallRiskScore: 40,
		Confidence:       0.8,
		ModelVersion:     "policyai-v2",
	}
	cache := &mockCache{lookupFn: func(analysis.ContentHash, analysis.ContentType) (*analysis.CachedAnalysis, error) {
		return cached, nil
	}}
	ai := &mockAnalyzer{analyzeFn: func(context.Context, *policyai.AnalyzeRequest) (*policyai.AnalyzeResponse, error) {
		t.Fatal("analyzer must not be called on a cache hit")
		return nil, nil
	}}

	o := newTestOrchestrator(cache, &mockClauses{}, ai)
	out, err := o.Analyze(context.Background(), AnalyzeInput{
		Content:     legalDoc(60),
		ContentType: analysis.ContentTermsOfService,
	})
	require.NoError(t, err)
	assert.Equal(t, analysis.SourceCached, out.Source)
	assert.Same(t, cached, out.Analysis)
	assert.NotNil(t, out.Quality)
}

func TestAnalyzeFreshStoresAndRecordsClauses(t *testing.T) {
	cache := &mockCache{}
	clauses := &mockClauses{}
	ai := &mockAnalyzer{analyzeFn: func(context.Context, *policyai.AnalyzeRequest) (*policyai.AnalyzeResponse, error) {
		return goodAIResponse(), nil
	}}

	o := newTestOrchestrator(cache, clauses, ai)
	out, err := o.Analyze(context.Background(), AnalyzeInput{
		Content:     legalDoc(60),
		ContentType: analysis.ContentTermsOfService,
	})
	require.NoError(t, err)
	assert.Equal(t, analysis.SourceFresh, out.Source)
	assert.Equal(t, 72, out.Analysis.OverallRiskScore)
	assert.Equal(t, int64(1), out.Analysis.AccessCount)

	require.Equal(t, 1, cache.upsertCount())
	require.Len(t, clauses.upserts, 1)
	assert.Equal(t, clause.FingerprintText("We may sell your personal information to partners."),
		clauses.upserts[0].Fingerprint)
}

func TestAnalyzeFallbackNeverCached(t *testing.T) {
	cache := &mockCache{}
	ai := &mockAnalyzer{analyzeFn: func(context.Context, *policyai.AnalyzeRequest) (*policyai.AnalyzeResponse, error) {
		return nil, errors.New(errors.ErrCodeProviderUnavailable, "provider down")
	}}

	o := newTestOrchestrator(cache, &mockClauses{}, ai)
	out, err := o.Analyze(context.Background(), AnalyzeInput{
		Content:     legalDoc(60),
		ContentType: analysis.ContentTermsOfService,
	})
	require.NoError(t, err)
	assert.Equal(t, analysis.SourceFallback, out.Source)
	assert.Equal(t, FallbackModelVersion, out.Analysis.ModelVersion)
	assert.Equal(t, 0.5, out.Analysis.Confidence)
	assert.Equal(t, 0, cache.upsertCount(), "fallback results must not be cached")
}

func TestAnalyzeQualityGateBlocks(t *testing.T) {
	ai := &mockAnalyzer{analyzeFn: func(context.Context, *policyai.AnalyzeRequest) (*policyai.AnalyzeResponse, error) {
		t.Fatal("analyzer must not be called for unanalyzable content")
		return nil, nil
	}}
	o := newTestOrchestrator(&mockCache{}, &mockClauses{}, ai)

	out, err := o.Analyze(context.Background(), AnalyzeInput{
		Content:     "too short",
		ContentType: analysis.ContentTermsOfService,
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInsufficientContent))
	require.NotNil(t, out)
	require.NotNil(t, out.Quality)
	assert.False(t, out.Quality.IsAnalyzable)
}

func TestAnalyzeValidatesInput(t *testing.T) {
	o := newTestOrchestrator(&mockCache{}, &mockClauses{}, &mockAnalyzer{})

	_, err := o.Analyze(context.Background(), AnalyzeInput{ContentType: analysis.ContentTermsOfService})
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))

	_, err = o.Analyze(context.Background(), AnalyzeInput{Content: "x", ContentType: "eula"})
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidContentType))
}

func TestAnalyzeForceRefreshSkipsLookup(t *testing.T) {
	cache := &mockCache{lookupFn: func(analysis.ContentHash, analysis.ContentType) (*analysis.CachedAnalysis, error) {
		t.Fatal("lookup must not be called with force refresh")
		return nil, nil
	}}
	ai := &mockAnalyzer{analyzeFn: func(context.Context, *policyai.AnalyzeRequest) (*policyai.AnalyzeResponse, error) {
		return goodAIResponse(), nil
	}}

	o := newTestOrchestrator(cache, &mockClauses{}, ai)
	out, err := o.Analyze(context.Background(), AnalyzeInput{
		Content:      legalDoc(60),
		ContentType:  analysis.ContentTermsOfService,
		ForceRefresh: true,
	})
	require.NoError(t, err)
	assert.Equal(t, analysis.SourceFresh, out.Source)
}

func TestAnalyzeCoalescesConcurrentRequests(t *testing.T) {
	cache := &mockCache{}
	release := make(chan struct{})
	ai := &mockAnalyzer{analyzeFn: func(context.Context, *policyai.AnalyzeRequest) (*policyai.AnalyzeResponse, error) {
		<-release
		return goodAIResponse(), nil
	}}

	o := newTestOrchestrator(cache, &mockClauses{}, ai)
	in := AnalyzeInput{Content: legalDoc(60), ContentType: analysis.ContentTermsOfService}

	const n = 8
	var wg sync.WaitGroup
	outs := make([]*AnalyzeOutput, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outs[i], errs[i] = o.Analyze(context.Background(), in)
		}(i)
	}

	// Give the goroutines time to pile onto the same singleflight key.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int64(1), ai.calls.Load(), "identical concurrent requests must coalesce into one AI call")
	assert.Equal(t, 1, cache.upsertCount())
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		require.NotNil(t, outs[i].Analysis)
		assert.Equal(t, 72, outs[i].Analysis.OverallRiskScore)
	}
}
