// Package analysis implements the application-layer analysis workflow: the
// content quality gate, the rule-based fallback scorer, and the orchestrator
// that coordinates cache, AI provider, clause library and snapshot archive.
package analysis

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/privlens/privlens/internal/domain/analysis"
	"github.com/privlens/privlens/internal/domain/clause"
	"github.com/privlens/privlens/internal/infrastructure/monitoring/logging"
	"github.com/privlens/privlens/internal/intelligence/policyai"
	"github.com/privlens/privlens/pkg/errors"
	"github.com/privlens/privlens/pkg/types/common"
)

// SnapshotArchiver stores the raw document that produced an analysis, keyed
// by its content hash.  Archiving is best effort; failures never fail the
// analysis itself.
type SnapshotArchiver interface {
	Archive(ctx context.Context, hash analysis.ContentHash, contentType analysis.ContentType, content string) error
}

// Metrics receives orchestrator telemetry.  Implemented by the prometheus
// collector; NopMetrics is the default.
type Metrics interface {
	CacheHit(contentType string)
	CacheMiss(contentType string)
	AICall(duration time.Duration, tokens int, success bool)
	FallbackUsed()
}

// NopMetrics discards all telemetry.
type NopMetrics struct{}

func (NopMetrics) CacheHit(string)                 {}
func (NopMetrics) CacheMiss(string)                {}
func (NopMetrics) AICall(time.Duration, int, bool) {}
func (NopMetrics) FallbackUsed()                   {}

// AnalyzeInput is a single analysis request.
type AnalyzeInput struct {
	Content     string
	ContentType analysis.ContentType

	// ForceRefresh bypasses the cache lookup and replaces any existing row.
	ForceRefresh bool

	// SiteID, when known, lets the orchestrator stamp the site's document
	// hash after a successful analysis.  Optional.
	SiteID common.SiteID
}

// AnalyzeOutput carries the result plus how it was obtained.
type AnalyzeOutput struct {
	Analysis *analysis.CachedAnalysis
	Source   analysis.AnalysisSource
	Quality  *QualityReport
}

// OrchestratorConfig tunes the orchestrator.
type OrchestratorConfig struct {
	// AITimeout bounds a single provider call, retries included.
	AITimeout time.Duration `mapstructure:"ai_timeout"`
}

// Orchestrator coordinates one analysis from raw text to cached result.
// Concurrent requests for the same (hash, content type) key are coalesced
// into a single provider call; every caller receives the one result.
type Orchestrator struct {
	cache    analysis.Repository
	clauses  clause.Repository
	analyzer policyai.Analyzer
	archive  SnapshotArchiver
	metrics  Metrics
	logger   logging.Logger
	cfg      OrchestratorConfig

	group singleflight.Group
}

// NewOrchestrator wires the orchestrator.  archive may be nil; metrics and
// logger fall back to no-ops.
func NewOrchestrator(
	cache analysis.Repository,
	clauses clause.Repository,
	analyzer policyai.Analyzer,
	archive SnapshotArchiver,
	metrics Metrics,
	logger logging.Logger,
	cfg OrchestratorConfig,
) *Orchestrator {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if cfg.AITimeout <= 0 {
		cfg.AITimeout = 60 * time.Second
	}
	return &Orchestrator{
		cache:    cache,
		clauses:  clauses,
		analyzer: analyzer,
		archive:  archive,
		metrics:  metrics,
		logger:   logger.Named("orchestrator"),
		cfg:      cfg,
	}
}

// Analyze runs the full workflow: quality gate, cache lookup, coalesced AI
// analysis, fallback on provider failure.  Stale cache rows are still served;
// callers see IsStale and may force a refresh.
func (o *Orchestrator) Analyze(ctx context.Context, in AnalyzeInput) (*AnalyzeOutput, error) {
	if in.Content == "" {
		return nil, errors.NewValidation("content is required")
	}
	if !in.ContentType.IsValid() {
		return nil, errors.New(errors.ErrCodeInvalidContentType, "unknown content type").
			WithDetail(string(in.ContentType))
	}

	quality := EvaluateQuality(in.Content)
	if !quality.IsAnalyzable {
		return &AnalyzeOutput{Quality: quality}, errors.New(
			errors.ErrCodeInsufficientContent,
			"content did not pass the quality gate",
		)
	}

	hash := analysis.HashContent(in.Content)

	if !in.ForceRefresh {
		cached, err := o.cache.Lookup(ctx, hash, in.ContentType)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeCacheError, "cache lookup failed")
		}
		if cached != nil {
			o.metrics.CacheHit(string(in.ContentType))
			return &AnalyzeOutput{Analysis: cached, Source: analysis.SourceCached, Quality: quality}, nil
		}
	}
	o.metrics.CacheMiss(string(in.ContentType))

	key := analysis.CacheKey(hash, in.ContentType)
	v, err, shared := o.group.Do(key, func() (interface{}, error) {
		return o.analyzeFresh(ctx, in, hash)
	})
	if err != nil {
		return nil, err
	}
	out := v.(*AnalyzeOutput)
	if shared {
		o.logger.Debug("coalesced duplicate analysis request",
			logging.String("content_hash", string(hash)),
			logging.String("content_type", string(in.ContentType)),
		)
	}
	out.Quality = quality
	return out, nil
}

// analyzeFresh runs exactly once per coalesced key.  It re-checks the cache
// first so late joiners that raced a concurrent writer get the stored row.
func (o *Orchestrator) analyzeFresh(ctx context.Context, in AnalyzeInput, hash analysis.ContentHash) (*AnalyzeOutput, error) {
	if !in.ForceRefresh {
		cached, err := o.cache.Lookup(ctx, hash, in.ContentType)
		if err == nil && cached != nil {
			return &AnalyzeOutput{Analysis: cached, Source: analysis.SourceCached}, nil
		}
	}

	aiCtx, cancel := context.WithTimeout(ctx, o.cfg.AITimeout)
	defer cancel()

	start := time.Now()
	resp, err := o.analyzer.Analyze(aiCtx, &policyai.AnalyzeRequest{
		DocumentText: in.Content,
		ContentType:  in.ContentType,
		Categories:   analysis.AllRiskCategories,
	})
	elapsed := time.Since(start)
	if err != nil {
		o.metrics.AICall(elapsed, 0, false)
		o.metrics.FallbackUsed()
		o.logger.Warn("ai provider failed, serving rule-based fallback",
			logging.String("content_hash", string(hash)),
			logging.Err(err),
		)
		// Fallback results are ephemeral: never cached, so a later healthy
		// provider run produces a real analysis for the same content.
		fb := FallbackAnalyze(in.Content, in.ContentType)
		return &AnalyzeOutput{Analysis: fb, Source: analysis.SourceFallback}, nil
	}
	o.metrics.AICall(elapsed, resp.TokensUsed, true)

	clauses, breakdown := resp.ToDomain()
	result := &analysis.CachedAnalysis{
		ID:               common.GenerateID("anl"),
		ContentHash:      hash,
		ContentType:      in.ContentType,
		OverallRiskScore: resp.OverallRiskScore,
		RiskBreakdown:    breakdown,
		Confidence:       resp.ConfidenceScore,
		DetectedClauses:  clauses,
		Recommendation:   resp.RecommendationSummary,
		ModelVersion:     resp.ModelVersion,
		TokensUsed:       resp.TokensUsed,
		LatencyMS:        elapsed.Milliseconds(),
		AccessCount:      1,
		LastAccessedAt:   time.Now().UTC(),
		CreatedAt:        time.Now().UTC(),
	}
	if err := result.Validate(); err != nil {
		return nil, err
	}
	if err := o.cache.Upsert(ctx, result); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeAnalysisStoreFailed, "failed to store analysis")
	}

	o.recordClauses(ctx, result)
	o.archiveSnapshot(ctx, hash, in)

	return &AnalyzeOutput{Analysis: result, Source: analysis.SourceFresh}, nil
}

// recordClauses feeds detected clauses into the shared clause library.
// Failures are logged and swallowed: the analysis is already durable.
func (o *Orchestrator) recordClauses(ctx context.Context, a *analysis.CachedAnalysis) {
	now := time.Now().UTC()
	for _, d := range a.DetectedClauses {
		rec := clause.FromDetected(d, now)
		if _, err := o.clauses.Upsert(ctx, rec); err != nil {
			o.logger.Warn("clause library upsert failed",
				logging.String("fingerprint", string(rec.Fingerprint)),
				logging.Err(err),
			)
		}
	}
}

func (o *Orchestrator) archiveSnapshot(ctx context.Context, hash analysis.ContentHash, in AnalyzeInput) {
	if o.archive == nil {
		return
	}
	if err := o.archive.Archive(ctx, hash, in.ContentType, in.Content); err != nil {
		o.logger.Warn("document snapshot archive failed",
			logging.String("content_hash", string(hash)),
			logging.Err(err),
		)
	}
}
