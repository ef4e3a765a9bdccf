package client

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// AnalysesClient groups the analysis endpoints.
type AnalysesClient struct {
	client *Client
}

// Analysis mirrors the server's cached analysis representation.
type Analysis struct {
	ID               string           `json:"id"`
	ContentHash      string           `json:"content_hash"`
	ContentType      string           `json:"content_type"`
	OverallRiskScore int              `json:"overall_risk_score"`
	RiskBreakdown    map[string]int   `json:"risk_breakdown"`
	Confidence       float64          `json:"confidence"`
	DetectedClauses  []DetectedClause `json:"detected_clauses"`
	Recommendation   string           `json:"recommendation_summary"`
	ModelVersion     string           `json:"model_version"`
	TokensUsed       int              `json:"tokens_used"`
	LatencyMS        int64            `json:"latency_ms"`
	AccessCount      int64            `json:"access_count"`
	LastAccessedAt   time.Time        `json:"last_accessed_at"`
	IsStale          bool             `json:"is_stale"`
	CreatedAt        time.Time        `json:"created_at"`
}

// DetectedClause is one flagged excerpt within an analysis.
type DetectedClause struct {
	Text             string `json:"clause_text"`
	Section          string `json:"section"`
	Position         int    `json:"position"`
	RiskLevel        string `json:"risk_level"`
	RiskCategory     string `json:"risk_category"`
	Explanation      string `json:"explanation"`
	UserImpact       string `json:"user_impact"`
	MitigationAdvice string `json:"mitigation_advice"`
}

// RiskLevel is the banded classification of an overall score.
type RiskLevel struct {
	Level string `json:"level"`
	Color string `json:"color"`
}

// QualityReport describes how content fared against the quality gate.
type QualityReport struct {
	Score           float64  `json:"score"`
	WordCountScore  float64  `json:"word_count_score"`
	DensityScore    float64  `json:"legal_density_score"`
	StructureScore  float64  `json:"structure_score"`
	LanguageScore   float64  `json:"language_score"`
	WordCount       int      `json:"word_count"`
	LegalTermCount  int      `json:"legal_term_count"`
	IsAnalyzable    bool     `json:"is_analyzable"`
	Recommendations []string `json:"recommendations,omitempty"`
}

// AnalyzeRequest is the input to Analyze.
type AnalyzeRequest struct {
	Content      string `json:"content"`
	ContentType  string `json:"content_type"`
	SiteID       string `json:"site_id,omitempty"`
	UserID       string `json:"user_id,omitempty"`
	ForceRefresh bool   `json:"force_refresh,omitempty"`
}

// AnalyzeResult is the full analysis response, including the personalized
// view when the request named a user and site.
type AnalyzeResult struct {
	Analysis     *Analysis              `json:"analysis"`
	Source       string                 `json:"source"`
	RiskLevel    RiskLevel              `json:"risk_level"`
	Quality      *QualityReport         `json:"quality,omitempty"`
	Personalized *PersonalizationResult `json:"personalized,omitempty"`
}

// Analyze submits document content for risk analysis.
func (ac *AnalysesClient) Analyze(ctx context.Context, req AnalyzeRequest) (*AnalyzeResult, error) {
	if req.Content == "" {
		return nil, fmt.Errorf("client: content is required")
	}
	if req.ContentType == "" {
		req.ContentType = "terms_of_service"
	}
	var out AnalyzeResult
	if err := ac.client.post(ctx, "/v1/analyses", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Quality evaluates content against the quality gate without analyzing it.
func (ac *AnalysesClient) Quality(ctx context.Context, content string) (*QualityReport, error) {
	if content == "" {
		return nil, fmt.Errorf("client: content is required")
	}
	var out QualityReport
	if err := ac.client.post(ctx, "/v1/analyses/quality", map[string]string{"content": content}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CachedResult is the response of Get: a cached analysis plus its band.
type CachedResult struct {
	Analysis  *Analysis `json:"analysis"`
	RiskLevel RiskLevel `json:"risk_level"`
}

// Get fetches the cached analysis for a content hash without affecting its
// access telemetry.
func (ac *AnalysesClient) Get(ctx context.Context, contentHash, contentType string) (*CachedResult, error) {
	if contentHash == "" {
		return nil, fmt.Errorf("client: contentHash is required")
	}
	path := "/v1/analyses/" + url.PathEscape(contentHash)
	if contentType != "" {
		path += "?content_type=" + url.QueryEscape(contentType)
	}
	var out CachedResult
	if _, err := ac.client.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Warning is a human-readable preference warning on a personalized result.
type Warning struct {
	Preference string `json:"preference"`
	Message    string `json:"message"`
	Severity   string `json:"severity"`
}

// PersonalizationResult mirrors the server's personalized result record.
type PersonalizationResult struct {
	ID                  string     `json:"id"`
	UserID              string     `json:"user_id"`
	SiteID              string     `json:"site_id"`
	AnalysisID          string     `json:"analysis_id"`
	PersonalizedScore   int        `json:"personalized_risk_score"`
	ViolatedPreferences []string   `json:"violated_preferences"`
	Warnings            []Warning  `json:"warnings"`
	Recommendation      string     `json:"recommendation"`
	CreatedAt           time.Time  `json:"created_at"`
	Decision            string     `json:"decision,omitempty"`
	DecisionAt          *time.Time `json:"decision_at,omitempty"`
}

// History returns a page of the user's personalization history, newest
// first.
func (ac *AnalysesClient) History(ctx context.Context, userID string, page, pageSize int) ([]PersonalizationResult, *PageInfo, error) {
	if userID == "" {
		return nil, nil, fmt.Errorf("client: userID is required")
	}
	path := fmt.Sprintf("/v1/users/%s/history?page=%d&page_size=%d", url.PathEscape(userID), page, pageSize)
	var out []PersonalizationResult
	info, err := ac.client.get(ctx, path, &out)
	if err != nil {
		return nil, nil, err
	}
	return out, info, nil
}

// Decide records the user's decision on a personalized result.  Valid
// decisions are proceeded, avoided, and ignored.
func (ac *AnalysesClient) Decide(ctx context.Context, resultID, decision string) error {
	if resultID == "" || decision == "" {
		return fmt.Errorf("client: resultID and decision are required")
	}
	path := "/v1/results/" + url.PathEscape(resultID) + "/decision"
	return ac.client.post(ctx, path, map[string]string{"decision": decision}, nil)
}
