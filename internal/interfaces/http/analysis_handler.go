package http

import (
	nethttp "net/http"

	"github.com/gin-gonic/gin"

	appanalysis "github.com/privlens/privlens/internal/application/analysis"
	apppersonalization "github.com/privlens/privlens/internal/application/personalization"
	"github.com/privlens/privlens/internal/domain/analysis"
	"github.com/privlens/privlens/pkg/errors"
	"github.com/privlens/privlens/pkg/types/common"
)

// AnalysisHandler serves the analysis endpoints.
type AnalysisHandler struct {
	orchestrator *appanalysis.Orchestrator
	maintenance  *appanalysis.Maintenance
	engine       *apppersonalization.Engine
}

// NewAnalysisHandler wires the handler.
func NewAnalysisHandler(
	orchestrator *appanalysis.Orchestrator,
	maintenance *appanalysis.Maintenance,
	engine *apppersonalization.Engine,
) *AnalysisHandler {
	return &AnalysisHandler{
		orchestrator: orchestrator,
		maintenance:  maintenance,
		engine:       engine,
	}
}

type analyzeRequest struct {
	Content      string `json:"content" binding:"required"`
	ContentType  string `json:"content_type" binding:"required"`
	SiteID       string `json:"site_id"`
	UserID       string `json:"user_id"`
	ForceRefresh bool   `json:"force_refresh"`
}

type analyzeResponse struct {
	Analysis     *analysis.CachedAnalysis   `json:"analysis"`
	Source       analysis.AnalysisSource    `json:"source"`
	RiskLevel    analysis.RiskLevel         `json:"risk_level"`
	Quality      *appanalysis.QualityReport `json:"quality,omitempty"`
	Personalized interface{}                `json:"personalized,omitempty"`
}

// Analyze runs the full analysis workflow.  When user_id and site_id are
// both present the response additionally carries the caller's personalized
// view.
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "content and content_type are required")
		return
	}

	out, err := h.orchestrator.Analyze(c.Request.Context(), appanalysis.AnalyzeInput{
		Content:      req.Content,
		ContentType:  analysis.ContentType(req.ContentType),
		ForceRefresh: req.ForceRefresh,
		SiteID:       common.SiteID(req.SiteID),
	})
	if err != nil {
		if errors.IsCode(err, errors.ErrCodeInsufficientContent) && out != nil {
			c.JSON(nethttp.StatusUnprocessableEntity, gin.H{
				"success": false,
				"error": gin.H{
					"code":    errors.ErrCodeInsufficientContent.String(),
					"message": "content did not pass the quality gate",
				},
				"quality": out.Quality,
			})
			return
		}
		respondError(c, err)
		return
	}

	resp := analyzeResponse{
		Analysis:  out.Analysis,
		Source:    out.Source,
		RiskLevel: out.Analysis.RiskLevel(),
		Quality:   out.Quality,
	}

	if req.UserID != "" && req.SiteID != "" {
		result, perr := h.engine.Personalize(c.Request.Context(),
			common.UserID(req.UserID), common.SiteID(req.SiteID), out.Analysis)
		if perr != nil {
			respondError(c, perr)
			return
		}
		resp.Personalized = result
	}

	respondOK(c, nethttp.StatusOK, resp)
}

type qualityRequest struct {
	Content string `json:"content" binding:"required"`
}

// Quality evaluates content against the quality gate without analyzing it.
func (h *AnalysisHandler) Quality(c *gin.Context) {
	var req qualityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "content is required")
		return
	}
	respondOK(c, nethttp.StatusOK, appanalysis.EvaluateQuality(req.Content))
}

// Get returns the cached analysis for a content hash without bumping its
// access telemetry.
func (h *AnalysisHandler) Get(c *gin.Context) {
	hash := analysis.ContentHash(c.Param("hash"))
	ct := analysis.ContentType(c.DefaultQuery("content_type", string(analysis.ContentTermsOfService)))

	a, err := h.maintenance.Peek(c.Request.Context(), hash, ct)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nethttp.StatusOK, gin.H{
		"analysis":   a,
		"risk_level": a.RiskLevel(),
	})
}
