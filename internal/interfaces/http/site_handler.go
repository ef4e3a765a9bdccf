package http

import (
	nethttp "net/http"

	"github.com/gin-gonic/gin"

	appsite "github.com/privlens/privlens/internal/application/site"
	"github.com/privlens/privlens/internal/domain/analysis"
	"github.com/privlens/privlens/pkg/types/common"
)

// SiteHandler serves the site registry endpoints.
type SiteHandler struct {
	sites *appsite.Service
}

// NewSiteHandler wires the handler.
func NewSiteHandler(sites *appsite.Service) *SiteHandler {
	return &SiteHandler{sites: sites}
}

// Register creates a monitored site.
func (h *SiteHandler) Register(c *gin.Context) {
	var req appsite.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "domain is required")
		return
	}
	st, err := h.sites.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nethttp.StatusCreated, st)
}

// List returns registered sites, newest first.
func (h *SiteHandler) List(c *gin.Context) {
	page := paginationFromQuery(c)
	sites, total, err := h.sites.List(c.Request.Context(), page)
	if err != nil {
		respondError(c, err)
		return
	}
	page.Total = total
	respondPage(c, sites, page)
}

// Get returns one site by ID.
func (h *SiteHandler) Get(c *gin.Context) {
	st, err := h.sites.Get(c.Request.Context(), common.SiteID(c.Param("id")))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nethttp.StatusOK, st)
}

type observeDocumentRequest struct {
	ContentType string `json:"content_type" binding:"required"`
	ContentHash string `json:"content_hash" binding:"required"`
}

// ObserveDocument records the hash of a document seen for the site; a hash
// differing from the last-analyzed one publishes a change event.
func (h *SiteHandler) ObserveDocument(c *gin.Context) {
	var req observeDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "content_type and content_hash are required")
		return
	}

	changed, err := h.sites.ObserveDocument(c.Request.Context(),
		common.SiteID(c.Param("id")),
		analysis.ContentType(req.ContentType),
		analysis.ContentHash(req.ContentHash),
	)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nethttp.StatusOK, gin.H{"changed": changed})
}
