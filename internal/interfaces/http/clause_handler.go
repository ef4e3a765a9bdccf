package http

import (
	nethttp "net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/privlens/privlens/internal/domain/analysis"
	"github.com/privlens/privlens/internal/domain/clause"
	"github.com/privlens/privlens/pkg/types/common"
)

// ClauseHandler serves the clause library browsing endpoints.
type ClauseHandler struct {
	clauses clause.Repository
}

// NewClauseHandler wires the handler.
func NewClauseHandler(clauses clause.Repository) *ClauseHandler {
	return &ClauseHandler{clauses: clauses}
}

// List browses the clause library, most popular first.
func (h *ClauseHandler) List(c *gin.Context) {
	filter := clause.ListFilter{
		Category: analysis.RiskCategory(c.Query("category")),
		Severity: analysis.Severity(c.Query("severity")),
	}
	if raw := c.Query("min_popularity"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 0 {
			respondValidation(c, "min_popularity must be a non-negative integer")
			return
		}
		filter.MinPopularity = n
	}
	page := paginationFromQuery(c)

	records, total, err := h.clauses.List(c.Request.Context(), filter, page)
	if err != nil {
		respondError(c, err)
		return
	}
	page.Total = total
	respondPage(c, records, page)
}

// Get returns one clause by fingerprint.
func (h *ClauseHandler) Get(c *gin.Context) {
	fp := clause.Fingerprint(c.Param("fingerprint"))
	rec, err := h.clauses.GetByFingerprint(c.Request.Context(), fp)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nethttp.StatusOK, rec)
}

// paginationFromQuery reads page/page_size query parameters, clamped to sane
// bounds.
func paginationFromQuery(c *gin.Context) common.Pagination {
	page := common.Pagination{}
	page.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	page.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page.Normalize()
	return page
}
