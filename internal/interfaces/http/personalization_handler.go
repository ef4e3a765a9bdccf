package http

import (
	nethttp "net/http"

	"github.com/gin-gonic/gin"

	apppersonalization "github.com/privlens/privlens/internal/application/personalization"
	"github.com/privlens/privlens/internal/domain/personalization"
	"github.com/privlens/privlens/pkg/types/common"
)

// PersonalizationHandler serves personalization history and decisions.
type PersonalizationHandler struct {
	engine *apppersonalization.Engine
}

// NewPersonalizationHandler wires the handler.
func NewPersonalizationHandler(engine *apppersonalization.Engine) *PersonalizationHandler {
	return &PersonalizationHandler{engine: engine}
}

// History returns the user's personalization history, newest first.
func (h *PersonalizationHandler) History(c *gin.Context) {
	userID := common.UserID(c.Param("user_id"))
	page := paginationFromQuery(c)

	results, total, err := h.engine.History(c.Request.Context(), userID, page)
	if err != nil {
		respondError(c, err)
		return
	}
	page.Total = total
	respondPage(c, results, page)
}

type decisionRequest struct {
	Decision string `json:"decision" binding:"required"`
}

// Decide records the user's reaction to a result.  A result accepts exactly
// one decision.
func (h *PersonalizationHandler) Decide(c *gin.Context) {
	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "decision is required")
		return
	}

	id := common.ID(c.Param("id"))
	if err := h.engine.RecordDecision(c.Request.Context(), id, personalization.Decision(req.Decision)); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nethttp.StatusOK, gin.H{"id": id, "decision": req.Decision})
}
