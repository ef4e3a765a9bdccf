package http

import (
	nethttp "net/http"

	"github.com/gin-gonic/gin"

	"github.com/privlens/privlens/internal/domain/preference"
	"github.com/privlens/privlens/pkg/types/common"
)

// PreferenceHandler serves preference set reads and updates.
type PreferenceHandler struct {
	prefs preference.Repository
}

// NewPreferenceHandler wires the handler.
func NewPreferenceHandler(prefs preference.Repository) *PreferenceHandler {
	return &PreferenceHandler{prefs: prefs}
}

// Get returns the user's effective preference set.  Users who never saved
// preferences see the full default set.
func (h *PreferenceHandler) Get(c *gin.Context) {
	userID := common.UserID(c.Param("user_id"))
	set, err := h.prefs.Get(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nethttp.StatusOK, set)
}

type updatePreferencesRequest struct {
	Flags map[preference.FlagName]bool `json:"flags" binding:"required"`
}

// Update merges explicit flag choices into the user's set.  Unknown flag
// names reject the whole request.
func (h *PreferenceHandler) Update(c *gin.Context) {
	var req updatePreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "flags object is required")
		return
	}

	userID := common.UserID(c.Param("user_id"))
	set, err := h.prefs.Get(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := set.Apply(req.Flags); err != nil {
		respondError(c, err)
		return
	}
	if err := h.prefs.Save(c.Request.Context(), set); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nethttp.StatusOK, set)
}

// Flags lists every registered flag with its category and default, for
// client settings screens.
func (h *PreferenceHandler) Flags(c *gin.Context) {
	type flagInfo struct {
		Name     preference.FlagName     `json:"name"`
		Category preference.FlagCategory `json:"category"`
		Default  bool                    `json:"default"`
	}
	out := make([]flagInfo, 0, preference.FlagCount())
	for _, name := range preference.AllFlags() {
		out = append(out, flagInfo{
			Name:     name,
			Category: preference.CategoryOf(name),
			Default:  preference.DefaultOf(name),
		})
	}
	respondOK(c, nethttp.StatusOK, out)
}
