package http

import (
	"context"
	nethttp "net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/privlens/privlens/pkg/types/common"
)

// HealthChecker probes one dependency.
type HealthChecker func(ctx context.Context) common.ComponentHealth

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	version  string
	checkers []HealthChecker
}

// NewHealthHandler wires the handler with its dependency probes.
func NewHealthHandler(version string, checkers ...HealthChecker) *HealthHandler {
	return &HealthHandler{version: version, checkers: checkers}
}

// Live reports process liveness only.
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(nethttp.StatusOK, gin.H{"status": common.HealthHealthy, "version": h.version})
}

// Ready probes every dependency; any unhealthy component fails readiness.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	overall := common.HealthHealthy
	components := make([]common.ComponentHealth, 0, len(h.checkers))
	for _, check := range h.checkers {
		ch := check(ctx)
		components = append(components, ch)
		switch ch.Status {
		case common.HealthUnhealthy:
			overall = common.HealthUnhealthy
		case common.HealthDegraded:
			if overall == common.HealthHealthy {
				overall = common.HealthDegraded
			}
		}
	}

	status := nethttp.StatusOK
	if overall == common.HealthUnhealthy {
		status = nethttp.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"status":     overall,
		"version":    h.version,
		"components": components,
	})
}
