// Package middleware provides the gin middleware stack: request logging,
// metrics, CORS, and rate limiting.
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/privlens/privlens/internal/infrastructure/monitoring/logging"
)

// RequestMetrics is the sink for per-request telemetry.
type RequestMetrics interface {
	HTTPRequest(method, route, status string, duration time.Duration)
}

// Logging logs every request after it completes and feeds the metrics sink.
// metrics may be nil.
func Logging(log logging.Logger, metrics RequestMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()

		fields := []logging.Field{
			logging.String("method", c.Request.Method),
			logging.String("route", route),
			logging.String("path", c.Request.URL.Path),
			logging.Int("status", status),
			logging.Duration("duration", elapsed),
			logging.String("client_ip", c.ClientIP()),
		}
		switch {
		case status >= 500:
			log.Error("request failed", fields...)
		case status >= 400:
			log.Warn("request rejected", fields...)
		default:
			log.Info("request served", fields...)
		}

		if metrics != nil {
			metrics.HTTPRequest(c.Request.Method, route, strconv.Itoa(status), elapsed)
		}
	}
}
