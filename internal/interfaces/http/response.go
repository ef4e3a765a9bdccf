// Package http implements the PrivLens HTTP API: gin router, handlers, and
// middleware.
package http

import (
	nethttp "net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/privlens/privlens/pkg/errors"
	"github.com/privlens/privlens/pkg/types/common"
)

const requestIDKey = "request_id"

// requestID returns the request's correlation ID, assigning one if needed.
func requestID(c *gin.Context) string {
	if id, ok := c.Get(requestIDKey); ok {
		return id.(string)
	}
	id := c.GetHeader("X-Request-ID")
	if id == "" {
		id = uuid.NewString()
	}
	c.Set(requestIDKey, id)
	return id
}

func respondOK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, common.APIResponse[interface{}]{
		Success:   true,
		Data:      data,
		RequestID: requestID(c),
		Timestamp: time.Now().UTC(),
	})
}

func respondPage(c *gin.Context, data interface{}, page common.Pagination) {
	c.JSON(nethttp.StatusOK, common.APIResponse[interface{}]{
		Success:    true,
		Data:       data,
		Pagination: &page,
		RequestID:  requestID(c),
		Timestamp:  time.Now().UTC(),
	})
}

// respondError maps an application error to its HTTP status and envelope.
func respondError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	status := errors.HTTPStatusForCode(code)

	message := errors.DefaultMessageForCode(code)
	var detail map[string]interface{}
	if appErr, ok := err.(*errors.AppError); ok {
		if appErr.Message != "" {
			message = appErr.Message
		}
		if appErr.Detail != "" {
			detail = map[string]interface{}{"detail": appErr.Detail}
		}
	}

	c.AbortWithStatusJSON(status, common.APIResponse[interface{}]{
		Success: false,
		Error: &common.ErrorDetail{
			Code:    code.String(),
			Message: message,
			Details: detail,
		},
		RequestID: requestID(c),
		Timestamp: time.Now().UTC(),
	})
}

func respondValidation(c *gin.Context, msg string) {
	respondError(c, errors.NewValidation(msg))
}
