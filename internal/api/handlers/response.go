package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/denisAlshanov/vidgrab/internal/utils"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	ErrorKind string `json:"error_kind" example:"FORMAT_NOT_FOUND"`
	Message   string `json:"message" example:"Format 999 is not available for this URL"`
	RequestID string `json:"request_id" example:"req_4b7c0c1e-2f3a-4d5e-8f90-123456789abc"`
	Timestamp string `json:"timestamp" example:"2024-01-01T12:00:00Z"`
}

func errorResponse(c *gin.Context, err *utils.AppError) {
	if err.StatusCode >= 500 {
		utils.LogError(c.Request.Context(), "Request failed", err, utils.Fields{
			"error_kind": err.Code,
		})
	}

	c.AbortWithStatusJSON(err.StatusCode, ErrorResponse{
		ErrorKind: string(err.Code),
		Message:   err.Message,
		RequestID: c.GetString("request_id"),
		Timestamp: time.Now().Format(time.RFC3339),
	})
}
