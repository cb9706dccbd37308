package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/raluca-web/ai-bot/internal/apperr"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	ErrorCode string      `json:"error_code"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
}

// RespondWithError sends a standardized error response
func RespondWithError(c *gin.Context, statusCode int, errorCode, message string, details interface{}) {
	c.JSON(statusCode, ErrorResponse{
		ErrorCode: errorCode,
		Message:   message,
		Details:   details,
	})
}

// RespondWithBadRequest sends a 400 Bad Request error
func RespondWithBadRequest(c *gin.Context, message string, details interface{}) {
	RespondWithError(c, http.StatusBadRequest, "bad_request", message, details)
}

// RespondWithNotFound sends a 404 Not Found error
func RespondWithNotFound(c *gin.Context, message string) {
	RespondWithError(c, http.StatusNotFound, "not_found", message, nil)
}

// RespondWithInternalError sends a 500 Internal Server Error
func RespondWithInternalError(c *gin.Context, message string, details interface{}) {
	RespondWithError(c, http.StatusInternalServerError, "internal_error", message, details)
}

// RespondWithPipelineError maps a pipeline failure to its HTTP status by
// error kind: bad input 400, unreadable PDF 422, provider failure 502,
// storage failure 500.
func RespondWithPipelineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		RespondWithError(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, apperr.ErrExtraction):
		RespondWithError(c, http.StatusUnprocessableEntity, "extraction_error", err.Error(), nil)
	case errors.Is(err, apperr.ErrProvider):
		RespondWithError(c, http.StatusBadGateway, "provider_error", err.Error(), nil)
	case errors.Is(err, apperr.ErrStorage):
		RespondWithError(c, http.StatusInternalServerError, "storage_error", err.Error(), nil)
	default:
		RespondWithInternalError(c, err.Error(), nil)
	}
}
