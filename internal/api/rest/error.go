package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/feral-file/ff-token-scanner/internal/logger"
)

// messageServerError is the only detail a client gets about a server side failure
const messageServerError = "Server Error"

// errorResponse represents a standardized error response
type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// respondWithError sends a standardized error response
func respondWithError(c *gin.Context, statusCode int, message string, details ...string) {
	response := errorResponse{Error: message}
	if len(details) > 0 {
		response.Details = details[0]
	}
	c.JSON(statusCode, response)
}

// respondBadRequest sends a 400 Bad Request response
func respondBadRequest(c *gin.Context, message string, details ...string) {
	respondWithError(c, http.StatusBadRequest, message, details...)
}

// respondNotFound sends a 404 Not Found response
func respondNotFound(c *gin.Context, message string) {
	respondWithError(c, http.StatusNotFound, message)
}

// respondInternalError logs err and sends a bare 500
func respondInternalError(c *gin.Context, err error, fields ...zap.Field) {
	logger.ErrorCtx(c.Request.Context(), err, fields...)
	respondWithError(c, http.StatusInternalServerError, messageServerError)
}

// respondServiceUnavailable sends a 503 without details
func respondServiceUnavailable(c *gin.Context, err error) {
	logger.WarnCtx(c.Request.Context(), "health check failed", zap.Error(err))
	respondWithError(c, http.StatusServiceUnavailable, "Service Unavailable")
}
