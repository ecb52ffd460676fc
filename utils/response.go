package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rag-document-service/internal/logger"
	"rag-document-service/services"
)

// APIResponse is the success envelope: payload wrapped with status and a
// human-readable message.
type APIResponse struct {
	Status     string `json:"status"`
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	Data       any    `json:"data"`
}

// APIError is the error body. It is deliberately not wrapped in the
// success envelope; the asymmetry is part of the published wire contract.
type APIError struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
}

// RespondWithSuccess sends a wrapped success payload.
func RespondWithSuccess(c *gin.Context, statusCode int, message string, data any) {
	c.JSON(statusCode, APIResponse{
		Status:     "success",
		StatusCode: statusCode,
		Message:    message,
		Data:       data,
	})
}

// RespondWithDomainError is the single boundary translator from error kind
// to HTTP status and body. Unclassified errors get a generic message; the
// detail is logged server-side only.
func RespondWithDomainError(c *gin.Context, err error) {
	kind := services.KindOf(err)

	switch kind {
	case services.KindValidation, services.KindExtraction:
		respondError(c, http.StatusBadRequest, "Bad Request", err.Error())
	case services.KindNotFound:
		respondError(c, http.StatusNotFound, "Not Found", err.Error())
	case services.KindUpstreamStorage, services.KindUpstreamIndex, services.KindUpstreamQuery:
		logger.Error("upstream failure", "error", err.Error())
		respondError(c, http.StatusInternalServerError, "Internal Server Error", err.Error())
	default:
		logger.Error("unexpected error", "error", err.Error())
		respondError(c, http.StatusInternalServerError, "Internal Server Error", "An unexpected error occurred")
	}
}

func respondError(c *gin.Context, statusCode int, errorLabel, message string) {
	c.JSON(statusCode, APIError{
		Error:      errorLabel,
		Message:    message,
		StatusCode: statusCode,
	})
}
