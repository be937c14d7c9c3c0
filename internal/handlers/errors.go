package handlers

import (
	"log/slog"
	"net/http"

	"github.com/SscSPs/invoice_registry/internal/apperrors"
	"github.com/SscSPs/invoice_registry/internal/middleware"
	"github.com/gin-gonic/gin"
)

// statusByCode maps taxonomy codes to HTTP statuses.
var statusByCode = map[string]int{
	"VALIDATION_ERROR":         http.StatusBadRequest,
	"NOT_FOUND":                http.StatusNotFound,
	"SERIES_NOT_FOUND":         http.StatusNotFound,
	"DUPLICATE":                http.StatusConflict,
	"SERIES_INACTIVE":          http.StatusConflict,
	"SERIES_EXHAUSTED":         http.StatusConflict,
	"ALREADY_REGISTERED":       http.StatusConflict,
	"IMMUTABLE_INVOICE":        http.StatusConflict,
	"ENTRY_IMMUTABLE":          http.StatusConflict,
	"INVALID_TRANSITION":       http.StatusConflict,
	"SUBMISSION_IN_FLIGHT":     http.StatusConflict,
	"REQUIRES_REVIEW":          http.StatusConflict,
	"INVOICE_NOT_FINAL":        http.StatusUnprocessableEntity,
	"CONCURRENT_TAIL_CONFLICT": http.StatusServiceUnavailable,
}

// respondError writes err as {"error","code"}. Unclassified failures are logged
// and answered with a generic message.
func respondError(c *gin.Context, logger *slog.Logger, err error, fallback string) {
	code := apperrors.Code(err)
	status, known := statusByCode[code]
	if !known {
		logger.Error(fallback, slog.String("error", err.Error()), slog.String("code", code))
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback, "code": code})
		return
	}
	logger.Warn(fallback, slog.String("error", err.Error()), slog.String("code", code))
	if status == http.StatusServiceUnavailable {
		c.Header("Retry-After", "1")
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": code})
}

// requireUser returns the authenticated user or writes 401.
func requireUser(c *gin.Context, logger *slog.Logger) (string, bool) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", false
	}
	return userID, true
}
