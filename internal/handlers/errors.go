// Package handlers exposes the treasury core over HTTP using gin.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kitewire/treasury_backend/internal/apperrors"
	"github.com/kitewire/treasury_backend/internal/middleware"
)

// statusForKind maps application error kinds to HTTP status codes.
func statusForKind(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindValidation:
		return http.StatusBadRequest
	case apperrors.KindUnauthorized:
		return http.StatusUnauthorized
	case apperrors.KindForbidden:
		return http.StatusForbidden
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindConflict, apperrors.KindIdempotencyConflict:
		return http.StatusConflict
	case apperrors.KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the uniform error body. Internal errors are logged
// with their cause but never leak it to the client.
func respondError(c *gin.Context, err error) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	kind := apperrors.KindOf(err)
	status := statusForKind(kind)

	body := gin.H{"error": string(kind)}
	if status == http.StatusInternalServerError {
		logger.Error("request failed", slog.String("error", err.Error()))
		body["message"] = "internal error"
	} else {
		logger.Warn("request rejected", slog.String("error", err.Error()))
		body["message"] = err.Error()
		if details := apperrors.DetailsOf(err); len(details) > 0 {
			body["details"] = details
		}
	}
	c.JSON(status, body)
}
