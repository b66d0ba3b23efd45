package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fibukit/fibu_backend/internal/apperrors"
	"github.com/fibukit/fibu_backend/internal/core/domain/money"
	"github.com/fibukit/fibu_backend/internal/core/services"
	"github.com/fibukit/fibu_backend/internal/middleware"
)

var badRequestErrors = []error{
	apperrors.ErrValidation,
	money.ErrInvalidFormat,
	money.ErrCurrencyMismatch,
	services.ErrInsufficientPositions,
	services.ErrTooManyPositions,
	services.ErrEntryNotBalanced,
	services.ErrAccountsNotFoundOrInactive,
	services.ErrAccountsInactive,
	services.ErrInvalidDate,
	services.ErrPeriodClosed,
	services.ErrDescriptionMissing,
	services.ErrVoidReasonRequired,
	services.ErrTemplateTotalNeeded,
	services.ErrLineFractionMissing,
}

var conflictErrors = []error{
	apperrors.ErrDuplicate,
	apperrors.ErrConflict,
	apperrors.ErrConcurrentModification,
	services.ErrEntryNotEditable,
	services.ErrEntryNotDeletable,
	services.ErrAlreadyPosted,
	services.ErrNotPosted,
	services.ErrTemplateNotActive,
	services.ErrTemplateNameExists,
	services.ErrAccountAlreadyInactive,
}

// respondServiceError translates service errors into HTTP responses. Domain
// rule violations map to 400, state and uniqueness conflicts to 409, missing
// resources to 404; anything else is an opaque 500.
func respondServiceError(c *gin.Context, err error) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	if errors.Is(err, apperrors.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Resource not found"})
		return
	}
	for _, sentinel := range badRequestErrors {
		if errors.Is(err, sentinel) {
			logger.Warn("Request rejected", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	for _, sentinel := range conflictErrors {
		if errors.Is(err, sentinel) {
			logger.Warn("Request conflicted", slog.String("error", err.Error()))
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
	}

	logger.Error("Unhandled service error", slog.String("error", err.Error()))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

// actingUser returns the audit identity for the request. The ledger performs
// no authentication, so an absent header falls back to a fixed marker.
func actingUser(c *gin.Context) string {
	if user, ok := middleware.GetActingUserFromCtx(c.Request.Context()); ok {
		return user
	}
	return "anonymous"
}
