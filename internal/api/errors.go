package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"vyap-onboarding-go/internal/core"
	"vyap-onboarding-go/internal/identity"
	"vyap-onboarding-go/internal/middleware"
)

// statusFor maps state machine and store errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrSaveFailed):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrNoWizard),
		errors.Is(err, core.ErrProfileNotFound),
		errors.Is(err, identity.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrInvalidField):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrCannotAdvance),
		errors.Is(err, core.ErrInvalidValue),
		errors.Is(err, core.ErrFieldValue):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrAtFirstStep),
		errors.Is(err, core.ErrAtLastStep),
		errors.Is(err, core.ErrNotLastStep),
		errors.Is(err, core.ErrBusy),
		errors.Is(err, core.ErrWizardClosed),
		errors.Is(err, core.ErrNotEditing),
		errors.Is(err, core.ErrSignedOut):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as an ErrorResponse. Save failures carry the user-facing
// "Could not save." text; 5xx details stay in the log.
func respondError(c *gin.Context, logger *zap.Logger, msg string, err error) {
	code := statusFor(err)
	resp := ErrorResponse{Error: msg, Details: err.Error()}
	switch {
	case errors.Is(err, core.ErrSaveFailed):
		resp = ErrorResponse{Error: core.SaveFailedMessage}
		logger.Warn(msg, zap.Error(err))
	case code >= http.StatusInternalServerError:
		resp.Details = ""
		logger.Error(msg, zap.Error(err))
	}
	_ = c.Error(err)
	c.JSON(code, resp)
}

// currentUserID returns the authenticated user, or writes 401.
func currentUserID(c *gin.Context) (string, bool) {
	uid := c.GetString(middleware.ContextUserID)
	if uid == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication error: User ID not found in context"})
		return "", false
	}
	return uid, true
}

func deviceID(c *gin.Context) string {
	return c.GetString(middleware.ContextDeviceID)
}
