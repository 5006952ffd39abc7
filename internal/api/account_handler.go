package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"vyap-onboarding-go/internal/core"
	"vyap-onboarding-go/internal/identity"
	"vyap-onboarding-go/internal/models"
)

const defaultActivityLimit = 20

// AccountHandler serves the account page: linked sign-in methods and recent activity.
type AccountHandler struct {
	directory identity.Directory
	audit     core.AuditService
	logger    *zap.Logger
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(directory identity.Directory, audit core.AuditService, logger *zap.Logger) *AccountHandler {
	return &AccountHandler{directory: directory, audit: audit, logger: logger}
}

// ListProviders handles GET /api/v1/account/providers.
func (h *AccountHandler) ListProviders(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	providers, err := identity.LinkedProviders(c.Request.Context(), h.directory, uid)
	if err != nil {
		respondError(c, h.logger, "Failed to list sign-in methods", err)
		return
	}
	c.JSON(http.StatusOK, ProvidersResponse{Providers: providers})
}

// ListActivity handles GET /api/v1/account/activity?limit=N.
func (h *AccountHandler) ListActivity(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	limit := defaultActivityLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = n
	}
	entries, err := h.audit.ListForUser(c.Request.Context(), uid, limit)
	if err != nil {
		respondError(c, h.logger, "Failed to list account activity", err)
		return
	}
	if entries == nil {
		entries = []*models.AuditLog{}
	}
	c.JSON(http.StatusOK, ActivityResponse{Entries: entries})
}
