package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"vyap-onboarding-go/internal/core"
	"vyap-onboarding-go/internal/identity"
	"vyap-onboarding-go/internal/middleware"
	"vyap-onboarding-go/internal/models"
)

// SessionHandler turns client auth-state changes into gate evaluations.
type SessionHandler struct {
	feed     *identity.Feed
	sessions *core.SessionManager
	profiles core.ProfileService
	logger   *zap.Logger
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(feed *identity.Feed, sessions *core.SessionManager, profiles core.ProfileService, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{feed: feed, sessions: sessions, profiles: profiles, logger: logger}
}

// ReportIdentity handles POST /api/v1/session/identity. The caller's token (if any)
// is the device's current user; no token means signed out. Listeners run synchronously,
// so the returned gate already reflects this change.
func (h *SessionHandler) ReportIdentity(c *gin.Context) {
	device := deviceID(c)
	change := h.feed.Publish(c.Request.Context(), device, c.GetString(middleware.ContextUserID))
	h.logger.Debug("Identity change published", zap.Uint64("seq", change.Seq), zap.String("deviceID", device))
	c.JSON(http.StatusOK, h.sessions.Session(device).Gate.State())
}

// GetGate handles GET /api/v1/session/gate.
func (h *SessionHandler) GetGate(c *gin.Context) {
	c.JSON(http.StatusOK, h.sessions.Session(deviceID(c)).Gate.State())
}

// Signup handles POST /api/v1/session/signup, called right after account creation.
// It seeds the profile from token claims and forces the wizard on this device once.
func (h *SessionHandler) Signup(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	seed := models.ProfileSeed{
		DisplayName: c.GetString(middleware.ContextUserDisplayName),
		Email:       c.GetString(middleware.ContextUserEmail),
	}
	profile, err := h.profiles.EnsureProfile(c.Request.Context(), uid, seed)
	if err != nil {
		respondError(c, h.logger, "Failed to create user profile", err)
		return
	}
	if err := h.sessions.Session(deviceID(c)).Gate.SetPending(c.Request.Context(), uid); err != nil {
		respondError(c, h.logger, "Failed to mark onboarding as pending", err)
		return
	}
	c.JSON(http.StatusOK, SignupResponse{Pending: true, Profile: profile})
}
