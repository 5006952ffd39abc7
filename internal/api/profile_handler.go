package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"vyap-onboarding-go/internal/core"
	"vyap-onboarding-go/internal/models"
)

// ProfileHandler drives the profile editor of the calling device.
type ProfileHandler struct {
	sessions *core.SessionManager
	logger   *zap.Logger
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(sessions *core.SessionManager, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{sessions: sessions, logger: logger}
}

func (h *ProfileHandler) editor(c *gin.Context) (*core.Editor, bool) {
	uid, ok := currentUserID(c)
	if !ok {
		return nil, false
	}
	ed, err := h.sessions.Editor(c.Request.Context(), deviceID(c), uid)
	if err != nil {
		h.logger.Warn("Profile editor load failed", zap.String("userID", uid), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: core.LoadFailedMessage})
		return nil, false
	}
	return ed, true
}

// GetProfile handles GET /api/v1/profile. With no field open the profile is re-read,
// so answers saved by the wizard on another device show up.
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	ed, ok := h.editor(c)
	if !ok {
		return
	}
	if st := ed.Snapshot(); st.EditingField == "" && st.SavingField == "" {
		if err := ed.Load(c.Request.Context()); err != nil {
			h.logger.Warn("Profile reload failed", zap.String("userID", ed.UserID()), zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: core.LoadFailedMessage})
			return
		}
	}
	c.JSON(http.StatusOK, ed.Snapshot())
}

// BeginEdit handles POST /api/v1/profile/edit.
func (h *ProfileHandler) BeginEdit(c *gin.Context) {
	var req models.BeginEditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}
	ed, ok := h.editor(c)
	if !ok {
		return
	}
	if err := ed.BeginEdit(req.Field); err != nil {
		respondError(c, h.logger, "Cannot edit field", err)
		return
	}
	c.JSON(http.StatusOK, ed.Snapshot())
}

// CancelEdit handles DELETE /api/v1/profile/edit.
func (h *ProfileHandler) CancelEdit(c *gin.Context) {
	ed, ok := h.editor(c)
	if !ok {
		return
	}
	ed.CancelEdit()
	c.JSON(http.StatusOK, ed.Snapshot())
}

// Toggle handles POST /api/v1/profile/edit/toggle.
func (h *ProfileHandler) Toggle(c *gin.Context) {
	var req models.ToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}
	ed, ok := h.editor(c)
	if !ok {
		return
	}
	if err := ed.Toggle(req.Value); err != nil {
		respondError(c, h.logger, "Cannot change selling channels", err)
		return
	}
	c.JSON(http.StatusOK, ed.Snapshot())
}

// SaveField handles PUT /api/v1/profile/fields/:field.
func (h *ProfileHandler) SaveField(c *gin.Context) {
	field := models.FieldKey(c.Param("field"))
	if !field.IsValid() {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Unknown profile field", Details: string(field)})
		return
	}
	var req models.SaveFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}
	ed, ok := h.editor(c)
	if !ok {
		return
	}

	var v core.FieldValue
	switch {
	case req.Values != nil:
		v = core.SetValue(req.Values...)
	case req.Value != nil:
		v = core.TextValue(*req.Value)
	}
	if err := ed.SaveField(c.Request.Context(), field, v); err != nil {
		respondError(c, h.logger, "Failed to save field", err)
		return
	}
	c.JSON(http.StatusOK, ed.Snapshot())
}
