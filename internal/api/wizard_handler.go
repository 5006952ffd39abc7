package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"vyap-onboarding-go/internal/core"
	"vyap-onboarding-go/internal/models"
)

// WizardHandler drives the onboarding wizard of the calling device.
type WizardHandler struct {
	sessions *core.SessionManager
	logger   *zap.Logger
}

// NewWizardHandler creates a new WizardHandler.
func NewWizardHandler(sessions *core.SessionManager, logger *zap.Logger) *WizardHandler {
	return &WizardHandler{sessions: sessions, logger: logger}
}

// ListSteps handles GET /api/v1/onboarding/steps.
func (h *WizardHandler) ListSteps(c *gin.Context) {
	c.JSON(http.StatusOK, StepsResponse{Steps: core.Descriptors()})
}

func (h *WizardHandler) gate(c *gin.Context) (*core.Gate, string, bool) {
	uid, ok := currentUserID(c)
	if !ok {
		return nil, "", false
	}
	return h.sessions.Session(deviceID(c)).Gate, uid, true
}

func (h *WizardHandler) wizard(c *gin.Context) (*core.Wizard, bool) {
	g, uid, ok := h.gate(c)
	if !ok {
		return nil, false
	}
	w, err := g.WizardFor(uid)
	if err != nil {
		respondError(c, h.logger, "Onboarding wizard is not open", err)
		return nil, false
	}
	return w, true
}

// GetWizard handles GET /api/v1/onboarding/wizard.
func (h *WizardHandler) GetWizard(c *gin.Context) {
	w, ok := h.wizard(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, w.Snapshot())
}

// Next handles POST /api/v1/onboarding/wizard/next.
func (h *WizardHandler) Next(c *gin.Context) {
	h.transition(c, "Cannot move to the next step", (*core.Wizard).Next)
}

// Back handles POST /api/v1/onboarding/wizard/back.
func (h *WizardHandler) Back(c *gin.Context) {
	h.transition(c, "Cannot move to the previous step", (*core.Wizard).Back)
}

func (h *WizardHandler) transition(c *gin.Context, msg string, op func(*core.Wizard) error) {
	w, ok := h.wizard(c)
	if !ok {
		return
	}
	if err := op(w); err != nil {
		respondError(c, h.logger, msg, err)
		return
	}
	c.JSON(http.StatusOK, w.Snapshot())
}

// Answer handles POST /api/v1/onboarding/wizard/answer.
func (h *WizardHandler) Answer(c *gin.Context) {
	var req models.AnswerFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}
	w, ok := h.wizard(c)
	if !ok {
		return
	}
	v := core.TextValue(req.Value)
	if req.Field.IsMultiSelect() {
		v = core.SetValue(req.Values...)
	}
	if err := w.AnswerField(req.Field, v); err != nil {
		respondError(c, h.logger, "Invalid answer", err)
		return
	}
	c.JSON(http.StatusOK, w.Snapshot())
}

// Toggle handles POST /api/v1/onboarding/wizard/toggle.
func (h *WizardHandler) Toggle(c *gin.Context) {
	var req models.ToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}
	w, ok := h.wizard(c)
	if !ok {
		return
	}
	if err := w.Toggle(req.Value); err != nil {
		respondError(c, h.logger, "Cannot change selling channels", err)
		return
	}
	c.JSON(http.StatusOK, w.Snapshot())
}

// Finish handles POST /api/v1/onboarding/wizard/finish. On success the wizard is gone
// and the hidden gate is returned; on a failed save the wizard keeps its answers.
func (h *WizardHandler) Finish(c *gin.Context) {
	g, uid, ok := h.gate(c)
	if !ok {
		return
	}
	if err := g.Finish(c.Request.Context(), uid); err != nil {
		respondError(c, h.logger, "Failed to finish onboarding", err)
		return
	}
	c.JSON(http.StatusOK, g.State())
}

// Snooze handles POST /api/v1/onboarding/snooze ("Skip for now").
func (h *WizardHandler) Snooze(c *gin.Context) {
	g, uid, ok := h.gate(c)
	if !ok {
		return
	}
	if g.UserID() != uid {
		c.JSON(http.StatusConflict, ErrorResponse{Error: "Onboarding is not active for this user on this device"})
		return
	}
	until, err := g.Snooze(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "Failed to snooze onboarding", err)
		return
	}
	c.JSON(http.StatusOK, SnoozeResponse{SnoozedUntil: until, Gate: g.State()})
}
