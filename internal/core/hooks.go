package core

import (
	"context"
	"time"

	"go.uber.org/zap"

	"vyap-onboarding-go/internal/models"
)

// Hooks fans onboarding side effects out to audit, events and metrics. Every field is
// optional and a nil *Hooks is valid. Failures are logged and never reach the caller:
// they must not undo a save that already succeeded.
type Hooks struct {
	Audit    AuditService
	Events   EventPublisher
	Recorder Recorder
	Logger   *zap.Logger
	Now      func() time.Time
}

func (h *Hooks) logger() *zap.Logger {
	if h == nil || h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}

func (h *Hooks) now() time.Time {
	if h == nil || h.Now == nil {
		return time.Now().UTC()
	}
	return h.Now()
}

func (h *Hooks) audit(ctx context.Context, entry models.AuditLog) {
	if h == nil || h.Audit == nil {
		return
	}
	if err := h.Audit.CreateAuditLog(ctx, entry); err != nil {
		h.logger().Warn("Audit log write failed", zap.String("action", entry.Action), zap.String("userID", entry.UserID), zap.Error(err))
	}
}

func (h *Hooks) gateDecided(outcome GateOutcome) {
	if h == nil || h.Recorder == nil {
		return
	}
	h.Recorder.GateDecision(string(outcome))
}

func (h *Hooks) finishFailed() {
	if h == nil || h.Recorder == nil {
		return
	}
	h.Recorder.WizardFinish("error")
}

func (h *Hooks) onboardingCompleted(ctx context.Context, deviceID, userID string, answers models.OnboardingAnswers) {
	if h == nil {
		return
	}
	if h.Recorder != nil {
		h.Recorder.WizardFinish("ok")
	}
	h.audit(ctx, models.AuditLog{UserID: userID, DeviceID: deviceID, Action: models.AuditOnboardingCompleted})
	if h.Events != nil {
		evt := models.OnboardingCompletedEvent{
			Type:        models.EventOnboardingCompleted,
			UserID:      userID,
			DeviceID:    deviceID,
			Answers:     answers,
			CompletedAt: h.now(),
		}
		if err := h.Events.PublishOnboardingCompleted(ctx, evt); err != nil {
			h.logger().Warn("Publishing onboarding.completed failed", zap.String("userID", userID), zap.Error(err))
		}
	}
}

func (h *Hooks) snoozed(ctx context.Context, deviceID, userID string, until time.Time) {
	if h == nil {
		return
	}
	if h.Recorder != nil {
		h.Recorder.Snooze()
	}
	h.audit(ctx, models.AuditLog{
		UserID:   userID,
		DeviceID: deviceID,
		Action:   models.AuditOnboardingSnoozed,
		Details:  map[string]interface{}{"until": until.UTC().Format(time.RFC3339)},
	})
}

func (h *Hooks) fieldSaved(ctx context.Context, deviceID, userID string, field models.FieldKey, err error) {
	if h == nil {
		return
	}
	if h.Recorder != nil {
		result := "ok"
		if err != nil {
			result = "error"
		}
		h.Recorder.FieldSave(string(field), result)
	}
	if err == nil {
		h.audit(ctx, models.AuditLog{UserID: userID, DeviceID: deviceID, Action: models.AuditProfileFieldUpdated, Field: string(field)})
	}
}

func (h *Hooks) pendingSet(ctx context.Context, deviceID, userID string) {
	if h == nil {
		return
	}
	h.audit(ctx, models.AuditLog{UserID: userID, DeviceID: deviceID, Action: models.AuditSignupPendingSet})
}

func (h *Hooks) sessionsChanged(n int) {
	if h == nil || h.Recorder == nil {
		return
	}
	h.Recorder.Sessions(n)
}
