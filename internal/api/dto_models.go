package api

import (
	"time"

	"vyap-onboarding-go/internal/core"
	"vyap-onboarding-go/internal/models"
)

// ErrorResponse is a generic structure for returning errors via API.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// StepsResponse lists the wizard steps for rendering.
type StepsResponse struct {
	Steps []core.StepDescriptor `json:"steps"`
}

// SignupResponse acknowledges the signup hook.
type SignupResponse struct {
	Pending bool                `json:"pending"`
	Profile *models.UserProfile `json:"profile,omitempty"`
}

// SnoozeResponse carries the snooze expiry and the resulting gate.
type SnoozeResponse struct {
	SnoozedUntil time.Time      `json:"snoozedUntil"`
	Gate         core.GateState `json:"gate"`
}

// ProvidersResponse lists the sign-in methods linked to the account.
type ProvidersResponse struct {
	Providers []string `json:"providers"`
}

// ActivityResponse lists audit entries, newest first.
type ActivityResponse struct {
	Entries []*models.AuditLog `json:"entries"`
}
