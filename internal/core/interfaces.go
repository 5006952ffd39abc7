package core

import (
	"context"

	"vyap-onboarding-go/internal/models"
)

// ProfileService defines the profile reads used by the API outside the state machines.
type ProfileService interface {
	// EnsureProfile creates the profile if absent and returns it.
	EnsureProfile(ctx context.Context, userID string, seed models.ProfileSeed) (*models.UserProfile, error)
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
}

// AuditService defines the interface for audit logging operations.
type AuditService interface {
	CreateAuditLog(ctx context.Context, logEntry models.AuditLog) error
	ListForUser(ctx context.Context, userID string, limit int) ([]*models.AuditLog, error)
}

// EventPublisher sends onboarding domain events to the broker.
type EventPublisher interface {
	PublishOnboardingCompleted(ctx context.Context, evt models.OnboardingCompletedEvent) error
}

// Recorder receives counters for gate decisions and saves. internal/metrics implements it.
type Recorder interface {
	GateDecision(outcome string)
	WizardFinish(result string)
	FieldSave(field string, result string)
	Snooze()
	Sessions(n int)
}
