package db

import (
	"context"

	"vyap-onboarding-go/internal/models"
)

// SaveOnboardingOptions controls SaveOnboarding.
type SaveOnboardingOptions struct {
	Complete bool
}

// ProfileRepository is the answer store: one profile document per user.
type ProfileRepository interface {
	// EnsureExists creates the user document if it is absent. Idempotent.
	EnsureExists(ctx context.Context, userID string, seed models.ProfileSeed) error
	// FetchProfile returns the document or an error wrapping ErrNotFound.
	FetchProfile(ctx context.Context, userID string) (*models.UserProfile, error)
	// GetOnboardingStatus reads the completion flag. A missing document reads as incomplete.
	GetOnboardingStatus(ctx context.Context, userID string) (models.OnboardingStatus, error)
	// UpdateProfile applies a merge patch; see models.ProfilePatch.
	UpdateProfile(ctx context.Context, userID string, patch models.ProfilePatch) error
	// SaveOnboarding writes the answers as the whole onboarding sub-object.
	SaveOnboarding(ctx context.Context, userID string, answers models.OnboardingAnswers, opts SaveOnboardingOptions) error
}

// AuditRepository defines the interface for audit log data storage operations.
type AuditRepository interface {
	Create(ctx context.Context, logEntry models.AuditLog) error
	// ListByUser returns the newest entries for a user, at most limit.
	ListByUser(ctx context.Context, userID string, limit int) ([]*models.AuditLog, error)
}
