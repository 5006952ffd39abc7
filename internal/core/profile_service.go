package core

import (
	"context"
	"errors"
	"fmt"

	"vyap-onboarding-go/internal/db"
	"vyap-onboarding-go/internal/models"
)

// ErrProfileNotFound is returned when a user has no profile document.
var ErrProfileNotFound = errors.New("profile not found")

// profileService implements the ProfileService interface.
type profileService struct {
	repo db.ProfileRepository
}

// NewProfileService creates a new ProfileService instance.
func NewProfileService(repo db.ProfileRepository) ProfileService {
	return &profileService{repo: repo}
}

// EnsureProfile creates the profile if absent, seeded from identity claims, and returns it.
func (s *profileService) EnsureProfile(ctx context.Context, userID string, seed models.ProfileSeed) (*models.UserProfile, error) {
	if s.repo == nil {
		return nil, errors.New("ProfileRepository not initialized in ProfileService")
	}
	if err := s.repo.EnsureExists(ctx, userID, seed); err != nil {
		return nil, fmt.Errorf("failed to ensure profile for user '%s': %w", userID, err)
	}
	return s.GetProfile(ctx, userID)
}

// GetProfile retrieves a profile by user ID.
func (s *profileService) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	if s.repo == nil {
		return nil, errors.New("ProfileRepository not initialized in ProfileService")
	}
	profile, err := s.repo.FetchProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: user with ID '%s'", ErrProfileNotFound, userID)
		}
		return nil, fmt.Errorf("failed to get profile '%s' from repository: %w", userID, err)
	}
	return profile, nil
}
