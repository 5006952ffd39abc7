package db

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vyap-onboarding-go/internal/models"
)

func fixedClock() func() time.Time {
	t := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time { return t }
}

func TestMemoryProfileRepository_EnsureExistsIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryProfileRepository(fixedClock())

	require.NoError(t, repo.EnsureExists(ctx, "u1", models.ProfileSeed{DisplayName: "Asha"}))
	name := "Renamed"
	require.NoError(t, repo.UpdateProfile(ctx, "u1", models.ProfilePatch{DisplayName: &name}))
	require.NoError(t, repo.EnsureExists(ctx, "u1", models.ProfileSeed{DisplayName: "Asha"}))

	p, err := repo.FetchProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", p.DisplayName)
	assert.False(t, p.Onboarding.Complete)
}

func TestMemoryProfileRepository_MissingDocument(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryProfileRepository(nil)

	_, err := repo.FetchProfile(ctx, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)

	status, err := repo.GetOnboardingStatus(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, status.Complete)

	err = repo.UpdateProfile(ctx, "ghost", models.ProfilePatch{MarkComplete: true})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryProfileRepository_SaveOnboardingReplacesSubObject(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryProfileRepository(fixedClock())
	require.NoError(t, repo.EnsureExists(ctx, "u1", models.ProfileSeed{}))

	first := models.OnboardingAnswers{ShopName: "Old", PrimaryGoal: "Track inventory"}
	require.NoError(t, repo.SaveOnboarding(ctx, "u1", first, SaveOnboardingOptions{}))

	second := models.OnboardingAnswers{ShopName: "Asha Store", SellingChannels: []string{"Walk-in"}}
	require.NoError(t, repo.SaveOnboarding(ctx, "u1", second, SaveOnboardingOptions{Complete: true}))
	// A retried save must leave the same document.
	require.NoError(t, repo.SaveOnboarding(ctx, "u1", second, SaveOnboardingOptions{Complete: true}))

	p, err := repo.FetchProfile(ctx, "u1")
	require.NoError(t, err)
	if diff := cmp.Diff(second, p.Onboarding.Answers()); diff != "" {
		t.Errorf("answers mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, p.Onboarding.Complete)
	require.NotNil(t, p.Onboarding.CompletedAt)
}

func TestMemoryProfileRepository_UpdateProfileNeverClearsComplete(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryProfileRepository(fixedClock())
	require.NoError(t, repo.SaveOnboarding(ctx, "u1", models.OnboardingAnswers{ShopName: "A"}, SaveOnboardingOptions{Complete: true}))

	require.NoError(t, repo.UpdateProfile(ctx, "u1", models.ProfilePatch{
		Answers: &models.OnboardingAnswers{LocationCity: "Pune"},
	}))

	p, err := repo.FetchProfile(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, p.Onboarding.Complete)
	assert.Equal(t, "A", p.Onboarding.ShopName)
	assert.Equal(t, "Pune", p.Onboarding.LocationCity)
}

func TestMemoryProfileRepository_FetchReturnsCopy(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryProfileRepository(nil)
	require.NoError(t, repo.SaveOnboarding(ctx, "u1", models.OnboardingAnswers{SellingChannels: []string{"Walk-in"}}, SaveOnboardingOptions{}))

	p, err := repo.FetchProfile(ctx, "u1")
	require.NoError(t, err)
	p.Onboarding.SellingChannels[0] = "mutated"

	again, err := repo.FetchProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Walk-in"}, again.Onboarding.SellingChannels)
}

func TestMemoryAuditRepository_ListByUser(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryAuditRepository(fixedClock())

	require.NoError(t, repo.Create(ctx, models.AuditLog{UserID: "u1", Action: models.AuditSignupPendingSet}))
	require.NoError(t, repo.Create(ctx, models.AuditLog{UserID: "u2", Action: models.AuditOnboardingSnoozed}))
	require.NoError(t, repo.Create(ctx, models.AuditLog{UserID: "u1", Action: models.AuditOnboardingCompleted}))
	require.NoError(t, repo.Create(ctx, models.AuditLog{UserID: "u1", Action: models.AuditProfileFieldUpdated}))

	entries, err := repo.ListByUser(ctx, "u1", 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.AuditProfileFieldUpdated, entries[0].Action)
	assert.Equal(t, models.AuditOnboardingCompleted, entries[1].Action)

	assert.Error(t, repo.Create(ctx, models.AuditLog{Action: "X"}))
}
