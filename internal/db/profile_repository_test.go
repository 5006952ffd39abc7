package db

import (
	"context"
	"os"
	"testing"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vyap-onboarding-go/internal/models"
)

// newEmulatorClient connects to the Firestore emulator named by FIRESTORE_EMULATOR_HOST.
func newEmulatorClient(t *testing.T) *firestore.Client {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set; skipping Firestore integration test")
	}
	client, err := firestore.NewClient(context.Background(), "vyap-test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestFirestoreProfileRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewFirestoreProfileRepository(newEmulatorClient(t))
	uid := "test-" + uuid.NewString()

	status, err := repo.GetOnboardingStatus(ctx, uid)
	require.NoError(t, err)
	assert.False(t, status.Complete)

	require.NoError(t, repo.EnsureExists(ctx, uid, models.ProfileSeed{DisplayName: "Asha"}))
	require.NoError(t, repo.EnsureExists(ctx, uid, models.ProfileSeed{DisplayName: "Other"}))

	answers := models.OnboardingAnswers{ShopName: "Asha Store", SellingChannels: []string{"Walk-in", "WhatsApp"}}
	require.NoError(t, repo.SaveOnboarding(ctx, uid, answers, SaveOnboardingOptions{Complete: true}))

	require.NoError(t, repo.UpdateProfile(ctx, uid, models.ProfilePatch{
		Answers: &models.OnboardingAnswers{LocationCity: "Pune"},
	}))

	p, err := repo.FetchProfile(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, "Asha", p.DisplayName)
	assert.Equal(t, "Asha Store", p.Onboarding.ShopName)
	assert.Equal(t, "Pune", p.Onboarding.LocationCity)
	assert.True(t, p.Onboarding.Complete)

	status, err = repo.GetOnboardingStatus(ctx, uid)
	require.NoError(t, err)
	assert.True(t, status.Complete)
}

func TestFirestoreProfileRepository_UpdateMissing(t *testing.T) {
	repo := NewFirestoreProfileRepository(newEmulatorClient(t))
	err := repo.UpdateProfile(context.Background(), "missing-"+uuid.NewString(), models.ProfilePatch{MarkComplete: true})
	assert.ErrorIs(t, err, ErrNotFound)
}
