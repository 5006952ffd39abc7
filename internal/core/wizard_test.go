package core

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vyap-onboarding-go/internal/models"
)

// answerAll walks the wizard from step 0 to the last step, answering each step with a.
func answerAll(t *testing.T, w *Wizard, a models.OnboardingAnswers) {
	t.Helper()
	fields := []struct {
		field models.FieldKey
		value FieldValue
	}{
		{models.FieldShopName, TextValue(a.ShopName)},
		{models.FieldBusinessType, TextValue(a.BusinessType)},
		{models.FieldLocationCity, TextValue(a.LocationCity)},
		{models.FieldSellingChannels, SetValue(a.SellingChannels...)},
		{models.FieldInventorySize, TextValue(a.InventorySize)},
		{models.FieldPrimaryGoal, TextValue(a.PrimaryGoal)},
	}
	for i, f := range fields {
		require.NoError(t, w.AnswerField(f.field, f.value))
		if i < len(fields)-1 {
			require.NoError(t, w.Next())
		}
	}
}

func TestWizardFreshSignupScenario(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	repo := newStubRepo(clock)
	w := NewWizard("u1", repo, nil)

	st := w.Snapshot()
	assert.Equal(t, 0, st.StepIndex)
	assert.False(t, st.CanAdvance)

	answerAll(t, w, validAnswers())
	st = w.Snapshot()
	assert.True(t, st.IsLast)
	assert.True(t, st.CanAdvance)

	require.NoError(t, w.Finish(ctx))
	assert.True(t, w.Snapshot().Closed)

	p, err := repo.FetchProfile(ctx, "u1")
	require.NoError(t, err)
	want := models.NewOnboarding(validAnswers(), true)
	completedAt := clock.Now()
	want.CompletedAt = &completedAt
	if diff := cmp.Diff(want, p.Onboarding); diff != "" {
		t.Errorf("persisted onboarding mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, repo.saveCalls)
}

func TestWizardTransitionsDoNotMutateOnError(t *testing.T) {
	w := NewWizard("u1", newStubRepo(newFakeClock()), nil)

	assert.ErrorIs(t, w.Back(), ErrAtFirstStep)
	assert.ErrorIs(t, w.Next(), ErrCannotAdvance)
	assert.ErrorIs(t, w.Finish(context.Background()), ErrNotLastStep)
	assert.Equal(t, 0, w.Snapshot().StepIndex)

	require.NoError(t, w.AnswerField(models.FieldShopName, TextValue("Asha Store")))
	require.NoError(t, w.Next())
	require.NoError(t, w.Back())
	st := w.Snapshot()
	assert.Equal(t, 0, st.StepIndex)
	assert.Equal(t, "Asha Store", st.Answers.ShopName, "Back keeps answers")
}

func TestWizardNextAtLastStep(t *testing.T) {
	w := NewWizard("u1", newStubRepo(newFakeClock()), nil)
	answerAll(t, w, validAnswers())
	assert.ErrorIs(t, w.Next(), ErrAtLastStep)
}

func TestWizardFinishValidatesEveryStep(t *testing.T) {
	w := NewWizard("u1", newStubRepo(newFakeClock()), nil)
	answerAll(t, w, validAnswers())
	// Clearing an earlier answer after passing its step blocks Finish.
	require.NoError(t, w.AnswerField(models.FieldShopName, TextValue(" ")))
	assert.ErrorIs(t, w.Finish(context.Background()), ErrCannotAdvance)
}

func TestWizardFinishRetryIsIdempotent(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()

	single := newStubRepo(clock)
	w := NewWizard("u1", single, nil)
	answerAll(t, w, validAnswers())
	require.NoError(t, w.Finish(ctx))
	want, err := single.FetchProfile(ctx, "u1")
	require.NoError(t, err)

	retried := newStubRepo(clock)
	retried.saveErr = errors.New("unavailable")
	w = NewWizard("u1", retried, nil)
	answerAll(t, w, validAnswers())

	err = w.Finish(ctx)
	require.ErrorIs(t, err, ErrSaveFailed)
	st := w.Snapshot()
	assert.Equal(t, SaveFailedMessage, st.Error)
	assert.Equal(t, StepCount()-1, st.StepIndex)
	assert.False(t, st.Busy)
	assert.False(t, st.Closed)
	assert.Equal(t, validAnswers(), st.Answers)

	retried.set(func(r *stubRepo) { r.saveErr = nil })
	require.NoError(t, w.Finish(ctx))
	assert.Empty(t, w.Snapshot().Error)

	got, err := retried.FetchProfile(ctx, "u1")
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("retried document differs from single save (-want +got):\n%s", diff)
	}
}

func TestWizardBusyDuringFinish(t *testing.T) {
	ctx := context.Background()
	repo := newStubRepo(newFakeClock())
	repo.saveEntered = make(chan struct{})
	repo.saveRelease = make(chan struct{})

	w := NewWizard("u1", repo, nil)
	answerAll(t, w, validAnswers())

	done := make(chan error, 1)
	go func() { done <- w.Finish(ctx) }()
	<-repo.saveEntered

	assert.True(t, w.Snapshot().Busy)
	assert.ErrorIs(t, w.Finish(ctx), ErrBusy)
	assert.ErrorIs(t, w.Back(), ErrBusy)
	assert.NoError(t, w.AnswerField(models.FieldPrimaryGoal, TextValue("Track inventory")))

	close(repo.saveRelease)
	require.NoError(t, <-done)
	assert.Equal(t, 1, repo.saveCalls)
}

func TestWizardClosed(t *testing.T) {
	w := NewWizard("u1", newStubRepo(newFakeClock()), nil)
	w.Close()

	assert.ErrorIs(t, w.Next(), ErrWizardClosed)
	assert.ErrorIs(t, w.Back(), ErrWizardClosed)
	assert.ErrorIs(t, w.AnswerField(models.FieldShopName, TextValue("x")), ErrWizardClosed)
	assert.ErrorIs(t, w.Toggle("WhatsApp"), ErrWizardClosed)
	assert.ErrorIs(t, w.Finish(context.Background()), ErrWizardClosed)
}

func TestWizardToggle(t *testing.T) {
	w := NewWizard("u1", newStubRepo(newFakeClock()), nil)
	require.NoError(t, w.Toggle("WhatsApp"))
	require.NoError(t, w.Toggle("ONDC"))
	require.NoError(t, w.Toggle("WhatsApp"))
	assert.Equal(t, []string{"ONDC"}, w.Answers().SellingChannels)
}
