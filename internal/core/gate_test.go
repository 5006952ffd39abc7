package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vyap-onboarding-go/internal/db"
	"vyap-onboarding-go/internal/models"
)

const device = "device-1"

type gateFixture struct {
	clock    *fakeClock
	repo     *stubRepo
	flags    *stubFlags
	recorder *fakeRecorder
	events   *fakePublisher
	gate     *Gate
}

func newGateFixture(t *testing.T) *gateFixture {
	t.Helper()
	f := &gateFixture{
		clock:    newFakeClock(),
		recorder: &fakeRecorder{},
		events:   &fakePublisher{},
	}
	f.repo = newStubRepo(f.clock)
	f.flags = newStubFlags(f.clock)
	f.gate = NewGate(GateConfig{
		DeviceID: device,
		Store:    f.repo,
		Flags:    f.flags,
		Now:      f.clock.Now,
		Hooks:    &Hooks{Recorder: f.recorder, Events: f.events, Now: f.clock.Now},
	})
	return f
}

func (f *gateFixture) markComplete(t *testing.T, userID string) {
	t.Helper()
	require.NoError(t, f.repo.MemoryProfileRepository.SaveOnboarding(context.Background(), userID, validAnswers(), db.SaveOnboardingOptions{Complete: true}))
}

func (f *gateFixture) setPending(t *testing.T) {
	t.Helper()
	require.NoError(t, f.gate.SetPending(context.Background(), "u1"))
}

func (f *gateFixture) pendingPresent(t *testing.T) bool {
	t.Helper()
	_, ok, err := f.flags.MemoryStore.Get(context.Background(), PendingKey(device))
	require.NoError(t, err)
	return ok
}

func TestGateDecisionTable(t *testing.T) {
	tests := []struct {
		name     string
		pending  bool
		complete bool
		wantShow bool
	}{
		{"new user", false, false, true},
		{"fresh signup", true, false, true},
		{"returning complete user", false, true, false},
		{"pending overrides complete", true, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newGateFixture(t)
			if tt.complete {
				f.markComplete(t, "u1")
			}
			if tt.pending {
				f.setPending(t)
			}

			d := f.gate.HandleIdentityChange(context.Background(), "u1")
			require.NoError(t, d.Err)
			assert.Equal(t, tt.pending, d.Pending)
			assert.Equal(t, tt.complete, d.Complete)
			assert.Equal(t, tt.wantShow, d.Show)

			st := f.gate.State()
			assert.Equal(t, tt.wantShow, st.Visible)
			if tt.wantShow {
				require.NotNil(t, st.Wizard)
				assert.Equal(t, 0, st.Wizard.StepIndex)
			} else {
				assert.Nil(t, st.Wizard)
			}

			// The pending flag is one-shot whatever the outcome.
			assert.False(t, f.pendingPresent(t))
		})
	}
}

func TestGateEnsuresProfileExists(t *testing.T) {
	f := newGateFixture(t)
	f.gate.HandleIdentityChange(context.Background(), "u1")

	p, err := f.repo.FetchProfile(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, p.Onboarding.Complete)
}

func TestGateSnoozeExpiry(t *testing.T) {
	ctx := context.Background()
	f := newGateFixture(t)

	require.True(t, f.gate.HandleIdentityChange(ctx, "u1").Show)

	until, err := f.gate.Snooze(ctx)
	require.NoError(t, err)
	assert.Equal(t, f.clock.Now().Add(DefaultSnoozeDuration), until)
	assert.False(t, f.gate.State().Visible, "snooze hides immediately")

	f.clock.Advance(time.Minute)
	d := f.gate.HandleIdentityChange(ctx, "u1")
	assert.True(t, d.Snoozed)
	assert.False(t, d.Show)

	f.clock.Advance(DefaultSnoozeDuration - time.Minute - time.Nanosecond)
	assert.False(t, f.gate.HandleIdentityChange(ctx, "u1").Show, "still inside the snooze window")

	f.clock.Advance(time.Nanosecond)
	d = f.gate.HandleIdentityChange(ctx, "u1")
	assert.False(t, d.Snoozed)
	assert.True(t, d.Show, "snooze expired at T+7d")

	status, err := f.repo.GetOnboardingStatus(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, status.Complete, "snooze never touches complete")
	assert.Equal(t, []string{""}, f.recorder.labels("snooze"))
}

func TestGateSkipThenRevisitAfterEightDays(t *testing.T) {
	ctx := context.Background()
	f := newGateFixture(t)
	require.True(t, f.gate.HandleIdentityChange(ctx, "u1").Show)

	w, err := f.gate.WizardFor("u1")
	require.NoError(t, err)
	require.NoError(t, w.AnswerField(models.FieldShopName, TextValue("X")))
	require.NoError(t, w.Next())

	_, err = f.gate.Snooze(ctx)
	require.NoError(t, err)
	assert.True(t, w.Snapshot().Closed)

	f.clock.Advance(time.Minute)
	assert.False(t, f.gate.HandleIdentityChange(ctx, "u1").Show)

	f.clock.Advance(8 * 24 * time.Hour)
	assert.True(t, f.gate.HandleIdentityChange(ctx, "u1").Show)
}

func TestGateSnoozeFailureStillHides(t *testing.T) {
	ctx := context.Background()
	f := newGateFixture(t)
	require.True(t, f.gate.HandleIdentityChange(ctx, "u1").Show)

	f.flags.setErr = errors.New("redis down")
	_, err := f.gate.Snooze(ctx)
	assert.Error(t, err)
	assert.False(t, f.gate.State().Visible)
}

func TestGateSnoozeSignedOut(t *testing.T) {
	f := newGateFixture(t)
	_, err := f.gate.Snooze(context.Background())
	assert.ErrorIs(t, err, ErrSignedOut)
}

func TestGateStoreFailureShowsBanner(t *testing.T) {
	ctx := context.Background()
	f := newGateFixture(t)
	f.repo.statusErr = errors.New("firestore unavailable")

	d := f.gate.HandleIdentityChange(ctx, "u1")
	assert.Equal(t, OutcomeError, d.Outcome)
	assert.Error(t, d.Err)
	assert.False(t, d.Show)

	st := f.gate.State()
	assert.False(t, st.Visible)
	assert.Equal(t, LoadFailedBanner, st.Banner)
	assert.Nil(t, st.Wizard)

	f.repo.set(func(r *stubRepo) { r.statusErr = nil })
	f.gate.HandleIdentityChange(ctx, "u1")
	assert.Empty(t, f.gate.State().Banner)
	assert.Equal(t, []string{"error", "show"}, f.recorder.labels("gate"))
}

func TestGateEnsureFailureConsumesPendingFlag(t *testing.T) {
	ctx := context.Background()
	f := newGateFixture(t)
	f.markComplete(t, "u1")
	f.setPending(t)
	f.repo.ensureErr = errors.New("permission denied")

	d := f.gate.HandleIdentityChange(ctx, "u1")
	assert.Equal(t, OutcomeError, d.Outcome)
	assert.True(t, d.Pending)
	assert.False(t, f.pendingPresent(t), "flag is cleared even when the evaluation fails")

	// The forced show is kept for the next evaluation that succeeds, and only once.
	f.repo.set(func(r *stubRepo) { r.ensureErr = nil })
	d = f.gate.HandleIdentityChange(ctx, "u1")
	assert.True(t, d.Pending)
	assert.True(t, d.Show)
	assert.True(t, f.gate.State().Visible)

	assert.False(t, f.gate.HandleIdentityChange(ctx, "u1").Show)
}

func TestGateClearFailureStillEvaluates(t *testing.T) {
	f := newGateFixture(t)
	f.setPending(t)
	f.flags.clearErr = errors.New("redis down")

	d := f.gate.HandleIdentityChange(context.Background(), "u1")
	require.NoError(t, d.Err)
	assert.True(t, d.Show)
}

func TestGateSignOutResets(t *testing.T) {
	ctx := context.Background()
	f := newGateFixture(t)
	require.True(t, f.gate.HandleIdentityChange(ctx, "u1").Show)
	w, err := f.gate.WizardFor("u1")
	require.NoError(t, err)

	d := f.gate.HandleIdentityChange(ctx, "")
	assert.Equal(t, OutcomeSignedOut, d.Outcome)
	assert.True(t, w.Snapshot().Closed)

	st := f.gate.State()
	assert.False(t, st.Visible)
	assert.Empty(t, st.UserID)
	_, err = f.gate.WizardFor("u1")
	assert.ErrorIs(t, err, ErrNoWizard)
}

func TestGateSameUserKeepsOpenWizard(t *testing.T) {
	ctx := context.Background()
	f := newGateFixture(t)
	require.True(t, f.gate.HandleIdentityChange(ctx, "u1").Show)
	w, err := f.gate.WizardFor("u1")
	require.NoError(t, err)
	require.NoError(t, w.AnswerField(models.FieldShopName, TextValue("X")))

	require.True(t, f.gate.HandleIdentityChange(ctx, "u1").Show)
	again, err := f.gate.WizardFor("u1")
	require.NoError(t, err)
	assert.Same(t, w, again)
	assert.Equal(t, "X", again.Answers().ShopName)
}

func TestGateUserSwitchReplacesWizard(t *testing.T) {
	ctx := context.Background()
	f := newGateFixture(t)
	require.True(t, f.gate.HandleIdentityChange(ctx, "u1").Show)
	first, err := f.gate.WizardFor("u1")
	require.NoError(t, err)

	require.True(t, f.gate.HandleIdentityChange(ctx, "u2").Show)
	assert.True(t, first.Snapshot().Closed)
	_, err = f.gate.WizardFor("u2")
	assert.NoError(t, err)
}

func TestGateDiscardsStaleEvaluation(t *testing.T) {
	ctx := context.Background()
	f := newGateFixture(t)
	f.repo.blockUser = "slow"
	f.repo.entered = make(chan struct{})
	f.repo.release = make(chan struct{})

	stale := make(chan Decision, 1)
	go func() { stale <- f.gate.HandleIdentityChange(ctx, "slow") }()
	<-f.repo.entered

	f.markComplete(t, "fast")
	latest := f.gate.HandleIdentityChange(ctx, "fast")
	assert.Equal(t, OutcomeHide, latest.Outcome)

	close(f.repo.release)
	d := <-stale
	assert.Equal(t, OutcomeStale, d.Outcome)
	assert.Less(t, d.Generation, latest.Generation)

	st := f.gate.State()
	assert.Equal(t, "fast", st.UserID)
	assert.False(t, st.Visible)
	assert.Nil(t, st.Wizard)
}

func TestGateFinish(t *testing.T) {
	ctx := context.Background()
	f := newGateFixture(t)
	require.True(t, f.gate.HandleIdentityChange(ctx, "u1").Show)
	w, err := f.gate.WizardFor("u1")
	require.NoError(t, err)
	answerAll(t, w, validAnswers())

	assert.ErrorIs(t, f.gate.Finish(ctx, "u2"), ErrNoWizard)

	f.repo.saveErr = errors.New("unavailable")
	require.ErrorIs(t, f.gate.Finish(ctx, "u1"), ErrSaveFailed)
	assert.True(t, f.gate.State().Visible, "failed finish keeps the wizard open")

	f.repo.set(func(r *stubRepo) { r.saveErr = nil })
	require.NoError(t, f.gate.Finish(ctx, "u1"))

	st := f.gate.State()
	assert.False(t, st.Visible)
	assert.Nil(t, st.Wizard)
	assert.Equal(t, []string{"error", "ok"}, f.recorder.labels("finish"))

	require.Len(t, f.events.events, 1)
	evt := f.events.events[0]
	assert.Equal(t, models.EventOnboardingCompleted, evt.Type)
	assert.Equal(t, "u1", evt.UserID)
	assert.Equal(t, device, evt.DeviceID)
	assert.Equal(t, validAnswers(), evt.Answers)

	assert.False(t, f.gate.HandleIdentityChange(ctx, "u1").Show)
}

func TestGateStaleEvaluationHandsOverPendingFlag(t *testing.T) {
	ctx := context.Background()
	f := newGateFixture(t)
	f.markComplete(t, "u1")
	f.setPending(t)
	f.repo.statusEntered = make(chan struct{})
	f.repo.statusRelease = make(chan struct{})
	entered, release := f.repo.statusEntered, f.repo.statusRelease

	stale := make(chan Decision, 1)
	go func() { stale <- f.gate.HandleIdentityChange(ctx, "u1") }()
	<-entered

	// The newer evaluation finds the flag already consumed and hides.
	latest := f.gate.HandleIdentityChange(ctx, "u1")
	assert.False(t, latest.Pending)
	assert.False(t, f.gate.State().Visible)

	close(release)
	d := <-stale
	assert.Equal(t, OutcomeStale, d.Outcome)
	assert.True(t, d.Pending)

	st := f.gate.State()
	assert.True(t, st.Visible, "the consumed flag still forces one show")
	require.NotNil(t, st.Wizard)
	assert.False(t, f.pendingPresent(t))
}

func TestGateStaleEvaluationCarriesPendingToNewerEvaluation(t *testing.T) {
	ctx := context.Background()
	f := newGateFixture(t)
	f.markComplete(t, "u1")
	f.setPending(t)
	f.repo.statusEntered = make(chan struct{})
	f.repo.statusRelease = make(chan struct{})
	statusEntered, statusRelease := f.repo.statusEntered, f.repo.statusRelease

	first := make(chan Decision, 1)
	go func() { first <- f.gate.HandleIdentityChange(ctx, "u1") }()
	<-statusEntered

	// Hold the newer evaluation in EnsureExists, before it reads the flag.
	ensureEntered, ensureRelease := make(chan struct{}), make(chan struct{})
	f.repo.set(func(r *stubRepo) {
		r.blockUser, r.entered, r.release = "u1", ensureEntered, ensureRelease
	})
	second := make(chan Decision, 1)
	go func() { second <- f.gate.HandleIdentityChange(ctx, "u1") }()
	<-ensureEntered

	close(statusRelease)
	assert.Equal(t, OutcomeStale, (<-first).Outcome)
	assert.False(t, f.gate.State().Visible, "nothing applied while the newer evaluation runs")

	close(ensureRelease)
	d := <-second
	assert.True(t, d.Pending)
	assert.True(t, d.Show)
	assert.True(t, f.gate.State().Visible)
}
