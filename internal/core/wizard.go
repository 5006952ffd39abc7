package core

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"vyap-onboarding-go/internal/db"
	"vyap-onboarding-go/internal/models"
)

// Wizard transition errors. None of them change wizard state.
var (
	ErrCannotAdvance = errors.New("current step is not answered")
	ErrAtFirstStep   = errors.New("already at the first step")
	ErrAtLastStep    = errors.New("already at the last step")
	ErrNotLastStep   = errors.New("finish is only allowed on the last step")
	ErrBusy          = errors.New("a save is already in progress")
	ErrWizardClosed  = errors.New("wizard is closed")
	ErrSaveFailed    = errors.New("could not save")
)

// SaveFailedMessage is the user-facing text shown next to a control whose save failed.
const SaveFailedMessage = "Could not save."

// WizardState is a point-in-time copy of the wizard for rendering.
type WizardState struct {
	StepIndex  int                      `json:"stepIndex"`
	StepCount  int                      `json:"stepCount"`
	Step       StepDescriptor           `json:"step"`
	Answers    models.OnboardingAnswers `json:"answers"`
	CanAdvance bool                     `json:"canAdvance"`
	IsLast     bool                     `json:"isLast"`
	Busy       bool                     `json:"busy"`
	Error      string                   `json:"error,omitempty"`
	Closed     bool                     `json:"closed"`
}

// Wizard walks one user through the ordered onboarding steps. The only store call
// it makes is the save on Finish.
type Wizard struct {
	mu     sync.Mutex
	userID string
	store  db.ProfileRepository
	logger *zap.Logger

	stepIndex int
	answers   models.OnboardingAnswers
	busy      bool
	errMsg    string
	closed    bool
}

// NewWizard opens a wizard at step 0 with empty answers.
func NewWizard(userID string, store db.ProfileRepository, logger *zap.Logger) *Wizard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Wizard{
		userID: userID,
		store:  store,
		logger: logger.With(zap.String("userID", userID)),
	}
}

// UserID returns the user the wizard was opened for.
func (w *Wizard) UserID() string { return w.userID }

func (w *Wizard) last() int { return len(orderedSteps) - 1 }

// Next moves forward one step when the current step is answered.
func (w *Wizard) Next() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch {
	case w.closed:
		return ErrWizardClosed
	case w.busy:
		return ErrBusy
	case w.stepIndex >= w.last():
		return ErrAtLastStep
	case !orderedSteps[w.stepIndex].Valid(w.answers):
		return ErrCannotAdvance
	}
	w.stepIndex++
	return nil
}

// Back moves back one step. Answers are kept.
func (w *Wizard) Back() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch {
	case w.closed:
		return ErrWizardClosed
	case w.busy:
		return ErrBusy
	case w.stepIndex == 0:
		return ErrAtFirstStep
	}
	w.stepIndex--
	return nil
}

// AnswerField merges one answer. It does not move the step pointer.
func (w *Wizard) AnswerField(field models.FieldKey, v FieldValue) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWizardClosed
	}
	next, err := ApplyField(w.answers, field, v)
	if err != nil {
		return err
	}
	w.answers = next
	return nil
}

// Toggle flips one selling channel in the answers.
func (w *Wizard) Toggle(channel string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWizardClosed
	}
	w.answers.SellingChannels = ToggleChannel(w.answers.SellingChannels, channel)
	return nil
}

// Finish persists the answers with complete=true and closes the wizard. On failure the
// wizard keeps its step and answers, records SaveFailedMessage, and can be finished again;
// the write replaces the whole onboarding sub-object so a retry cannot double-apply.
func (w *Wizard) Finish(ctx context.Context) error {
	w.mu.Lock()
	switch {
	case w.closed:
		w.mu.Unlock()
		return ErrWizardClosed
	case w.busy:
		w.mu.Unlock()
		return ErrBusy
	case w.stepIndex != w.last():
		w.mu.Unlock()
		return ErrNotLastStep
	}
	for _, s := range orderedSteps {
		if !s.Valid(w.answers) {
			w.mu.Unlock()
			return ErrCannotAdvance
		}
	}
	w.busy = true
	w.errMsg = ""
	answers := w.answers.Clone()
	w.mu.Unlock()

	err := w.store.SaveOnboarding(ctx, w.userID, answers, db.SaveOnboardingOptions{Complete: true})

	w.mu.Lock()
	defer w.mu.Unlock()
	w.busy = false
	if err != nil {
		w.logger.Warn("Onboarding save failed", zap.Error(err))
		if !w.closed {
			w.errMsg = SaveFailedMessage
		}
		return fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}
	w.closed = true
	w.logger.Info("Onboarding completed")
	return nil
}

// Close tears the wizard down. A save still in flight completes at the store but its
// result no longer touches the wizard's visible state.
func (w *Wizard) Close() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
}

// Answers returns a copy of the current answers.
func (w *Wizard) Answers() models.OnboardingAnswers {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.answers.Clone()
}

// Snapshot returns the current state.
func (w *Wizard) Snapshot() WizardState {
	w.mu.Lock()
	defer w.mu.Unlock()

	step := orderedSteps[w.stepIndex]
	return WizardState{
		StepIndex:  w.stepIndex,
		StepCount:  len(orderedSteps),
		Step:       step.Descriptor(),
		Answers:    w.answers.Clone(),
		CanAdvance: step.Valid(w.answers),
		IsLast:     w.stepIndex == w.last(),
		Busy:       w.busy,
		Error:      w.errMsg,
		Closed:     w.closed,
	}
}
