package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"vyap-onboarding-go/internal/db"
	"vyap-onboarding-go/internal/models"
	"vyap-onboarding-go/pkg/flagstore"
)

// DefaultSnoozeDuration is how long "Skip for now" suppresses the wizard.
const DefaultSnoozeDuration = 7 * 24 * time.Hour

// LoadFailedBanner is shown instead of the wizard when the gate could not read its inputs.
const LoadFailedBanner = "We couldn't load your onboarding status. You can keep using the app."

var (
	ErrNoWizard  = errors.New("onboarding wizard is not open")
	ErrSignedOut = errors.New("no signed-in user on this device")
)

// GateOutcome labels a gate evaluation.
type GateOutcome string

const (
	OutcomeShow      GateOutcome = "show"
	OutcomeHide      GateOutcome = "hide"
	OutcomeSignedOut GateOutcome = "signed_out"
	OutcomeError     GateOutcome = "error"
	OutcomeStale     GateOutcome = "stale"
)

// Decision is the result of one identity-change evaluation.
type Decision struct {
	Generation uint64      `json:"generation"`
	UserID     string      `json:"userId,omitempty"`
	Pending    bool        `json:"pending"`
	Snoozed    bool        `json:"snoozed"`
	Complete   bool        `json:"complete"`
	Show       bool        `json:"show"`
	Outcome    GateOutcome `json:"outcome"`
	Err        error       `json:"-"`
}

// GateState is what the client renders: the wizard or nothing, plus an optional banner.
type GateState struct {
	DeviceID string       `json:"deviceId"`
	UserID   string       `json:"userId,omitempty"`
	Visible  bool         `json:"visible"`
	Banner   string       `json:"banner,omitempty"`
	Wizard   *WizardState `json:"wizard,omitempty"`
}

// PendingKey is the flag written by the signup flow to force the wizard once.
func PendingKey(deviceID string) string { return "onboarding:" + deviceID + ":pending" }

// SnoozeKey holds the RFC 3339 snooze expiry for a device.
func SnoozeKey(deviceID string) string { return "onboarding:" + deviceID + ":snooze_until" }

// GateConfig wires a Gate.
type GateConfig struct {
	DeviceID  string
	Store     db.ProfileRepository
	Flags     flagstore.FlagStore
	Now       func() time.Time
	SnoozeFor time.Duration
	Hooks     *Hooks
	Logger    *zap.Logger
}

// Gate decides, on every identity change of one device, whether the onboarding
// wizard is presented. Evaluations race freely; each bumps a generation counter and
// only the latest generation may apply its result.
type Gate struct {
	deviceID  string
	store     db.ProfileRepository
	flags     flagstore.FlagStore
	now       func() time.Time
	snoozeFor time.Duration
	hooks     *Hooks
	logger    *zap.Logger

	mu         sync.Mutex
	generation uint64
	appliedGen uint64
	userID     string
	visible    bool
	banner     string
	snoozed    bool
	wizard     *Wizard
	// pendingCarry holds a consumed pending flag whose evaluation could not apply it.
	pendingCarry bool
}

// NewGate creates a hidden gate for one device.
func NewGate(cfg GateConfig) *Gate {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.SnoozeFor <= 0 {
		cfg.SnoozeFor = DefaultSnoozeDuration
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Gate{
		deviceID:  cfg.DeviceID,
		store:     cfg.Store,
		flags:     cfg.Flags,
		now:       cfg.Now,
		snoozeFor: cfg.SnoozeFor,
		hooks:     cfg.Hooks,
		logger:    cfg.Logger.With(zap.String("deviceID", cfg.DeviceID)),
	}
}

// HandleIdentityChange evaluates the gate for userID; an empty userID means signed out.
// If a newer change arrives while this one is reading, this result is discarded and
// reported with OutcomeStale.
func (g *Gate) HandleIdentityChange(ctx context.Context, userID string) Decision {
	g.mu.Lock()
	g.generation++
	gen := g.generation
	if userID == "" {
		g.resetLocked()
		g.appliedGen = gen
		g.mu.Unlock()
		d := Decision{Generation: gen, Outcome: OutcomeSignedOut}
		g.hooks.gateDecided(d.Outcome)
		return d
	}
	g.mu.Unlock()

	d := g.evaluate(ctx, gen, userID)

	g.mu.Lock()
	if gen != g.generation {
		if d.Pending {
			g.reclaimPendingLocked()
		}
		g.mu.Unlock()
		g.logger.Debug("Discarding stale gate evaluation", zap.Uint64("generation", gen), zap.String("userID", userID))
		d.Outcome = OutcomeStale
		d.Show = false
		g.hooks.gateDecided(d.Outcome)
		return d
	}
	g.applyLocked(&d)
	g.mu.Unlock()

	g.hooks.gateDecided(d.Outcome)
	return d
}

func (g *Gate) evaluate(ctx context.Context, gen uint64, userID string) Decision {
	d := Decision{Generation: gen, UserID: userID}

	if err := g.store.EnsureExists(ctx, userID, models.ProfileSeed{}); err != nil {
		// The flag is consumed even so; applyLocked carries it to the next evaluation.
		if pending, perr := g.takePending(ctx); perr == nil {
			d.Pending = pending
		}
		return g.failed(d, fmt.Errorf("ensure profile: %w", err))
	}

	pending, err := g.takePending(ctx)
	if err != nil {
		return g.failed(d, fmt.Errorf("read pending flag: %w", err))
	}
	d.Pending = pending

	raw, found, err := g.flags.Get(ctx, SnoozeKey(g.deviceID))
	if err != nil {
		return g.failed(d, fmt.Errorf("read snooze: %w", err))
	}
	if found {
		until, perr := time.Parse(time.RFC3339Nano, raw)
		if perr != nil {
			g.logger.Warn("Ignoring malformed snooze value", zap.String("value", raw), zap.Error(perr))
		} else {
			d.Snoozed = until.After(g.now())
		}
	}

	status, err := g.store.GetOnboardingStatus(ctx, userID)
	if err != nil {
		return g.failed(d, fmt.Errorf("read onboarding status: %w", err))
	}
	d.Complete = status.Complete

	d.Show = (d.Pending || !d.Complete) && !d.Snoozed
	if d.Show {
		d.Outcome = OutcomeShow
	} else {
		d.Outcome = OutcomeHide
	}
	return d
}

// takePending reads and clears the one-shot pending flag. A failed clear is logged only.
func (g *Gate) takePending(ctx context.Context) (bool, error) {
	_, found, err := g.flags.Get(ctx, PendingKey(g.deviceID))
	if err != nil || !found {
		return false, err
	}
	if err := g.flags.Clear(ctx, PendingKey(g.deviceID)); err != nil {
		g.logger.Warn("Could not clear pending onboarding flag", zap.Error(err))
	}
	return true, nil
}

func (g *Gate) failed(d Decision, err error) Decision {
	g.logger.Warn("Onboarding gate evaluation failed", zap.String("userID", d.UserID), zap.Error(err))
	d.Show = false
	d.Outcome = OutcomeError
	d.Err = err
	return d
}

func (g *Gate) applyLocked(d *Decision) {
	if g.userID != d.UserID {
		g.closeWizardLocked()
	}
	g.userID = d.UserID
	g.appliedGen = d.Generation

	if d.Outcome == OutcomeError {
		g.visible = false
		g.banner = LoadFailedBanner
		g.snoozed = false
		g.closeWizardLocked()
		if d.Pending {
			g.pendingCarry = true
		}
		return
	}

	if g.pendingCarry {
		g.pendingCarry = false
		if !d.Pending {
			d.Pending = true
			d.Show = !d.Snoozed
			if d.Show {
				d.Outcome = OutcomeShow
			}
		}
	}

	g.banner = ""
	g.snoozed = d.Snoozed
	if !d.Show {
		g.visible = false
		g.closeWizardLocked()
		return
	}
	g.visible = true
	// A repeated change for the same user (token refresh) keeps the open wizard.
	if g.wizard == nil {
		g.wizard = NewWizard(d.UserID, g.store, g.logger)
	}
}

// reclaimPendingLocked keeps the forced show of a pending flag that a discarded
// evaluation consumed. If the latest evaluation already applied, the wizard is shown
// now unless snoozed; otherwise the next evaluation picks it up.
func (g *Gate) reclaimPendingLocked() {
	if g.appliedGen == g.generation && g.userID != "" && g.banner == "" {
		if g.snoozed {
			return
		}
		g.visible = true
		if g.wizard == nil {
			g.wizard = NewWizard(g.userID, g.store, g.logger)
		}
		return
	}
	g.pendingCarry = true
}

func (g *Gate) closeWizardLocked() {
	if g.wizard != nil {
		g.wizard.Close()
		g.wizard = nil
	}
}

func (g *Gate) resetLocked() {
	g.closeWizardLocked()
	g.userID = ""
	g.visible = false
	g.banner = ""
	g.snoozed = false
}

// Reset hides the gate and discards any evaluation in flight.
func (g *Gate) Reset() {
	g.mu.Lock()
	g.generation++
	g.resetLocked()
	g.mu.Unlock()
}

// Snooze handles "Skip for now": the wizard hides immediately and stays suppressed on
// this device until now+snooze. The server-side complete flag is not touched. The gate
// hides even if the snooze could not be stored; the error is returned for display.
func (g *Gate) Snooze(ctx context.Context) (time.Time, error) {
	g.mu.Lock()
	userID := g.userID
	if userID == "" {
		g.mu.Unlock()
		return time.Time{}, ErrSignedOut
	}
	g.generation++
	g.visible = false
	g.closeWizardLocked()
	g.mu.Unlock()

	until := g.now().Add(g.snoozeFor)
	if err := g.flags.Set(ctx, SnoozeKey(g.deviceID), until.UTC().Format(time.RFC3339Nano), g.snoozeFor); err != nil {
		g.logger.Warn("Could not store onboarding snooze", zap.String("userID", userID), zap.Error(err))
		return time.Time{}, fmt.Errorf("store snooze: %w", err)
	}
	g.logger.Info("Onboarding snoozed", zap.String("userID", userID), zap.Time("until", until))
	g.hooks.snoozed(ctx, g.deviceID, userID, until)
	return until, nil
}

// Finish completes the open wizard and hides the gate on success.
func (g *Gate) Finish(ctx context.Context, userID string) error {
	w, err := g.WizardFor(userID)
	if err != nil {
		return err
	}

	if err := w.Finish(ctx); err != nil {
		if errors.Is(err, ErrSaveFailed) {
			g.hooks.finishFailed()
		}
		return err
	}

	g.mu.Lock()
	g.generation++
	if g.wizard == w {
		g.wizard = nil
		g.visible = false
	}
	g.mu.Unlock()

	g.hooks.onboardingCompleted(ctx, g.deviceID, userID, w.Answers())
	return nil
}

// WizardFor returns the open wizard if it belongs to userID.
func (g *Gate) WizardFor(userID string) (*Wizard, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.wizard == nil || g.wizard.UserID() != userID {
		return nil, ErrNoWizard
	}
	return g.wizard, nil
}

// SetPending marks this device so the next identity change shows the wizard once.
func (g *Gate) SetPending(ctx context.Context, userID string) error {
	if err := g.flags.Set(ctx, PendingKey(g.deviceID), "1", 0); err != nil {
		return fmt.Errorf("store pending flag: %w", err)
	}
	g.hooks.pendingSet(ctx, g.deviceID, userID)
	return nil
}

// UserID returns the user of the last applied evaluation.
func (g *Gate) UserID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.userID
}

// State returns what the client should render.
func (g *Gate) State() GateState {
	g.mu.Lock()
	defer g.mu.Unlock()

	st := GateState{DeviceID: g.deviceID, UserID: g.userID, Visible: g.visible, Banner: g.banner}
	if g.visible && g.wizard != nil {
		ws := g.wizard.Snapshot()
		st.Wizard = &ws
	}
	return st
}
