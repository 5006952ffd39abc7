package core

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"vyap-onboarding-go/internal/db"
	"vyap-onboarding-go/internal/models"
)

var (
	ErrInvalidField = errors.New("unknown profile field")
	ErrNotEditing   = errors.New("field is not open for editing")
	ErrInvalidValue = errors.New("value is not valid for this field")
)

// LoadFailedMessage is shown when the editor could not read the profile.
const LoadFailedMessage = "Could not load your profile."

// EditorState is a point-in-time copy of the profile editor for rendering.
type EditorState struct {
	Answers         models.OnboardingAnswers `json:"answers"`
	DisplayName     string                   `json:"displayName"`
	Complete        bool                     `json:"complete"`
	EditingField    models.FieldKey          `json:"editingField,omitempty"`
	PendingChannels []string                 `json:"pendingChannels,omitempty"`
	SavingField     models.FieldKey          `json:"savingField,omitempty"`
	Error           string                   `json:"error,omitempty"`
}

// EditorConfig wires an Editor.
type EditorConfig struct {
	UserID   string
	DeviceID string
	Store    db.ProfileRepository
	Hooks    *Hooks
	Logger   *zap.Logger
}

// Editor edits already-persisted answers one field at a time. Only one field can be
// open: beginning an edit on another field cancels the open one without saving.
type Editor struct {
	userID   string
	deviceID string
	store    db.ProfileRepository
	hooks    *Hooks
	logger   *zap.Logger

	mu              sync.Mutex
	answers         models.OnboardingAnswers
	displayName     string
	complete        bool
	editing         models.FieldKey
	pendingChannels []string
	saving          models.FieldKey
	errMsg          string
}

// NewEditor creates an editor; call Load before use.
func NewEditor(cfg EditorConfig) *Editor {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Editor{
		userID:   cfg.UserID,
		deviceID: cfg.DeviceID,
		store:    cfg.Store,
		hooks:    cfg.Hooks,
		logger:   cfg.Logger.With(zap.String("userID", cfg.UserID)),
	}
}

// UserID returns the user being edited.
func (e *Editor) UserID() string { return e.userID }

// Load reads the current profile. A missing document loads as empty answers.
func (e *Editor) Load(ctx context.Context) error {
	profile, err := e.store.FetchProfile(ctx, e.userID)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		e.mu.Lock()
		e.errMsg = LoadFailedMessage
		e.mu.Unlock()
		e.logger.Warn("Profile load failed", zap.Error(err))
		return fmt.Errorf("load profile: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.errMsg = ""
	if profile == nil {
		e.answers = models.OnboardingAnswers{}
		e.displayName = ""
		e.complete = false
		return nil
	}
	e.answers = profile.Onboarding.Answers()
	e.displayName = profile.DisplayName
	e.complete = profile.Onboarding.Complete
	return nil
}

// BeginEdit opens field for editing, cancelling any other open field.
func (e *Editor) BeginEdit(field models.FieldKey) error {
	if !field.IsValid() {
		return fmt.Errorf("%w: %s", ErrInvalidField, field)
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.saving != "" {
		return ErrBusy
	}
	e.editing = field
	e.errMsg = ""
	e.pendingChannels = nil
	if field.IsMultiSelect() {
		e.pendingChannels = slices.Clone(e.answers.SellingChannels)
	}
	return nil
}

// CancelEdit closes the open field without persisting anything.
func (e *Editor) CancelEdit() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.saving != "" {
		return
	}
	e.editing = ""
	e.pendingChannels = nil
	e.errMsg = ""
}

// Toggle flips one channel in the unsaved selling channel selection.
func (e *Editor) Toggle(channel string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.editing != models.FieldSellingChannels {
		return ErrNotEditing
	}
	e.pendingChannels = ToggleChannel(e.pendingChannels, channel)
	return nil
}

// SaveField validates and persists the open field. For sellingChannels an empty value
// saves the toggled selection. On failure the field stays open and the error message is
// set; on success the edited field and the completion flag are refreshed locally and the
// field is closed. Only the edited field is written.
func (e *Editor) SaveField(ctx context.Context, field models.FieldKey, v FieldValue) error {
	if !field.IsValid() {
		return fmt.Errorf("%w: %s", ErrInvalidField, field)
	}

	e.mu.Lock()
	if e.saving != "" {
		e.mu.Unlock()
		return ErrBusy
	}
	if e.editing != field {
		e.mu.Unlock()
		return ErrNotEditing
	}
	if field.IsMultiSelect() && v.Set == nil && v.Text == "" {
		v = SetValue(slices.Clone(e.pendingChannels)...)
	}

	patch := models.ProfilePatch{MarkComplete: e.complete}
	candidate := e.answers.Clone()
	displayName := e.displayName
	if field == models.FieldDisplayName {
		if len(v.Set) > 0 {
			e.mu.Unlock()
			return fmt.Errorf("%w: %s takes a single value", ErrFieldValue, field)
		}
		displayName = v.Text
		patch.DisplayName = &displayName
	} else {
		next, err := ApplyField(candidate, field, v)
		if err != nil {
			e.mu.Unlock()
			return err
		}
		candidate = next
		only := OnlyField(candidate, field)
		patch.Answers = &only
	}
	if !ValidateField(field, candidate, displayName) {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrInvalidValue, field)
	}
	e.saving = field
	e.errMsg = ""
	e.mu.Unlock()

	err := e.store.UpdateProfile(ctx, e.userID, patch)
	e.hooks.fieldSaved(ctx, e.deviceID, e.userID, field, err)

	var status models.OnboardingStatus
	refreshed := false
	if err == nil {
		// The wizard may have finished on another device since Load.
		if st, serr := e.store.GetOnboardingStatus(ctx, e.userID); serr == nil {
			status, refreshed = st, true
		} else {
			e.logger.Debug("Could not refresh completion after save", zap.Error(serr))
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.saving = ""
	if err != nil {
		e.errMsg = SaveFailedMessage
		e.logger.Warn("Profile field save failed", zap.String("field", string(field)), zap.Error(err))
		return fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}
	if field == models.FieldDisplayName {
		e.displayName = displayName
	} else {
		e.answers, _ = ApplyField(e.answers, field, v)
	}
	if refreshed {
		e.complete = e.complete || status.Complete
	}
	e.editing = ""
	e.pendingChannels = nil
	return nil
}

// Snapshot returns the current state.
func (e *Editor) Snapshot() EditorState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return EditorState{
		Answers:         e.answers.Clone(),
		DisplayName:     e.displayName,
		Complete:        e.complete,
		EditingField:    e.editing,
		PendingChannels: slices.Clone(e.pendingChannels),
		SavingField:     e.saving,
		Error:           e.errMsg,
	}
}
