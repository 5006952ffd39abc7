package db

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"vyap-onboarding-go/internal/models"
)

// MemoryProfileRepository is an in-process ProfileRepository with the same merge
// semantics as the Firestore one. Used by STORE_BACKEND=memory and by tests.
type MemoryProfileRepository struct {
	mu   sync.RWMutex
	docs map[string]*models.UserProfile
	now  func() time.Time
}

// NewMemoryProfileRepository returns an empty repository. now defaults to time.Now.
func NewMemoryProfileRepository(now func() time.Time) *MemoryProfileRepository {
	if now == nil {
		now = time.Now
	}
	return &MemoryProfileRepository{docs: make(map[string]*models.UserProfile), now: now}
}

func (r *MemoryProfileRepository) EnsureExists(_ context.Context, userID string, seed models.ProfileSeed) error {
	if userID == "" {
		return errors.New("userID cannot be empty for EnsureExists operation")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[userID]; ok {
		return nil
	}
	ts := r.now().UTC()
	r.docs[userID] = &models.UserProfile{
		ID:          userID,
		DisplayName: seed.DisplayName,
		Email:       seed.Email,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	return nil
}

func (r *MemoryProfileRepository) FetchProfile(_ context.Context, userID string) (*models.UserProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[userID]
	if !ok {
		return nil, fmt.Errorf("profile for user '%s' not found: %w", userID, ErrNotFound)
	}
	return cloneProfile(doc), nil
}

func (r *MemoryProfileRepository) GetOnboardingStatus(_ context.Context, userID string) (models.OnboardingStatus, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[userID]
	if !ok {
		return models.OnboardingStatus{}, nil
	}
	return models.OnboardingStatus{Complete: doc.Onboarding.Complete}, nil
}

func (r *MemoryProfileRepository) UpdateProfile(_ context.Context, userID string, patch models.ProfilePatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[userID]
	if !ok {
		return fmt.Errorf("profile for user '%s' not found: %w", userID, ErrNotFound)
	}
	changed := false
	if patch.DisplayName != nil {
		doc.DisplayName = *patch.DisplayName
		changed = true
	}
	if patch.Answers != nil {
		a := patch.Answers
		o := &doc.Onboarding
		if a.ShopName != "" {
			o.ShopName, changed = a.ShopName, true
		}
		if a.BusinessType != "" {
			o.BusinessType, changed = a.BusinessType, true
		}
		if a.LocationCity != "" {
			o.LocationCity, changed = a.LocationCity, true
		}
		if len(a.SellingChannels) > 0 {
			o.SellingChannels, changed = append([]string(nil), a.SellingChannels...), true
		}
		if a.InventorySize != "" {
			o.InventorySize, changed = a.InventorySize, true
		}
		if a.PrimaryGoal != "" {
			o.PrimaryGoal, changed = a.PrimaryGoal, true
		}
	}
	if patch.MarkComplete {
		doc.Onboarding.Complete = true
		changed = true
	}
	if changed {
		doc.UpdatedAt = r.now().UTC()
	}
	return nil
}

// SaveOnboarding upserts: Firestore's merge-set creates a missing document too.
func (r *MemoryProfileRepository) SaveOnboarding(_ context.Context, userID string, answers models.OnboardingAnswers, opts SaveOnboardingOptions) error {
	if userID == "" {
		return errors.New("userID cannot be empty for SaveOnboarding operation")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	ts := r.now().UTC()
	doc, ok := r.docs[userID]
	if !ok {
		doc = &models.UserProfile{ID: userID, CreatedAt: ts}
		r.docs[userID] = doc
	}
	onboarding := models.NewOnboarding(answers, opts.Complete)
	if opts.Complete {
		completedAt := ts
		onboarding.CompletedAt = &completedAt
	}
	doc.Onboarding = onboarding
	doc.UpdatedAt = ts
	return nil
}

func cloneProfile(p *models.UserProfile) *models.UserProfile {
	out := *p
	out.Onboarding.SellingChannels = append([]string(nil), p.Onboarding.SellingChannels...)
	if len(out.Onboarding.SellingChannels) == 0 {
		out.Onboarding.SellingChannels = nil
	}
	if p.Onboarding.CompletedAt != nil {
		t := *p.Onboarding.CompletedAt
		out.Onboarding.CompletedAt = &t
	}
	return &out
}

// MemoryAuditRepository is an in-process AuditRepository.
type MemoryAuditRepository struct {
	mu      sync.RWMutex
	entries []models.AuditLog
	now     func() time.Time
}

// NewMemoryAuditRepository returns an empty audit repository. now defaults to time.Now.
func NewMemoryAuditRepository(now func() time.Time) *MemoryAuditRepository {
	if now == nil {
		now = time.Now
	}
	return &MemoryAuditRepository{now: now}
}

func (r *MemoryAuditRepository) Create(_ context.Context, logEntry models.AuditLog) error {
	if logEntry.UserID == "" {
		return errors.New("audit log entry requires a userId")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	logEntry.ID = strconv.Itoa(len(r.entries) + 1)
	logEntry.Timestamp = r.now().UTC()
	r.entries = append(r.entries, logEntry)
	return nil
}

func (r *MemoryAuditRepository) ListByUser(_ context.Context, userID string, limit int) ([]*models.AuditLog, error) {
	if userID == "" {
		return nil, errors.New("userID cannot be empty for ListByUser operation")
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*models.AuditLog
	for i := range r.entries {
		if r.entries[i].UserID == userID {
			entry := r.entries[i]
			out = append(out, &entry)
		}
	}
	// Newest first; insertion order breaks timestamp ties.
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			a, _ := strconv.Atoi(out[i].ID)
			b, _ := strconv.Atoi(out[j].ID)
			return a > b
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var (
	_ ProfileRepository = (*MemoryProfileRepository)(nil)
	_ AuditRepository   = (*MemoryAuditRepository)(nil)
)
