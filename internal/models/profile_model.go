package models

import (
	"slices"
	"time"
)

// OnboardingAnswers is the sparse set of business-profile answers collected by the
// onboarding wizard. Every field stays at its zero value until its step is answered.
type OnboardingAnswers struct {
	ShopName        string   `json:"shopName,omitempty"`
	BusinessType    string   `json:"businessType,omitempty"`
	LocationCity    string   `json:"locationCity,omitempty"`
	SellingChannels []string `json:"sellingChannels,omitempty"`
	InventorySize   string   `json:"inventorySize,omitempty"`
	PrimaryGoal     string   `json:"primaryGoal,omitempty"`
}

// Clone returns a copy that shares no slices with a.
func (a OnboardingAnswers) Clone() OnboardingAnswers {
	out := a
	out.SellingChannels = slices.Clone(a.SellingChannels)
	return out
}

// Onboarding is the persisted `onboarding` sub-object of a user document.
// It is always written as a whole value.
type Onboarding struct {
	ShopName        string     `json:"shopName,omitempty" firestore:"shopName,omitempty"`
	BusinessType    string     `json:"businessType,omitempty" firestore:"businessType,omitempty"`
	LocationCity    string     `json:"locationCity,omitempty" firestore:"locationCity,omitempty"`
	SellingChannels []string   `json:"sellingChannels,omitempty" firestore:"sellingChannels,omitempty"`
	InventorySize   string     `json:"inventorySize,omitempty" firestore:"inventorySize,omitempty"`
	PrimaryGoal     string     `json:"primaryGoal,omitempty" firestore:"primaryGoal,omitempty"`
	Complete        bool       `json:"complete" firestore:"complete"`
	CompletedAt     *time.Time `json:"completedAt,omitempty" firestore:"completedAt,omitempty"`
}

// NewOnboarding builds the sub-object for the given answers.
func NewOnboarding(a OnboardingAnswers, complete bool) Onboarding {
	return Onboarding{
		ShopName:        a.ShopName,
		BusinessType:    a.BusinessType,
		LocationCity:    a.LocationCity,
		SellingChannels: slices.Clone(a.SellingChannels),
		InventorySize:   a.InventorySize,
		PrimaryGoal:     a.PrimaryGoal,
		Complete:        complete,
	}
}

// Answers extracts the answer fields.
func (o Onboarding) Answers() OnboardingAnswers {
	return OnboardingAnswers{
		ShopName:        o.ShopName,
		BusinessType:    o.BusinessType,
		LocationCity:    o.LocationCity,
		SellingChannels: slices.Clone(o.SellingChannels),
		InventorySize:   o.InventorySize,
		PrimaryGoal:     o.PrimaryGoal,
	}
}

// UserProfile is the per-user document in the `users` collection.
type UserProfile struct {
	ID          string     `json:"id" firestore:"-"` // Firebase Auth UID, also the document ID
	DisplayName string     `json:"displayName,omitempty" firestore:"displayName,omitempty"`
	Email       string     `json:"email,omitempty" firestore:"email,omitempty"`
	Onboarding  Onboarding `json:"onboarding" firestore:"onboarding"`
	CreatedAt   time.Time  `json:"createdAt" firestore:"createdAt,serverTimestamp"`
	UpdatedAt   time.Time  `json:"updatedAt" firestore:"updatedAt,serverTimestamp"`
}

// OnboardingStatus is the completion flag read by the gating policy.
type OnboardingStatus struct {
	Complete bool `json:"complete"`
}

// ProfilePatch is a merge patch against a user document. Nil fields are left untouched.
// Answers are merged field by field into the onboarding sub-object (empty fields are
// skipped), and `onboarding.complete` is written only when MarkComplete is set, so a
// patch can never clear it.
type ProfilePatch struct {
	DisplayName  *string
	Answers      *OnboardingAnswers
	MarkComplete bool
}

// AnswerUpdates flattens a into `onboarding.<field>` paths, skipping empty fields.
func (a OnboardingAnswers) AnswerUpdates() map[string]interface{} {
	out := make(map[string]interface{}, 6)
	if a.ShopName != "" {
		out["onboarding.shopName"] = a.ShopName
	}
	if a.BusinessType != "" {
		out["onboarding.businessType"] = a.BusinessType
	}
	if a.LocationCity != "" {
		out["onboarding.locationCity"] = a.LocationCity
	}
	if len(a.SellingChannels) > 0 {
		out["onboarding.sellingChannels"] = slices.Clone(a.SellingChannels)
	}
	if a.InventorySize != "" {
		out["onboarding.inventorySize"] = a.InventorySize
	}
	if a.PrimaryGoal != "" {
		out["onboarding.primaryGoal"] = a.PrimaryGoal
	}
	return out
}

// ProfileSeed carries identity claims used when a user document is first created.
type ProfileSeed struct {
	DisplayName string
	Email       string
}
