package models

import "time"

// Audit actions recorded by the onboarding flow.
const (
	AuditOnboardingCompleted = "ONBOARDING_COMPLETED"
	AuditOnboardingSnoozed   = "ONBOARDING_SNOOZED"
	AuditProfileFieldUpdated = "PROFILE_FIELD_UPDATED"
	AuditSignupPendingSet    = "SIGNUP_PENDING_SET"
)

// AuditLog represents an audit trail event.
type AuditLog struct {
	ID        string                 `json:"id" firestore:"-"`
	Timestamp time.Time              `json:"timestamp" firestore:"timestamp,serverTimestamp"`
	UserID    string                 `json:"userId" firestore:"userId"`
	DeviceID  string                 `json:"deviceId,omitempty" firestore:"deviceId,omitempty"`
	Action    string                 `json:"action" firestore:"action"`
	Field     string                 `json:"field,omitempty" firestore:"field,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty" firestore:"details,omitempty"`
}
