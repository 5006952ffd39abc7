package models

import "time"

// EventOnboardingCompleted is the message type published when a wizard finishes.
const EventOnboardingCompleted = "onboarding.completed"

// OnboardingCompletedEvent is published to the broker after a successful Finish.
type OnboardingCompletedEvent struct {
	Type        string            `json:"type"`
	UserID      string            `json:"userId"`
	DeviceID    string            `json:"deviceId,omitempty"`
	Answers     OnboardingAnswers `json:"answers"`
	CompletedAt time.Time         `json:"completedAt"`
}
