package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"vyap-onboarding-go/internal/identity"
	"vyap-onboarding-go/internal/models"
	"vyap-onboarding-go/pkg/mailer"
	"vyap-onboarding-go/pkg/messagequeue"
)

type mockDirectory struct{ mock.Mock }

func (m *mockDirectory) LookupUser(ctx context.Context, uid string) (*identity.UserInfo, error) {
	args := m.Called(ctx, uid)
	if u, ok := args.Get(0).(*identity.UserInfo); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockSender struct{ mock.Mock }

func (m *mockSender) SendWelcome(recipient string, data mailer.WelcomeData) error {
	return m.Called(recipient, data).Error(0)
}

func completedEvent() models.OnboardingCompletedEvent {
	return models.OnboardingCompletedEvent{
		Type:        models.EventOnboardingCompleted,
		UserID:      "u1",
		DeviceID:    "d1",
		Answers:     models.OnboardingAnswers{ShopName: "Asha Store", PrimaryGoal: "Faster billing"},
		CompletedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestPublisherRoundTripThroughNotifier(t *testing.T) {
	queue := messagequeue.NewMemoryQueue(4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pub := NewPublisher(queue, "onboarding.completed", nil)
	require.NoError(t, pub.PublishOnboardingCompleted(ctx, completedEvent()))

	dir := &mockDirectory{}
	dir.On("LookupUser", mock.Anything, "u1").Return(&identity.UserInfo{UID: "u1", Email: "asha@example.com", DisplayName: "Asha"}, nil)
	sent := make(chan mailer.WelcomeData, 1)
	sender := &mockSender{}
	sender.On("SendWelcome", "asha@example.com", mock.Anything).Run(func(args mock.Arguments) {
		sent <- args.Get(1).(mailer.WelcomeData)
	}).Return(nil)

	n := NewNotifier(dir, sender, nil)
	go func() { _ = n.Run(ctx, queue, "onboarding.completed") }()

	select {
	case data := <-sent:
		assert.Equal(t, mailer.WelcomeData{Name: "Asha", ShopName: "Asha Store", Goal: "Faster billing"}, data)
	case <-time.After(time.Second):
		t.Fatal("welcome email not sent")
	}
}

func TestNotifierHandle(t *testing.T) {
	valid, err := json.Marshal(completedEvent())
	require.NoError(t, err)

	tests := []struct {
		name     string
		body     []byte
		user     *identity.UserInfo
		lookErr  error
		sendErr  error
		wantErr  bool
		wantSend bool
	}{
		{name: "malformed is dropped", body: []byte("{"), wantErr: false},
		{name: "other type is ignored", body: []byte(`{"type":"x","userId":"u1"}`)},
		{name: "deleted user is dropped", body: valid, lookErr: identity.ErrUserNotFound},
		{name: "lookup failure is retried", body: valid, lookErr: errors.New("unavailable"), wantErr: true},
		{name: "no email is skipped", body: valid, user: &identity.UserInfo{UID: "u1"}},
		{name: "send failure is retried", body: valid, user: &identity.UserInfo{UID: "u1", Email: "a@b.c"}, sendErr: errors.New("smtp"), wantErr: true, wantSend: true},
		{name: "sent", body: valid, user: &identity.UserInfo{UID: "u1", Email: "a@b.c"}, wantSend: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := &mockDirectory{}
			dir.On("LookupUser", mock.Anything, "u1").Return(tt.user, tt.lookErr).Maybe()
			sender := &mockSender{}
			sender.On("SendWelcome", mock.Anything, mock.Anything).Return(tt.sendErr).Maybe()

			err := NewNotifier(dir, sender, nil).Handle(context.Background(), tt.body)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			if tt.wantSend {
				sender.AssertCalled(t, "SendWelcome", "a@b.c", mock.Anything)
			} else {
				sender.AssertNotCalled(t, "SendWelcome", mock.Anything, mock.Anything)
			}
		})
	}
}
