package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"vyap-onboarding-go/internal/identity"
	"vyap-onboarding-go/internal/models"
	"vyap-onboarding-go/pkg/mailer"
	"vyap-onboarding-go/pkg/messagequeue"
)

// WelcomeSender is satisfied by *mailer.Mailer.
type WelcomeSender interface {
	SendWelcome(recipient string, data mailer.WelcomeData) error
}

// Notifier sends a welcome email for every onboarding.completed event.
type Notifier struct {
	directory identity.Directory
	mail      WelcomeSender
	logger    *zap.Logger
}

// NewNotifier creates a Notifier.
func NewNotifier(directory identity.Directory, mail WelcomeSender, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{directory: directory, mail: mail, logger: logger}
}

// Run consumes queueName until ctx is cancelled.
func (n *Notifier) Run(ctx context.Context, queue messagequeue.MessageQueue, queueName string) error {
	return queue.Consume(ctx, queueName, n.Handle)
}

// Handle processes one message. Malformed and unknown messages are dropped with a log
// line; only transient failures are returned so the broker can redeliver.
func (n *Notifier) Handle(ctx context.Context, body []byte) error {
	var evt models.OnboardingCompletedEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		n.logger.Warn("Dropping malformed event", zap.Error(err))
		return nil
	}
	if evt.Type != models.EventOnboardingCompleted || evt.UserID == "" {
		n.logger.Debug("Ignoring event", zap.String("type", evt.Type))
		return nil
	}

	user, err := n.directory.LookupUser(ctx, evt.UserID)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			n.logger.Warn("Welcome email skipped: user no longer exists", zap.String("userID", evt.UserID))
			return nil
		}
		return fmt.Errorf("lookup user %s: %w", evt.UserID, err)
	}
	if user.Email == "" {
		n.logger.Info("Welcome email skipped: account has no email", zap.String("userID", evt.UserID))
		return nil
	}

	data := mailer.WelcomeData{
		Name:     user.DisplayName,
		ShopName: evt.Answers.ShopName,
		Goal:     evt.Answers.PrimaryGoal,
	}
	if err := n.mail.SendWelcome(user.Email, data); err != nil {
		return fmt.Errorf("send welcome email to user %s: %w", evt.UserID, err)
	}
	n.logger.Info("Welcome email sent", zap.String("userID", evt.UserID))
	return nil
}
