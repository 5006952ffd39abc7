// Package events publishes onboarding domain events to the broker and consumes them
// in the notifier.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"vyap-onboarding-go/internal/models"
	"vyap-onboarding-go/pkg/messagequeue"
)

// Publisher implements core.EventPublisher over a MessageQueue.
type Publisher struct {
	queue     messagequeue.MessageQueue
	queueName string
	logger    *zap.Logger
}

// NewPublisher returns a Publisher writing to queueName.
func NewPublisher(queue messagequeue.MessageQueue, queueName string, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{queue: queue, queueName: queueName, logger: logger}
}

// PublishOnboardingCompleted encodes evt as JSON and publishes it.
func (p *Publisher) PublishOnboardingCompleted(ctx context.Context, evt models.OnboardingCompletedEvent) error {
	if evt.Type == "" {
		evt.Type = models.EventOnboardingCompleted
	}
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", evt.Type, err)
	}
	if err := p.queue.Publish(ctx, p.queueName, body); err != nil {
		return fmt.Errorf("failed to publish %s event for user %s: %w", evt.Type, evt.UserID, err)
	}
	p.logger.Info("Published onboarding event", zap.String("type", evt.Type), zap.String("userID", evt.UserID))
	return nil
}
