package messagequeue

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// NATSService implements MessageQueue over core NATS subjects. Consumers subscribe in
// a queue group so several notifier replicas share the load.
type NATSService struct {
	conn   *nats.Conn
	group  string
	logger *zap.Logger
}

// NATSConfig contains options for NewNATSService.
type NATSConfig struct {
	URL        string
	QueueGroup string
	Logger     *zap.Logger
}

// NewNATSService connects to the NATS server at cfg.URL.
func NewNATSService(cfg NATSConfig) (*NATSService, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	group := cfg.QueueGroup
	if group == "" {
		group = "vyap-onboarding"
	}
	conn, err := nats.Connect(cfg.URL,
		nats.Name("vyap-onboarding"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	logger.Info("Connected to NATS", zap.String("url", conn.ConnectedUrl()))
	return &NATSService{conn: conn, group: group, logger: logger}, nil
}

// Publish sends body on the subject queueName and flushes within ctx.
func (s *NATSService) Publish(ctx context.Context, queueName string, body []byte) error {
	if err := s.conn.Publish(queueName, body); err != nil {
		return fmt.Errorf("failed to publish to subject %s: %w", queueName, err)
	}
	if err := s.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("failed to flush subject %s: %w", queueName, err)
	}
	return nil
}

// Consume blocks until ctx is cancelled. Handler errors are logged; core NATS has no redelivery.
func (s *NATSService) Consume(ctx context.Context, queueName string, handler Handler) error {
	msgs := make(chan *nats.Msg, 64)
	sub, err := s.conn.ChanQueueSubscribe(queueName, s.group, msgs)
	if err != nil {
		return fmt.Errorf("failed to subscribe to subject %s: %w", queueName, err)
	}
	defer func() { _ = sub.Unsubscribe() }()

	s.logger.Info("Waiting for messages", zap.String("subject", queueName), zap.String("group", s.group))
	for {
		select {
		case <-ctx.Done():
			return nil
		case m := <-msgs:
			if err := handler(ctx, m.Data); err != nil {
				s.logger.Warn("Message handler failed", zap.String("subject", queueName), zap.Error(err))
			}
		}
	}
}

// Close drains pending messages and closes the connection.
func (s *NATSService) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Drain()
}
