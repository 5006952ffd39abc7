// Package bootstrap builds the backends selected by configuration. The server, the
// notifier and vyapctl share it.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"vyap-onboarding-go/internal/config"
	"vyap-onboarding-go/internal/db"
	"vyap-onboarding-go/pkg/flagstore"
	"vyap-onboarding-go/pkg/messagequeue"
)

// NewLogger returns a production logger in release mode and a development logger otherwise.
func NewLogger(release bool) (*zap.Logger, error) {
	if release {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// Stores are the profile and audit repositories.
type Stores struct {
	Clients  *db.Clients
	Profiles db.ProfileRepository
	Audit    db.AuditRepository
}

// Close releases the Firestore connection, if any.
func (s *Stores) Close() error {
	return s.Clients.Close()
}

// OpenStores initializes Firebase and the repositories for STORE_BACKEND.
func OpenStores(ctx context.Context, appConfig *config.Config, logger *zap.Logger) (*Stores, error) {
	clients, err := db.InitFirebase(ctx, appConfig, logger)
	if err != nil {
		return nil, err
	}
	if clients.Auth == nil {
		return nil, errors.New("firebase auth client is nil after initialization")
	}

	stores := &Stores{Clients: clients}
	switch appConfig.StoreBackend {
	case config.BackendFirestore:
		stores.Profiles = db.NewFirestoreProfileRepository(clients.Firestore)
		stores.Audit = db.NewFirestoreAuditRepository(clients.Firestore)
	case config.BackendMemory:
		logger.Warn("Using in-memory profile store; data is lost on restart")
		stores.Profiles = db.NewMemoryProfileRepository(time.Now)
		stores.Audit = db.NewMemoryAuditRepository(time.Now)
	default:
		return nil, fmt.Errorf("unknown store backend %q", appConfig.StoreBackend)
	}
	return stores, nil
}

// OpenFlags returns the device flag store for FLAG_STORE. The returned close func is never nil.
func OpenFlags(ctx context.Context, appConfig *config.Config, logger *zap.Logger) (flagstore.FlagStore, func() error, error) {
	switch appConfig.FlagStore {
	case config.BackendRedis:
		store, err := flagstore.NewRedisStore(ctx, flagstore.RedisConfig{
			Address:  appConfig.RedisAddress,
			Password: appConfig.RedisPassword,
			DB:       appConfig.RedisDB,
			Prefix:   appConfig.RedisKeyPrefix,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case config.BackendMemory:
		logger.Warn("Using in-memory flag store; pending and snooze flags are lost on restart")
		return flagstore.NewMemoryStore(time.Now), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown flag store %q", appConfig.FlagStore)
	}
}

// OpenQueue connects to the broker for EVENTS_BACKEND. It returns a nil queue for "none".
func OpenQueue(appConfig *config.Config, logger *zap.Logger) (messagequeue.MessageQueue, error) {
	switch appConfig.EventsBackend {
	case config.BackendAMQP:
		q, err := messagequeue.NewRabbitMQService(messagequeue.NewRabbitMQServiceConfig{URL: appConfig.AMQPURL, Logger: logger})
		if err != nil {
			return nil, err
		}
		return q, nil
	case config.BackendNATS:
		q, err := messagequeue.NewNATSService(messagequeue.NATSConfig{URL: appConfig.NATSURL, Logger: logger})
		if err != nil {
			return nil, err
		}
		return q, nil
	case config.BackendNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown events backend %q", appConfig.EventsBackend)
	}
}
