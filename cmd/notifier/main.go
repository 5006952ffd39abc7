// Command notifier consumes onboarding.completed events and sends the welcome email.
package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"vyap-onboarding-go/internal/bootstrap"
	"vyap-onboarding-go/internal/config"
	"vyap-onboarding-go/internal/events"
	"vyap-onboarding-go/internal/identity"
	"vyap-onboarding-go/pkg/mailer"
)

func main() {
	appConfig, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to load application configuration: %v", err)
	}
	zapLogger, err := bootstrap.NewLogger(appConfig.IsRelease())
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to initialize Zap logger: %v", err)
	}
	defer zapLogger.Sync()

	if appConfig.EventsBackend == config.BackendNone {
		zapLogger.Fatal("CRITICAL_ERROR: EVENTS_BACKEND=none; the notifier needs amqp or nats")
	}

	initCtx, cancelInitCtx := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelInitCtx()
	stores, err := bootstrap.OpenStores(initCtx, appConfig, zapLogger)
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to initialize Firebase Admin SDK", zap.Error(err))
	}
	defer stores.Close()

	m, err := mailer.New(mailer.Config{
		Host:   appConfig.SMTPHost,
		Port:   appConfig.SMTPPort,
		User:   appConfig.SMTPUser,
		Pass:   appConfig.SMTPPass,
		Sender: appConfig.MailSender,
	}, nil)
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Invalid SMTP configuration", zap.Error(err))
	}

	queue, err := bootstrap.OpenQueue(appConfig, zapLogger)
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to connect to event broker", zap.Error(err))
	}
	defer queue.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	notifier := events.NewNotifier(identity.NewFirebaseDirectory(stores.Clients.Auth), m, zapLogger)
	zapLogger.Info("Notifier consuming", zap.String("queue", appConfig.EventsQueue), zap.String("backend", appConfig.EventsBackend))
	if err := notifier.Run(ctx, queue, appConfig.EventsQueue); err != nil && !errors.Is(err, context.Canceled) {
		zapLogger.Error("Notifier stopped with error", zap.Error(err))
		return
	}
	zapLogger.Info("Notifier exiting gracefully.")
}
