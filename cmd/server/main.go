package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"vyap-onboarding-go/internal/api"
	"vyap-onboarding-go/internal/bootstrap"
	"vyap-onboarding-go/internal/config"
	"vyap-onboarding-go/internal/core"
	"vyap-onboarding-go/internal/events"
	"vyap-onboarding-go/internal/identity"
	"vyap-onboarding-go/internal/metrics"
	"vyap-onboarding-go/internal/middleware"
)

func main() {
	// --- 1. Load Application Configuration ---
	appConfig, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to load application configuration: %v", err)
	}

	// --- 2. Initialize Logger (Zap) ---
	zapLogger, err := bootstrap.NewLogger(appConfig.IsRelease())
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to initialize Zap logger: %v", err)
	}
	defer zapLogger.Sync()
	zapLogger.Info("Application configuration loaded",
		zap.String("storeBackend", appConfig.StoreBackend),
		zap.String("flagStore", appConfig.FlagStore),
		zap.String("eventsBackend", appConfig.EventsBackend),
	)

	// --- 3. Initialize Firebase and repositories ---
	initCtx, cancelInitCtx := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelInitCtx()
	stores, err := bootstrap.OpenStores(initCtx, appConfig, zapLogger)
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to initialize Firebase Admin SDK", zap.Error(err))
	}
	defer stores.Close()

	flags, closeFlags, err := bootstrap.OpenFlags(initCtx, appConfig, zapLogger)
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to open flag store", zap.Error(err))
	}
	defer closeFlags()

	queue, err := bootstrap.OpenQueue(appConfig, zapLogger)
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to connect to event broker", zap.Error(err))
	}

	// --- 4. Initialize Services ---
	auditService := core.NewAuditService(stores.Audit)
	profileService := core.NewProfileService(stores.Profiles)
	appMetrics := metrics.New()

	hooks := &core.Hooks{Audit: auditService, Recorder: appMetrics, Logger: zapLogger}
	if queue != nil {
		defer queue.Close()
		hooks.Events = events.NewPublisher(queue, appConfig.EventsQueue, zapLogger)
	}

	sessions := core.NewSessionManager(core.SessionConfig{
		Store:     stores.Profiles,
		Flags:     flags,
		Hooks:     hooks,
		SnoozeFor: appConfig.SnoozeDuration,
		IdleTTL:   appConfig.SessionIdleTTL,
		Logger:    zapLogger,
	})
	feed := identity.NewFeed()
	unsubscribe := sessions.Subscribe(feed)
	defer unsubscribe()

	runCtx, stopSessions := context.WithCancel(context.Background())
	defer stopSessions()
	go sessions.Run(runCtx)

	directory := identity.NewFirebaseDirectory(stores.Clients.Auth)
	zapLogger.Info("Core services initialized successfully.")

	// --- 5. Setup Gin HTTP Engine ---
	if appConfig.IsRelease() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()

	router.Use(middleware.RequestLogger(zapLogger))
	router.Use(middleware.RecoveryMiddleware(zapLogger))
	if appConfig.ClientURL != "" {
		router.Use(middleware.CORSMiddleware(appConfig))
		zapLogger.Info("CORS Middleware enabled", zap.String("clientURL", appConfig.ClientURL))
	} else {
		zapLogger.Warn("CORS Middleware SKIPPED: CLIENT_URL is not configured.")
	}

	// --- 6. Setup API Routes ---
	if err := api.SetupRoutes(router, zapLogger, stores.Clients.Auth, feed, sessions, profileService, auditService, directory, appMetrics.Handler()); err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to set up routes", zap.Error(err))
	}

	// --- 7. Configure and Start HTTP Server ---
	serverAddr := fmt.Sprintf(":%s", appConfig.Port)
	httpServer := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	zapLogger.Info("Starting HTTP server...", zap.String("address", serverAddr), zap.String("ginMode", gin.Mode()))
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// --- 8. Graceful Shutdown Handling ---
	quitChannel := make(chan os.Signal, 1)
	signal.Notify(quitChannel, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quitChannel
	zapLogger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	stopSessions()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	zapLogger.Info("Server exiting gracefully.")
}
