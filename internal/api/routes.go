package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"vyap-onboarding-go/internal/core"
	"vyap-onboarding-go/internal/identity"
	"vyap-onboarding-go/internal/middleware"
)

// SetupRoutes configures all the application routes with their handlers and middleware.
// Global middleware (logging, recovery, CORS) is applied to router by the caller.
// metricsHandler may be nil.
func SetupRoutes(
	router *gin.Engine,
	logger *zap.Logger,
	verifier middleware.TokenVerifier,
	feed *identity.Feed,
	sessions *core.SessionManager,
	profileService core.ProfileService,
	auditService core.AuditService,
	directory identity.Directory,
	metricsHandler http.Handler,
) error {
	if err := RegisterValidators(); err != nil {
		return err
	}
	authMW := middleware.NewAuthMiddleware(verifier, logger)

	sessionHandler := NewSessionHandler(feed, sessions, profileService, logger)
	wizardHandler := NewWizardHandler(sessions, logger)
	profileHandler := NewProfileHandler(sessions, logger)
	accountHandler := NewAccountHandler(directory, auditService, logger)

	apiV1 := router.Group("/api/v1", middleware.DeviceID())
	{
		sessionGroup := apiV1.Group("/session")
		{
			// No token reports a sign-out for this device.
			sessionGroup.POST("/identity", authMW.OptionalToken(), sessionHandler.ReportIdentity)
			sessionGroup.GET("/gate", sessionHandler.GetGate)
			sessionGroup.POST("/signup", authMW.VerifyToken(), sessionHandler.Signup)
		}

		onboardingGroup := apiV1.Group("/onboarding")
		{
			onboardingGroup.GET("/steps", wizardHandler.ListSteps)
			onboardingGroup.POST("/snooze", authMW.VerifyToken(), wizardHandler.Snooze)

			wizardGroup := onboardingGroup.Group("/wizard", authMW.VerifyToken())
			{
				wizardGroup.GET("", wizardHandler.GetWizard)
				wizardGroup.POST("/next", wizardHandler.Next)
				wizardGroup.POST("/back", wizardHandler.Back)
				wizardGroup.POST("/answer", wizardHandler.Answer)
				wizardGroup.POST("/toggle", wizardHandler.Toggle)
				wizardGroup.POST("/finish", wizardHandler.Finish)
			}
		}

		profileGroup := apiV1.Group("/profile", authMW.VerifyToken())
		{
			profileGroup.GET("", profileHandler.GetProfile)
			profileGroup.POST("/edit", profileHandler.BeginEdit)
			profileGroup.DELETE("/edit", profileHandler.CancelEdit)
			profileGroup.POST("/edit/toggle", profileHandler.Toggle)
			profileGroup.PUT("/fields/:field", profileHandler.SaveField)
		}

		accountGroup := apiV1.Group("/account", authMW.VerifyToken())
		{
			accountGroup.GET("/providers", accountHandler.ListProviders)
			accountGroup.GET("/activity", accountHandler.ListActivity)
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "sessions": sessions.Len()})
	})
	if metricsHandler != nil {
		router.GET("/metrics", gin.WrapH(metricsHandler))
	}

	logger.Info("API routes configured under /api/v1, /health and /metrics")
	return nil
}
