package middleware

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"vyap-onboarding-go/internal/config"
)

// CORSMiddleware allows requests from CLIENT_URL (comma-separated for several origins).
// The device header is allowed and exposed so browsers can read an assigned id.
func CORSMiddleware(appConfig *config.Config) gin.HandlerFunc {
	if appConfig == nil || appConfig.ClientURL == "" {
		panic("ClientURL for CORS is not configured")
	}

	var origins []string
	for _, o := range strings.Split(appConfig.ClientURL, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", DeviceHeader},
		ExposeHeaders:    []string{"Content-Length", DeviceHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}
