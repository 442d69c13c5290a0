package api

import (
	"net/http"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"voicenotes-backend-go/internal/core"
	"voicenotes-backend-go/internal/middleware"
)

// SetupRoutes configures all the application routes with their handlers and
// middleware. Global middleware (logging, recovery, CORS) is applied to the
// router before this is called, in main.
//
// authClient may be nil when the Firebase credential was absent at startup;
// authenticated routes then answer 503 instead of the process refusing to
// start. The public provisioning endpoint keeps working either way (it fails
// per-request with an explicit error if the store itself is down).
func SetupRoutes(
	router *gin.Engine,
	logger *zap.Logger,
	authClient *auth.Client,
	profileService core.ProfileService,
	redemptionService core.RedemptionService,
) {
	authMW := middleware.NewAuthMiddleware(authClient, logger)

	profileHandler := NewProfileHandler(profileService, logger)
	billingHandler := NewBillingHandler(redemptionService, profileService, logger)

	// Server-proxied provisioning endpoint. Identified by request body, not a
	// token: it is called by trusted serverless glue during the sign-in flow.
	router.POST("/api/profile", profileHandler.ProvisionProfile)

	apiV1 := router.Group("/api/v1")
	{
		usersGroup := apiV1.Group("/users")
		{
			usersGroup.GET("/me", authMW.VerifyToken(), profileHandler.GetCurrentProfile)
		}

		billingGroup := apiV1.Group("/billing", authMW.VerifyToken())
		{
			billingGroup.POST("/redeem-gift-code", billingHandler.RedeemGiftCode)
			billingGroup.POST("/select-plan", billingHandler.SelectPlan)
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "message": "VoiceNotes backend is healthy."})
	})

	logger.Info("API routes configured", zap.Bool("auth_enabled", authClient != nil))
}
