package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"jyotai-backend/internal/config"
	"jyotai-backend/internal/core"
	"jyotai-backend/internal/middleware"
	"jyotai-backend/internal/ratelimit"
)

// Services bundles the core services the HTTP layer depends on.
type Services struct {
	Auth       core.AuthService
	User       core.UserService
	Payment    core.PaymentService
	Prediction core.PredictionService
	Admin      core.AdminService
}

// Limiters holds the per-route rate limiters.
type Limiters struct {
	MagicLink *ratelimit.Limiter
	Order     *ratelimit.Limiter
}

// SetupRoutes configures all the application routes with their handlers and middleware.
// Global middleware (logging, recovery, CORS) is expected to be applied by the caller.
// guardVerifier backs the admin page guard; it may be a remote verifier or the auth service.
func SetupRoutes(
	router *gin.Engine,
	appConfig *config.Config,
	logger *zap.Logger,
	svc Services,
	limiters Limiters,
	guardVerifier middleware.SessionVerifier,
) {
	secure := strings.HasPrefix(appConfig.BaseURL, "https://")
	cookieName := appConfig.SessionCookieName
	if guardVerifier == nil {
		guardVerifier = svc.Auth
	}

	authMW := middleware.NewAuthMiddleware(svc.Auth, cookieName, logger)

	authHandler := NewAuthHandler(svc.Auth, cookieName, secure, logger)
	userHandler := NewUserHandler(svc.User)
	paymentHandler := NewPaymentHandler(svc.Payment, appConfig.RazorpayKeyID, logger)
	predictionHandler := NewPredictionHandler(svc.Prediction, logger)
	adminHandler := NewAdminHandler(svc.Admin, svc.Auth, appConfig.AdminSetupSecret, logger)
	cronHandler := NewCronHandler(appConfig.CronSecret, appConfig.BrainHealthURL, logger)

	apiGroup := router.Group("/api")
	{
		authGroup := apiGroup.Group("/auth")
		{
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/logout", authHandler.Logout)
			authGroup.POST("/send-link", middleware.RateLimit(limiters.MagicLink, "send-link", logger), authHandler.SendLink)
			authGroup.POST("/verify", authHandler.Verify)
		}

		apiGroup.GET("/users/me", authMW.RequireSession(), userHandler.GetCurrentUserProfile)

		payGroup := apiGroup.Group("/pay")
		{
			payGroup.POST("/create-order", middleware.RateLimit(limiters.Order, "create-order", logger), paymentHandler.CreateOrder)
			// Authenticated by signature, not session.
			payGroup.POST("/webhook", paymentHandler.Webhook)
		}

		apiGroup.POST("/on-prediction", authMW.OptionalSession(), predictionHandler.OnPrediction)
		predictionsGroup := apiGroup.Group("/predictions", authMW.RequireSession())
		{
			predictionsGroup.GET("", predictionHandler.List)
			predictionsGroup.GET("/:id", predictionHandler.Get)
		}

		adminGroup := apiGroup.Group("/admin")
		{
			// Bootstrap route: guarded by the setup secret, not a session.
			adminGroup.POST("/make-admin", adminHandler.MakeAdmin)
			adminGroup.GET("/whoami", authMW.RequireSession(), adminHandler.WhoAmI)

			managed := adminGroup.Group("", authMW.RequireSession(), authMW.RequireAdmin())
			managed.GET("/users", adminHandler.ListUsers)
			managed.POST("/users", adminHandler.ApplyUserOp)
			managed.POST("/add-credits", adminHandler.AddCredits)
			managed.POST("/set-plan", adminHandler.SetPlan)
		}

		apiGroup.GET("/cron/ping-brain", cronHandler.PingBrain)
	}

	pages := router.Group("/admin", middleware.AdminGuard(guardVerifier, cookieName, secure, logger))
	{
		pages.GET("", adminHandler.Dashboard)
		pages.GET("/*path", adminHandler.Dashboard)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP"})
	})

	logger.Info("API routes configured successfully under /api, /admin and /health.")
}
