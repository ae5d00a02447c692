package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"jyotai-backend/internal/api"
	"jyotai-backend/internal/config"
	"jyotai-backend/internal/core"
	"jyotai-backend/internal/db"
	"jyotai-backend/internal/gateway"
	"jyotai-backend/internal/identity"
	"jyotai-backend/internal/mailer"
	"jyotai-backend/internal/middleware"
	"jyotai-backend/internal/ratelimit"
)

func newLogger(release bool, level string) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if release {
		cfg = zap.NewProductionConfig()
	}
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	return cfg.Build()
}

func newMailer(appConfig *config.Config, logger *zap.Logger) mailer.Sender {
	from := mailer.From{Address: appConfig.SenderEmail, Name: appConfig.SenderName}
	switch {
	case appConfig.ZeptoAPIToken != "":
		logger.Info("Mailer: ZeptoMail", zap.String("url", appConfig.ZeptoAPIURL))
		return mailer.NewZeptoSender(appConfig.ZeptoAPIURL, appConfig.ZeptoAPIToken, from)
	case appConfig.SMTPHost != "":
		logger.Info("Mailer: SMTP", zap.String("host", appConfig.SMTPHost), zap.Int("port", appConfig.SMTPPort))
		return mailer.NewSMTPSender(mailer.SMTPConfig{
			Host: appConfig.SMTPHost,
			Port: appConfig.SMTPPort,
			User: appConfig.SMTPUser,
			Pass: appConfig.SMTPPass,
		}, from)
	default:
		logger.Warn("Mailer: no provider configured, emails are only logged")
		return mailer.NewLogSender(logger)
	}
}

func main() {
	// Local development reads a .env file; in release the platform provides the environment.
	if !strings.EqualFold(os.Getenv("GIN_MODE"), "release") {
		_ = godotenv.Load()
	}

	appConfig, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to load application configuration: %v", err)
	}

	zapLogger, err := newLogger(appConfig.IsRelease(), appConfig.LogLevel)
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to initialize Zap logger: %v", err)
	}
	defer zapLogger.Sync()

	initCtx, cancelInitCtx := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelInitCtx()
	if err := db.InitFirestore(initCtx, appConfig, zapLogger); err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to initialize Firestore and Firebase Admin SDK", zap.Error(err))
	}
	defer db.CloseFirestore()

	firestoreClient := db.GetFirestoreClient()
	firebaseAuthClient := db.GetFirebaseAuthClient()
	if firestoreClient == nil || firebaseAuthClient == nil {
		zapLogger.Fatal("CRITICAL_ERROR: Firebase clients are nil after initialization")
	}

	userRepo := db.NewFirestoreUserRepository(firestoreClient)
	paymentRepo := db.NewFirestorePaymentRepository(firestoreClient)
	predictionRepo := db.NewFirestorePredictionRepository(firestoreClient)
	eventRepo := db.NewFirestoreWebhookEventRepository(firestoreClient)

	identityProvider := identity.NewFirebaseProvider(firebaseAuthClient, zapLogger)
	razorpay := gateway.NewRazorpay(appConfig.RazorpayKeyID, appConfig.RazorpayKeySecret)
	mail := newMailer(appConfig, zapLogger)

	plans := core.PlanSettings{
		StandardCredits:      appConfig.StandardCredits,
		PremiumMonthlyLimit:  appConfig.PremiumMonthlyLimit,
		PremiumDuration:      appConfig.PremiumDuration,
		ReferralBonusCredits: appConfig.ReferralBonusCredits,
	}
	notify := core.NotifySettings{BaseURL: appConfig.BaseURL, SupportEmail: appConfig.SupportEmail}

	userService := core.NewUserService(userRepo, zapLogger)
	services := api.Services{
		Auth: core.NewAuthService(identityProvider, userService, mail, notify, appConfig.SessionTTL, zapLogger),
		User: userService,
		Payment: core.NewPaymentService(razorpay, identityProvider, paymentRepo, eventRepo, plans, core.PaymentSettings{
			Currency:      appConfig.OrderCurrency,
			DefaultAmount: appConfig.DefaultOrderAmount,
			MinAmount:     appConfig.MinOrderAmount,
			WebhookSecret: appConfig.RazorpayWebhookSecret,
		}, zapLogger),
		Prediction: core.NewPredictionService(predictionRepo, userRepo, mail, plans, notify, zapLogger),
		Admin:      core.NewAdminService(userRepo, plans, zapLogger),
	}
	zapLogger.Info("Core services initialized successfully.")

	var windowStore ratelimit.WindowStore = ratelimit.NewMemoryStore()
	if appConfig.RedisURL != "" {
		redisStore, err := ratelimit.NewRedisStore(initCtx, appConfig.RedisURL)
		if err != nil {
			zapLogger.Fatal("CRITICAL_ERROR: Failed to connect to Redis for rate limiting", zap.Error(err))
		}
		defer redisStore.Close()
		windowStore = redisStore
		zapLogger.Info("Rate limiting backed by Redis.")
	}
	limiters := api.Limiters{
		MagicLink: ratelimit.NewLimiter(windowStore, appConfig.MagicLinkRateLimit, appConfig.RateLimitWindow),
		Order:     ratelimit.NewLimiter(windowStore, appConfig.OrderRateLimit, appConfig.RateLimitWindow),
	}

	var guardVerifier middleware.SessionVerifier = services.Auth
	if appConfig.AdminVerifyURL != "" {
		guardVerifier = middleware.NewRemoteVerifier(appConfig.AdminVerifyURL)
		zapLogger.Info("Admin guard uses remote verification", zap.String("url", appConfig.AdminVerifyURL))
	}

	if appConfig.IsRelease() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()
	if err := middleware.TrustProxies(router, appConfig.TrustedProxies); err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Invalid TRUSTED_PROXIES", zap.Error(err))
	}
	router.Use(middleware.RequestLogger(zapLogger))
	router.Use(middleware.RecoveryMiddleware(zapLogger))
	if appConfig.ClientURL != "" {
		router.Use(middleware.CORSMiddleware(appConfig))
	}

	api.SetupRoutes(router, appConfig, zapLogger, services, limiters, guardVerifier)

	serverAddr := fmt.Sprintf(":%s", appConfig.Port)
	httpServer := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	zapLogger.Info("Starting HTTP server...", zap.String("address", serverAddr), zap.String("ginMode", gin.Mode()))
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	quitChannel := make(chan os.Signal, 1)
	signal.Notify(quitChannel, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quitChannel
	zapLogger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	zapLogger.Info("Server exiting gracefully.")
}
