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

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"voicenotes-backend-go/internal/api"
	"voicenotes-backend-go/internal/cache"
	"voicenotes-backend-go/internal/config"
	"voicenotes-backend-go/internal/core"
	"voicenotes-backend-go/internal/db"
	"voicenotes-backend-go/internal/events"
	"voicenotes-backend-go/internal/mailer"
	"voicenotes-backend-go/internal/middleware"
)

func main() {
	// Load .env before anything reads the environment. In production the
	// variables are set directly.
	if os.Getenv("GIN_MODE") != "release" {
		if err := godotenv.Load(); err != nil {
			log.Println("Warning: Error loading .env file:", err)
		}
	}

	appConfig, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to load application configuration: %v", err)
	}

	var zapLogger *zap.Logger
	if strings.ToLower(appConfig.GinMode) == "release" {
		zapLogger, err = zap.NewProduction()
	} else {
		zapLogger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to initialize Zap logger: %v", err)
	}
	defer zapLogger.Sync()
	zapLogger.Info("Application configuration loaded.")

	// --- Privileged store clients ---
	// A missing or broken credential does not stop the server: it starts in a
	// degraded mode where store-backed endpoints answer with explicit errors.
	var clients *db.Clients
	initCtx, cancelInitCtx := context.WithTimeout(context.Background(), 15*time.Second)
	if appConfig.StoreConfigured() || appConfig.FirebaseProjectID != "" {
		clients, err = db.NewClients(initCtx, appConfig)
		if err != nil {
			zapLogger.Error("Failed to initialize store clients; continuing degraded", zap.Error(err))
			clients = nil
		}
	} else {
		zapLogger.Warn("No store credential configured; store-backed endpoints will fail explicitly.")
	}
	cancelInitCtx()
	if clients != nil {
		defer clients.Close()
	}

	// --- Repositories ---
	var profileRepo db.ProfileRepository
	var giftCodeRepo db.GiftCodeRepository
	if clients != nil {
		profileRepo, err = db.NewFirestoreProfileRepository(clients.Firestore)
		if err != nil {
			zapLogger.Fatal("Failed to initialize profile repository", zap.Error(err))
		}
		giftCodeRepo, err = db.NewFirestoreGiftCodeRepository(clients.Firestore)
		if err != nil {
			zapLogger.Fatal("Failed to initialize gift code repository", zap.Error(err))
		}
	}

	// --- Optional collaborators ---
	var profileCache cache.Cache
	if appConfig.RedisAddress != "" {
		redisCtx, cancelRedis := context.WithTimeout(context.Background(), 5*time.Second)
		redisCache, cacheErr := cache.NewRedisCache(redisCtx, cache.NewRedisCacheConfig{
			Address:  appConfig.RedisAddress,
			Password: appConfig.RedisPassword,
			DB:       appConfig.RedisDB,
		})
		cancelRedis()
		if cacheErr != nil {
			zapLogger.Warn("Profile cache disabled", zap.Error(cacheErr))
		} else {
			profileCache = redisCache
			defer redisCache.Close()
			zapLogger.Info("Profile cache enabled", zap.String("address", appConfig.RedisAddress))
		}
	}

	var publisher events.Publisher = events.NewLogPublisher(zapLogger)
	if appConfig.RabbitMQURL != "" {
		amqpPublisher, pubErr := events.NewAMQPPublisher(appConfig.RabbitMQURL, appConfig.RabbitMQQueue, zapLogger)
		if pubErr != nil {
			zapLogger.Warn("Event queue disabled, falling back to log publisher", zap.Error(pubErr))
		} else {
			publisher = amqpPublisher
			defer amqpPublisher.Close()
			zapLogger.Info("Event queue enabled", zap.String("queue", appConfig.RabbitMQQueue))
		}
	}

	var welcomeMailer mailer.Mailer
	if appConfig.MailConfigured() {
		smtpMailer, mailErr := mailer.NewSMTPMailer("", "", appConfig.SMTPUser, appConfig.SMTPPass, appConfig.MailSender)
		if mailErr != nil {
			zapLogger.Warn("Welcome mail disabled", zap.Error(mailErr))
		} else {
			welcomeMailer = smtpMailer
		}
	}

	// --- Core services ---
	profileService := core.NewProfileService(profileRepo, profileCache, publisher, welcomeMailer, zapLogger)
	redemptionService := core.NewRedemptionService(giftCodeRepo, profileCache, publisher, zapLogger)
	zapLogger.Info("Core services initialized.")

	// --- Gin engine and middleware ---
	if strings.ToLower(appConfig.GinMode) == "release" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()
	router.Use(middleware.RequestLogger(zapLogger))
	router.Use(middleware.RecoveryMiddleware(zapLogger))
	if appConfig.ClientURL != "" {
		router.Use(middleware.CORSMiddleware(appConfig))
		zapLogger.Info("CORS enabled", zap.String("clientURL", appConfig.ClientURL))
	} else {
		zapLogger.Warn("CORS middleware skipped: CLIENT_URL is not configured.")
	}

	var authClient *auth.Client
	if clients != nil {
		authClient = clients.Auth
	}
	api.SetupRoutes(router, zapLogger, authClient, profileService, redemptionService)

	// --- HTTP server with graceful shutdown ---
	serverAddr := fmt.Sprintf(":%s", appConfig.Port)
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: router,
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
		zapLogger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exiting gracefully.")
}
