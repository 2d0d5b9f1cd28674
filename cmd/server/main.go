package main

import (
	"context"
	"image"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/punchly/service-loyalty/internal/application"
	"github.com/punchly/service-loyalty/internal/config"
	loyaltyEvents "github.com/punchly/service-loyalty/internal/events"
	"github.com/punchly/service-loyalty/internal/handler"
	"github.com/punchly/service-loyalty/internal/platform/auth"
	"github.com/punchly/service-loyalty/internal/platform/database"
	"github.com/punchly/service-loyalty/internal/platform/health"
	"github.com/punchly/service-loyalty/internal/platform/kafka"
	"github.com/punchly/service-loyalty/internal/platform/logger"
	"github.com/punchly/service-loyalty/internal/platform/middleware"
	"github.com/punchly/service-loyalty/internal/qr"
	"github.com/punchly/service-loyalty/internal/repository"
	"github.com/punchly/service-loyalty/internal/scanner"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Initialize logger
	zapLogger, err := logger.NewNamed(cfg.AppEnv, "service-loyalty")
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("starting service-loyalty",
		zap.String("port", cfg.Port),
	)

	// Connect to database
	dbConfig := database.PostgresConfig{
		Host:     cfg.DBConfig.Host,
		Port:     cfg.DBConfig.Port,
		User:     cfg.DBConfig.User,
		Password: cfg.DBConfig.Password,
		DBName:   cfg.DBConfig.DBName,
		SSLMode:  cfg.DBConfig.SSLMode,
	}

	db, err := database.Connect(dbConfig, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if cfg.AppEnv == "development" {
		if err := db.AutoMigrate(
			&repository.UserModel{},
			&repository.BusinessModel{},
			&repository.PunchcardModel{},
			&repository.RedemptionTokenModel{},
			&repository.PunchHistoryModel{},
			&repository.RedemptionHistoryModel{},
		); err != nil {
			zapLogger.Fatal("failed to auto-migrate", zap.Error(err))
		}
		zapLogger.Info("database migration completed (dev auto-migrate)")
	} else {
		dbURL := dbConfig.DatabaseURL()
		if err := database.RunMigrations(dbURL, "migrations", zapLogger); err != nil {
			zapLogger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(
		cfg.JWTConfig.Secret,
		15*time.Minute,
		7*24*time.Hour,
	)

	// Initialize Kafka producer
	kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, zapLogger)
	defer kafkaProducer.Close()

	// Initialize repositories
	tokenRepo := repository.NewGormTokenRepository(db)
	punchcardRepo := repository.NewGormPunchcardRepository(db)
	businessRepo := repository.NewGormBusinessRepository(db)
	userRepo := repository.NewGormUserRepository(db)
	historyRepo := repository.NewGormHistoryRepository(db)

	// Initialize application services
	redemptionService := application.NewRedemptionService(
		tokenRepo, punchcardRepo, businessRepo, userRepo, historyRepo,
		kafkaProducer, cfg.TokenValidity, zapLogger,
	)
	punchService := application.NewPunchService(
		punchcardRepo, businessRepo, userRepo, historyRepo,
		kafkaProducer, zapLogger,
	)
	businessService := application.NewBusinessService(businessRepo, historyRepo, zapLogger)
	accountService := application.NewAccountService(
		tokenRepo, punchcardRepo, historyRepo, userRepo, zapLogger,
	)

	// Initialize Kafka consumer for account events
	consumerGroupID := cfg.KafkaConfig.GroupPrefix + "loyalty-service"
	accountConsumer := loyaltyEvents.NewAccountEventConsumer(
		cfg.KafkaConfig.Brokers,
		consumerGroupID,
		accountService,
		zapLogger,
	)
	defer accountConsumer.Close()

	// Start Kafka consumer in a goroutine
	consumerCtx, consumerCancel := context.WithCancel(context.Background())
	defer consumerCancel()

	go func() {
		zapLogger.Info("starting account event consumer")
		if err := accountConsumer.Start(consumerCtx); err != nil {
			if consumerCtx.Err() == nil {
				zapLogger.Error("account event consumer failed", zap.Error(err))
			}
		}
	}()

	// Development scan loop: replays a configured payload through a scan
	// session so the debounce path runs without camera hardware.
	if cfg.AppEnv == "development" && cfg.MockScannerPayload != "" {
		frameSource := scanner.NewTickerFrameSource(image.NewGray(image.Rect(0, 0, 1, 1)), time.Second)
		mockDecoder := scanner.NewMockFrameDecoder(cfg.MockScannerPayload, zapLogger)
		scanSession := scanner.NewSession(frameSource, mockDecoder, cfg.ScanDebounce, func(_ context.Context, text string) {
			if _, err := qr.Decode(text); err != nil {
				zapLogger.Warn("mock scanner produced unrecognized payload", zap.Error(err))
				return
			}
			zapLogger.Info("mock scanner accepted payload")
		}, zapLogger)

		go func() {
			if err := scanSession.Run(consumerCtx); err != nil && consumerCtx.Err() == nil {
				zapLogger.Error("mock scan session failed", zap.Error(err))
			}
		}()
	}

	// Initialize HTTP handlers
	redemptionHandler := handler.NewRedemptionHandler(redemptionService)
	scanHandler := handler.NewScanHandler(punchService, redemptionService)
	punchcardHandler := handler.NewPunchcardHandler(punchService)
	businessHandler := handler.NewBusinessHandler(businessService)
	adminHandler := handler.NewAdminHandler(businessService)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(zapLogger))
	router.Use(middleware.LoggerMiddleware(zapLogger))
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	// Register health check routes
	healthHandler := health.NewHandler(db, "service-loyalty")
	healthHandler.RegisterRoutes(router)

	// Register API routes
	apiV1 := router.Group("/api/v1")
	redemptionHandler.RegisterRoutes(apiV1, jwtManager)
	scanHandler.RegisterRoutes(apiV1, jwtManager)
	punchcardHandler.RegisterRoutes(apiV1, jwtManager)
	businessHandler.RegisterRoutes(apiV1, jwtManager)
	adminHandler.RegisterRoutes(apiV1, jwtManager)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		zapLogger.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("shutting down service-loyalty...")

	// Cancel Kafka consumer
	consumerCancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("service-loyalty stopped")
}
