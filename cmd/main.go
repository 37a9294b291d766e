package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"freelance-hub/internal/auth"
	"freelance-hub/internal/config"
	"freelance-hub/internal/database"
	"freelance-hub/internal/handlers"
	"freelance-hub/internal/idempotency"
	"freelance-hub/internal/jobs"
	"freelance-hub/internal/logger"
	"freelance-hub/internal/metrics"
	"freelance-hub/internal/ratelimit"
	"freelance-hub/internal/repository"
	"freelance-hub/internal/services"
	"freelance-hub/internal/stripe"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog, err := logger.New(cfg.App.Env, cfg.App.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	auth.InitJWT(cfg.Auth.IdentityJWTSecret, cfg.Auth.IdentityIssuer)

	// Connect to database
	if err := database.Connect(cfg, zlog); err != nil {
		zlog.Fatal("Failed to connect to database", zap.Error(err))
	}

	// Run migrations
	if err := database.Migrate(database.GetDB()); err != nil {
		zlog.Fatal("Failed to run migrations", zap.Error(err))
	}

	repo := repository.NewRepository(database.GetDB())

	// Checkout guard; without redis every request goes straight to the processor
	var guard services.CheckoutGuard
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			zlog.Warn("Redis unreachable, checkout guard will fail open", zap.Error(err))
		}
		cancel()
		guard = idempotency.NewGuard(rdb, cfg.Payments.CheckoutLockTTL, zlog)
	}

	if cfg.Payments.StripeSecretKey == "" {
		zlog.Warn("STRIPE_SECRET_KEY is empty, checkout and payout calls will fail")
	}
	processor := stripe.NewClient(cfg.Payments.StripeAPIURL, cfg.Payments.StripeSecretKey)

	// Initialize services
	identityService := services.NewIdentityService(repo, zlog)
	projectService := services.NewProjectService(repo, zlog)
	proposalService := services.NewProposalService(repo, cfg.Payments.Currency, zlog)
	paymentService := services.NewPaymentService(repo, processor, guard, services.PaymentSettings{
		Currency:           cfg.Payments.Currency,
		PlatformFeePercent: cfg.Payments.PlatformFeePercent,
		FrontendURL:        cfg.Server.FrontendURL,
	}, zlog)

	// Start payment reconciliation job
	var syncJob *jobs.PaymentSyncJob
	if cfg.Jobs.PaymentSyncSchedule != "" {
		syncJob = jobs.NewPaymentSyncJob(paymentService, cfg.Jobs.PaymentSyncSchedule, zlog)
		if err := syncJob.Start(); err != nil {
			zlog.Fatal("Failed to start payment sync job", zap.Error(err))
		}
	}

	if cfg.App.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Set up Gin router
	router := gin.New()
	router.Use(gin.Recovery(), logger.GinMiddleware(zlog), metrics.GinMiddleware())

	// CORS middleware
	allowedOrigins := []string{
		"http://localhost:5173", // Vite dev server
		"http://127.0.0.1:5173",
	}
	if cfg.Server.FrontendURL != "" {
		allowedOrigins = append(allowedOrigins, cfg.Server.FrontendURL)
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	router.GET("/metrics", metrics.Handler())

	handlers.RegisterRoutes(router, handlers.Services{
		Identity:  identityService,
		Projects:  projectService,
		Proposals: proposalService,
		Payments:  paymentService,
	}, ratelimit.NewRateLimiter(cfg.Server.RateLimitPerMinute, 5), zlog)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		zlog.Info("Server starting", zap.String("port", cfg.Server.Port))

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("Shutting down server...")

	// Graceful shutdown with 5 second timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if syncJob != nil {
		syncJob.Stop(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		zlog.Error("Server forced to shutdown", zap.Error(err))
	}

	zlog.Info("Server exited")
}
