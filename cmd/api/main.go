package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jeninefer/commercial-view/internal/config"
	"github.com/jeninefer/commercial-view/internal/handler"
	"github.com/jeninefer/commercial-view/internal/middleware"
	"github.com/jeninefer/commercial-view/internal/repository/postgres"
	"github.com/jeninefer/commercial-view/internal/repository/storage"
	"github.com/jeninefer/commercial-view/internal/service"
	"github.com/jeninefer/commercial-view/internal/websocket"
)

func main() {
	// Initialize zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Connect to database
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	// Verify database connection
	if err := pool.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Connected to database")

	// Initialize repositories
	loanRepo := postgres.NewLoanRepository(pool)
	installmentRepo := postgres.NewInstallmentRepository(pool)
	paymentRepo := postgres.NewPaymentRepository(pool)
	arrearsRepo := postgres.NewArrearsRepository(pool)
	kpiRepo := postgres.NewKPIRepository(pool)
	alertRepo := postgres.NewAlertRepository(pool)

	// Report storage is optional; exports still work without it
	var reportRepo storage.ReportRepository
	if cfg.S3.Bucket != "" && cfg.S3.AccessKeyID != "" {
		s3Repo, err := storage.NewS3ReportRepository(context.Background(), cfg.S3)
		if err != nil {
			log.Warn().Err(err).Msg("Report storage unavailable, exports will not be archived")
		} else {
			reportRepo = s3Repo
			log.Info().Str("bucket", cfg.S3.Bucket).Msg("Report storage initialized")
		}
	}

	// WebSocket hub and event publisher
	hub := websocket.NewHub()

	// Initialize services
	portfolioService := service.NewPortfolioService(loanRepo, installmentRepo, paymentRepo, arrearsRepo, cfg.DefaultDPDThreshold)
	kpiService := service.NewKPIService(loanRepo, arrearsRepo, kpiRepo)
	alertService := service.NewAlertService(kpiRepo, alertRepo, hub, service.DefaultAlertConfig())
	optimizerService := service.NewOptimizerService()

	// Background snapshot worker
	snapshotWorker := service.NewSnapshotWorker(portfolioService, kpiService, alertService, hub, log.Logger,
		service.SnapshotWorkerConfig{Interval: cfg.SnapshotInterval})

	// Initialize auth middleware and rate limiter
	authMiddleware, err := middleware.NewAuthMiddleware(cfg.Auth0Domain, cfg.Auth0Audience)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create auth middleware")
	}
	rateLimiter := middleware.NewRateLimiter()
	defer rateLimiter.Stop()

	// WebSocket token validator
	wsValidator, err := websocket.NewAuth0JWTValidator(cfg.Auth0Domain, cfg.Auth0Audience)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create WebSocket token validator")
	}

	// Initialize handlers
	ingestHandler := handler.NewIngestHandler(portfolioService, hub)
	arrearsHandler := handler.NewArrearsHandler(portfolioService, reportRepo)
	kpiHandler := handler.NewKPIHandler(kpiService)
	optimizerHandler := handler.NewOptimizerHandler(optimizerService)
	alertHandler := handler.NewAlertHandler(alertService)
	wsHandler := handler.NewWebSocketHandler(hub, wsValidator, cfg.CORSOrigins)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Request ID middleware
	e.Use(echomiddleware.RequestID())

	// CORS middleware
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Security headers middleware (helmet-like)
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))

	// Request logging middleware with zerolog
	e.Use(zerologMiddleware())

	// Recovery middleware
	e.Use(echomiddleware.Recover())

	// Health check endpoint; reports 503 when the database is unreachable
	e.GET("/health", func(c echo.Context) error {
		pingCtx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(pingCtx); err != nil {
			log.Error().Err(err).Msg("Health check failed: database unreachable")
			return handler.NewServiceUnavailableError(c, "Database unreachable")
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Register API routes
	handler.RegisterRoutes(e, authMiddleware, rateLimiter,
		ingestHandler, arrearsHandler, kpiHandler, optimizerHandler, alertHandler, wsHandler)

	// Start background snapshot worker
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	snapshotWorker.Start(workerCtx)

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	snapshotWorker.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// zerologMiddleware returns a middleware that logs requests using zerolog
func zerologMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			log.Info().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Dur("latency", time.Since(start)).
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Msg("request")

			return nil
		}
	}
}
