package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dafibh/prestamos/prestamos-backend/internal/config"
	"github.com/dafibh/prestamos/prestamos-backend/internal/export"
	"github.com/dafibh/prestamos/prestamos-backend/internal/handler"
	"github.com/dafibh/prestamos/prestamos-backend/internal/middleware"
	"github.com/dafibh/prestamos/prestamos-backend/internal/repository/postgres"
	"github.com/dafibh/prestamos/prestamos-backend/internal/repository/storage"
	"github.com/dafibh/prestamos/prestamos-backend/internal/service"
	"github.com/dafibh/prestamos/prestamos-backend/internal/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
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

	if err := pool.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Connected to database")

	if err := postgres.Migrate(context.Background(), pool); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply schema")
	}

	// Initialize repositories
	clientRepo := postgres.NewClientRepository(pool)
	loanRepo := postgres.NewLoanRepository(pool)
	paymentRepo := postgres.NewPaymentRepository(pool)
	transactor := postgres.NewTransactor(pool)

	// Contract archive is optional
	var contractStorage storage.ContractRepository
	if cfg.S3.Enabled {
		s3Repo, err := storage.NewS3ContractRepository(context.Background(), cfg.S3)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize contract storage")
		}
		contractStorage = s3Repo
		log.Info().Str("bucket", cfg.S3.Bucket).Msg("Contract archive enabled")
	} else {
		log.Info().Msg("Contract archive disabled (S3_ENABLED not set)")
	}

	renderer, err := export.NewContractRenderer(cfg.Contract.Issuer, cfg.Contract.LogoPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load contract logo")
	}

	// WebSocket hub publishes domain events to connected browsers
	hub := websocket.NewHub()

	// Initialize services
	clientService := service.NewClientService(clientRepo, loanRepo)
	clientService.SetEventPublisher(hub)
	loanService := service.NewLoanService(transactor, loanRepo, clientRepo, paymentRepo)
	loanService.SetEventPublisher(hub)
	paymentService := service.NewPaymentService(transactor, loanRepo, paymentRepo)
	paymentService.SetEventPublisher(hub)
	contractService := service.NewContractService(loanRepo, clientRepo, renderer, contractStorage)
	contractService.SetEventPublisher(hub)
	reportService := service.NewReportService(clientRepo, loanRepo, paymentRepo)
	lookupService := service.NewDocumentLookupService(nil)

	// Authentication: Auth0 when configured, open otherwise
	var authMiddleware *middleware.AuthMiddleware
	var wsValidator handler.JWTValidator
	if cfg.AuthEnabled() {
		authMiddleware, err = middleware.NewAuthMiddleware(cfg.Auth0Domain, cfg.Auth0Audience)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create auth middleware")
		}
		wsValidator, err = websocket.NewAuth0JWTValidator(cfg.Auth0Domain, cfg.Auth0Audience)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create WebSocket token validator")
		}
	} else {
		log.Warn().Msg("AUTH0_DOMAIN/AUTH0_AUDIENCE not set, authentication disabled")
		authMiddleware = middleware.NewDisabledAuthMiddleware()
		wsValidator = websocket.OpenValidator{}
	}

	rateLimiter := middleware.NewRateLimiterWithConfig(cfg.RateLimitPerMinute, cfg.RateLimitBurst)
	defer rateLimiter.Stop()

	// Background reminder worker
	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	reminderWorker := service.NewReminderWorker(loanRepo, hub, log.Logger, service.ReminderWorkerConfig{
		Interval: cfg.ReminderInterval,
	})
	reminderWorker.Start(workerCtx)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Request ID middleware
	e.Use(echomiddleware.RequestID())

	// CORS middleware
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		ExposeHeaders:    []string{echo.HeaderContentDisposition, "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
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

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":          "ok",
			"wsClients":       hub.ClientCount(),
			"reminderWorker":  reminderWorker.IsRunning(),
			"contractArchive": contractService.ArchiveEnabled(),
			"authentication":  authMiddleware.Enabled(),
		})
	})

	// WebSocket endpoint authenticates with the token query parameter
	wsHandler := handler.NewWebSocketHandler(hub, wsValidator, cfg.CORSOrigins)
	e.GET("/ws", wsHandler.HandleWS)

	// Register API routes
	handler.RegisterRoutes(e, authMiddleware, rateLimiter, handler.Handlers{
		Client:   handler.NewClientHandler(clientService),
		Loan:     handler.NewLoanHandler(loanService, clientService),
		Payment:  handler.NewPaymentHandler(paymentService),
		Report:   handler.NewReportHandler(reportService),
		Document: handler.NewDocumentHandler(lookupService),
		Contract: handler.NewContractHandler(contractService),
	})

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

	reminderWorker.Stop()

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

			event := log.Info()
			if res.Status >= http.StatusInternalServerError {
				event = log.Error()
			}
			event.
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Dur("latency", time.Since(start)).
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Str("operator", middleware.GetOperator(c)).
				Msg("request")

			return nil
		}
	}
}
