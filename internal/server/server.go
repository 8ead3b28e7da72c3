// Package server contains the HTTP and WebSocket handlers of the fileshare API.
package server

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	_ "fileshare/docs" // swagger docs
	"fileshare/internal/config"
	"fileshare/internal/middleware"
	"fileshare/internal/models"
	"fileshare/internal/notifications"
	"fileshare/internal/observability"
	"fileshare/internal/repository"
	"fileshare/internal/seed"
	"fileshare/internal/service"
	"fileshare/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
)

// Deps carries externally constructed dependencies. Zero values get production defaults.
type Deps struct {
	// Fs backs the upload directory. Defaults to the OS filesystem.
	Fs afero.Fs
	// Redis enables the post rate limit and cross-process feed fan-out.
	Redis *redis.Client
	// Sales replaces the randomly generated sales dataset.
	Sales []models.SalesRecord
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	media          *storage.MediaStore
	postRepo       repository.PostRepository
	salesRepo      repository.SalesRepository
	notifier       *notifications.Notifier
	hub            *notifications.FeedHub
	postService    *service.PostService
	salesService   *service.SalesService
	page           *feedPage
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config, deps Deps) (*Server, error) {
	fs := deps.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	sales := deps.Sales
	if sales == nil {
		sales = seed.GenerateSales(gofakeit.New(0), time.Now())
	}

	page, err := newFeedPage()
	if err != nil {
		return nil, err
	}

	media := storage.NewMediaStore(fs, cfg.UploadDir, cfg.UploadURLPrefix)
	var previews service.PreviewRenderer
	if cfg.PreviewsEnabled {
		previews = storage.NewPreviewGenerator(media, cfg.PreviewMaxPx)
	}

	server := &Server{
		config:         cfg,
		redis:          deps.Redis,
		promMiddleware: middleware.InitMetrics("fileshare-api"),
		media:          media,
		postRepo:       repository.NewPostRepository(),
		salesRepo:      repository.NewSalesRepository(sales),
		notifier:       notifications.NewNotifier(deps.Redis),
		page:           page,
	}
	server.hub = notifications.NewFeedHub(server.notifier)
	server.postService = service.NewPostService(
		server.postRepo,
		media,
		previews,
		server.hub.PublishPost,
		service.PostServiceConfig{
			DefaultUser:   cfg.DefaultUser,
			MaxFiles:      cfg.MaxFilesPerPost,
			MaxTextLength: service.DefaultMaxTextLength,
		},
	)
	server.salesService = service.NewSalesService(server.salesRepo, cfg.SalesMockDelay)

	return server, nil
}

// NewApp builds a Fiber app with the full middleware chain and routes.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "fileshare",
		BodyLimit:    s.config.MaxUploadSizeBytes(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		ErrorHandler: s.ErrorHandler,
	})

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	// Context Middleware to propagate Request ID and Trace ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS middleware should run before middlewares that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:3000,http://127.0.0.1:3000"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowHeaders:  "Origin, Content-Type, Accept, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		ExposeHeaders: "X-Total-Count, X-Trace-ID, X-Request-ID",
		MaxAge:        86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests or static media.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions ||
				strings.HasPrefix(c.Path(), s.config.UploadURLPrefix+"/")
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	// Feed page
	app.Get("/", s.FeedPage)

	// Uploaded media
	app.Use(s.config.UploadURLPrefix, filesystem.New(filesystem.Config{
		Root:   s.media.FileSystem(),
		Browse: false,
		MaxAge: 3600,
	}))

	api := app.Group("/api")
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "fileshare Metrics Dashboard",
	}))

	// Swagger documentation
	api.Get("/swagger/*", swagger.HandlerDefault)

	posts := api.Group("/posts")
	posts.Get("/", s.GetPosts)
	posts.Post("/", middleware.RateLimit(
		s.redis, s.config.PostRateLimit, s.config.PostRateWindow, "create_post"), s.CreatePost)

	api.Get("/sales-mock", s.GetSalesMock)

	// Live feed
	api.Get("/ws/feed", s.WebSocketUpgradeRequired, s.WebSocketFeedHandler())
}

// ErrorHandler renders errors that escaped a handler.
func (s *Server) ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		if fe.Code >= fiber.StatusInternalServerError {
			observability.Logger.ErrorContext(c.UserContext(), "request error", "path", c.Path(), "error", err)
			return models.RespondWithError(c, fe.Code, models.NewInternalError(err))
		}
		return models.RespondWithError(c, fe.Code, models.NewValidationError(fe.Message))
	}

	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	observability.Logger.ErrorContext(c.UserContext(), "unhandled error", "path", c.Path(), "error", err)
	return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	storageStatus := "healthy"
	if err := s.media.Check(); err != nil {
		storageStatus = "unhealthy"
	}

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if storageStatus != "healthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"storage": storageStatus,
			"redis":   redisStatus,
		},
		"posts": s.postRepo.Count(ctx),
		"sales": s.salesRepo.Len(),
		"time":  time.Now(),
	})
}

// Start wires the live feed and serves on the configured port.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.NewApp()

	if err := s.hub.StartWiring(s.shutdownCtx); err != nil {
		log.Printf("failed to start %s wiring: %v", s.hub.Name(), err)
	}

	log.Printf("Server starting on port %s...", s.config.Port)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	// Cancel the server-scoped context to stop the feed subscriber
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	// Close WebSocket connections before the listener so clients see a going-away frame
	if err := s.hub.Shutdown(ctx); err != nil {
		log.Printf("error shutting down %s: %v", s.hub.Name(), err)
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
