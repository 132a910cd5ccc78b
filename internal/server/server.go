// Package server contains HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"time"

	"peerhaven/internal/cache"
	"peerhaven/internal/config"
	"peerhaven/internal/database"
	"peerhaven/internal/middleware"
	"peerhaven/internal/repository"
	"peerhaven/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers.
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	promMiddleware *fiberprometheus.FiberPrometheus

	accountRepo     repository.AccountRepository
	postRepo        repository.PostRepository
	reportRepo      repository.ReportRepository
	applicationRepo repository.ApplicationRepository
	requestRepo     repository.HelpRequestRepository
	auditRepo       repository.AuditRepository

	moderationService  *service.ModerationService
	sanctionService    *service.SanctionService
	roleService        *service.RoleService
	helpRequestService *service.HelpRequestService
}

// NewServer creates a new server instance with all dependencies.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	redisClient := cache.GetClient()

	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	accountRepo := repository.NewAccountRepository(db)
	postRepo := repository.NewPostRepository(db)
	reportRepo := repository.NewReportRepository(db)
	applicationRepo := repository.NewApplicationRepository(db)
	requestRepo := repository.NewHelpRequestRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	prom := middleware.InitMetrics("peerhaven-api")

	server := &Server{
		config:          cfg,
		db:              db,
		redis:           redisClient,
		promMiddleware:  prom,
		accountRepo:     accountRepo,
		postRepo:        postRepo,
		reportRepo:      reportRepo,
		applicationRepo: applicationRepo,
		requestRepo:     requestRepo,
		auditRepo:       auditRepo,
	}

	server.sanctionService = service.NewSanctionService(accountRepo, requestRepo, auditRepo)
	server.moderationService = service.NewModerationService(reportRepo, postRepo, accountRepo, auditRepo)
	server.roleService = service.NewRoleService(applicationRepo, accountRepo, requestRepo, auditRepo)
	server.helpRequestService = service.NewHelpRequestService(requestRepo, accountRepo, server.sanctionService)

	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app.
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Propagate request ID and account ID into the request context
	app.Use(middleware.ContextMiddleware())

	// Prometheus metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// OpenTelemetry spans per request
	app.Use(middleware.TracingMiddleware())

	// Security headers
	app.Use(helmet.New())

	// Structured logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS must run before middlewares that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests; they are handled by CORS.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
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

// SetupRoutes configures all routes for the application.
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	auth.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)

	// Public post browsing
	publicPosts := api.Group("/posts")
	publicPosts.Get("/", s.GetPosts)
	publicPosts.Get("/:id", s.GetPost)

	// Protected routes
	protected := api.Group("", middleware.AuthRequired)

	protected.Post("/auth/refresh", s.Refresh)

	protected.Post("/posts", s.CreatePost)
	protected.Post("/posts/:id/report", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "report"), s.ReportPost)

	accounts := protected.Group("/accounts")
	accounts.Get("/me", s.GetMyAccount)
	accounts.Get("/", s.GetAccounts)

	// Moderation queue (moderator and admin; enforced in the service layer)
	moderation := protected.Group("/moderation")
	moderation.Get("/queue", s.GetModerationQueue)
	moderation.Post("/posts/:id/hide", s.HidePost)
	moderation.Post("/posts/:id/ignore", s.IgnoreReports)
	moderation.Post("/reports/:id/dismiss", s.DismissReport)
	moderation.Get("/audit/:targetType/:id", s.GetAuditTrail)

	// Sanctions
	sanctions := protected.Group("/sanctions")
	sanctions.Post("/:id/ban", s.BanAccount)
	sanctions.Post("/:id/unban", s.UnbanAccount)

	// Helper applications
	applications := protected.Group("/applications")
	applications.Post("/", s.CreateApplication)
	applications.Get("/me", s.GetMyApplications)
	applications.Get("/", s.GetPendingApplications)
	applications.Post("/:id/approve", s.ApproveApplication)
	applications.Post("/:id/reject", s.RejectApplication)
	applications.Post("/helpers/:id/revoke", s.RevokeHelper)

	// Help requests
	requests := protected.Group("/help-requests")
	requests.Post("/", s.CreateHelpRequest)
	requests.Get("/pool", s.GetHelpRequestPool)
	requests.Get("/me", s.GetMyHelpRequests)
	requests.Get("/:id", s.GetHelpRequest)
	requests.Post("/:id/assign", s.AssignHelpRequest)
	requests.Post("/:id/accept", s.AcceptHelpRequest)
	requests.Post("/:id/complete", s.CompleteHelpRequest)
	requests.Get("/:id/messages", s.GetHelpMessages)
	requests.Post("/:id/messages", s.PostHelpMessage)
}

// LivenessCheck reports process health.
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// ReadinessCheck reports dependency health.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "db": err.Error()})
	}
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "db": err.Error()})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

// Shutdown releases server resources.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			return err
		}
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
