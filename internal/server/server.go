// Package server contains the HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "grapes/docs" // swagger docs
	"grapes/internal/auth"
	"grapes/internal/cache"
	"grapes/internal/config"
	"grapes/internal/database"
	"grapes/internal/middleware"
	"grapes/internal/models"
	"grapes/internal/repository"
	"grapes/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	tokens         *auth.TokenService
	userRepo       repository.UserRepository
	playerRepo     repository.PlayerRepository
	friendRepo     repository.FriendRepository
	battleRepo     repository.BattleRepository
	authService    *service.AuthService
	playerService  *service.PlayerService
	friendService  *service.FriendService
	battleService  *service.BattleService
}

// NewServer connects to the database and Redis and wires all dependencies.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)

	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis and
// performs the schema and seeding steps itself. redisClient may be nil.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if cfg == nil || db == nil {
		return nil, errors.New("server requires a config and a database")
	}

	tokens := auth.NewTokenService(cfg, redisClient)

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("grapes-api"),
		tokens:         tokens,
		userRepo:       repository.NewUserRepository(db),
		playerRepo:     repository.NewPlayerRepository(db),
		friendRepo:     repository.NewFriendRepository(db),
		battleRepo:     repository.NewBattleRepository(db),
	}

	s.authService = service.NewAuthService(db, s.userRepo, s.playerRepo, tokens)
	s.playerService = service.NewPlayerService(s.playerRepo)
	s.friendService = service.NewFriendService(s.friendRepo, s.playerRepo)
	s.battleService = service.NewBattleService(s.battleRepo, s.playerRepo)

	return s, nil
}

// NewApp builds a Fiber app with the server's middleware and routes.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Grapes API",
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// errorHandler renders errors that escaped a handler, including Fiber's own
// routing errors, in the API error envelope.
func errorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(models.ErrorResponse{Error: fiberErr.Message})
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return respondAppError(c, appErr)
	}

	middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
	return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())

	app.Use(requestid.New())

	// Tracing before the context middleware so the trace ID reaches the logger.
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(compress.New())

	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || s.config.Env == "test"
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	if !s.config.IsProduction() {
		app.Get("/swagger/*", swagger.HandlerDefault)
	}

	api := app.Group("/api")

	authWindow := time.Duration(s.config.RateLimitAuthWindowSeconds) * time.Second
	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", middleware.RateLimit(
		s.redis, s.config.RateLimitAuthMax, authWindow, "register"), s.Register)
	authRoutes.Post("/login", middleware.RateLimit(
		s.redis, s.config.RateLimitAuthMax, authWindow, "login"), s.Login)
	authRoutes.Post("/logout", s.AuthRequired(), s.Logout)

	protected := api.Group("", s.AuthRequired())

	players := protected.Group("/players")
	players.Get("/me", s.GetMyPlayer)
	players.Get("/by-nickname/:nickname", s.GetPlayerByNickname)
	players.Post("/", s.CreatePlayer)
	players.Post("/:id/xp", s.AddExperience)
	players.Get("/:id", s.GetPlayer)

	friends := protected.Group("/friends")
	friends.Get("/", s.GetFriends)
	friends.Get("/requests", s.GetPendingRequests)
	friends.Get("/sent", s.GetSentRequests)
	friends.Get("/status/:nickname", s.GetFriendshipStatus)
	friends.Post("/request/:nickname", middleware.RateLimit(
		s.redis, 5, 5*time.Minute, "friend_request"), s.SendFriendRequest)
	friends.Post("/:id/accept", s.AcceptFriendRequest)
	friends.Post("/:id/reject", s.RejectFriendRequest)
	// Generic /:id route must be last
	friends.Delete("/:id", s.RemoveFriend)

	battles := protected.Group("/battles")
	battles.Get("/", s.GetBattles)
	battles.Get("/pending", s.GetPendingBattles)
	battles.Get("/summary", s.GetBattleSummary)
	battles.Post("/", s.CreateBattle)
	battles.Post("/:id/pay", s.PayBattle)
	battles.Delete("/:id", s.DeleteBattle)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports healthy only when the database answers. Redis is
// optional: the API degrades without it, so a missing client is reported but
// does not fail the probe.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// AuthRequired verifies the bearer token, resolves the caller's player and
// stores userID, playerID and identity in locals. Every failure is a bare 401.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()

		token, ok := middleware.BearerToken(c)
		if !ok {
			return unauthorized(c)
		}

		claims, err := s.tokens.Verify(ctx, token)
		if err != nil {
			return unauthorized(c)
		}

		player, err := s.playerRepo.FindByUserEmail(ctx, claims.Subject)
		if err != nil {
			middleware.Logger.WarnContext(ctx, "identity lookup failed", slog.String("error", err.Error()))
			return unauthorized(c)
		}
		if player == nil || player.UserID == nil {
			return unauthorized(c)
		}

		identity := auth.Identity{
			UserID:   *player.UserID,
			PlayerID: player.ID,
			Email:    claims.Subject,
		}
		c.Locals("userID", identity.UserID)
		c.Locals("playerID", identity.PlayerID)
		c.Locals("identity", identity)

		ctx = context.WithValue(ctx, middleware.UserIDKey, identity.UserID)
		ctx = context.WithValue(ctx, middleware.PlayerIDKey, identity.PlayerID)
		c.SetUserContext(ctx)

		return c.Next()
	}
}

func unauthorized(c *fiber.Ctx) error {
	return models.RespondWithError(c, fiber.StatusUnauthorized, models.NewUnauthorizedError("Unauthorized"))
}

// Start builds the app and listens on the configured port.
func (s *Server) Start() error {
	s.app = s.NewApp()

	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
