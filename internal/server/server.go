// Package server contains the HTTP handlers and routing of the engagement API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"videotube/internal/cache"
	"videotube/internal/config"
	"videotube/internal/database"
	"videotube/internal/locks"
	"videotube/internal/middleware"
	"videotube/internal/models"
	"videotube/internal/notifications"
	"videotube/internal/observability"
	"videotube/internal/repository"
	"videotube/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"
)

var (
	promOnce       sync.Once
	promMiddleware *fiberprometheus.FiberPrometheus
)

// httpMetrics registers the HTTP collectors once per process.
func httpMetrics() *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		promMiddleware = fiberprometheus.New("videotube-api")
	})
	return promMiddleware
}

// Server holds all dependencies and provides handlers
type Server struct {
	config      *config.Config
	db          *gorm.DB
	cache       *cache.Cache
	app         *fiber.App
	notifier    *notifications.Notifier
	shutdownFn  context.CancelFunc
	engagement  *service.EngagementService
	projections *service.ProjectionService
	history     *service.HistoryService
	channels    *service.ChannelService
	content     *service.ContentService
}

// NewServer connects the database and Redis described by cfg and builds a
// server on top of them.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	c, err := cache.Connect(ctx, cfg.RedisURL)
	if err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	lockTTL := time.Duration(cfg.ToggleLockTTLMS) * time.Millisecond
	return NewServerWithDeps(cfg, db, c, locks.New(c.Client(), lockTTL, lockTTL))
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// c may be nil, which disables caching, events and rate limiting.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, c *cache.Cache, locker locks.Locker) (*Server, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle is required")
	}
	if locker == nil {
		locker = locks.New(nil, 0, time.Duration(cfg.ToggleLockTTLMS)*time.Millisecond)
	}

	cacheTTL := time.Duration(cfg.ContentCacheTTLSeconds) * time.Second
	userRepo := repository.NewUserRepository(db, c, cacheTTL)
	contentRepo := repository.NewContentRepository(db, c, cacheTTL)
	subRepo := repository.NewSubscriptionRepository(db)
	projectionRepo := repository.NewProjectionRepository(db)

	s := &Server{
		config: cfg,
		db:     db,
		cache:  c,
	}

	var events service.EventPublisher
	if c.Enabled() {
		s.notifier = notifications.NewNotifier(c.Client())
		events = s.notifier
	}

	s.history = service.NewHistoryService(repository.NewHistoryRepository(db), contentRepo, nil)
	s.engagement = service.NewEngagementService(
		contentRepo,
		userRepo,
		repository.NewReactionRepository(db),
		subRepo,
		locker,
		events,
		service.EngagementConfig{
			MaxRetries: cfg.ToggleMaxRetries,
			Backoff:    time.Duration(cfg.ToggleBackoffMS) * time.Millisecond,
		},
	)
	s.projections = service.NewProjectionService(projectionRepo, contentRepo, s.history)
	s.channels = service.NewChannelService(userRepo, repository.NewStatsRepository(db), subRepo, projectionRepo)
	s.content = service.NewContentService(contentRepo, userRepo, events)

	s.app = s.newApp()
	return s, nil
}

// App exposes the fiber application, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) newApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "videotube engagement API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return models.RespondWithError(c, fe.Code, fe)
			}
			observability.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.TracingMiddleware())
	app.Use(httpMetrics().Middleware)
	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400,
	}))
}

// toggleLimiter throttles edge writes. It is off outside production-like
// environments and without Redis.
func (s *Server) toggleLimiter() fiber.Handler {
	switch s.config.Env {
	case "development", "test":
		return middleware.RateLimit(nil, 0, time.Minute, "toggle")
	}
	return middleware.RateLimit(s.cache.Client(), s.config.RateLimitTogglesPerMinute, time.Minute, "toggle")
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health", s.HealthCheck)
	httpMetrics().RegisterAt(app, "/metrics")

	auth := middleware.AuthRequired(s.config.JWTSecret)
	limit := s.toggleLimiter()
	api := app.Group("/api", middleware.OptionalAuth(s.config.JWTSecret))

	videos := api.Group("/videos")
	videos.Get("/", s.ListFeed)
	videos.Get("/:id/comments", s.listComments(models.KindVideo))
	videos.Get("/:id", s.GetVideo)
	videos.Delete("/:id", auth, s.deleteContent(models.KindVideo))

	comments := api.Group("/comments")
	comments.Get("/:id", s.GetComment)
	comments.Delete("/:id", auth, s.deleteContent(models.KindComment))

	tweets := api.Group("/tweets")
	tweets.Get("/:id/comments", s.listComments(models.KindTweet))
	tweets.Get("/:id", s.GetTweet)
	tweets.Delete("/:id", auth, s.deleteContent(models.KindTweet))

	for _, kind := range []models.ContentKind{models.KindVideo, models.KindComment, models.KindTweet} {
		group := api.Group("/" + string(kind) + "s")
		group.Post("/:id/like", auth, limit, s.toggleReaction(kind, models.ReactionLike))
		group.Post("/:id/dislike", auth, limit, s.toggleReaction(kind, models.ReactionDislike))
	}

	channels := api.Group("/channels")
	channels.Get("/by-username/:username", s.GetChannelByUsername)
	channels.Post("/:id/subscribe", auth, limit, s.ToggleSubscription)
	channels.Get("/:id/stats", s.GetChannelStats)
	channels.Get("/:id/videos", s.ListChannelVideos)
	channels.Get("/:id/tweets", s.ListChannelTweets)
	channels.Get("/:id/subscribers", s.ListSubscribers)
	channels.Get("/:id", s.GetChannel)

	api.Get("/users/:id/subscriptions", s.ListSubscribedChannels)

	history := api.Group("/history", auth)
	history.Get("/", s.ListHistory)
	history.Delete("/", s.ClearHistory)
	history.Post("/:videoId", s.RecordWatch)
	history.Delete("/:videoId", s.RemoveFromHistory)

	me := api.Group("/me", auth)
	me.Get("/liked", s.listReactedVideos(models.ReactionLike))
	me.Get("/disliked", s.listReactedVideos(models.ReactionDislike))
}

// HealthCheck reports database and Redis reachability.
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "disabled"
	if s.cache.Enabled() {
		redisStatus = "healthy"
		if err := s.cache.Client().Ping(ctx).Err(); err != nil {
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
		"time": time.Now().UTC(),
	})
}

// Start wires the event subscriber and listens until Shutdown.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownFn = cancel

	if s.notifier != nil {
		err := s.notifier.StartSubscriber(ctx, func(channel string, ev notifications.Event) {
			observability.Logger.Debug("engagement event",
				slog.String("channel", channel),
				slog.String("type", ev.Type),
				slog.String("actor_id", ev.ActorID))
		})
		if err != nil {
			observability.Logger.Warn("engagement subscriber not started", slog.String("error", err.Error()))
		}
	}

	observability.Logger.Info("server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if err := s.app.ShutdownWithContext(ctx); err != nil {
		observability.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
	}
	if err := database.Close(s.db); err != nil {
		observability.Logger.Error("error closing database", slog.String("error", err.Error()))
	}
	if err := s.cache.Close(); err != nil {
		observability.Logger.Error("error closing redis", slog.String("error", err.Error()))
	}

	observability.Logger.Info("server shutdown complete")
	return nil
}
