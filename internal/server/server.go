// Package server contains the HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "vidtube/docs" // swagger docs
	"vidtube/internal/auth"
	"vidtube/internal/bootstrap"
	"vidtube/internal/cache"
	"vidtube/internal/config"
	"vidtube/internal/featureflags"
	"vidtube/internal/media"
	"vidtube/internal/middleware"
	"vidtube/internal/models"
	"vidtube/internal/notifications"
	"vidtube/internal/repository"
	"vidtube/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
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
	featureFlags   *featureflags.Manager
	tokens         *auth.TokenService
	guard          *middleware.Guard
	notifier       *notifications.Notifier
	wsTickets      *cache.WSTickets

	sessionService      *service.SessionService
	profileService      *service.ProfileService
	videoService        *service.VideoService
	commentService      *service.CommentService
	tweetService        *service.TweetService
	likeService         *service.LikeService
	subscriptionService *service.SubscriptionService
	dashboardService    *service.DashboardService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, redisClient, err := bootstrap.InitRuntime(context.Background(), cfg, bootstrap.Options{SeedPreset: cfg.SeedPreset})
	if err != nil {
		return nil, err
	}

	return NewServerWithDeps(cfg, db, redisClient, nil)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// A nil uploader is built from cfg. Use this in tests or when a bootstrap
// layer establishes DB and Redis itself.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, uploader media.Uploader) (*Server, error) {
	if redisClient != nil {
		cache.SetClient(redisClient)
	}

	if uploader == nil {
		var err error
		uploader, err = media.NewUploader(context.Background(), cfg)
		if err != nil {
			return nil, fmt.Errorf("media uploader: %w", err)
		}
	}
	publisher := media.NewPublisher(uploader, cfg.UploadTimeout)

	userRepo := repository.NewUserRepository(db)
	videoRepo := repository.NewVideoRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	tweetRepo := repository.NewTweetRepository(db)
	likeRepo := repository.NewLikeRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)
	dashRepo := repository.NewDashboardRepository(db)

	tokens := auth.NewTokenService(auth.TokenConfig{
		AccessSecret:  cfg.AccessTokenSecret,
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshSecret: cfg.RefreshTokenSecret,
		RefreshTTL:    cfg.RefreshTokenTTL,
	})
	blacklist := cache.NewTokenBlacklist()
	flags := featureflags.NewManagerWithDefaults(cfg.FeatureFlags)
	creds := service.NewCredentialStore(userRepo, auth.NewPasswordHasher(cfg.BcryptCost))
	profiles := service.NewProfileService(userRepo, publisher, flags)
	notifier := notifications.NewNotifier(redisClient)

	s := &Server{
		config:              cfg,
		db:                  db,
		redis:               redisClient,
		promMiddleware:      middleware.InitMetrics("vidtube-api"),
		featureFlags:        flags,
		tokens:              tokens,
		guard:               middleware.NewGuard(tokens, userRepo, blacklist),
		notifier:            notifier,
		wsTickets:           cache.NewWSTickets(),
		sessionService:      service.NewSessionService(creds, userRepo, tokens, publisher, blacklist),
		profileService:      profiles,
		videoService:        service.NewVideoService(videoRepo, publisher, profiles, flags).WithNotifier(notifier),
		commentService:      service.NewCommentService(commentRepo, videoRepo).WithNotifier(notifier),
		tweetService:        service.NewTweetService(tweetRepo, userRepo),
		likeService:         service.NewLikeService(likeRepo, videoRepo, commentRepo, tweetRepo).WithNotifier(notifier),
		subscriptionService: service.NewSubscriptionService(subRepo, userRepo).WithNotifier(notifier),
		dashboardService:    service.NewDashboardService(dashRepo, videoRepo),
	}
	return s, nil
}

// NewApp builds the Fiber application with middleware and routes attached.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "VidTube API",
		BodyLimit:    s.config.MaxUploadSizeMB * 1024 * 1024,
		ErrorHandler: s.handleError,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// handleError is the single place errors become HTTP responses.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	var fe *fiber.Error
	if appErr, ok := models.AsAppError(err); ok {
		status = appErr.Status
	} else if errors.As(err, &fe) {
		status = fe.Code
	}
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
	}
	return models.RespondWithError(c, err)
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}
	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))
	app.Use(middleware.StructuredLogger())

	// CORS sits in front of the limiter so 429s are still readable by the browser.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// 100 requests per minute per client IP; preflights are free.
	app.Use(limiter.New(limiter.Config{
		Max:          100,
		Expiration:   time.Minute,
		Next:         func(c *fiber.Ctx) bool { return c.Method() == fiber.MethodOptions },
		KeyGenerator: func(c *fiber.Ctx) string { return c.IP() },
		LimitReached: func(c *fiber.Ctx) error {
			return models.RespondWithError(c, models.NewRateLimitedError())
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	authRequired := s.guard.AuthRequired()
	optionalAuth := s.guard.OptionalAuth()

	app.Get("/healthcheck", s.HealthCheck)
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	if s.config.MediaDriver == "" || s.config.MediaDriver == "local" {
		app.Static("/media", s.config.MediaLocalDir, fiber.Static{MaxAge: 3600})
	}

	api := app.Group("/api/v1")
	api.Get("/healthcheck", s.HealthCheck)
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "VidTube Backend Metrics Dashboard",
	}))
	api.Get("/docs/*", swagger.HandlerDefault)

	users := api.Group("/users")
	users.Post("/register", middleware.RateLimit(s.redis, middleware.Limit{Name: "register", Max: 5, Window: 10 * time.Minute}), s.Register)
	users.Post("/login", middleware.RateLimit(s.redis, middleware.Limit{Name: "login", Max: 10, Window: 5 * time.Minute}), s.Login)
	users.Post("/refresh-token", middleware.RateLimit(s.redis, middleware.Limit{Name: "refresh", Max: 30, Window: time.Minute}), s.RefreshToken)
	users.Post("/logout", authRequired, s.Logout)
	users.Post("/change-password", authRequired, s.ChangePassword)
	users.Patch("/change-password", authRequired, s.ChangePassword)
	users.Get("/current-user", authRequired, s.GetCurrentUser)
	users.Patch("/update-account", authRequired, s.UpdateAccount)
	users.Patch("/avatar", authRequired, s.UpdateAvatar)
	users.Patch("/cover-image", authRequired, s.UpdateCoverImage)
	users.Get("/c/:username", authRequired, s.GetChannelProfile)
	users.Get("/history", authRequired, s.GetWatchHistory)
	users.Get("/feature-flags", authRequired, s.GetFeatureFlags)

	videos := api.Group("/videos")
	videos.Get("/", optionalAuth, s.ListVideos)
	videos.Post("/", authRequired, middleware.RateLimit(s.redis, middleware.Limit{Name: "upload", Max: 20, Window: time.Hour}), s.PublishVideo)
	videos.Patch("/toggle/publish/:videoId", authRequired, s.TogglePublishStatus)
	videos.Get("/:videoId", optionalAuth, s.GetVideo)
	videos.Patch("/:videoId", authRequired, s.UpdateVideo)
	videos.Delete("/:videoId", authRequired, s.DeleteVideo)

	comments := api.Group("/comments")
	comments.Get("/:videoId", optionalAuth, s.ListComments)
	comments.Post("/:videoId", authRequired, s.AddComment)
	comments.Patch("/c/:commentId", authRequired, s.UpdateComment)
	comments.Delete("/c/:commentId", authRequired, s.DeleteComment)

	tweets := api.Group("/tweets", authRequired)
	tweets.Post("/", s.CreateTweet)
	tweets.Get("/user/:userId", s.ListUserTweets)
	tweets.Patch("/:tweetId", s.UpdateTweet)
	tweets.Delete("/:tweetId", s.DeleteTweet)

	likes := api.Group("/likes", authRequired)
	likes.Post("/toggle/v/:videoId", s.ToggleVideoLike)
	likes.Post("/toggle/c/:commentId", s.ToggleCommentLike)
	likes.Post("/toggle/t/:tweetId", s.ToggleTweetLike)
	likes.Get("/videos", s.GetLikedVideos)

	subscriptions := api.Group("/subscriptions", authRequired)
	subscriptions.Post("/c/:channelId", s.ToggleSubscription)
	subscriptions.Get("/c/:channelId", s.ListSubscribers)
	subscriptions.Get("/u/:subscriberId", s.ListSubscribedChannels)

	dashboard := api.Group("/dashboard", authRequired)
	dashboard.Get("/stats", s.GetChannelStats)
	dashboard.Get("/videos", s.GetChannelVideos)

	notify := api.Group("/notifications")
	notify.Post("/ticket", authRequired, middleware.RateLimit(s.redis, middleware.Limit{Name: "ws_ticket", Max: 30, Window: time.Minute}), s.IssueNotificationTicket)
	notify.Get("/ws", s.requireWSTicket(), s.NotificationSocket())
}

// Start starts the server
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
