package di

import (
	"context"
	"net/http"
	"time"

	"rvsync/backend/internal/presence"
	"rvsync/backend/internal/repository"
	"rvsync/backend/internal/service"
	"rvsync/backend/internal/ws"
	"rvsync/backend/pkg/config"
	"rvsync/backend/pkg/health"
	"rvsync/backend/pkg/jwt"
	"rvsync/backend/pkg/logger"
	"rvsync/backend/pkg/middleware"
	"rvsync/backend/shared/github"
	"rvsync/backend/shared/observability"
	"rvsync/backend/shared/redis"

	"go.opentelemetry.io/otel/metric"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// Container holds all the dependencies for the application
type Container struct {
	Config         *config.Config
	DB             *gorm.DB
	Logger         *logger.Logger
	JWTService     *jwt.Service
	Redis          *redis.RedisClient
	Metrics        *observability.Metrics
	MetricsHandler http.Handler
	Directory      *presence.Directory
	UserService    *service.UserService
	ChatService    *service.ChatService
	CareerService  *service.CareerService
	ChatSocket     *ws.Handler
	Health         *health.Checker
	RateLimiter    *middleware.RateLimiter
}

// Options carries what main resolves before the container is built
type Options struct {
	// JWTSecret overrides cfg.JWT.Secret, e.g. with a value read from Vault
	JWTSecret string
	// MeterProvider enables metrics when set
	MeterProvider metric.MeterProvider
	// MetricsHandler is mounted on /metrics when set
	MetricsHandler http.Handler
}

// New creates a new dependency injection container
func New(cfg *config.Config, db *gorm.DB, log *logger.Logger, opts Options) (*Container, error) {
	secret := opts.JWTSecret
	if secret == "" {
		secret = cfg.JWT.Secret
	}
	jwtService := jwt.NewService(secret, cfg.JWT.ExpiryHours)

	var metrics *observability.Metrics
	if opts.MeterProvider != nil {
		m, err := observability.NewMetrics(opts.MeterProvider)
		if err != nil {
			return nil, err
		}
		metrics = m
	}

	// redis is optional: without it display names come straight from the database
	var (
		redisClient *redis.RedisClient
		names       service.NameCache
	)
	if cfg.Redis.Enabled {
		client, err := redis.NewRedisClient(cfg.Redis.URL, log)
		if err != nil {
			log.LogError(err, "Redis disabled", "url", cfg.Redis.URL)
		} else {
			redisClient = client
			names = redis.NewUserNames(client, cfg.Redis.UserTTL)
		}
	}

	userService := service.NewUserService(repository.NewGormUserRepository(db), jwtService, names, log)

	directory := presence.NewDirectory(log, metrics)
	chatService := service.NewChatService(
		repository.NewGormMessageRepository(db),
		userService,
		directory,
		log,
		service.ChatOptions{PreviewLength: cfg.Chat.PreviewLength, Metrics: metrics},
	)

	githubClient := github.NewClient(github.Options{
		BaseURL: cfg.GitHub.APIURL,
		Token:   cfg.GitHub.Token,
		Timeout: cfg.GitHub.Timeout,
	}, log)

	careerService := service.NewCareerService(
		repository.NewGormSkillRepository(db),
		repository.NewGormProjectRepository(db),
		repository.NewGormOpportunityRepository(db),
		repository.NewGormPredictionRepository(db),
		userService,
		log,
		service.CareerOptions{
			MaxResults:      cfg.Matching.MaxResults,
			HiddenGemSalary: cfg.Matching.HiddenGemSalary,
			CatalogTTL:      cfg.Matching.CatalogTTL,
			Metrics:         metrics,
			GitHub:          githubClient,
		},
	)

	chatSocket := ws.NewHandler(directory, chatService, userService, log, ws.Options{
		SendBuffer:     cfg.Chat.SendBuffer,
		WriteWait:      cfg.Chat.WriteWait,
		PongWait:       cfg.Chat.PongWait,
		MaxMessageSize: cfg.Chat.MaxMessageSize,
		AllowedOrigins: cfg.Security.AllowedOrigins,
	})

	checker := health.NewChecker(log, 30*time.Second)
	checker.RegisterDatabaseCheck(func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})
	if redisClient != nil {
		checker.RegisterDependencyCheck("redis", redisClient.Breaker(), redisClient.Ping)
	}
	// github is only touched on sync, so its check reports the breaker without calling out
	checker.RegisterDependencyCheck("github", githubClient.Breaker(), nil)

	limiter := middleware.NewRateLimiter(log, middleware.RateLimiterOptions{
		Limit:          rate.Limit(cfg.Security.RateLimit),
		Burst:          cfg.Security.RateLimitBurst,
		ExpiryDuration: time.Hour,
		KeyFunc:        middleware.ClientKey,
	})

	return &Container{
		Config:         cfg,
		DB:             db,
		Logger:         log,
		JWTService:     jwtService,
		Redis:          redisClient,
		Metrics:        metrics,
		MetricsHandler: opts.MetricsHandler,
		Directory:      directory,
		UserService:    userService,
		ChatService:    chatService,
		CareerService:  careerService,
		ChatSocket:     chatSocket,
		Health:         checker,
		RateLimiter:    limiter,
	}, nil
}

// Start launches the background loops owned by the container until ctx is done
func (c *Container) Start(ctx context.Context) {
	c.Health.Start(ctx)
	go c.RateLimiter.Run(ctx)
}

// Close disconnects every chat socket and releases external clients
func (c *Container) Close() error {
	c.Directory.Close()
	if c.Redis != nil {
		return c.Redis.Close()
	}
	return nil
}
