package router

import (
	"net/http"
	"strings"

	"rvsync/backend/internal/api"
	"rvsync/backend/pkg/config"
	"rvsync/backend/pkg/di"
	"rvsync/backend/pkg/errors"
	"rvsync/backend/pkg/jwt"
	"rvsync/backend/pkg/logger"
	"rvsync/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

// Router is the main router for the application
type Router struct {
	Engine    *gin.Engine
	Container *di.Container
	Logger    *logger.Logger
	Config    *config.Config
}

// New creates a router with the global middleware chain. Call SetupRoutes
// after any extra middleware (such as OpenAPI validation) has been added.
func New(container *di.Container) *Router {
	cfg := container.Config

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.Security.TrustedProxies); err != nil {
		container.Logger.LogError(err, "Invalid trusted proxies, trusting none")
		_ = engine.SetTrustedProxies(nil)
	}

	// Use the logger middleware first to capture all requests
	engine.Use(logger.Middleware(container.Logger))
	engine.Use(errors.ErrorHandler())
	engine.Use(errors.RecoveryWithLogger())
	engine.Use(corsMiddleware(cfg.Security.AllowedOrigins))
	engine.Use(maxBodySize(cfg.Security.MaxBodySize))

	return &Router{
		Engine:    engine,
		Container: container,
		Logger:    container.Logger,
		Config:    cfg,
	}
}

// SetupRoutes registers all application routes
func (r *Router) SetupRoutes() {
	c := r.Container

	jwtAuth := middleware.JWTAuthMiddleware(c.JWTService, r.Logger)
	limit := c.RateLimiter.Middleware()
	self := middleware.RequireSelf("user_id")

	authHandler := api.NewAuthHandler(c.UserService, r.Logger)
	messageHandler := api.NewMessageHandler(c.ChatService)
	careerHandler := api.NewCareerHandler(c.CareerService, c.ChatService)

	r.setupHealthRoutes()
	if c.MetricsHandler != nil {
		r.Engine.GET("/metrics", gin.WrapH(c.MetricsHandler))
	}

	apiGroup := r.Engine.Group("/api")

	// Public routes are limited per IP
	authRoutes := apiGroup.Group("/auth")
	{
		authRoutes.POST("/signup", limit, authHandler.Signup)
		authRoutes.POST("/login", limit, authHandler.Login)
		authRoutes.GET("/me", jwtAuth, limit, authHandler.Me)
	}

	// Protected routes are limited per user
	protected := apiGroup.Group("")
	protected.Use(jwtAuth, limit)

	messages := protected.Group("/messages")
	{
		messages.POST("/send", messageHandler.Send)
		messages.GET("/inbox/:user_id", self, messageHandler.Inbox)
		messages.GET("/conversation/:user1_id/:user2_id", messageHandler.Conversation)
		messages.POST("/:id/read", messageHandler.MarkRead)
		messages.GET("/unread-count", messageHandler.UnreadCount)
		messages.GET("/ws/chat/:from_id/:to_id", c.ChatSocket.ServeChat)
	}

	users := protected.Group("/users/:user_id", self)
	{
		users.PUT("", authHandler.UpdateProfile)
		users.GET("/skills", careerHandler.ListSkills)
		users.POST("/skills", careerHandler.AddSkill)
		users.GET("/projects", careerHandler.ListProjects)
	}

	protected.POST("/sync/github/:user_id", self, careerHandler.SyncGitHub)

	opportunities := protected.Group("/opportunities")
	{
		opportunities.GET("", careerHandler.ListOpportunities)
		opportunities.POST("", middleware.RequireRole(jwt.RoleAdmin), careerHandler.CreateOpportunity)
		opportunities.GET("/match/:user_id", self, careerHandler.Match)
	}

	predictions := protected.Group("/predict-career/:user_id", self)
	{
		predictions.GET("", careerHandler.Predict)
		predictions.GET("/history", careerHandler.PredictionHistory)
	}

	protected.GET("/dashboard/metrics/:user_id", self, careerHandler.Dashboard)
}

// corsMiddleware allows WebSocket-specific headers as well as the usual ones
func corsMiddleware(allowed []string) gin.HandlerFunc {
	allowAll := len(allowed) == 0 || lo.Contains(allowed, "*")

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		switch {
		case allowAll && origin == "":
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		case allowAll || lo.Contains(allowed, origin):
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Add("Vary", "Origin")
		}

		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", strings.Join([]string{
			"Content-Type", "Content-Length", "Accept", "Accept-Encoding", "X-CSRF-Token",
			"Authorization", "Origin", "Upgrade", "Connection", "Cache-Control", "X-Request-ID",
		}, ", "))
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Upgrade, Connection, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func maxBodySize(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if n > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		}
		c.Next()
	}
}
