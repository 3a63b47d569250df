package routes

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/junkei-okinawa/wagtail-fastapi-blog/internal/infra/config"
	"github.com/junkei-okinawa/wagtail-fastapi-blog/internal/transport/http/handlers"
	"github.com/junkei-okinawa/wagtail-fastapi-blog/internal/transport/http/middleware"
	"github.com/junkei-okinawa/wagtail-fastapi-blog/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Posts    *usecase.PostService
	Payments *usecase.PaymentService
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	RateLimiter *middleware.RateLimiter
	Metrics     *middleware.HTTPMetrics
	Services    ServiceSet
	Database    DatabaseChecker
	Cache       CacheChecker
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.CORS(deps.Config.CORS.AllowedOrigins))

	if deps.Metrics != nil {
		r.Use(deps.Metrics.Handler())
	}

	checks := make([]handlers.ReadinessCheck, 0, 2)
	if deps.Database != nil {
		checks = append(checks, handlers.ReadinessCheck{Name: "database", Check: deps.Database.Ping})
	}
	if deps.Cache != nil {
		checks = append(checks, handlers.ReadinessCheck{Name: "redis", Check: deps.Cache.HealthCheck})
	}

	healthHandler := handlers.NewHealthHandler(deps.Logger, checks...)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": deps.Config.App.Name,
			"version": "0.1.0",
			"endpoints": gin.H{
				"posts":    "/api/posts",
				"payments": "/api/payments",
			},
		})
	})

	api := r.Group("/api")
	{
		postHandler := handlers.NewPostHandler(deps.Services.Posts, deps.Logger)

		postsGroup := api.Group("/posts")
		postsGroup.GET("", postHandler.List)
		postsGroup.GET("/health", postHandler.Health)
		postsGroup.GET("/count", postHandler.Count)
		postsGroup.GET("/stats", postHandler.Stats)
		postsGroup.POST("/cache/clear", postHandler.ClearCache)
		postsGroup.GET("/:id", postHandler.Get)

		paymentHandler := handlers.NewPaymentHandler(deps.Services.Payments, deps.Logger)

		paymentsGroup := api.Group("/payments")

		checkoutHandlers := make([]gin.HandlerFunc, 0, 2)
		if deps.RateLimiter != nil {
			checkoutHandlers = append(checkoutHandlers, deps.RateLimiter.RateLimit(middleware.RateLimitRule{
				Name:       "checkout",
				Limit:      deps.Config.RateLimit.CheckoutMaxAttempts,
				Window:     deps.Config.RateLimit.WindowDuration,
				Identifier: middleware.ClientIPIdentifier(),
			}))
		}
		checkoutHandlers = append(checkoutHandlers, paymentHandler.CreateCheckoutSession)

		paymentsGroup.POST("/create-checkout-session", checkoutHandlers...)
		paymentsGroup.POST("/webhook", paymentHandler.Webhook)
	}

	return r
}
