package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/junkei-okinawa/wagtail-fastapi-blog/internal/cache"
	"github.com/junkei-okinawa/wagtail-fastapi-blog/internal/core/port"
	"github.com/junkei-okinawa/wagtail-fastapi-blog/internal/infra/config"
	"github.com/junkei-okinawa/wagtail-fastapi-blog/internal/infra/database"
	kafkainfra "github.com/junkei-okinawa/wagtail-fastapi-blog/internal/infra/kafka"
	"github.com/junkei-okinawa/wagtail-fastapi-blog/internal/infra/logger"
	redisinfra "github.com/junkei-okinawa/wagtail-fastapi-blog/internal/infra/redis"
	stripeinfra "github.com/junkei-okinawa/wagtail-fastapi-blog/internal/infra/stripe"
	"github.com/junkei-okinawa/wagtail-fastapi-blog/internal/infra/telemetry"
	"github.com/junkei-okinawa/wagtail-fastapi-blog/internal/repository/memory"
	postgresrepo "github.com/junkei-okinawa/wagtail-fastapi-blog/internal/repository/postgres"
	redisrepo "github.com/junkei-okinawa/wagtail-fastapi-blog/internal/repository/redis"
	"github.com/junkei-okinawa/wagtail-fastapi-blog/internal/transport/http/middleware"
	"github.com/junkei-okinawa/wagtail-fastapi-blog/internal/transport/http/routes"
	"github.com/junkei-okinawa/wagtail-fastapi-blog/internal/usecase"
)

// Application owns the composed service graph and its lifecycle.
type Application struct {
	cfg    *config.AppConfig
	engine *gin.Engine
	logger *zap.Logger
	pool   *pgxpool.Pool
	redis  *redisinfra.Client
	kafka  *kafkainfra.Producer
	tracer *telemetry.TracerProvider
}

// New composes the application from configuration.
func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	var tracer *telemetry.TracerProvider
	if cfg.Telemetry.OTLPEndpoint != "" {
		tracer, err = telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
		if err != nil {
			return nil, fmt.Errorf("init tracing: %w", err)
		}
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	pages, err := cache.NewPageCache(cfg.Cache.MaxEntries)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init page cache: %w", err)
	}

	// The rate-limit store is shared across replicas when Redis is
	// configured, otherwise counting stays in process.
	var redisClient *redisinfra.Client
	var rateLimitStore middleware.RateLimitStore
	var cacheChecker routes.CacheChecker

	if cfg.Redis.Host != "" {
		redisClient, err = redisinfra.NewClient(cfg.Redis, log)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("init redis: %w", err)
		}

		rateLimitWindow := cfg.RateLimit.WindowDuration
		if rateLimitWindow <= 0 {
			rateLimitWindow = time.Minute
		}
		rateLimitStore = redisrepo.NewRateLimitRepository(redisClient.Client(), redisrepo.SlidingWindowConfig{
			KeyPrefix: cfg.Redis.RateLimitPrefix,
			TTL:       rateLimitWindow * 2,
		})
		cacheChecker = redisClient
	} else {
		log.Info("redis not configured, using in-process rate limit store")
		rateLimitStore = memory.NewSlidingWindowStore()
	}

	rateLimiter := middleware.NewRateLimiter(rateLimitStore, log)

	var eventPublisher port.EventPublisher
	var kafkaProducer *kafkainfra.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaProducer, err = kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			eventPublisher = kafkainfra.NewStubPublisher(log)
		} else {
			eventPublisher = kafkainfra.NewEventPublisher(kafkaProducer, cfg.App, log)
			log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		eventPublisher = kafkainfra.NewStubPublisher(log)
	}

	gateway := stripeinfra.NewGateway(cfg.Payments, log)

	paymentPolicy := usecase.PaymentPolicy{
		MaxAmount:            cfg.Payments.MaxAmount,
		Currency:             cfg.Payments.Currency,
		AllowedRedirectHosts: cfg.Payments.AllowedRedirectHosts,
		SessionExpiry:        cfg.Payments.SessionExpiry,
	}

	postService := usecase.NewPostService(postgresrepo.NewPostRepository(pool), pages, log)
	paymentService := usecase.NewPaymentService(gateway, eventPublisher, paymentPolicy, log)

	metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init http metrics: %w", err)
	}

	engine := routes.Register(routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		RateLimiter: rateLimiter,
		Metrics:     metrics,
		Database:    pool,
		Cache:       cacheChecker,
		Services: routes.ServiceSet{
			Posts:    postService,
			Payments: paymentService,
		},
	})

	return &Application{
		cfg:    cfg,
		engine: engine,
		logger: log,
		pool:   pool,
		redis:  redisClient,
		kafka:  kafkaProducer,
		tracer: tracer,
	}, nil
}

// Run serves HTTP until the context is cancelled, then shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if a.pool != nil {
			a.pool.Close()
		}
	}()
	defer func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
	}()
	defer func() {
		if a.kafka != nil {
			_ = a.kafka.Close()
		}
	}()
	defer func() {
		if a.tracer != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = a.tracer.Shutdown(shutdownCtx)
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting blog API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}
