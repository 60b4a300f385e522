package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"catalog/internal/cache"
	"catalog/internal/config"
	"catalog/internal/handlers"
	"catalog/internal/middleware"
	"catalog/internal/models"
	"catalog/internal/repositories"
	"catalog/internal/services"
	"catalog/pkg/rabbitmq"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// application owns every long-lived dependency of the service.
type application struct {
	cfg      *config.Config
	logger   *zap.Logger
	db       *gorm.DB // nil with DB_DRIVER=memory
	cache    cache.Cache
	mq       *rabbitmq.Client // nil when RABBITMQ_URL is empty
	registry *prometheus.Registry
	products *services.ProductService
	orders   *services.OrderService
}

func newApplication(cfg *config.Config, logger *zap.Logger) (*application, error) {
	app := &application{
		cfg:      cfg,
		logger:   logger,
		registry: prometheus.NewRegistry(),
	}
	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	repo, err := app.openStore()
	if err != nil {
		return nil, err
	}

	app.cache, err = app.openCache()
	if err != nil {
		app.Close()
		return nil, err
	}

	var events services.EventPublisher
	if cfg.RabbitMQURL != "" {
		app.mq, err = rabbitmq.NewClient(rabbitmq.Config{
			URL:            cfg.RabbitMQURL,
			Exchange:       cfg.EventsExchange,
			OrdersExchange: cfg.OrdersExchange,
			OrdersQueue:    cfg.OrdersQueue,
		}, logger.Named("rabbitmq"))
		if err != nil {
			app.Close()
			return nil, err
		}
		events = app.mq
	} else {
		logger.Info("RABBITMQ_URL is empty, product events disabled")
	}

	app.products = services.NewProductService(
		repo,
		app.cache,
		services.NewQueryPlanner(cfg.ListDefaultLimit, cfg.ListMaxLimit),
		events,
		logger.Named("products"),
		services.ProductServiceConfig{
			CacheTTL:             cfg.CacheTTL,
			TrendingWindow:       cfg.TrendingWindow,
			SuggestionPriceRange: cfg.SuggestionPriceRange,
			SuggestionLimit:      cfg.SuggestionLimit,
		},
	)
	app.orders = services.NewOrderService(app.products, logger.Named("orders"))
	return app, nil
}

func (a *application) openStore() (repositories.ProductRepository, error) {
	var dialector gorm.Dialector
	switch a.cfg.DBDriver {
	case "memory":
		a.logger.Warn("using the in-memory product store, data is lost on exit")
		return repositories.NewMockProductRepository(), nil
	case "postgres":
		dialector = postgres.Open(a.cfg.DatabaseDSN)
	default:
		dialector = sqlite.Open(a.cfg.DatabaseDSN)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", a.cfg.DBDriver, err)
	}
	if err := db.AutoMigrate(&models.Product{}); err != nil {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			sqlDB.Close()
		}
		return nil, fmt.Errorf("failed to auto-migrate database: %w", err)
	}
	a.db = db
	return repositories.NewGORMProductRepository(db), nil
}

func (a *application) openCache() (cache.Cache, error) {
	if a.cfg.RedisURL == "" {
		a.logger.Info("REDIS_URL is empty, caching disabled")
		return cache.NopCache{}, nil
	}

	redisCache, err := cache.NewRedisCache(cache.RedisConfig{
		URL:       a.cfg.RedisURL,
		KeyPrefix: a.cfg.CacheKeyPrefix,
	})
	if err != nil {
		return nil, err
	}

	breakerCfg := cache.DefaultBreakerConfig()
	breakerCfg.Name = "redis"
	breakerCfg.Timeout = a.cfg.CacheTimeout
	breakerCfg.FailureThreshold = a.cfg.BreakerFailureRatio
	breakerCfg.MinRequests = a.cfg.BreakerMinRequests
	breakerCfg.OpenTimeout = a.cfg.BreakerOpenTimeout

	c := cache.NewInstrumentedCache(
		cache.NewBreakerCache(redisCache, breakerCfg, a.logger.Named("cache")),
		a.registry,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.Ping(ctx); err != nil {
		a.logger.Warn("redis unreachable at startup, serving from the store", zap.Error(err))
	}
	return c, nil
}

// httpApp builds the Fiber app with every route registered.
func (a *application) httpApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "catalog",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	})
	app.Use(recover.New())
	app.Use(middleware.RequestLogger(a.logger.Named("http")))

	apiV1 := app.Group("/api/v1")
	handlers.NewProductHandler(a.products, a.logger.Named("http")).RegisterRoutes(apiV1)
	handlers.NewOrderHandler(a.orders, a.logger.Named("http")).RegisterRoutes(apiV1)

	handlers.NewHealthHandler(a.requiredChecks(), map[string]handlers.Check{
		"cache": a.cache.Ping,
	}).RegisterRoutes(app)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))
	return app
}

func (a *application) requiredChecks() map[string]handlers.Check {
	if a.db == nil {
		return nil
	}
	return map[string]handlers.Check{
		"database": func(ctx context.Context) error {
			sqlDB, err := a.db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
}

// Close releases every dependency, in reverse order of opening.
func (a *application) Close() error {
	var errs []error
	if a.mq != nil {
		errs = append(errs, a.mq.Close())
	}
	if a.cache != nil {
		errs = append(errs, a.cache.Close())
	}
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	return errors.Join(errs...)
}
