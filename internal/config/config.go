// Package config loads service settings from the environment, with an
// optional config file named by CONFIG_FILE.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds every setting the service reads at startup.
type Config struct {
	AppPort         string
	ShutdownTimeout time.Duration

	DBDriver    string // postgres, sqlite or memory
	DatabaseDSN string

	RedisURL       string // empty disables the cache
	CacheKeyPrefix string
	CacheTTL       time.Duration
	CacheTimeout   time.Duration

	BreakerFailureRatio float64
	BreakerMinRequests  uint32
	BreakerOpenTimeout  time.Duration

	ListDefaultLimit     int
	ListMaxLimit         int
	TrendingWindow       int
	SuggestionPriceRange float64
	SuggestionLimit      int

	RabbitMQURL    string // empty disables events
	EventsExchange string
	OrdersExchange string
	OrdersQueue    string

	LogLevel  string
	LogFormat string
}

// SetDefaults registers the default for every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("SHUTDOWN_TIMEOUT", 10*time.Second)
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DATABASE_DSN", "file:catalog.db?cache=shared")
	v.SetDefault("REDIS_URL", "redis://redis:6379/0")
	v.SetDefault("CACHE_KEY_PREFIX", "")
	v.SetDefault("CACHE_TTL", 300*time.Second)
	v.SetDefault("CACHE_TIMEOUT", 200*time.Millisecond)
	v.SetDefault("CACHE_BREAKER_FAILURE_RATIO", 0.5)
	v.SetDefault("CACHE_BREAKER_MIN_REQUESTS", 5)
	v.SetDefault("CACHE_BREAKER_OPEN_TIMEOUT", 10*time.Second)
	v.SetDefault("LIST_DEFAULT_LIMIT", 100)
	v.SetDefault("LIST_MAX_LIMIT", 1000)
	v.SetDefault("TRENDING_WINDOW", 10)
	v.SetDefault("SUGGESTION_PRICE_RANGE", 500.0)
	v.SetDefault("SUGGESTION_LIMIT", 5)
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("EVENTS_EXCHANGE", "catalog.events")
	v.SetDefault("ORDERS_EXCHANGE", "orders")
	v.SetDefault("ORDERS_QUEUE", "catalog.orders")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

// Load reads configuration from defaults, CONFIG_FILE (if set) and the environment.
func Load() (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	// An explicitly empty REDIS_URL or RABBITMQ_URL turns the feature off.
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}
	return FromViper(v)
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		AppPort:              v.GetString("APP_PORT"),
		ShutdownTimeout:      v.GetDuration("SHUTDOWN_TIMEOUT"),
		DBDriver:             strings.ToLower(v.GetString("DB_DRIVER")),
		DatabaseDSN:          v.GetString("DATABASE_DSN"),
		RedisURL:             v.GetString("REDIS_URL"),
		CacheKeyPrefix:       v.GetString("CACHE_KEY_PREFIX"),
		CacheTTL:             v.GetDuration("CACHE_TTL"),
		CacheTimeout:         v.GetDuration("CACHE_TIMEOUT"),
		BreakerFailureRatio:  v.GetFloat64("CACHE_BREAKER_FAILURE_RATIO"),
		BreakerMinRequests:   v.GetUint32("CACHE_BREAKER_MIN_REQUESTS"),
		BreakerOpenTimeout:   v.GetDuration("CACHE_BREAKER_OPEN_TIMEOUT"),
		ListDefaultLimit:     v.GetInt("LIST_DEFAULT_LIMIT"),
		ListMaxLimit:         v.GetInt("LIST_MAX_LIMIT"),
		TrendingWindow:       v.GetInt("TRENDING_WINDOW"),
		SuggestionPriceRange: v.GetFloat64("SUGGESTION_PRICE_RANGE"),
		SuggestionLimit:      v.GetInt("SUGGESTION_LIMIT"),
		RabbitMQURL:          v.GetString("RABBITMQ_URL"),
		EventsExchange:       v.GetString("EVENTS_EXCHANGE"),
		OrdersExchange:       v.GetString("ORDERS_EXCHANGE"),
		OrdersQueue:          v.GetString("ORDERS_QUEUE"),
		LogLevel:             v.GetString("LOG_LEVEL"),
		LogFormat:            v.GetString("LOG_FORMAT"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "postgres", "sqlite", "memory":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (want postgres, sqlite or memory)", c.DBDriver)
	}
	if c.DBDriver != "memory" && c.DatabaseDSN == "" {
		return fmt.Errorf("DATABASE_DSN is required for DB_DRIVER %s", c.DBDriver)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive, got %s", c.CacheTTL)
	}
	if c.ListDefaultLimit <= 0 || c.ListMaxLimit < c.ListDefaultLimit {
		return fmt.Errorf("LIST_DEFAULT_LIMIT (%d) must be positive and not above LIST_MAX_LIMIT (%d)", c.ListDefaultLimit, c.ListMaxLimit)
	}
	if c.TrendingWindow <= 0 {
		return fmt.Errorf("TRENDING_WINDOW must be positive, got %d", c.TrendingWindow)
	}
	return nil
}
