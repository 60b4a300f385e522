package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_Defaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.AppPort)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "redis://redis:6379/0", cfg.RedisURL)
	assert.Equal(t, 300*time.Second, cfg.CacheTTL)
	assert.Equal(t, 10, cfg.TrendingWindow)
	assert.Equal(t, 500.0, cfg.SuggestionPriceRange)
	assert.Equal(t, 5, cfg.SuggestionLimit)
	assert.Empty(t, cfg.RabbitMQURL)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "MEMORY")
	t.Setenv("CACHE_TTL", "1m")
	t.Setenv("REDIS_URL", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.DBDriver)
	assert.Equal(t, time.Minute, cfg.CacheTTL)
	assert.Empty(t, cfg.RedisURL)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("TRENDING_WINDOW: 25\nLOG_LEVEL: debug\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.TrendingWindow)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestValidate(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	v.Set("DB_DRIVER", "oracle")
	_, err := FromViper(v)
	assert.ErrorContains(t, err, "DB_DRIVER")

	v.Set("DB_DRIVER", "postgres")
	v.Set("DATABASE_DSN", "")
	_, err = FromViper(v)
	assert.ErrorContains(t, err, "DATABASE_DSN")

	v.Set("DB_DRIVER", "memory")
	v.Set("TRENDING_WINDOW", 0)
	_, err = FromViper(v)
	assert.ErrorContains(t, err, "TRENDING_WINDOW")
}
