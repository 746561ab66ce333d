package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{
		"AUTH_JWT_SECRET": "secret",
	}))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StoreDriverPostgres, cfg.StoreDriver)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "activity", cfg.Elasticsearch.Index)
	assert.False(t, cfg.NATS.Enabled)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestLoadFrom_Prefixes(t *testing.T) {
	cfg, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{
		"AUTH_JWT_SECRET":       "secret",
		"STORE_DRIVER":          "memory",
		"DB_HOST":               "db.internal",
		"DB_PORT":               "6543",
		"NATS_ENABLED":          "true",
		"NATS_CLUSTER_ID":       "excentrica-prod",
		"REDIS_ADDR":            "cache:6379",
		"ELASTICSEARCH_ENABLED": "true",
		"RATE_LIMIT_RPS":        "2.5",
	}))
	require.NoError(t, err)

	assert.Equal(t, StoreDriverMemory, cfg.StoreDriver)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.True(t, cfg.NATS.Enabled)
	assert.Equal(t, "excentrica-prod", cfg.NATS.ClusterID)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.True(t, cfg.Elasticsearch.Enabled)
	assert.Equal(t, 2.5, cfg.RateLimit.RPS)
}

func TestLoadFrom_Invalid(t *testing.T) {
	_, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{}))
	assert.Error(t, err)

	_, err = LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{
		"AUTH_JWT_SECRET": "secret",
		"STORE_DRIVER":    "mysql",
	}))
	assert.Error(t, err)
}
