package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_PlatformDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://platform/db")
	t.Setenv("REDIS_URL", "redis://platform:6379/0")
	t.Setenv("PORT", "9090")

	cfg := Config{Addr: defaultAddr}
	cfg.applyPlatformDefaults()

	assert.Equal(t, "postgres://platform/db", cfg.DatabaseURL)
	assert.Equal(t, "redis://platform:6379/0", cfg.Cart.RedisURL)
	assert.Equal(t, "0.0.0.0:9090", cfg.Addr)
}

func TestConfig_PlatformDefaultsKeepExplicit(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://platform/db")
	t.Setenv("PORT", "9090")

	cfg := Config{Addr: "127.0.0.1:7000", DatabaseURL: "postgres://explicit/db"}
	cfg.applyPlatformDefaults()

	assert.Equal(t, "postgres://explicit/db", cfg.DatabaseURL)
	assert.Equal(t, "127.0.0.1:7000", cfg.Addr)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			DatabaseURL: "postgres://localhost/amatyma",
			Cart: CartConfig{
				Backend:       CartBackendPostgres,
				SweepInterval: 5 * time.Minute,
				IdleTimeout:   30 * time.Minute,
			},
		}
	}
	require.NoError(t, func() error { c := valid(); return c.validate() }())

	tests := []struct {
		name   string
		modify func(c *Config)
		errMsg string
	}{
		{name: "no database", modify: func(c *Config) { c.DatabaseURL = "" }, errMsg: "database URL is required"},
		{name: "unknown backend", modify: func(c *Config) { c.Cart.Backend = "etcd" }, errMsg: "unknown cart backend"},
		{name: "redis without url", modify: func(c *Config) { c.Cart.Backend = CartBackendRedis }, errMsg: "REDIS_URL"},
		{name: "zero sweep interval", modify: func(c *Config) { c.Cart.SweepInterval = 0 }, errMsg: "sweep interval must be positive"},
		{name: "negative idle timeout", modify: func(c *Config) { c.Cart.IdleTimeout = -time.Minute }, errMsg: "idle timeout must be positive"},
		{name: "bucket without upload limit", modify: func(c *Config) { c.Storage.Bucket = "images" }, errMsg: "max upload bytes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.modify(&c)
			err := c.validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}

	c := valid()
	c.Cart.Backend = CartBackendRedis
	c.Cart.RedisURL = "redis://localhost:6379/0"
	assert.NoError(t, c.validate())
}
