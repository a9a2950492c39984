package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Cart slot backends.
const (
	CartBackendPostgres = "postgres"
	CartBackendRedis    = "redis"
	CartBackendMemory   = "memory"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the complete application configuration, loadable from
// environment variables (AMATYMA_ prefix), flags, or YAML config files.
type Config struct {
	Addr         string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL  string `usage:"PostgreSQL connection URL (AMATYMA_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	ImageBaseURL string `default:"" usage:"Base URL for product images (e.g. https://cdn.example.com/images)" flag:"image-base-url"`
	APIKeyPepper string `usage:"HMAC pepper for API key hashing (AMATYMA_API_KEY_PEPPER)" flag:"api-key-pepper"`
	JWTSecret    string `usage:"HS256 secret for bearer tokens; bearer auth is off when empty" flag:"jwt-secret"`
	Cart         CartConfig
	Directory    DirectoryConfig
	Storage      StorageConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	Graceful     GracefulConfig
}

// CartConfig selects and tunes the cart slot store.
type CartConfig struct {
	Backend       string        `default:"postgres" usage:"Cart slot store: postgres, redis or memory"`
	RedisURL      string        `usage:"Redis URL for the redis backend (AMATYMA_CART_REDIS_URL or REDIS_URL)" flag:"redis-url"`
	TTL           time.Duration `default:"720h" usage:"Expiry of cart slots in Redis; zero keeps them forever"`
	SweepInterval time.Duration `default:"5m" usage:"How often idle cart sessions are dropped from memory"`
	IdleTimeout   time.Duration `default:"30m" usage:"Idle time after which a cart session is dropped from memory"`
}

// DirectoryConfig tunes the business directory cache.
type DirectoryConfig struct {
	FetchTimeout time.Duration `default:"10s" usage:"Timeout of a directory refresh"`
}

// StorageConfig configures image uploads. Uploads are disabled without a
// bucket.
type StorageConfig struct {
	Bucket         string `usage:"S3 bucket for uploaded images"`
	Region         string `default:"af-south-1" usage:"S3 region"`
	Endpoint       string `usage:"S3-compatible endpoint, e.g. MinIO"`
	Prefix         string `default:"uploads" usage:"Object key prefix"`
	PublicBaseURL  string `usage:"Public URL the bucket is served from"`
	MaxUploadBytes int64  `default:"8388608" usage:"Maximum upload size in bytes"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "AMATYMA",
		Files:     []string{"config.yaml", "/etc/amatyma/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's AMATYMA_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if c.Cart.RedisURL == "" {
		if v := os.Getenv("REDIS_URL"); v != "" {
			c.Cart.RedisURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return errors.New("database URL is required: set AMATYMA_DATABASE_URL or DATABASE_URL")
	}
	switch c.Cart.Backend {
	case CartBackendPostgres, CartBackendMemory:
	case CartBackendRedis:
		if c.Cart.RedisURL == "" {
			return errors.New("redis cart backend needs AMATYMA_CART_REDIS_URL or REDIS_URL")
		}
	default:
		return errors.Errorf("unknown cart backend %q", c.Cart.Backend)
	}
	if c.Cart.SweepInterval <= 0 {
		return errors.Errorf("cart sweep interval must be positive, got %s", c.Cart.SweepInterval)
	}
	if c.Cart.IdleTimeout <= 0 {
		return errors.Errorf("cart idle timeout must be positive, got %s", c.Cart.IdleTimeout)
	}
	if c.Storage.Bucket != "" && c.Storage.MaxUploadBytes <= 0 {
		return errors.New("storage max upload bytes must be positive")
	}
	return nil
}
