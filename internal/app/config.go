package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
)

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the complete application configuration, loadable from
// environment variables (FURNITURE_ prefix), flags, or YAML config files.
type Config struct {
	Env          string `default:"development" usage:"Deployment environment; .env is only read outside production"`
	Addr         string `default:"0.0.0.0:8080" usage:"API server listen address"`
	ImageBaseURL string `default:"" usage:"Base URL prepended to catalog image paths" flag:"image-base-url"`
	Storage      StorageConfig
	Session      SessionConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	Graceful     GracefulConfig
}

// StorageConfig selects where carts and locale choices are kept.
type StorageConfig struct {
	Backend     string        `default:"memory" usage:"Session storage backend: memory, postgres or redis"`
	DatabaseURL string        `usage:"PostgreSQL connection URL (FURNITURE_STORAGE_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	MaxConns    int32         `default:"10" usage:"PostgreSQL pool size"`
	RedisURL    string        `usage:"Redis URL (FURNITURE_STORAGE_REDIS_URL or REDIS_URL)" flag:"redis-url"`
	RedisPrefix string        `default:"furniture:" usage:"Prefix of every Redis key"`
	RedisTTL    time.Duration `default:"720h" usage:"Expiry of stored session entries in Redis; 0 keeps them forever"`
}

// SessionConfig controls the session cookie and in-memory session cache.
type SessionConfig struct {
	IdleTTL        time.Duration `default:"30m" usage:"Evict sessions idle for this long from memory"`
	JanitorPeriod  time.Duration `default:"1m" usage:"How often idle sessions are evicted"`
	CookieMaxAge   time.Duration `default:"720h" usage:"Session cookie lifetime"`
	SecureCookie   bool          `default:"false" usage:"Mark the session cookie Secure" flag:"secure-cookie"`
	ThumbnailCount int           `default:"6" usage:"Thumbnails returned with a product"`
}

// RateLimitConfig controls the sliding window rate limiters. Every client
// address gets ClientMax requests per window, and each session within it Max.
type RateLimitConfig struct {
	Max       int           `default:"120" usage:"Max requests per session and window"`
	ClientMax int           `default:"600" usage:"Max requests per client address and window"`
	Window    time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins []string `default:"*" usage:"Allowed CORS origins"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from .env (outside production),
// environment variables and YAML config files, then applies
// platform-specific defaults.
func LoadConfig() (*Config, error) {
	if os.Getenv("FURNITURE_ENV") != "production" {
		// Missing .env is fine; real environment variables take precedence.
		_ = godotenv.Load()
	}

	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "FURNITURE",
		Files:     []string{"config.yaml", "/etc/furniture/config.yaml"},
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

func (c *Config) validate() error {
	switch c.Storage.Backend {
	case BackendMemory:
	case BackendPostgres:
		if c.Storage.DatabaseURL == "" {
			return errors.New("database URL is required for postgres storage: set FURNITURE_STORAGE_DATABASE_URL or DATABASE_URL")
		}
	case BackendRedis:
		if c.Storage.RedisURL == "" {
			return errors.New("redis URL is required for redis storage: set FURNITURE_STORAGE_REDIS_URL or REDIS_URL")
		}
	default:
		return errors.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.RateLimit.Max <= 0 || c.RateLimit.ClientMax <= 0 || c.RateLimit.Window <= 0 {
		return errors.New("rate limit max, client max and window must be positive")
	}
	if c.Session.JanitorPeriod <= 0 {
		return errors.New("session janitor period must be positive")
	}
	return nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) such as DATABASE_URL, REDIS_URL and PORT onto the
// FURNITURE_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.Storage.DatabaseURL == "" {
		c.Storage.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if c.Storage.RedisURL == "" {
		c.Storage.RedisURL = os.Getenv("REDIS_URL")
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}
