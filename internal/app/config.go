package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (CART_ prefix), flags, or YAML config files.
type Config struct {
	Addr     string `default:"0.0.0.0:8080" usage:"API server listen address"`
	RedisURL string `usage:"Redis connection URL (CART_REDIS_URL or REDIS_URL)" flag:"redis-url"`

	CatalogURL string `usage:"Base URL of the product catalog service" flag:"catalog-url"`
	PromoURL   string `usage:"Base URL of the promo validation service" flag:"promo-url"`
	OrderURL   string `usage:"Base URL of the order service" flag:"order-url"`

	PrefilterPath string        `default:"" usage:"Path to the promo code bloom filter built by promo-prewarm" flag:"prefilter-path"`
	SlotTTL       time.Duration `default:"720h" usage:"TTL for persisted session slots" flag:"slot-ttl"`
	ClientTimeout time.Duration `default:"10s" usage:"Timeout for external service calls" flag:"client-timeout"`

	RateLimit RateLimitConfig
	CORS      CORSConfig
	Graceful  GracefulConfig
}

// RateLimitConfig controls the per-client fixed window rate limiter.
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

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "CART",
		Files:     []string{"config.yaml", "/etc/cart/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	switch {
	case cfg.RedisURL == "":
		return nil, errors.New("redis URL is required: set CART_REDIS_URL or REDIS_URL")
	case cfg.CatalogURL == "":
		return nil, errors.New("catalog service URL is required: set CART_CATALOG_URL")
	case cfg.PromoURL == "":
		return nil, errors.New("promo service URL is required: set CART_PROMO_URL")
	case cfg.OrderURL == "":
		return nil, errors.New("order service URL is required: set CART_ORDER_URL")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables
// (Railway, Render, etc.) that use standard names like REDIS_URL and PORT
// to the application's CART_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.RedisURL == "" {
		if v := os.Getenv("REDIS_URL"); v != "" {
			c.RedisURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
