package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (STOREFRONT_ prefix), flags, or YAML config files.
type Config struct {
	Addr      string `default:"0.0.0.0:8080" usage:"HTTP listen address"`
	Commerce  CommerceConfig
	Session   SessionConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Graceful  GracefulConfig
}

// CommerceConfig points the storefront at its commerce backend.
type CommerceConfig struct {
	URL       string        `usage:"Commerce API base URL (STOREFRONT_COMMERCE_URL)" flag:"commerce-url"`
	APIKey    string        `usage:"Commerce API key" flag:"commerce-api-key"`
	ShopName  string        `usage:"Shop name to serve" flag:"shop-name"`
	Timeout   time.Duration `default:"30s" usage:"Per-request commerce deadline" flag:"commerce-timeout"`
	ReturnURL string        `usage:"Storefront URL the backend links back to after checkout" flag:"return-url"`
}

// SessionConfig selects the cart identifier store. An empty RedisAddr keeps
// identifiers in process memory, which is fine for a single replica.
type SessionConfig struct {
	RedisAddr     string        `default:"" usage:"Redis address for the session store; empty = in-memory" flag:"redis-addr"`
	RedisPassword string        `default:"" usage:"Redis password" flag:"redis-password"`
	RedisDB       int           `default:"0" usage:"Redis database number" flag:"redis-db"`
	TTL           time.Duration `default:"168h" usage:"Idle session retention" flag:"session-ttl"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"true" usage:"Allow credentials (session cookie)" flag:"cors-credentials"`
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
		EnvPrefix: "STOREFRONT",
		Files:     []string{"config.yaml", "/etc/storefront/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.Commerce.URL == "" {
		return nil, errors.New("commerce URL is required: set STOREFRONT_COMMERCE_URL")
	}
	if cfg.Commerce.ShopName == "" {
		return nil, errors.New("shop name is required: set STOREFRONT_COMMERCE_SHOP_NAME")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like PORT and REDIS_URL onto the
// STOREFRONT_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
	if c.Session.RedisAddr == "" {
		if v := os.Getenv("REDIS_ADDR"); v != "" {
			c.Session.RedisAddr = v
		}
	}
}
