package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// DefaultPINSecret is only acceptable outside production.
const DefaultPINSecret = "LA_PATIENCE_TV_SALT"

type Config struct {
	Environment string `envconfig:"ENV" default:"development"`
	Host        string `envconfig:"HOST" default:"http://localhost:8080"`
	Port        string `envconfig:"PORT" default:"8080"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	TrustProxy  bool   `envconfig:"TRUST_PROXY" default:"false"`

	PostgresURI string `envconfig:"POSTGRES_URI" default:"postgres://localhost:5432/patience?sslmode=disable"`
	RedisURI    string `envconfig:"REDIS_URI" default:"redis://localhost:6379/0"`
	// MongoURI is optional; without it the activity trail is disabled.
	MongoURI string `envconfig:"MONGODB_URI"`

	PINSecret       string        `envconfig:"PIN_SECRET" default:"LA_PATIENCE_TV_SALT"`
	SessionTTL      time.Duration `envconfig:"SESSION_TTL" default:"168h"`
	BouquetCacheTTL time.Duration `envconfig:"BOUQUET_CACHE_TTL" default:"5m"`

	// Mobile-money rail. Empty MoMoAPIURL selects the simulated rail.
	MoMoAPIURL  string        `envconfig:"MOMO_API_URL"`
	MoMoAPIKey  string        `envconfig:"MOMO_API_KEY"`
	MoMoTimeout time.Duration `envconfig:"MOMO_TIMEOUT" default:"10s"`

	FrontendURL       string `envconfig:"FRONTEND_URL" default:"http://localhost:3000"`
	RawAllowedOrigins string `envconfig:"ALLOWED_ORIGINS"`

	// AllowedOrigins is derived from ALLOWED_ORIGINS, or FRONTEND_URL when unset.
	AllowedOrigins []string `ignored:"true"`
}

// Load reads the environment (after godotenv has populated it) and derives
// the CORS origin list.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Environment = strings.ToLower(strings.TrimSpace(cfg.Environment))

	cfg.AllowedOrigins = parseOrigins(cfg.RawAllowedOrigins)
	if len(cfg.AllowedOrigins) == 0 {
		if u := strings.TrimSpace(cfg.FrontendURL); u != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, u)
		}
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"http://localhost:3000"}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if strings.TrimSpace(c.PINSecret) == "" {
		return errors.New("PIN_SECRET must not be empty")
	}
	if c.IsProduction() && c.PINSecret == DefaultPINSecret {
		return errors.New("PIN_SECRET must be set in production")
	}
	if c.MoMoAPIURL != "" && !strings.HasPrefix(c.MoMoAPIURL, "http://") && !strings.HasPrefix(c.MoMoAPIURL, "https://") {
		return errors.New("MOMO_API_URL must start with http:// or https://")
	}
	return nil
}

func parseOrigins(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" && !containsOrigin(out, part) {
			out = append(out, part)
		}
	}
	return out
}

func containsOrigin(list []string, o string) bool {
	o = strings.TrimSpace(strings.ToLower(o))
	for _, v := range list {
		if strings.TrimSpace(strings.ToLower(v)) == o {
			return true
		}
	}
	return false
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// UsesDefaultPINSecret reports whether PINs are hashed with the development secret.
func (c *Config) UsesDefaultPINSecret() bool {
	return c.PINSecret == DefaultPINSecret
}
