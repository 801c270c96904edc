// Package config loads finctl settings from FINCTL_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const Prefix = "FINCTL_"

// Provider names accepted in FINCTL_CACHE_PROVIDER.
const (
	ProviderRistretto = "ristretto"
	ProviderBigCache  = "bigcache"
)

type Config struct {
	BaseURL   string        `env:"BASE_URL" envDefault:"http://localhost:8080/api/v1.0/"`
	TokenFile string        `env:"TOKEN_FILE"` // "" => <user config dir>/finctl/token
	Timeout   time.Duration `env:"TIMEOUT" envDefault:"30s"`
	LogLevel  string        `env:"LOG_LEVEL" envDefault:"warn"`
	// TraceHooks prints sampled cache events to stderr.
	TraceHooks bool `env:"TRACE_HOOKS"`

	Cache CacheConfig `envPrefix:"CACHE_"`
}

type CacheConfig struct {
	Provider             string        `env:"PROVIDER" envDefault:"ristretto"`
	Codec                string        `env:"CODEC" envDefault:"json"`
	MaxDecode            int           `env:"MAX_DECODE"`
	StaleTime            time.Duration `env:"STALE_TIME" envDefault:"60s"`
	RollbackFailedDelete bool          `env:"ROLLBACK_FAILED_DELETE"`
}

// Load reads the process environment.
func Load() (Config, error) {
	return load(env.Options{Prefix: Prefix})
}

// LoadFrom reads environ instead of the process environment. Keys carry the
// FINCTL_ prefix.
func LoadFrom(environ map[string]string) (Config, error) {
	return load(env.Options{Prefix: Prefix, Environment: environ})
}

func load(opts env.Options) (Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if cfg.TokenFile == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return Config{}, fmt.Errorf("config: no %sTOKEN_FILE and no user config dir: %w", Prefix, err)
		}
		cfg.TokenFile = filepath.Join(dir, "finctl", "token")
	}
	cfg.Cache.Provider = strings.ToLower(strings.TrimSpace(cfg.Cache.Provider))
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.BaseURL) == "" {
		errs = append(errs, fmt.Errorf("%sBASE_URL is required", Prefix))
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("%sTIMEOUT must be positive, got %s", Prefix, c.Timeout))
	}
	switch c.Cache.Provider {
	case ProviderRistretto, ProviderBigCache:
	default:
		errs = append(errs, fmt.Errorf("%sCACHE_PROVIDER must be %q or %q, got %q", Prefix, ProviderRistretto, ProviderBigCache, c.Cache.Provider))
	}
	if c.Cache.StaleTime < 0 {
		errs = append(errs, fmt.Errorf("%sCACHE_STALE_TIME must not be negative", Prefix))
	}
	if c.Cache.MaxDecode < 0 {
		errs = append(errs, fmt.Errorf("%sCACHE_MAX_DECODE must not be negative", Prefix))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}
