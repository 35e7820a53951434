package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment variables recognized by Load.
const (
	EnvPrefix     = "LEAGUELEARN_"
	EnvConfigFile = EnvPrefix + "CONFIG"
	EnvDotenvFile = EnvPrefix + "DOTENV"
)

// Load builds a Config by layering, low to high precedence:
//  1. defaults (New())
//  2. dotenv file if LEAGUELEARN_DOTENV is set (values never override real env)
//  3. YAML file if LEAGUELEARN_CONFIG is set
//  4. env (prefix LEAGUELEARN_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	if path := os.Getenv(EnvDotenvFile); path != "" {
		if err := godotenv.Load(path); err != nil {
			return nil, fmt.Errorf("%w: dotenv %s: %w", ErrLoadConfig, path, err)
		}
	}

	k := koanf.New(".")

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: file %s: %w", ErrLoadConfig, path, err)
		}
	}

	// LEAGUELEARN_BLEND_WINDOW -> blend_window; underscores are kept to match the flat koanf tags.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the invariants the engine relies on.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.BlendWindow < 1:
		return fmt.Errorf("%w: blend_window must be >= 1", ErrInvalidConfig)
	case c.BlendMode != "linear" && c.BlendMode != "exponential":
		return fmt.Errorf("%w: blend_mode must be linear or exponential", ErrInvalidConfig)
	case c.LiquidityTradeWeight < 0 || c.LiquidityParticipationWeight < 0 || c.LiquidityAssetsWeight < 0:
		return fmt.Errorf("%w: liquidity weights must be non-negative", ErrInvalidConfig)
	case c.LiquidityTradeSaturation <= 0 || c.LiquidityAssetsSaturation <= 0:
		return fmt.Errorf("%w: liquidity saturation points must be positive", ErrInvalidConfig)
	case c.RiskLowOverpayRatio > c.RiskHighOverpayRatio:
		return fmt.Errorf("%w: risk_low_overpay_ratio must not exceed risk_high_overpay_ratio", ErrInvalidConfig)
	case c.MinWeight <= 0 || c.MaxWeight < c.MinWeight:
		return fmt.Errorf("%w: weight bounds must satisfy 0 < min_weight <= max_weight", ErrInvalidConfig)
	case c.SeasonStartMonth < 1 || c.SeasonStartMonth > 12:
		return fmt.Errorf("%w: season_start_month must be 1..12", ErrInvalidConfig)
	}

	switch c.StorageBackend {
	case "memory":
	case "postgres":
		if c.PostgresDSN == "" {
			return fmt.Errorf("%w: postgres_dsn is required for the postgres backend", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: storage_backend %q", ErrUnknownBackend, c.StorageBackend)
	}

	switch c.SnapshotBackend {
	case "memory":
	case "postgres":
		if c.PostgresDSN == "" {
			return fmt.Errorf("%w: postgres_dsn is required for postgres snapshots", ErrInvalidConfig)
		}
	case "redis":
		if c.RedisAddr == "" {
			return fmt.Errorf("%w: redis_addr is required for redis snapshots", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: snapshot_backend %q", ErrUnknownBackend, c.SnapshotBackend)
	}
	return nil
}
