// Package config loads the engine's configuration from .env, environment
// variables, and an optional config file, with defaults for every tunable.
package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the engine's full runtime configuration.
type Config struct {
	LogLevel     string             `mapstructure:"log_level"`
	MetricsAddr  string             `mapstructure:"metrics_addr"`
	Executor     string             `mapstructure:"executor"` // "paper" or "live"
	PrivateKey   string             `mapstructure:"private_key"`
	CLOBHost     string             `mapstructure:"clob_host"`
	Strategy     StrategyConfig     `mapstructure:"strategy"`
	Polymarket   AdapterConfig      `mapstructure:"polymarket"`
	Kalshi       AdapterConfig      `mapstructure:"kalshi"`
}

// StrategyConfig holds the tunables for the arbitrage strategy.
type StrategyConfig struct {
	MinEdge string `mapstructure:"min_edge"`
	Size    string `mapstructure:"size"`
}

// AdapterConfig holds per-venue discovery thresholds and enablement.
type AdapterConfig struct {
	Enabled         bool    `mapstructure:"enabled"`
	MinVolume24h    float64 `mapstructure:"min_volume_24h"`
	MinLiquidity    float64 `mapstructure:"min_liquidity"`
	SeedConcurrency int     `mapstructure:"seed_concurrency"`
}

// Load reads .env (if present), then environment variables (prefixed
// ENGINE_) and an optional ./config.yaml, into a typed Config. Env vars
// always take precedence over a config file, matching viper's normal
// merge order.
func Load(configPath string) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("engine")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The private key is also read from the unprefixed PRIVATE_KEY.
	_ = v.BindEnv("private_key", "ENGINE_PRIVATE_KEY", "PRIVATE_KEY")

	v.SetDefault("log_level", "info")
	v.SetDefault("metrics_addr", ":9000")
	v.SetDefault("executor", "paper")
	v.SetDefault("private_key", "")
	v.SetDefault("clob_host", "https://clob.polymarket.com")

	v.SetDefault("strategy.min_edge", "0")
	v.SetDefault("strategy.size", "10")

	v.SetDefault("polymarket.enabled", true)
	v.SetDefault("polymarket.min_volume_24h", 100000)
	v.SetDefault("polymarket.min_liquidity", 10000)
	v.SetDefault("polymarket.seed_concurrency", 10)

	v.SetDefault("kalshi.enabled", false)
	v.SetDefault("kalshi.min_volume_24h", 100000)
	v.SetDefault("kalshi.min_liquidity", 10000)
	v.SetDefault("kalshi.seed_concurrency", 10)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
