// Package config loads run settings from an optional file, environment
// variables (OPTLAT_ prefix) and built-in defaults, then validates them.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/contactkeval/option-lattice/internal/logger"
)

// EnvPrefix is prepended to environment overrides, e.g. OPTLAT_OPTION_STEPS.
const EnvPrefix = "OPTLAT"

// Config is the full run configuration.
type Config struct {
	Option    OptionConfig `mapstructure:"option"`
	Market    MarketConfig `mapstructure:"market"`
	Strikes   []string     `mapstructure:"strikes"    validate:"dive,required"` // strike ladder rules, empty = single run
	ReportDir string       `mapstructure:"report_dir" validate:"required"`      // report directory
	Charts    bool         `mapstructure:"charts"`                              // render PNG charts
	LogLevel  string       `mapstructure:"log_level"  validate:"oneof=error info debug trace 0 1 2 3"`
}

// OptionConfig describes the contract to price. When Underlying is set, Spot
// and Vol default to zero and are resolved from market data; explicit values
// still win. Without an underlying they default to the reference inputs.
type OptionConfig struct {
	Type       string  `mapstructure:"type"       validate:"oneof=call put"`
	Underlying string  `mapstructure:"underlying"`
	Spot       float64 `mapstructure:"spot"       validate:"required_without=Underlying,gte=0"`
	Strike     float64 `mapstructure:"strike"      validate:"required_without=StrikeRule,gte=0"`
	StrikeRule string  `mapstructure:"strike_rule"`                // ATM, ATM:+5, ATM:-10%, ABS:105
	Expiry     float64 `mapstructure:"expiry"     validate:"gt=0"` // years
	Rate       float64 `mapstructure:"rate"`
	Vol        float64 `mapstructure:"vol"        validate:"required_without=Underlying,gte=0"`
	Steps      int     `mapstructure:"steps"      validate:"gte=1,lte=20000"`
}

// MarketConfig selects where spot and realized volatility come from.
type MarketConfig struct {
	Provider     string  `mapstructure:"provider"      validate:"oneof=massive csv synthetic"`
	DataDir      string  `mapstructure:"data_dir"`
	AsOf         string  `mapstructure:"as_of"         validate:"omitempty,datetime=2006-01-02"`
	LookbackDays int     `mapstructure:"lookback_days" validate:"gte=5"`
	Seed         int64   `mapstructure:"seed"`
	StrikeStep   float64 `mapstructure:"strike_step"   validate:"gte=0"` // ATM rounding interval, 0 = none
}

// Reference inputs used when no underlying is configured.
const (
	ReferenceSpot = 100.0
	ReferenceVol  = 0.25
)

var defaults = map[string]any{
	"option.type":          "put",
	"option.underlying":    "",
	"option.spot":          0.0,
	"option.strike":        100.0,
	"option.strike_rule":   "",
	"option.expiry":        1.0,
	"option.rate":          0.05,
	"option.vol":           0.0,
	"option.steps":         300,
	"market.provider":      "synthetic",
	"market.data_dir":      "",
	"market.as_of":         "",
	"market.lookback_days": 90,
	"market.seed":          1,
	"market.strike_step":   0.0,
	"strikes":              []string{},
	"report_dir":           "./out",
	"charts":               false,
	"log_level":            "info",
}

// Load reads the configuration. path may be empty, in which case only
// defaults and environment overrides apply. The config type follows the
// file extension (yaml, json, toml).
func Load(path string) (*Config, error) {
	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config error: %w", err)
		}
		logger.Debugf("config loaded from %s", v.ConfigFileUsed())
	}

	if strings.TrimSpace(v.GetString("option.underlying")) == "" {
		v.SetDefault("option.spot", ReferenceSpot)
		v.SetDefault("option.vol", ReferenceVol)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config error: %w", err)
	}
	cfg.Option.Type = strings.ToLower(strings.TrimSpace(cfg.Option.Type))
	cfg.Market.Provider = strings.ToLower(strings.TrimSpace(cfg.Market.Provider))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New()

// Validate checks every field constraint.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// Level is the configured log verbosity.
func (c *Config) Level() logger.Level {
	l, err := logger.ParseLevel(c.LogLevel)
	if err != nil {
		return logger.Info
	}
	return l
}

// AsOfDate parses market.as_of, defaulting to today (UTC) when unset.
func (c *Config) AsOfDate() (time.Time, error) {
	if c.Market.AsOf == "" {
		y, m, d := time.Now().UTC().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse("2006-01-02", c.Market.AsOf)
	if err != nil {
		return time.Time{}, fmt.Errorf("market.as_of: %w", err)
	}
	return t, nil
}
