package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"uraniborg-lab/internal/domain/models"
)

// Baseline source kinds
const (
	BaselineSourceEmbedded = "embedded"
	BaselineSourceDir      = "dir"
	BaselineSourceRedis    = "redis"
)

// Config holds all configuration for the scoring engine
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Scoring   ScoringConfig   `mapstructure:"scoring"`
	Baseline  BaselineConfig  `mapstructure:"baseline"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Whitelist WhitelistConfig `mapstructure:"whitelist"`
}

type AppConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
	Debug   bool   `mapstructure:"debug"`
}

type LoggerConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=trace debug info warn warning error fatal panic disabled off"`
	Format string `mapstructure:"format" validate:"oneof=console json"`
}

// ScoringConfig selects the metrics and how they are normalized
type ScoringConfig struct {
	Metrics    []string `mapstructure:"metrics"`
	Normalize  bool     `mapstructure:"normalize"`
	IncludeGMS bool     `mapstructure:"include_gms"`
	// Formulas overrides the normalization formula per metric key
	Formulas map[string]string `mapstructure:"formulas"`
}

// MetricKeys validates and returns the configured metric subset
func (c ScoringConfig) MetricKeys() ([]models.MetricKey, error) {
	keys := make([]models.MetricKey, 0, len(c.Metrics))
	for _, m := range c.Metrics {
		k, ok := models.ParseMetricKey(m)
		if !ok {
			return nil, fmt.Errorf("scoring.metrics: %q: %w", m, models.ErrUnknownMetric)
		}
		keys = append(keys, k)
	}
	return keys, nil
}

// FormulaOverrides validates and returns the per-metric formula overrides
func (c ScoringConfig) FormulaOverrides() (map[models.MetricKey]models.Formula, error) {
	out := make(map[models.MetricKey]models.Formula, len(c.Formulas))
	for m, f := range c.Formulas {
		k, ok := models.ParseMetricKey(m)
		if !ok {
			return nil, fmt.Errorf("scoring.formulas: %q: %w", m, models.ErrUnknownMetric)
		}
		formula, ok := models.ParseFormula(f)
		if !ok {
			return nil, fmt.Errorf("scoring.formulas: %s: unknown formula %q", m, f)
		}
		out[k] = formula
	}
	return out, nil
}

type BaselineConfig struct {
	Source  string `mapstructure:"source" validate:"oneof=embedded dir redis"`
	DataDir string `mapstructure:"data_dir" validate:"required_if=Source dir"`
}

type RedisConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port" validate:"min=1,max=65535"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db" validate:"gte=0"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type WhitelistConfig struct {
	OverlayFile string `mapstructure:"overlay_file"`
}

var validate = validator.New()

// Validate checks field values and cross-section constraints
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if _, err := c.Scoring.MetricKeys(); err != nil {
		return err
	}
	if _, err := c.Scoring.FormulaOverrides(); err != nil {
		return err
	}
	if c.Baseline.Source == BaselineSourceRedis && c.Redis.Host == "" {
		return errors.New("redis.host is required when baseline.source is redis")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "uraniborg")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.debug", false)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")

	metrics := make([]string, 0, len(models.DefaultMetrics))
	for _, m := range models.DefaultMetrics {
		metrics = append(metrics, string(m))
	}
	v.SetDefault("scoring.metrics", metrics)
	v.SetDefault("scoring.normalize", false)
	v.SetDefault("scoring.include_gms", false)
	v.SetDefault("scoring.formulas", map[string]string{})

	v.SetDefault("baseline.source", BaselineSourceEmbedded)
	v.SetDefault("baseline.data_dir", "")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "uraniborg:")

	v.SetDefault("whitelist.overlay_file", "")
}

// Load reads configuration from file and environment variables.
// With an empty path a missing config file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/uraniborg")
	}

	// Environment variables
	v.SetEnvPrefix("URANIBORG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Unmarshal config
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// LoadDefault loads configuration with default path
func LoadDefault() (*Config, error) {
	return Load("")
}
