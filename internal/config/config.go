// Package config loads gatehouse runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

// Config holds every runtime setting. Command-line flags override the
// values parsed from the environment.
type Config struct {
	DBPath           string        `env:"GATEHOUSE_DB"                 envDefault:"gatehouse.db"  validate:"required"`
	RetryDelay       time.Duration `env:"GATEHOUSE_RETRY_DELAY"        envDefault:"2s"            validate:"gt=0"`
	TickInterval     time.Duration `env:"GATEHOUSE_TICK_INTERVAL"      envDefault:"100ms"         validate:"gte=0"`
	Seed             *int64        `env:"GATEHOUSE_SEED"`
	NumbersPerGroup  int           `env:"GATEHOUSE_NUMBERS_PER_GROUP"  envDefault:"6"             validate:"gt=0,even"`
	ComparisonGroups int           `env:"GATEHOUSE_COMPARISON_GROUPS"  envDefault:"3"             validate:"gt=0,lte=64"`
	LogLevel         string        `env:"GATEHOUSE_LOG_LEVEL"          envDefault:"info"          validate:"oneof=debug info warn error"`
	MetricsAddr      string        `env:"GATEHOUSE_METRICS_ADDR"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
	if err := validate.RegisterValidation("even", validateEven); err != nil {
		panic(fmt.Sprintf("config: register even validation: %v", err))
	}
}

// validateEven accepts even integers; bit-matrix pairs need an even count.
func validateEven(fl validator.FieldLevel) bool {
	return fl.Field().Int()%2 == 0
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFrom is Load over an explicit variable set instead of the process
// environment.
func LoadFrom(vars map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints and reports every violation.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (got %v)", fe.Field(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// SlogLevel maps LogLevel onto slog.
func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
