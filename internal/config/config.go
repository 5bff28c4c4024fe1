package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid config")

// Lab holds all configuration for the rsalab tool.
type Lab struct {
	// Key generation
	PrimeSize string  `yaml:"prime_size"` // small | medium
	Exponents []int64 `yaml:"exponents"`  // public exponent preference list

	Decoder DecoderConfig `yaml:"decoder"`

	// FrequencyTable is a YAML letter->weight file; empty means built-in English.
	FrequencyTable string `yaml:"frequency_table"`

	LogLevel string `yaml:"log_level"` // debug | info | warn | error

	Database DatabaseConfig `yaml:"database"`
}

// DecoderConfig tunes the statistical decoder.
type DecoderConfig struct {
	DomainMin      int64   `yaml:"domain_min"`
	DomainMax      int64   `yaml:"domain_max"`
	FallbackWeight float64 `yaml:"fallback_weight"`
	Workers        int     `yaml:"workers"` // batch decode concurrency
}

// DatabaseConfig holds PostgreSQL connection parameters for session history.
type DatabaseConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// Default returns Lab config with sensible defaults.
func Default() Lab {
	return Lab{
		PrimeSize: "small",
		Exponents: []int64{65537, 17, 3},
		Decoder: DecoderConfig{
			DomainMin:      32,
			DomainMax:      126,
			FallbackWeight: 0.001,
			Workers:        4,
		},
		LogLevel: "info",
		Database: DatabaseConfig{
			Enabled:  false,
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "rsalab",
			Password: "rsalab",
			DBName:   "rsalab",
			SSLMode:  "disable",
		},
	}
}

// Load loads config from a YAML file.
// If the file doesn't exist, returns defaults.
func Load(path string) (Lab, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks value ranges that YAML cannot express.
func (c Lab) Validate() error {
	if len(c.Exponents) == 0 {
		return fmt.Errorf("%w: exponents must not be empty", ErrInvalidConfig)
	}
	if c.Decoder.DomainMin < 0 || c.Decoder.DomainMax < c.Decoder.DomainMin {
		return fmt.Errorf("%w: decoder domain [%d, %d]", ErrInvalidConfig, c.Decoder.DomainMin, c.Decoder.DomainMax)
	}
	if c.Decoder.FallbackWeight <= 0 {
		return fmt.Errorf("%w: fallback_weight must be positive", ErrInvalidConfig)
	}
	if c.Decoder.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative", ErrInvalidConfig)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel maps LogLevel onto slog.
func (c Lab) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("%w: log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	return lvl, nil
}
