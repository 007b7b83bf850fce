// Package config loads service settings from config/valuation.yaml and the environment.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v2"

	"dcf_valuation/pkg/models"
)

// DefaultPath is where the service looks for its YAML settings.
const DefaultPath = "config/valuation.yaml"

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Data      DataConfig      `yaml:"data"`
	Valuation ValuationConfig `yaml:"valuation"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type ServerConfig struct {
	Port        string `yaml:"port"`
	Environment string `yaml:"environment"`
	LogLevel    string `yaml:"log_level"`
}

// DataConfig selects the Store backend. UseDatabase reads financial_series from
// DATABASE_URL instead of the CSV file.
type DataConfig struct {
	CSVPath     string `yaml:"csv_path"`
	UseDatabase bool   `yaml:"use_database"`
}

// ValuationConfig holds request defaults. Rates are whole-number percentages, the
// same unit the HTTP API accepts.
type ValuationConfig struct {
	TaxRate         float64 `yaml:"tax_rate"`
	WACC            float64 `yaml:"wacc"`
	TerminalGrowth  float64 `yaml:"terminal_growth"`
	ProjectionYears int     `yaml:"projection_years"`
	Workers         int     `yaml:"workers"`
}

type RateLimitConfig struct {
	Enabled           bool    `yaml:"enabled"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: "5000", Environment: "development", LogLevel: "info"},
		Data:   DataConfig{CSVPath: "Data.csv"},
		Valuation: ValuationConfig{
			TaxRate:         27,
			WACC:            6.9,
			TerminalGrowth:  2.5,
			ProjectionYears: 5,
			Workers:         4,
		},
		RateLimit: RateLimitConfig{Enabled: true, RequestsPerSecond: 5, Burst: 15},
	}
}

// Load reads path over the defaults, then applies PORT, DATA_CSV, DATABASE_URL and
// LOG_LEVEL. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		log.Warn().Str("component", "config").Str("path", path).Msg("config file not found, using defaults")
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("DATA_CSV"); v != "" {
		cfg.Data.CSVPath = v
	}
	if os.Getenv("DATABASE_URL") != "" {
		cfg.Data.UseDatabase = true
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Server.LogLevel = v
	}
	if v := os.Getenv("VALUATION_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Valuation.Workers = n
		}
	}
}

// Validate checks the settings that would otherwise fail at request time.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server.port must be set")
	}
	if !c.Data.UseDatabase && c.Data.CSVPath == "" {
		return fmt.Errorf("data.csv_path must be set when use_database is false")
	}
	if c.Valuation.ProjectionYears < 1 {
		return fmt.Errorf("valuation.projection_years must be at least 1")
	}
	if c.Valuation.WACC <= c.Valuation.TerminalGrowth {
		return fmt.Errorf("valuation.wacc must exceed valuation.terminal_growth")
	}
	if c.Valuation.Workers < 1 {
		c.Valuation.Workers = 1
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst < 1) {
		return fmt.Errorf("rate_limit needs positive requests_per_second and burst")
	}
	return nil
}

// Assumptions converts the percentage defaults into engine fractions.
func (c *Config) Assumptions() models.Assumptions {
	return models.Assumptions{
		TaxRate:        c.Valuation.TaxRate / 100,
		WACC:           c.Valuation.WACC / 100,
		TerminalGrowth: c.Valuation.TerminalGrowth / 100,
		Horizon:        c.Valuation.ProjectionYears,
	}
}
