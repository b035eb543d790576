// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	CORS       CORSConfig       `mapstructure:"cors"`
	Google     GoogleConfig     `mapstructure:"google"`
	Lighthouse LighthouseConfig `mapstructure:"lighthouse"`
	Fetch      FetchConfig      `mapstructure:"fetch"`
	Headless   HeadlessConfig   `mapstructure:"headless"`
	Analyzer   AnalyzerConfig   `mapstructure:"analyzer"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port           int `mapstructure:"port"`
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// CORSConfig sets the browser origin allowed to call the API.
type CORSConfig struct {
	AllowedOrigin string `mapstructure:"allowed_origin"`
}

// GoogleConfig holds the API key shared by the PageSpeed Insights and
// Chrome UX Report endpoints.
type GoogleConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// LighthouseConfig governs the Lighthouse CLI subprocess.
type LighthouseConfig struct {
	Binary         string `mapstructure:"binary"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	ChromeFlags    string `mapstructure:"chrome_flags"`
	ChromePath     string `mapstructure:"chrome_path"`
}

// FetchConfig configures the plain HTTP page fetcher.
type FetchConfig struct {
	UserAgent      string `mapstructure:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// HeadlessConfig configures the headless rendering used by the
// mobile-friendliness analyzer.
type HeadlessConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	NavTimeoutSec int  `mapstructure:"nav_timeout_seconds"`
}

// AnalyzerConfig holds knobs shared across analyzers.
type AnalyzerConfig struct {
	SampleURL string `mapstructure:"sample_url"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SITELENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.timeout_seconds", 120)
	v.SetDefault("cors.allowed_origin", "http://localhost:3000")
	v.SetDefault("lighthouse.binary", "lighthouse")
	v.SetDefault("lighthouse.timeout_seconds", 60)
	v.SetDefault("lighthouse.chrome_flags", "--headless --no-sandbox --disable-gpu --disable-dev-shm-usage")
	v.SetDefault("fetch.user_agent", "sitelens-bot/1.0 (+https://github.com/sitelens/sitelens)")
	v.SetDefault("fetch.timeout_seconds", 15)
	v.SetDefault("headless.enabled", true)
	v.SetDefault("headless.nav_timeout_seconds", 25)
	v.SetDefault("analyzer.sample_url", "https://example.com")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Server.TimeoutSeconds <= 0 {
		return fmt.Errorf("server.timeout_seconds must be > 0")
	}
	if c.Lighthouse.Binary == "" {
		return fmt.Errorf("lighthouse.binary must be set")
	}
	if c.Lighthouse.TimeoutSeconds <= 0 {
		return fmt.Errorf("lighthouse.timeout_seconds must be > 0")
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		return fmt.Errorf("fetch.timeout_seconds must be > 0")
	}
	if c.Headless.Enabled && c.Headless.NavTimeoutSec <= 0 {
		return fmt.Errorf("headless.nav_timeout_seconds must be > 0 when headless is enabled")
	}
	if c.Analyzer.SampleURL == "" {
		return fmt.Errorf("analyzer.sample_url must be set")
	}
	return nil
}

// LighthouseBudget converts the Lighthouse timeout into a duration.
func (c Config) LighthouseBudget() time.Duration {
	return time.Duration(c.Lighthouse.TimeoutSeconds) * time.Second
}

// FetchBudget converts the fetch timeout into a duration.
func (c Config) FetchBudget() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}
