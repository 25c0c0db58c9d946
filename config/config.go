package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config struct to hold the configuration settings
type Config struct {
	Postgres      PostgresConfig      `yaml:"postgres"`
	Judge         JudgeConfig         `yaml:"judge"`
	Poll          PollConfig          `yaml:"poll"`
	HTTP          HTTPConfig          `yaml:"http"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// PostgresConfig holds Postgres configuration.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// JudgeConfig holds settings for the upstream judge API client.
type JudgeConfig struct {
	BaseURL        string        `yaml:"base_url"`
	FeedCacheTTL   time.Duration `yaml:"feed_cache_ttl"`
	RequestSpacing time.Duration `yaml:"request_spacing"`
	FetchTimeout   time.Duration `yaml:"fetch_timeout"`
}

// PollConfig holds poll-coordinator settings.
type PollConfig struct {
	Cooldown time.Duration `yaml:"cooldown"`
}

// HTTPConfig holds the listen address for the API server.
type HTTPConfig struct {
	Address string `yaml:"address"`
}

// ObservabilityConfig holds configuration for observability components
type ObservabilityConfig struct {
	MetricsAddress string `yaml:"metrics_address"`
	Environment    string `yaml:"environment"`
}

// LoadConfig loads the configuration from a YAML file.
func LoadConfig(filename string) (*Config, error) {
	// Try reading configuration from the file first
	data, err := os.ReadFile(filename)
	if err != nil {
		// If the file is not found, build entirely from environment variables
		return loadConfigFromEnv()
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// --- OVERRIDE WITH ENV VARS IF PRESENT ---
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("JUDGE_BASE_URL"); v != "" {
		cfg.Judge.BaseURL = v
	}
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("METRICS_ADDRESS"); v != "" {
		cfg.Observability.MetricsAddress = v
	}
	if v := os.Getenv("ENV"); v != "" {
		cfg.Observability.Environment = v
	}
	if v := os.Getenv("POLL_COOLDOWN_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Poll.Cooldown = time.Duration(n) * time.Second
		}
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func loadConfigFromEnv() (*Config, error) {
	cfg := &Config{
		Postgres: PostgresConfig{DSN: os.Getenv("DATABASE_URL")},
		Judge:    JudgeConfig{BaseURL: os.Getenv("JUDGE_BASE_URL")},
		HTTP:     HTTPConfig{Address: os.Getenv("HTTP_ADDRESS")},
		Observability: ObservabilityConfig{
			MetricsAddress: os.Getenv("METRICS_ADDRESS"),
			Environment:    os.Getenv("ENV"),
		},
	}
	if cfg.Postgres.DSN == "" {
		return nil, fmt.Errorf("DATABASE_URL is required when no config file is present")
	}
	if v := os.Getenv("POLL_COOLDOWN_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Poll.Cooldown = time.Duration(n) * time.Second
		}
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Judge.BaseURL == "" {
		c.Judge.BaseURL = "https://codeforces.com/api"
	}
	if c.Judge.FeedCacheTTL == 0 {
		c.Judge.FeedCacheTTL = 10 * time.Second
	}
	if c.Judge.RequestSpacing == 0 {
		c.Judge.RequestSpacing = 250 * time.Millisecond
	}
	if c.Judge.FetchTimeout == 0 {
		c.Judge.FetchTimeout = 8 * time.Second
	}
	if c.Poll.Cooldown == 0 {
		c.Poll.Cooldown = 30 * time.Second
	}
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.Observability.MetricsAddress == "" {
		c.Observability.MetricsAddress = ":9090"
	}
	if c.Observability.Environment == "" {
		c.Observability.Environment = "development"
	}
}
