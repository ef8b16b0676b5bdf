package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds runtime configuration for both the server and the
// agent. Precedence, lowest to highest: built-in defaults, the
// optional YAML file, then environment variables.
type Config struct {
	// Server
	ListenAddr string `env:"SCRIBE_LISTEN_ADDR" yaml:"listen_addr"`
	DataDir    string `env:"SCRIBE_DATA_DIR" yaml:"data_dir"`
	AuthToken  string `env:"SCRIBE_AUTH_TOKEN" yaml:"auth_token"`

	// Logging
	LogLevel string `env:"SCRIBE_LOG_LEVEL" yaml:"log_level"`
	LogJSON  bool   `env:"SCRIBE_LOG_JSON" yaml:"log_json"`

	// Agent
	ServerURL      string        `env:"SCRIBE_SERVER_URL" yaml:"server_url"`
	SpoolPath      string        `env:"SCRIBE_SPOOL_PATH" yaml:"spool_path"`
	FlushThreshold int           `env:"SCRIBE_FLUSH_THRESHOLD" yaml:"flush_threshold"`
	FlushInterval  time.Duration `env:"SCRIBE_FLUSH_INTERVAL" yaml:"flush_interval"`
	MaxRetries     int           `env:"SCRIBE_MAX_RETRIES" yaml:"max_retries"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ListenAddr:     ":7171",
		DataDir:        "data",
		LogLevel:       "info",
		ServerURL:      "http://localhost:7171",
		SpoolPath:      "data/agent-spool.db",
		FlushThreshold: 50,
		FlushInterval:  5 * time.Second,
		MaxRetries:     3,
	}
}

// Load builds the configuration. A .env file in the working directory
// is loaded into the environment if present; path names an optional
// YAML file ("" skips it).
func Load(path string) (*Config, error) {
	_ = godotenv.Load() // missing .env is fine

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}
