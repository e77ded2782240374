// Package config loads the server configuration from YAML with environment
// variable expansion.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete zuvid configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Auth    AuthConfig    `yaml:"auth"`
	Redis   RedisConfig   `yaml:"redis"`
	Events  EventsConfig  `yaml:"events"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig holds the listen address.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// AuthConfig holds token and challenge settings.
type AuthConfig struct {
	JWTSecret    string        `yaml:"jwt_secret"`
	SessionTTL   time.Duration `yaml:"session_ttl"`
	ChallengeTTL time.Duration `yaml:"challenge_ttl"`
	Arbitrators  []string      `yaml:"arbitrators"`
}

// RedisConfig holds the Redis connection URL. When empty, in-memory stores
// are used and sessions do not survive a restart of the server process.
type RedisConfig struct {
	URL string `yaml:"url"`
}

// EventsConfig controls session event publication.
type EventsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv replaces ${VAR} references with their environment values.
func expandEnv(in []byte) []byte {
	return envPattern.ReplaceAllFunc(in, func(m []byte) []byte {
		name := envPattern.FindSubmatch(m)[1]
		return []byte(os.Getenv(string(name)))
	})
}

// Load reads and parses the config file at path, applying defaults for
// anything unset.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(expandEnv(raw), cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a config with defaults applied.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":9000"},
		Auth: AuthConfig{
			SessionTTL:   7 * 24 * time.Hour,
			ChallengeTTL: 5 * time.Minute,
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// Validate checks required fields.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("auth.session_ttl must be positive")
	}
	if c.Auth.ChallengeTTL <= 0 {
		return fmt.Errorf("auth.challenge_ttl must be positive")
	}
	return nil
}
