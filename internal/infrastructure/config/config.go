package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Preview    PreviewConfig
	Session    SessionConfig
	Challenges ChallengeConfig
	Logging    LogConfig
	RateLimit  RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string        `envconfig:"PORT" default:"8000"`
	Host         string        `envconfig:"HOST" default:"0.0.0.0"`
	AllowOrigins []string      `envconfig:"ALLOW_ORIGINS" default:"*"`
	ShutdownWait time.Duration `envconfig:"SHUTDOWN_WAIT" default:"10s"`
}

// PreviewConfig holds live-preview pipeline configuration.
type PreviewConfig struct {
	QuietInterval time.Duration `envconfig:"PREVIEW_QUIET_INTERVAL" default:"300ms"`
	MaxMessage    int64         `envconfig:"PREVIEW_MAX_MESSAGE" default:"1048576"`

	// The probe runs user scripts inside this process, so it is opt-in
	ProbeEnabled    bool          `envconfig:"PREVIEW_PROBE_ENABLED" default:"false"`
	ProbeTimeout    time.Duration `envconfig:"PREVIEW_PROBE_TIMEOUT" default:"2s"`
	ProbePoolSize   int           `envconfig:"PREVIEW_PROBE_POOL" default:"4"`
	ProbeMaxBytes   int           `envconfig:"PREVIEW_PROBE_MAX_BYTES" default:"262144"`
	ProbeMaxScripts int           `envconfig:"PREVIEW_PROBE_MAX_SCRIPTS" default:"32"`
	ProbeMaxLength  int           `envconfig:"PREVIEW_PROBE_MAX_LENGTH" default:"1048576"`
}

// SessionConfig holds playground session limits.
type SessionConfig struct {
	Max         int           `envconfig:"SESSION_MAX" default:"1000"`
	IdleTimeout time.Duration `envconfig:"SESSION_IDLE_TIMEOUT" default:"30m"`
	ReapEvery   time.Duration `envconfig:"SESSION_REAP_INTERVAL" default:"1m"`
}

// ChallengeConfig holds challenge catalog sources.
type ChallengeConfig struct {
	Dir     string        `envconfig:"CHALLENGES_DIR" default:"challenges"`
	URL     string        `envconfig:"CHALLENGES_URL"`
	Refresh time.Duration `envconfig:"CHALLENGES_REFRESH" default:"5m"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
	File        string `envconfig:"LOG_FILE"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         "8000",
			Host:         "0.0.0.0",
			AllowOrigins: []string{"*"},
			ShutdownWait: 10 * time.Second,
		},
		Preview: PreviewConfig{
			QuietInterval:   300 * time.Millisecond,
			MaxMessage:      1 << 20,
			ProbeEnabled:    false,
			ProbeTimeout:    2 * time.Second,
			ProbePoolSize:   4,
			ProbeMaxBytes:   256 << 10,
			ProbeMaxScripts: 32,
			ProbeMaxLength:  1 << 20,
		},
		Session: SessionConfig{
			Max:         1000,
			IdleTimeout: 30 * time.Minute,
			ReapEvery:   time.Minute,
		},
		Challenges: ChallengeConfig{
			Dir:     "challenges",
			Refresh: 5 * time.Minute,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}
