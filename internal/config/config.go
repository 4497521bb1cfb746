package config

import "time"

// Config holds client and development-server configuration.
type Config struct {
	// ServerURL is the chat backend base URL; the websocket URL is
	// derived from it.
	ServerURL string `mapstructure:"server_url" yaml:"server_url"`
	// ScoreURL is the reputation lookup endpoint. Empty selects the
	// public network.
	ScoreURL     string          `mapstructure:"score_url" yaml:"score_url"`
	HistoryLimit int             `mapstructure:"history_limit" yaml:"history_limit"`
	LogLevel     string          `mapstructure:"log_level" yaml:"log_level"`
	Reconnect    ReconnectConfig `mapstructure:"reconnect" yaml:"reconnect"`
	Serve        ServeConfig     `mapstructure:"serve" yaml:"serve"`
}

// ReconnectConfig tunes the live-stream backoff policy.
type ReconnectConfig struct {
	BaseDelay   time.Duration `mapstructure:"base_delay" yaml:"base_delay"`
	MaxDelay    time.Duration `mapstructure:"max_delay" yaml:"max_delay"`
	MaxAttempts int           `mapstructure:"max_attempts" yaml:"max_attempts"`
}

// ServeConfig holds development-server settings.
type ServeConfig struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	DatabasePath      string        `mapstructure:"database_path" yaml:"database_path"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		ServerURL:    "http://localhost:8080",
		ScoreURL:     "",
		HistoryLimit: 100,
		LogLevel:     "info",
		Reconnect: ReconnectConfig{
			BaseDelay:   time.Second,
			MaxDelay:    30 * time.Second,
			MaxAttempts: 5,
		},
		Serve: ServeConfig{
			Addr:              ":8080",
			DatabasePath:      "ethoschat.db",
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   5 * time.Second,
		},
	}
}
