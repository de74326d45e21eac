// Package config provides configuration loading and validation for the
// bot. It supports TOML configuration files with environment variable
// expansion, default values, and validation.
//
// Configuration structure:
//   - [workspace]: data directory holding the JSON stores
//   - [polling]: delivery poll cadence and the daily cleanup schedule
//   - [logging]: logging level, format, and output
//   - [metrics]: prometheus /metrics listener
//   - [channels.telegram]: telegram delivery channel
//
// Environment variables can be referenced using ${VAR} or ${VAR:default}
// syntax, for example: token = "${TELEGRAM_BOT_TOKEN}".
package config

// Config represents the main application configuration.
type Config struct {
	Workspace WorkspaceConfig `toml:"workspace"`
	Polling   PollingConfig   `toml:"polling"`
	Logging   LoggingConfig   `toml:"logging"`
	Metrics   MetricsConfig   `toml:"metrics"`
	Channels  ChannelsConfig  `toml:"channels"`
}

// WorkspaceConfig locates the data directory for tasks, runs, events
// and reminders.
type WorkspaceConfig struct {
	Path string `toml:"path"`
}

// PollingConfig drives the delivery loop and the daily cleanup entry.
type PollingConfig struct {
	IntervalSeconds      int    `toml:"interval_seconds"`
	CleanupSpec          string `toml:"cleanup_spec"`
	CleanupRetentionDays int    `toml:"cleanup_retention_days"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	Output string `toml:"output"`
}

// MetricsConfig configures the prometheus listener.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Listen  string `toml:"listen"`
}

// ChannelsConfig holds the delivery channel configurations.
type ChannelsConfig struct {
	Telegram TelegramConfig `toml:"telegram"`
}

// TelegramConfig configures the telegram delivery channel.
type TelegramConfig struct {
	Enabled       bool   `toml:"enabled"`
	Token         string `toml:"token"`
	RetryAttempts int    `toml:"retry_attempts"`
}
