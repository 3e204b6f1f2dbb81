package main

// Config is the bot configuration. It is read from a YAML (or JSON) file and
// then overlaid with BOT_* environment variables.
type Config struct {
	BotToken     string  `yaml:"bot_token" json:"bot_token" env:"BOT_TOKEN"`
	OwnerIDs     []int64 `yaml:"owner_ids" json:"owner_ids" env:"BOT_OWNER_IDS" envSeparator:","`
	ModeratorIDs []int64 `yaml:"moderator_ids" json:"moderator_ids" env:"BOT_MODERATOR_IDS" envSeparator:","`
	Language     string  `yaml:"language" json:"language" env:"BOT_LANGUAGE"`
	// CommandMarker is the single character that starts a command.
	CommandMarker string `yaml:"command_marker" json:"command_marker" env:"BOT_COMMAND_MARKER"`
	// SkipCommandSync leaves the Telegram command list untouched at startup.
	SkipCommandSync bool `yaml:"skip_command_sync" json:"skip_command_sync" env:"BOT_SKIP_COMMAND_SYNC"`
	DebugAPI        bool `yaml:"debug_api" json:"debug_api" env:"BOT_DEBUG_API"`

	Polling PollingConfig `yaml:"polling" json:"polling"`
	Log     LogConfig     `yaml:"log" json:"log"`
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
}

type PollingConfig struct {
	TimeoutSeconds int `yaml:"timeout_seconds" json:"timeout_seconds" env:"BOT_POLL_TIMEOUT"`
}

type LogConfig struct {
	Level      string `yaml:"level" json:"level" env:"BOT_LOG_LEVEL"`
	File       string `yaml:"file" json:"file" env:"BOT_LOG_FILE"`
	MaxSizeMB  int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" json:"max_age_days"`
}

type MetricsConfig struct {
	// Addr is the listen address of the /metrics endpoint; empty disables it.
	Addr string `yaml:"addr" json:"addr" env:"BOT_METRICS_ADDR"`
}
