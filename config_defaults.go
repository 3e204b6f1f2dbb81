package main

import "strings"

func defaultConfigTemplate() Config {
	return Config{
		Language:      "en",
		CommandMarker: "/",
		Polling:       PollingConfig{TimeoutSeconds: 60},
		Log: LogConfig{
			Level:      "info",
			File:       "cmdbot.log",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// applyConfigDefaults sets sensible defaults for missing configuration
func applyConfigDefaults(cfg *Config) {
	def := defaultConfigTemplate()

	cfg.Language = strings.ToLower(strings.TrimSpace(cfg.Language))
	if cfg.Language == "" {
		cfg.Language = def.Language
	}
	if cfg.CommandMarker == "" {
		cfg.CommandMarker = def.CommandMarker
	}
	if cfg.Polling.TimeoutSeconds <= 0 {
		cfg.Polling.TimeoutSeconds = def.Polling.TimeoutSeconds
	}

	// Logging
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
	if cfg.Log.File == "" {
		cfg.Log.File = def.Log.File
	}
	if cfg.Log.MaxSizeMB == 0 {
		cfg.Log.MaxSizeMB = def.Log.MaxSizeMB
	}
	if cfg.Log.MaxBackups == 0 {
		cfg.Log.MaxBackups = def.Log.MaxBackups
	}
	if cfg.Log.MaxAgeDays == 0 {
		cfg.Log.MaxAgeDays = def.Log.MaxAgeDays
	}
}
