package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultConfigFile = "config.yaml"

var (
	ErrMissingToken = errors.New("bot_token is required")
	ErrBadMarker    = errors.New("command_marker must be exactly one non-space character")
	ErrBadRotation  = errors.New("log rotation values must not be negative")
)

// configPath picks the config file: the --config flag, then BOT_CONFIG, then
// config.yaml in the working directory.
func configPath(flag string) string {
	if flag != "" {
		return flag
	}
	if p := os.Getenv("BOT_CONFIG"); p != "" {
		return p
	}
	return defaultConfigFile
}

// loadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment. Missing files are skipped; variables already set win.
func loadDotEnv(files ...string) {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				slog.Warn("Failed to load env file", "file", f, "err", err)
			}
			continue
		}
		slog.Debug("Loaded env file", "file", f)
	}
}

// loadConfig reads the config file at path, overlays environment variables
// from environ (the process environment when nil), fills defaults and
// validates the result. A missing default config file is not an error, so the
// bot can run from environment variables alone.
func loadConfig(path string, environ map[string]string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && path == defaultConfigFile:
		// env-only setup
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := env.ParseWithOptions(cfg, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	applyConfigDefaults(cfg)
	// cfg is still returned so callers that need no token can use it
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.BotToken) == "" {
		return ErrMissingToken
	}
	r, size := utf8.DecodeRuneInString(c.CommandMarker)
	if size == 0 || size != len(c.CommandMarker) || unicode.IsSpace(r) {
		return fmt.Errorf("%w: %q", ErrBadMarker, c.CommandMarker)
	}
	if c.Log.MaxSizeMB < 0 || c.Log.MaxBackups < 0 || c.Log.MaxAgeDays < 0 {
		return ErrBadRotation
	}
	return nil
}
