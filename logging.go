package main

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	persistentLog *lumberjack.Logger
	loggingMu     sync.Mutex
)

// parseLevel maps a config level name to a slog level. Unknown names log at
// info.
func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// newLogger builds the app logger writing to out.
func newLogger(out io.Writer, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	return slog.New(slog.NewTextHandler(out, opts)).With("app", "cmdbot")
}

// setupLogger initializes the structured logger. Output goes to stdout and,
// unless cfg.File is "-", to a size-rotated log file.
func setupLogger(cfg LogConfig) *slog.Logger {
	loggingMu.Lock()
	defer loggingMu.Unlock()
	closeLoggerLocked()

	var out io.Writer = os.Stdout
	if cfg.File != "" && cfg.File != "-" {
		persistentLog = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		}
		out = io.MultiWriter(os.Stdout, persistentLog)
	}

	logger := newLogger(out, cfg.Level)
	slog.SetDefault(logger)
	if persistentLog != nil {
		slog.Info("Persistent logging enabled", "file", cfg.File, "max_size_mb", cfg.MaxSizeMB)
	}
	return logger
}

func closeLogger() {
	loggingMu.Lock()
	defer loggingMu.Unlock()
	closeLoggerLocked()
}

func closeLoggerLocked() {
	if persistentLog == nil {
		return
	}
	_ = persistentLog.Close()
	persistentLog = nil
}
