package main

import (
	"log/slog"
	"time"

	"cmdbot/internal/access"
	"cmdbot/internal/command"
	"cmdbot/internal/dispatch"
	"cmdbot/internal/i18n"
	"cmdbot/internal/metrics"
	"cmdbot/internal/tg"
)

// AppContext holds the application dependencies.
type AppContext struct {
	Config      *Config
	Bot         tg.BotAPI
	BotUsername string
	Registry    *command.Registry
	Router      *dispatch.Router
	Gate        *access.Gate
	Dispatcher  *dispatch.Dispatcher
	Metrics     *metrics.Metrics
	T           *i18n.Translator
	Log         *slog.Logger
	StartTime   time.Time
}

// newAppContext wires the dispatch pipeline and loads the command tree.
func newAppContext(cfg *Config, bot tg.BotAPI, botUsername string, log *slog.Logger) (*AppContext, command.LoadReport) {
	if log == nil {
		log = slog.Default()
	}
	app := &AppContext{
		Config:      cfg,
		Bot:         bot,
		BotUsername: botUsername,
		Metrics:     metrics.New(),
		T:           i18n.New(cfg.Language),
		Log:         log,
		StartTime:   time.Now(),
	}
	if app.T.Lang() != cfg.Language {
		log.Warn("Unsupported language, using fallback", "language", cfg.Language, "fallback", app.T.Lang())
	}
	if len(cfg.OwnerIDs) == 0 {
		log.Warn("No owner ids configured; owner-only commands are unreachable")
	}

	app.Registry = command.NewRegistry(log)
	app.Router = dispatch.NewRouter(log)
	app.Gate = access.NewGate(bot, cfg.OwnerIDs, cfg.ModeratorIDs, app.T, log)
	app.Gate.OnDeny = func(r access.Reason) { app.Metrics.Denied(string(r)) }
	app.Dispatcher = dispatch.New(dispatch.Options{
		Bot:         bot,
		Registry:    app.Registry,
		Gate:        app.Gate,
		Router:      app.Router,
		Marker:      cfg.CommandMarker,
		BotUsername: botUsername,
		T:           app.T,
		Log:         log,
		Metrics:     app.Metrics,
	})

	report := app.Registry.Load(commandTree(app))
	app.Metrics.LoadFailed(len(report.Errors))
	log.Info("Commands loaded", "definitions", report.Loaded, "aliases", app.Registry.Len(), "errors", len(report.Errors))
	return app, report
}
