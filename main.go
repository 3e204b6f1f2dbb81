package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"

	"cmdbot/internal/metrics"
)

// Set with -ldflags "-X main.version=... -X main.commit=...".
var (
	version = "dev"
	commit  = "none"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgFile string
	root := &cobra.Command{
		Use:          "cmdbot",
		Short:        "Telegram bot that dispatches chat commands",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBot(cmd.Context(), cfgFile)
		},
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $BOT_CONFIG or config.yaml)")

	root.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Start polling Telegram for updates",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBot(cmd.Context(), cfgFile)
		},
	})
	root.AddCommand(newCommandsCmd(&cfgFile))
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "cmdbot %s (%s)\n", version, commit)
		},
	})
	return root
}

// newCommandsCmd prints the command registry without connecting to Telegram.
func newCommandsCmd(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "commands",
		Short: "List the loaded commands and their access policy",
		RunE: func(cmd *cobra.Command, _ []string) error {
			loadDotEnv(".env")
			cfg, err := loadListingConfig(configPath(*cfgFile), nil)
			if err != nil {
				return err
			}

			quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
			app, report := newAppContext(cfg, nil, "", quiet)
			for _, lerr := range report.Errors {
				fmt.Fprintln(cmd.ErrOrStderr(), lerr)
			}
			return printCommands(cmd.OutOrStdout(), app.Registry, cfg.CommandMarker)
		},
	}
}

// loadListingConfig loads the config for commands that never contact
// Telegram, so a missing token is not an error.
func loadListingConfig(path string, environ map[string]string) (*Config, error) {
	cfg, err := loadConfig(path, environ)
	if errors.Is(err, ErrMissingToken) {
		return cfg, nil
	}
	return cfg, err
}

func runBot(ctx context.Context, cfgFile string) error {
	loadDotEnv(".env")
	cfg, err := loadConfig(configPath(cfgFile), nil)
	if err != nil {
		return err
	}
	log := setupLogger(cfg.Log)
	defer closeLogger()

	bot, err := newTelegramBot(cfg)
	if err != nil {
		log.Error("Bot startup failed", "err", err)
		return err
	}
	log.Info("Bot started", "username", bot.Self.UserName, "version", version)

	app, _ := newAppContext(cfg, bot, bot.Self.UserName, log)
	if err := syncCommands(app); err != nil {
		log.Warn("Command menu sync failed", "err", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Addr != "" {
		srv := startMetricsServer(cfg.Metrics.Addr, app.Metrics, log)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = cfg.Polling.TimeoutSeconds
	updates := bot.GetUpdatesChan(u)

	serveUpdates(ctx, app, updates, bot.StopReceivingUpdates)
	log.Info("Bot stopped")
	return nil
}

func startMetricsServer(addr string, m *metrics.Metrics, log *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info("Metrics endpoint listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Metrics server failed", "addr", addr, "err", err)
		}
	}()
	return srv
}
