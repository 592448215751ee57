// Command tempdash shows a live temperature feed in the terminal: history
// is fetched once over HTTP, then readings pushed over a WebSocket are
// appended as they arrive.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/luki/tempdash/internal/config"
	"github.com/luki/tempdash/internal/dashboard"
	"github.com/luki/tempdash/internal/feed"
	"github.com/luki/tempdash/internal/locale"
)

var (
	cfg        config.Config
	localeFlag string
)

var rootCmd = &cobra.Command{
	Use:          "tempdash",
	Short:        "Live temperature dashboard",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("locale") {
			sel, err := locale.Parse(localeFlag)
			if err != nil {
				return err
			}
			cfg.Locale = sel
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		return setupLogging(cfg.LogFile, cfg.LogLevel)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		log.WithFields(log.Fields{
			"history":  cfg.HistoryURL,
			"live":     cfg.LiveURL,
			"capacity": cfg.Capacity,
			"locale":   cfg.Locale,
		}).Info("starting dashboard")

		httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
		return dashboard.Run(ctx, dashboard.Options{
			History: feed.NewHistoryClient(cfg.HistoryURL, httpClient, feed.DefaultBackoff),
			Live: feed.NewLiveSource(feed.LiveConfig{
				URL:          cfg.LiveURL,
				ReconnectMin: cfg.ReconnectMin,
				ReconnectMax: cfg.ReconnectMax,
			}),
			Capacity: cfg.Capacity,
			Locale:   cfg.Locale,
		})
	},
}

func init() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfg.HistoryURL, "history-url", cfg.HistoryURL, "URL returning the JSON array of historical readings")
	flags.StringVar(&cfg.LiveURL, "ws-url", cfg.LiveURL, "WebSocket URL pushing live readings")
	flags.IntVar(&cfg.Capacity, "capacity", cfg.Capacity, "maximum number of readings kept")
	flags.StringVar(&localeFlag, "locale", cfg.Locale.String(), "display locale: us or br")
	flags.DurationVar(&cfg.HTTPTimeout, "http-timeout", cfg.HTTPTimeout, "timeout of the history request")
	flags.DurationVar(&cfg.ReconnectMin, "reconnect-min", cfg.ReconnectMin, "first delay before reconnecting the live feed")
	flags.DurationVar(&cfg.ReconnectMax, "reconnect-max", cfg.ReconnectMax, "maximum delay between reconnects")
	flags.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "log file (the terminal is taken by the dashboard)")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: trace|debug|info|warn|error")
}

// setupLogging points logrus at a file since the TUI owns stdout.
func setupLogging(path, level string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return err
	}
	log.SetLevel(lvl)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	if path == "" {
		log.SetOutput(os.Stderr)
		return nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("cannot open log file: %w", err)
	}
	log.SetOutput(f)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
