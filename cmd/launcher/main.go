package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"campaign-launcher/internal/config"
	"campaign-launcher/internal/dictionary"
)

var (
	configFile string
	logLevel   string

	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "launcher",
	Short: "Compose, preview and create app-promotion campaigns",
	Long: `launcher turns a few campaign intent parameters (project, tier or
countries, gender, age, optimization model, bid strategy, language, budget)
into a canonical campaign name, a geo-targeting spec and the platform
requests that create a paused campaign and its ad set.

Failed creations are written as bulk-import CSV files for manual upload.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(configFile); err != nil {
			return err
		}
		level := cfg.Server.LogLevel
		if logLevel != "" {
			level = logLevel
		}
		return config.SetupLogging(level, cfg.Server.LogFormat)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default configs/launcher.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error")

	rootCmd.AddCommand(createCmd, previewCmd, tiersCmd, serveCmd, historyCmd)
}

func loadBundle() (*dictionary.Bundle, error) {
	b, err := dictionary.Load(cfg.Dictionaries.Dir)
	if err != nil {
		return nil, fmt.Errorf("load dictionaries: %w", err)
	}
	return b, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
