package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/taixiu-oracle/internal/app"
	"github.com/yourusername/taixiu-oracle/internal/config"
	"github.com/yourusername/taixiu-oracle/internal/logger"
)

// Build information - set via ldflags
var Version = "dev"

var (
	configFile string
	envFile    string
	sourceURL  string
	interval   int
)

var rootCmd = &cobra.Command{
	Use:          "collector",
	Short:        "Poll the round feed and republish the last rounds on /api/history",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(envFile); err != nil {
			return err
		}
		cfg, err := config.LoadWithDefaults(configFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		cfg.Collector.Enabled = true
		if sourceURL != "" {
			cfg.Collector.SourceURL = sourceURL
		}
		if interval > 0 {
			cfg.Collector.IntervalSeconds = interval
		}
		// The collector binary never serves predictions.
		cfg.Stream.Enabled = false

		if err := config.Validate(cfg); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		log := logger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)
		log.WithFields(logrus.Fields{
			"version":  Version,
			"source":   cfg.Collector.SourceURL,
			"interval": cfg.CollectorInterval().String(),
			"capacity": cfg.Collector.Capacity,
		}).Info("Starting collector")

		a, err := app.New(cfg, log, app.Options{Collector: true, Version: Version})
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return a.Run(ctx)
	},
}

func init() {
	rootCmd.Flags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.Flags().StringVar(&envFile, "env-file", ".env", "Optional dotenv file loaded before the configuration")
	rootCmd.Flags().StringVar(&sourceURL, "source", "", "Override collector.source_url")
	rootCmd.Flags().IntVar(&interval, "interval", 0, "Override collector.interval_seconds")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
