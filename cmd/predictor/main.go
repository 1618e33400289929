package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/taixiu-oracle/internal/app"
	"github.com/yourusername/taixiu-oracle/internal/backtest"
	"github.com/yourusername/taixiu-oracle/internal/config"
	"github.com/yourusername/taixiu-oracle/internal/datasource"
	"github.com/yourusername/taixiu-oracle/internal/logger"
	"github.com/yourusername/taixiu-oracle/internal/predictor"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
)

var (
	configFile string
	envFile    string
	cfg        *config.Config
	appLog     *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:   "predictor",
	Short: "Tài/Xỉu next-round prediction service",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(envFile); err != nil {
			return err
		}
		var err error
		cfg, err = config.LoadWithDefaults(configFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if err := config.Validate(cfg); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		appLog = logger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)
		return nil
	},
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the prediction API (and the collector when enabled)",
	RunE: func(cmd *cobra.Command, args []string) error {
		appLog.WithFields(logrus.Fields{
			"version":     Version,
			"commit":      GitCommit,
			"environment": cfg.App.Environment,
		}).Info("Starting predictor")

		a, err := app.New(cfg, appLog, app.Options{Predictor: true, Collector: true, Version: Version})
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return a.Run(ctx)
	},
}

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Fetch upstream once and print the prediction as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Keep stdout for the JSON payload.
		appLog.SetOutput(cmd.ErrOrStderr())
		svc, err := app.NewPredictionService(cfg, appLog)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), cfg.UpstreamTimeout()+5*time.Second)
		defer cancel()

		if _, err := svc.Predict(ctx); err != nil {
			return fmt.Errorf("prediction failed: %w", err)
		}
		snap, err := svc.Latest()
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if verbose, _ := cmd.Flags().GetBool("detail"); verbose {
			return enc.Encode(snap)
		}
		return enc.Encode(snap.Result)
	},
}

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Replay the ensemble over the upstream history and compare it with coin flips",
	RunE: func(cmd *cobra.Command, args []string) error {
		appLog.SetOutput(cmd.ErrOrStderr())
		source, err := datasource.NewFactory(cfg, appLog).NewHistorySource()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), cfg.UpstreamTimeout()+time.Minute)
		defer cancel()

		rounds, err := source.FetchHistory(ctx)
		if err != nil {
			return fmt.Errorf("failed to fetch history: %w", err)
		}

		warmup, _ := cmd.Flags().GetInt("warmup")
		iterations, _ := cmd.Flags().GetInt("iterations")
		replay, err := backtest.Replay(app.NewEngine(cfg), predictor.NormalizeHistory(rounds, 0), warmup, cfg.Upstream.HistoryLimit)
		if err != nil {
			return err
		}
		baseline, err := backtest.RunMonteCarlo(ctx, replay.Metrics.Correct, replay.Metrics.Total,
			backtest.MonteCarloConfig{Iterations: iterations, Seed: cfg.Ensemble.Seed})
		if err != nil {
			return err
		}

		report := backtest.Report{Replay: replay.Metrics, Baseline: baseline}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}
		fmt.Fprint(cmd.OutOrStdout(), report.String())
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Optional dotenv file loaded before the configuration")
	onceCmd.Flags().Bool("detail", false, "Print the ensemble breakdown as well")
	backtestCmd.Flags().Int("warmup", backtest.DefaultWarmup, "Rounds seen before the first scored prediction")
	backtestCmd.Flags().Int("iterations", 1000, "Coin-flip simulations for the baseline")
	backtestCmd.Flags().Bool("json", false, "Print the report as JSON")
	rootCmd.AddCommand(serveCmd, onceCmd, backtestCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
