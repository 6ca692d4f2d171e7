package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/credence/internal/config"
)

func main() {
	if err := newRootCmd(config.Load()).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(cfg config.Config) *cobra.Command {
	var logLevel string

	rootCmd := &cobra.Command{
		Use:   "credence",
		Short: "Simulate how identity threat decouples evidence from perceived credibility",
		Long: `credence runs a precision-weighted belief update over synthetic threat and
institutional-signal trajectories. It can run one scenario, compare a scenario
set, emit the synthetic panel fixture, or serve the same operations over HTTP.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(logLevel)
		},
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(simulateCmd(cfg))
	rootCmd.AddCommand(compareCmd(cfg))
	rootCmd.AddCommand(datasetCmd(cfg))
	rootCmd.AddCommand(serveCmd(cfg))

	return rootCmd
}

// setupLogging writes JSON logs to stderr so stdout stays clean for results.
func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
