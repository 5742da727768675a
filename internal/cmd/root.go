package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/strrl/preludium/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "preludium",
	Short: "Benchmark reference-propagation timeline classification",
	Long: `preludium turns per-focal timelines of referenced entities into labeled
datasets and benchmarks how well a reference's adoption can be predicted from
what a focal referenced before.`,
	SilenceUsage: true,
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.HiddenDefaultCmd = false
}

func setupLogger() (config.Config, *slog.Logger, func() error) {
	cfg := config.Load()
	logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	return cfg, logger, cleanup
}
