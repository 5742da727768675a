package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/strrl/preludium/internal/benchmark"
	"github.com/strrl/preludium/internal/config"
	"github.com/strrl/preludium/internal/output"
	"github.com/strrl/preludium/internal/source"
	"github.com/strrl/preludium/internal/store"
)

var (
	benchmarkConfig    string
	benchmarkSource    string
	benchmarkResults   string
	benchmarkReport    string
	benchmarkTimepoint string
	benchmarkWorkers   int
	benchmarkFresh     bool
	benchmarkShuffle   bool
)

var benchmarkCmd = &cobra.Command{
	Use:   "benchmark",
	Short: "Benchmark processors, dicterizers and classifiers over candidate references",
	Long: `Load every focal timeline from a references file, pick averagely popular
references as candidates and, for each one, build datasets with every
configured processor, vectorize them with every dicterizer and score every
classifier on the train/test split. Results are stored in SQLite so an
interrupted run resumes where it stopped.`,
	RunE: runBenchmark,
}

func init() {
	rootCmd.AddCommand(benchmarkCmd)

	benchmarkCmd.Flags().StringVarP(&benchmarkConfig, "config", "c", "", "Path to a YAML benchmark run file")
	benchmarkCmd.Flags().StringVarP(&benchmarkSource, "source", "s", "", "References file (csv, parquet or json)")
	benchmarkCmd.Flags().StringVar(&benchmarkResults, "results", "", "SQLite results database (default: $PRELUDIUM_RESULTS_DB)")
	benchmarkCmd.Flags().StringVar(&benchmarkReport, "report", "", "Directory for the markdown report")
	benchmarkCmd.Flags().StringVar(&benchmarkTimepoint, "timepoint", "", "Train/test timepoint (default: highest distribution point)")
	benchmarkCmd.Flags().IntVarP(&benchmarkWorkers, "workers", "w", 0, "Number of references evaluated concurrently")
	benchmarkCmd.Flags().BoolVar(&benchmarkFresh, "fresh", false, "Discard stored results instead of resuming")
	benchmarkCmd.Flags().BoolVar(&benchmarkShuffle, "shuffle-baseline", false, "Also score shuffled labels as a chance baseline")
}

func runBenchmark(cmd *cobra.Command, args []string) error {
	env, logger, closeLog := setupLogger()
	defer closeLog()

	cfg := config.DefaultBenchmark()
	cfg.Workers = env.Workers
	if benchmarkConfig != "" {
		loaded, err := config.LoadBenchmark(benchmarkConfig)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("source") {
		cfg.Source = benchmarkSource
	}
	if flags.Changed("results") {
		cfg.Results = benchmarkResults
	}
	if flags.Changed("report") {
		cfg.Report = benchmarkReport
	}
	if flags.Changed("workers") {
		cfg.Workers = benchmarkWorkers
	}
	if flags.Changed("fresh") {
		cfg.FreshStart = benchmarkFresh
	}
	if flags.Changed("shuffle-baseline") {
		cfg.ShuffleBaseline = benchmarkShuffle
	}
	if flags.Changed("timepoint") {
		tp, err := parseTimepoint(benchmarkTimepoint)
		if err != nil {
			return err
		}
		cfg.Timepoint = tp
	}
	if cfg.Results == "" {
		cfg.Results = env.ResultsDB
	}

	sourcePath, err := resolveSourcePath(cfg.Source)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	src, err := source.Open(ctx, sourcePath, logger)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer src.Close()

	stats, err := src.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to get source stats: %w", err)
	}
	if stats.References == 0 {
		return fmt.Errorf("no references found in: %s", sourcePath)
	}

	fmt.Printf("Benchmarking source: %s\n", sourcePath)
	fmt.Printf("Found %d references by %d focals (%d distinct) from %s to %s\n",
		stats.References, stats.Focals, stats.DistinctReferences,
		stats.First.Format("2006-01-02"), stats.Last.Format("2006-01-02"))

	results, err := store.Open(cfg.Results)
	if err != nil {
		return fmt.Errorf("failed to open results database: %w", err)
	}
	defer results.Close()

	fmt.Printf("Results database: %s\n", cfg.Results)
	fmt.Printf("Processors: %v\n", cfg.Processors)
	fmt.Printf("Dicterizers: %v\n", cfg.Dicterizers)
	fmt.Printf("Classifiers: %v\n", cfg.Classifiers)

	runner, err := benchmark.NewRunner(src, results, cfg, logger)
	if err != nil {
		return err
	}

	report, err := runner.Run(ctx)
	if err != nil {
		return fmt.Errorf("benchmark failed: %w", err)
	}

	fmt.Printf("Run %s at timepoint %s\n", report.RunID, report.Timepoint.Format("2006-01-02 15:04:05"))
	fmt.Printf("  - %d candidate references\n", len(report.Candidates))
	fmt.Printf("  - %d resumed from earlier runs\n", len(report.Resumed))
	fmt.Printf("  - %d processor configurations (%d skipped)\n", report.Stats.Processors, report.Stats.Skipped)
	fmt.Printf("  - %d evaluations in %s\n", report.Stats.Evaluated, report.Duration.Round(time.Millisecond))

	if len(report.Results) > 0 {
		if err := output.WriteTable(os.Stdout, report.Results); err != nil {
			return fmt.Errorf("failed to write results: %w", err)
		}
	}

	if cfg.Report != "" {
		file, err := output.NewGenerator(cfg.Report).Generate(report)
		if err != nil {
			return fmt.Errorf("failed to generate report: %w", err)
		}
		fmt.Printf("Wrote report to %s\n", file)
	}

	return nil
}

func resolveSourcePath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("a references file is required (--source or source: in the run file)")
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return "", fmt.Errorf("path does not exist: %w", err)
	}

	if info.IsDir() {
		return "", fmt.Errorf("path is a directory: %s", absPath)
	}

	return absPath, nil
}

var timepointLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTimepoint(s string) (time.Time, error) {
	for _, layout := range timepointLayouts {
		if tp, err := time.Parse(layout, s); err == nil {
			return tp, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timepoint %q: expected one of %v", s, timepointLayouts)
}
