package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/strrl/preludium/internal/output"
	"github.com/strrl/preludium/internal/source"
	"github.com/strrl/preludium/internal/timeline"
)

var (
	distributionSource    string
	distributionCSV       string
	distributionTimepoint string
)

var distributionCmd = &cobra.Command{
	Use:   "distribution",
	Short: "Show how many focals are active at each span endpoint",
	Long: `Compute, for every first and last reference date of every focal, how many
focals are active at that instant. The highest points are good timepoints for
splitting train and test data.`,
	RunE: runDistribution,
}

func init() {
	rootCmd.AddCommand(distributionCmd)

	distributionCmd.Flags().StringVarP(&distributionSource, "source", "s", "", "References file (csv, parquet or json)")
	distributionCmd.Flags().StringVar(&distributionCSV, "csv", "", "Also write the distribution to this CSV file")
	distributionCmd.Flags().StringVar(&distributionTimepoint, "timepoint", "", "Print how many references fall before and after this timepoint")
}

func runDistribution(cmd *cobra.Command, args []string) error {
	_, logger, closeLog := setupLogger()
	defer closeLog()

	sourcePath, err := resolveSourcePath(distributionSource)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	src, err := source.Open(ctx, sourcePath, logger)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer src.Close()

	focals, err := src.Focals(ctx)
	if err != nil {
		return fmt.Errorf("failed to load focals: %w", err)
	}

	group := timeline.NewFocalGroupSpan(focals)
	if len(group.Points) == 0 {
		return fmt.Errorf("no focals found in: %s", sourcePath)
	}

	points := group.Distribution()
	outer := group.Outer()

	fmt.Printf("Loaded %d focals spanning %s to %s\n", len(focals), outer.Start.Format("2006-01-02"), outer.End.Format("2006-01-02"))
	fmt.Println(output.RenderDistribution(points, output.ASCII))

	fmt.Println("Highest distribution points:")
	for _, p := range group.HighestDistributionPoints() {
		fmt.Printf("  - %s (%d focals)\n", p.Timepoint.Format("2006-01-02 15:04:05"), p.Focals)
	}

	if distributionTimepoint != "" {
		tp, err := parseTimepoint(distributionTimepoint)
		if err != nil {
			return err
		}
		stats := timeline.PointStatsAt(focals, tp)
		fmt.Printf("At %s: %d references before, %d at or after\n", tp.Format("2006-01-02 15:04:05"), stats.Lower, stats.Higher)
	}

	if distributionCSV != "" {
		f, err := os.Create(distributionCSV)
		if err != nil {
			return fmt.Errorf("failed to create csv file: %w", err)
		}
		defer f.Close()

		if err := output.WriteDistributionCSV(f, points); err != nil {
			return err
		}
		fmt.Printf("Wrote distribution to %s\n", distributionCSV)
	}

	return nil
}
