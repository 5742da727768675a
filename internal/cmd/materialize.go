package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/strrl/preludium/internal/source"
)

var (
	materializeTweets string
	materializeOut    string
)

var materializeCmd = &cobra.Command{
	Use:   "materialize",
	Short: "Turn raw tweets into a references file",
	Long: `Read raw tweets (id, username, date, hashtags, mentions, to) and write one
row per referenced hashtag, mention or reply target with columns focal,
reference, date and tweet_id. The output format follows the file extension.`,
	RunE: runMaterialize,
}

func init() {
	rootCmd.AddCommand(materializeCmd)

	materializeCmd.Flags().StringVarP(&materializeTweets, "tweets", "t", "", "Raw tweets file (csv, parquet or json)")
	materializeCmd.Flags().StringVarP(&materializeOut, "out", "o", "references.parquet", "Output references file")
}

func runMaterialize(cmd *cobra.Command, args []string) error {
	_, logger, closeLog := setupLogger()
	defer closeLog()

	tweetsPath, err := resolveSourcePath(materializeTweets)
	if err != nil {
		return err
	}

	fmt.Printf("Materializing references from %s\n", tweetsPath)

	count, err := source.Materialize(cmd.Context(), tweetsPath, materializeOut, logger)
	if err != nil {
		return fmt.Errorf("failed to materialize references: %w", err)
	}

	fmt.Printf("Wrote %d references to %s\n", count, materializeOut)
	return nil
}
