package source

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/strrl/preludium/internal/db"
)

// Materialize turns a raw tweets file (id, username, date, hashtags, mentions,
// to) into a reference flow file with one row per focal, reference and date.
// Hashtags and mentions are space separated; the addressee becomes an
// @-reference. Empty and bare "@" references are dropped.
func Materialize(ctx context.Context, tweetsPath, outPath string, logger *slog.Logger) (int64, error) {
	input, needsJSON, err := relationFor(tweetsPath)
	if err != nil {
		return 0, err
	}
	format, err := copyFormat(outPath)
	if err != nil {
		return 0, err
	}

	database, err := db.Open(db.Options{JSON: needsJSON || strings.Contains(format, "JSON")})
	if err != nil {
		return 0, err
	}
	defer database.Close()

	query := fmt.Sprintf(`
		COPY (
			SELECT focal, reference, date, tweet_id
			FROM (
				SELECT
					'@' || CAST(username AS VARCHAR) AS focal,
					unnest(list_distinct(list_concat(
						string_split(COALESCE(CAST(hashtags AS VARCHAR), ''), ' '),
						string_split(COALESCE(CAST(mentions AS VARCHAR), ''), ' '),
						['@' || COALESCE(CAST("to" AS VARCHAR), '')]
					))) AS reference,
					CAST(date AS TIMESTAMP) AS date,
					CAST(id AS VARCHAR) AS tweet_id
				FROM %s
				WHERE username IS NOT NULL AND date IS NOT NULL
			)
			WHERE reference IS NOT NULL
			  AND reference <> ''
			  AND reference <> '@'
			ORDER BY focal ASC, date ASC, tweet_id ASC, reference ASC
		) TO %s (%s)
	`, input, quote(outPath), format)

	if _, err := database.ExecContext(ctx, query); err != nil {
		return 0, fmt.Errorf("failed to materialize references: %w", err)
	}

	output, _, err := relationFor(outPath)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := database.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", output)).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count materialized references: %w", err)
	}

	logger.Info("materialized references", "tweets", tweetsPath, "out", outPath, "rows", count)
	return count, nil
}

func copyFormat(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return "FORMAT CSV, HEADER", nil
	case ".parquet":
		return "FORMAT PARQUET", nil
	case ".json", ".jsonl", ".ndjson":
		return "FORMAT JSON", nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", path)
	}
}
