package source

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/strrl/preludium/internal/db"
	"github.com/strrl/preludium/internal/timeline"
)

// Source reads reference flows (one row per focal, reference and date) from
// a CSV, Parquet or newline-delimited JSON file through DuckDB.
type Source struct {
	db       *sql.DB
	path     string
	relation string
	logger   *slog.Logger
}

type Candidate struct {
	Name       timeline.EntityName `json:"name"`
	Popularity int                 `json:"popularity"`
}

type CandidateQuery struct {
	// Precision selects references adopted by (0.5 ± Precision) of all focals.
	Precision float64
	// MinPopularity is an absolute floor on the number of adopting focals.
	MinPopularity int
	// Limit caps the number of candidates; 0 means no cap.
	Limit int
}

type Stats struct {
	References         int
	Focals             int
	DistinctReferences int
	First              time.Time
	Last               time.Time
}

func Open(ctx context.Context, path string, logger *slog.Logger) (*Source, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}
	if _, err := os.Stat(absPath); err != nil {
		return nil, fmt.Errorf("source does not exist: %w", err)
	}

	relation, needsJSON, err := relationFor(absPath)
	if err != nil {
		return nil, err
	}

	database, err := db.Open(db.Options{JSON: needsJSON})
	if err != nil {
		return nil, err
	}

	s := &Source{db: database, path: absPath, relation: relation, logger: logger}

	columns := fmt.Sprintf("SELECT focal, reference, date FROM %s LIMIT 0", relation)
	rows, err := database.QueryContext(ctx, columns)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("source %s lacks focal/reference/date columns: %w", absPath, err)
	}
	rows.Close()

	logger.Debug("opened reference source", "path", absPath)
	return s, nil
}

func (s *Source) Close() error {
	return s.db.Close()
}

func (s *Source) Path() string {
	return s.path
}

// Focals returns one focal per distinct focal name, ordered by name. Each
// timeline is sorted by date; references sharing a date keep file order.
//
// Rows are read without ORDER BY so DuckDB's insertion-order preservation
// hands them over in file order even under a parallel scan. The stable sort
// below then only reorders by focal and date.
func (s *Source) Focals(ctx context.Context) ([]timeline.Focal, error) {
	query := fmt.Sprintf(`
		SELECT
			CAST(focal AS VARCHAR) AS focal,
			CAST(reference AS VARCHAR) AS reference,
			CAST(date AS TIMESTAMP) AS date
		FROM %s
		WHERE focal IS NOT NULL
		  AND reference IS NOT NULL
		  AND date IS NOT NULL
	`, s.relation)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query references: %w", err)
	}
	defer rows.Close()

	type row struct {
		focal     string
		reference string
		date      time.Time
	}

	var all []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.focal, &r.reference, &r.date); err != nil {
			return nil, fmt.Errorf("failed to scan reference: %w", err)
		}
		r.date = r.date.UTC()
		all = append(all, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	slices.SortStableFunc(all, func(a, b row) int {
		if c := strings.Compare(a.focal, b.focal); c != 0 {
			return c
		}
		return a.date.Compare(b.date)
	})

	var focals []timeline.Focal
	for _, r := range all {
		if len(focals) == 0 || focals[len(focals)-1].Name != r.focal {
			focals = append(focals, timeline.Focal{Name: r.focal})
		}
		last := &focals[len(focals)-1]
		last.Timeline = append(last.Timeline, timeline.Reference{Name: r.reference, Date: r.date})
	}

	s.logger.Debug("loaded focals", "count", len(focals))
	return focals, nil
}

func (s *Source) FocalCount(ctx context.Context) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(DISTINCT focal) FROM %s WHERE focal IS NOT NULL`, s.relation)

	var count int
	if err := s.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count focals: %w", err)
	}
	return count, nil
}

// PopularityCandidates returns averagely popular references: those whose
// number of distinct adopting focals is close to half of all focals. Ordered
// by popularity descending, then name.
func (s *Source) PopularityCandidates(ctx context.Context, q CandidateQuery) ([]Candidate, error) {
	focals, err := s.FocalCount(ctx)
	if err != nil {
		return nil, err
	}

	lower := float64(focals) * (0.5 - q.Precision)
	upper := float64(focals) * (0.5 + q.Precision)

	query := fmt.Sprintf(`
		WITH adoptions AS (
			SELECT DISTINCT CAST(focal AS VARCHAR) AS focal, CAST(reference AS VARCHAR) AS reference
			FROM %s
			WHERE focal IS NOT NULL AND reference IS NOT NULL
		)
		SELECT reference, COUNT(*) AS popularity
		FROM adoptions
		GROUP BY reference
		HAVING COUNT(*) >= $1
		   AND COUNT(*) <= $2
		   AND COUNT(*) >= $3
		ORDER BY popularity DESC, reference ASC
	`, s.relation)
	args := []any{lower, upper, q.MinPopularity}
	if q.Limit > 0 {
		query += " LIMIT $4"
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query popularity: %w", err)
	}
	defer rows.Close()

	var candidates []Candidate
	for rows.Next() {
		var c Candidate
		if err := rows.Scan(&c.Name, &c.Popularity); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		candidates = append(candidates, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	s.logger.Debug("selected candidates", "focals", focals, "lower", lower, "upper", upper, "count", len(candidates))
	return candidates, nil
}

func (s *Source) Stats(ctx context.Context) (Stats, error) {
	query := fmt.Sprintf(`
		SELECT
			COUNT(*),
			COUNT(DISTINCT focal),
			COUNT(DISTINCT reference),
			MIN(CAST(date AS TIMESTAMP)),
			MAX(CAST(date AS TIMESTAMP))
		FROM %s
	`, s.relation)

	var (
		stats       Stats
		first, last sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, query).Scan(&stats.References, &stats.Focals, &stats.DistinctReferences, &first, &last)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to get stats: %w", err)
	}

	if first.Valid {
		stats.First = first.Time.UTC()
	}
	if last.Valid {
		stats.Last = last.Time.UTC()
	}

	return stats, nil
}

func relationFor(path string) (string, bool, error) {
	quoted := quote(path)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return fmt.Sprintf("read_csv(%s, header = true, auto_detect = true)", quoted), false, nil
	case ".parquet":
		return fmt.Sprintf("read_parquet(%s)", quoted), false, nil
	case ".json", ".jsonl", ".ndjson":
		return fmt.Sprintf("read_json(%s, format = 'newline_delimited')", quoted), true, nil
	default:
		return "", false, fmt.Errorf("unsupported source format: %s", path)
	}
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
