package output

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strrl/preludium/internal/aggregator"
	"github.com/strrl/preludium/internal/benchmark"
	"github.com/strrl/preludium/internal/classifier"
	"github.com/strrl/preludium/internal/processor"
	"github.com/strrl/preludium/internal/source"
	"github.com/strrl/preludium/internal/timeline"
)

func result(reference, clf string, shuffled bool, f1 float64) benchmark.Result {
	return benchmark.Result{
		RunID:      "3f2a",
		Reference:  reference,
		Popularity: 4,
		Processor: processor.Description{
			Type:   "WindowingProcessor",
			Fields: map[string]string{"entity_name": reference, "limit": "72h0m0s", "timepoint": "2020-01-11T00:00:00Z"},
		},
		Dicterizer: "counting",
		Classifier: clf,
		Shuffled:   shuffled,
		Metrics: aggregator.Metrics{
			Train: aggregator.PartitionMetrics{Positive: 3, Negative: 5},
			Test:  aggregator.PartitionMetrics{Positive: 1, Negative: 2},
		},
		Summary: classifier.Summary{Folds: 1, AccuracyMean: 0.8, F1Mean: f1},
	}
}

func newReport() *benchmark.Report {
	return &benchmark.Report{
		RunID:      "3f2a",
		Timepoint:  time.Date(2020, 1, 11, 0, 0, 0, 0, time.UTC),
		StartedAt:  time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
		Duration:   1500 * time.Millisecond,
		Candidates: []source.Candidate{{Name: "#go", Popularity: 4}, {Name: "#zig", Popularity: 3}, {Name: "#rust", Popularity: 3}},
		Resumed:    []timeline.EntityName{"#rust"},
		Results: []benchmark.Result{
			result("#go", "majority", false, 0.4),
			result("#go", "naive_bayes", false, 0.7),
			result("#go", "naive_bayes", true, 0.9),
			result("#zig", "naive_bayes", false, 0.5),
		},
		Stats: benchmark.Stats{Processors: 3, Skipped: 1, Evaluated: 4},
	}
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, newReport().Results))

	out := buf.String()
	assert.Contains(t, out, "WindowingProcessor(limit=72h0m0s,timepoint=2020-01-11T00:00:00Z)")
	assert.Contains(t, out, "3/5")
	assert.Contains(t, out, "0.700")
	assert.NotContains(t, out, "entity_name")
}

func TestGenerate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")

	filename, err := NewGenerator(dir).Generate(newReport())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "benchmark-3f2a.md"), filename)

	data, err := os.ReadFile(filename)
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, "# Benchmark 3f2a")
	assert.Contains(t, content, "**Processor configurations:** 3 (1 skipped)")
	assert.Contains(t, content, "- **Best F1:** 0.700")
	assert.Contains(t, content, "## Resumed")
	assert.Less(t, strings.Index(content, "## #go"), strings.Index(content, "## #zig"))
	assert.Contains(t, strings.ToLower(content), "| reference |")
}

func TestWriteDistributionCSV(t *testing.T) {
	points := []timeline.DistributionPoint{
		{Timepoint: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), Focals: 2},
		{Timepoint: time.Date(2020, 1, 11, 0, 0, 0, 0, time.UTC), Focals: 3},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteDistributionCSV(&buf, points))

	assert.Equal(t, "timepoint,focals\n2020-01-01T00:00:00Z,2\n2020-01-11T00:00:00Z,3\n", buf.String())
	assert.Contains(t, RenderDistribution(points, ASCII), "2020-01-11T00:00:00Z")
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "run-1", sanitizeFilename("Run 1"))
	assert.Equal(t, "unnamed", sanitizeFilename("###"))
}
