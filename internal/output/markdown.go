package output

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/strrl/preludium/internal/benchmark"
	"github.com/strrl/preludium/internal/timeline"
)

type Generator struct {
	outputDir string
}

func NewGenerator(outputDir string) *Generator {
	return &Generator{
		outputDir: outputDir,
	}
}

// Generate writes the report to <outputDir>/benchmark-<run id>.md and returns
// the file name.
func (g *Generator) Generate(report *benchmark.Report) (string, error) {
	if err := os.MkdirAll(g.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	filename := filepath.Join(g.outputDir, fmt.Sprintf("benchmark-%s.md", sanitizeFilename(report.RunID)))
	if err := os.WriteFile(filename, []byte(g.Render(report)), 0644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}

	return filename, nil
}

func (g *Generator) Render(report *benchmark.Report) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Benchmark %s\n\n", report.RunID))
	sb.WriteString(fmt.Sprintf("**Timepoint:** %s\n", report.Timepoint.Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("**Started:** %s\n", report.StartedAt.Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("**Duration:** %s\n", report.Duration.Round(time.Millisecond)))
	sb.WriteString(fmt.Sprintf("**Candidates:** %d\n", len(report.Candidates)))
	sb.WriteString(fmt.Sprintf("**Resumed:** %d\n", len(report.Resumed)))
	sb.WriteString(fmt.Sprintf("**Processor configurations:** %d (%d skipped)\n", report.Stats.Processors, report.Stats.Skipped))
	sb.WriteString(fmt.Sprintf("**Evaluations:** %d\n\n", report.Stats.Evaluated))

	grouped := groupByReference(report.Results)
	popularity := make(map[timeline.EntityName]int, len(report.Candidates))
	for _, c := range report.Candidates {
		popularity[c.Name] = c.Popularity
	}

	for _, reference := range sortedReferences(grouped) {
		sb.WriteString(fmt.Sprintf("## %s\n\n", reference))
		sb.WriteString(fmt.Sprintf("- **Popularity:** %d focals\n", popularity[reference]))
		if best, ok := bestResult(grouped[reference]); ok {
			sb.WriteString(fmt.Sprintf("- **Best F1:** %.3f (%s, %s, %s)\n",
				best.Summary.F1Mean, processorLabel(best.Processor), best.Dicterizer, best.Classifier))
		}
		sb.WriteString("\n")
		sb.WriteString(RenderResults(grouped[reference], Markdown))
		sb.WriteString("\n\n")
	}

	if len(report.Resumed) > 0 {
		sb.WriteString("## Resumed\n\n")
		sb.WriteString("Already benchmarked in an earlier run:\n\n")
		for _, name := range report.Resumed {
			sb.WriteString(fmt.Sprintf("- %s\n", name))
		}
	}

	return sb.String()
}

func groupByReference(results []benchmark.Result) map[timeline.EntityName][]benchmark.Result {
	grouped := make(map[timeline.EntityName][]benchmark.Result)
	for _, r := range results {
		grouped[r.Reference] = append(grouped[r.Reference], r)
	}
	return grouped
}

func sortedReferences(grouped map[timeline.EntityName][]benchmark.Result) []timeline.EntityName {
	names := make([]timeline.EntityName, 0, len(grouped))
	for name := range grouped {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// bestResult ignores shuffled-label runs.
func bestResult(results []benchmark.Result) (benchmark.Result, bool) {
	var best benchmark.Result
	found := false
	for _, r := range results {
		if r.Shuffled {
			continue
		}
		if !found || r.Summary.F1Mean > best.Summary.F1Mean {
			best = r
			found = true
		}
	}
	return best, found
}

func sanitizeFilename(s string) string {
	reg := regexp.MustCompile(`[^a-zA-Z0-9_-]+`)
	result := reg.ReplaceAllString(s, "-")
	result = strings.Trim(result, "-")
	if len(result) > 50 {
		result = result[:50]
	}
	if result == "" {
		result = "unnamed"
	}
	return strings.ToLower(result)
}
