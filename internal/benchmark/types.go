package benchmark

import (
	"time"

	"github.com/strrl/preludium/internal/aggregator"
	"github.com/strrl/preludium/internal/classifier"
	"github.com/strrl/preludium/internal/processor"
	"github.com/strrl/preludium/internal/source"
	"github.com/strrl/preludium/internal/timeline"
)

// Result is one evaluated (reference, processor, dicterizer, classifier)
// configuration.
type Result struct {
	RunID      string                `json:"run_id"`
	Reference  timeline.EntityName   `json:"reference"`
	Popularity int                   `json:"popularity"`
	Processor  processor.Description `json:"processor"`
	Dicterizer string                `json:"dicterizer"`
	Classifier string                `json:"classifier"`
	Shuffled   bool                  `json:"shuffled"`
	Metrics    aggregator.Metrics    `json:"metrics"`
	Summary    classifier.Summary    `json:"summary"`
	CreatedAt  time.Time             `json:"created_at"`
}

// Stats counts what happened to the configurations of one or more references.
type Stats struct {
	Processors int
	Skipped    int
	Evaluated  int
}

func (s Stats) Add(other Stats) Stats {
	return Stats{
		Processors: s.Processors + other.Processors,
		Skipped:    s.Skipped + other.Skipped,
		Evaluated:  s.Evaluated + other.Evaluated,
	}
}

type Report struct {
	RunID      string
	Timepoint  time.Time
	StartedAt  time.Time
	Duration   time.Duration
	Candidates []source.Candidate
	// Resumed lists candidates skipped because the sink already had them.
	Resumed []timeline.EntityName
	Results []Result
	Stats   Stats
}
