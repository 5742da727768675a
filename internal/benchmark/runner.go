package benchmark

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/strrl/preludium/internal/config"
	"github.com/strrl/preludium/internal/processor"
	"github.com/strrl/preludium/internal/source"
	"github.com/strrl/preludium/internal/timeline"
)

var ErrNoFocals = errors.New("source has no focals")

type FocalSource interface {
	Focals(ctx context.Context) ([]timeline.Focal, error)
}

type CandidateSource interface {
	PopularityCandidates(ctx context.Context, q source.CandidateQuery) ([]source.Candidate, error)
}

type DataSource interface {
	FocalSource
	CandidateSource
}

// ResultSink persists results. Implementations must be safe for concurrent
// use.
//
// SaveResults stores every result of one reference and marks the reference
// completed, atomically: after a failure neither the rows nor the mark
// remain. It is called with no results when every configuration was skipped.
// CompletedReferences returns the marked references.
type ResultSink interface {
	SaveResults(ctx context.Context, reference timeline.EntityName, results []Result) error
	CompletedReferences(ctx context.Context) (map[string]bool, error)
	Reset(ctx context.Context) error
}

type Runner struct {
	source DataSource
	sink   ResultSink
	cfg    config.BenchmarkConfig
	logger *slog.Logger
	now    func() time.Time
}

func NewRunner(src DataSource, sink ResultSink, cfg config.BenchmarkConfig, logger *slog.Logger) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Runner{
		source: src,
		sink:   sink,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Run evaluates every candidate reference. Each reference is an independent
// unit of work; at most cfg.Workers run at once and the first error cancels
// the rest.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	report := &Report{
		RunID:     uuid.NewString(),
		StartedAt: r.now(),
	}

	if r.cfg.FreshStart {
		if err := r.sink.Reset(ctx); err != nil {
			return nil, fmt.Errorf("failed to reset results: %w", err)
		}
	}

	focals, err := r.source.Focals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load focals: %w", err)
	}
	group := timeline.NewFocalGroupSpan(focals)
	if len(group.Points) == 0 {
		return nil, ErrNoFocals
	}

	report.Timepoint = r.cfg.Timepoint
	if report.Timepoint.IsZero() {
		report.Timepoint = group.HighestDistributionPoints()[0].Timepoint
		r.logger.Info("using highest distribution point as timepoint", "timepoint", report.Timepoint)
	}

	candidates, err := r.source.PopularityCandidates(ctx, r.cfg.Candidates.Query())
	if err != nil {
		return nil, fmt.Errorf("failed to select candidates: %w", err)
	}
	report.Candidates = candidates

	completed, err := r.sink.CompletedReferences(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read completed references: %w", err)
	}

	pipeline, err := NewPipeline(PipelineConfig{
		Kinds: r.kinds(),
		Params: processor.Params{
			Timepoint:       report.Timepoint,
			Limit:           r.cfg.WindowLimit,
			TestProbability: r.cfg.TestProbability,
			Seed:            r.cfg.Seed,
		},
		Dicterizers:     r.cfg.Dicterizers,
		Classifiers:     r.cfg.Classifiers,
		Balance:         r.cfg.Balance,
		ShuffleBaseline: r.cfg.ShuffleBaseline,
		Span:            group.Outer(),
	}, r.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}

	r.logger.Info("starting benchmark",
		"run_id", report.RunID,
		"candidates", len(candidates),
		"completed", len(completed),
		"focals", len(focals),
		"workers", r.cfg.Workers,
	)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)

	for _, candidate := range candidates {
		if completed[candidate.Name] {
			r.logger.Info("reference already benchmarked, skipping", "reference", candidate.Name)
			report.Resumed = append(report.Resumed, candidate.Name)
			continue
		}

		g.Go(func() error {
			results, stats, err := pipeline.Process(gctx, focals, candidate)
			if err != nil {
				return fmt.Errorf("reference %s: %w", candidate.Name, err)
			}

			for i := range results {
				results[i].RunID = report.RunID
				results[i].CreatedAt = r.now()
			}
			if err := r.sink.SaveResults(gctx, candidate.Name, results); err != nil {
				return fmt.Errorf("failed to save results for %s: %w", candidate.Name, err)
			}

			r.logger.Info("reference benchmarked",
				"reference", candidate.Name,
				"results", len(results),
				"skipped", stats.Skipped,
			)

			mu.Lock()
			defer mu.Unlock()
			report.Results = append(report.Results, results...)
			report.Stats = report.Stats.Add(stats)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	SortResults(report.Results)
	report.Duration = r.now().Sub(report.StartedAt)

	return report, nil
}

func (r *Runner) kinds() []processor.Kind {
	kinds := make([]processor.Kind, 0, len(r.cfg.Processors))
	for _, name := range r.cfg.Processors {
		// validated in NewRunner
		k, _ := processor.ParseKind(name)
		kinds = append(kinds, k)
	}
	return kinds
}

// SortResults orders results by reference, processor, dicterizer, classifier,
// unshuffled first.
func SortResults(results []Result) {
	slices.SortStableFunc(results, func(a, b Result) int {
		return cmp.Or(
			cmp.Compare(a.Reference, b.Reference),
			cmp.Compare(a.Processor.Type, b.Processor.Type),
			cmp.Compare(a.Dicterizer, b.Dicterizer),
			cmp.Compare(a.Classifier, b.Classifier),
			compareBool(a.Shuffled, b.Shuffled),
		)
	})
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}
