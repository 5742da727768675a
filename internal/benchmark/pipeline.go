package benchmark

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"math/rand/v2"
	"slices"

	"github.com/strrl/preludium/internal/aggregator"
	"github.com/strrl/preludium/internal/classifier"
	"github.com/strrl/preludium/internal/dataset"
	"github.com/strrl/preludium/internal/dicterizer"
	"github.com/strrl/preludium/internal/processor"
	"github.com/strrl/preludium/internal/source"
	"github.com/strrl/preludium/internal/timeline"
	"github.com/strrl/preludium/internal/vectorize"
)

// Pipeline evaluates a single candidate reference: process, aggregate,
// vectorize, classify.
type Pipeline struct {
	aggregator  *aggregator.Aggregator
	kinds       []processor.Kind
	params      processor.Params
	dicterizers map[string]dataset.Dicterizer
	classifiers map[string]classifier.Factory
	shuffle     bool
	logger      *slog.Logger
}

type PipelineConfig struct {
	Kinds           []processor.Kind
	Params          processor.Params
	Dicterizers     []string
	Classifiers     []string
	Balance         aggregator.Config
	ShuffleBaseline bool
	// Span is the corpus span the temporal dicterizers are relative to.
	Span timeline.DateSpan
}

func NewPipeline(cfg PipelineConfig, logger *slog.Logger) (*Pipeline, error) {
	if err := cfg.Balance.Validate(); err != nil {
		return nil, fmt.Errorf("invalid balance config: %w", err)
	}

	dicts := make(map[string]dataset.Dicterizer, len(cfg.Dicterizers))
	for _, name := range cfg.Dicterizers {
		d, err := dicterizer.Lookup(name, cfg.Span)
		if err != nil {
			return nil, err
		}
		dicts[name] = d
	}

	factories := make(map[string]classifier.Factory, len(cfg.Classifiers))
	for _, name := range cfg.Classifiers {
		f, err := classifier.Lookup(name)
		if err != nil {
			return nil, err
		}
		factories[name] = f
	}

	return &Pipeline{
		aggregator:  aggregator.NewAggregator(cfg.Balance),
		kinds:       cfg.Kinds,
		params:      cfg.Params,
		dicterizers: dicts,
		classifiers: factories,
		shuffle:     cfg.ShuffleBaseline,
		logger:      logger,
	}, nil
}

// Process runs every configured processor for the candidate. Datasets with an
// empty partition or outside the balance thresholds are skipped and counted.
func (p *Pipeline) Process(ctx context.Context, focals []timeline.Focal, candidate source.Candidate) ([]Result, Stats, error) {
	var stats Stats
	var results []Result

	for _, kind := range p.kinds {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}

		params := p.params
		params.Entity = candidate.Name
		proc, err := processor.New(kind, params)
		if err != nil {
			return nil, stats, fmt.Errorf("failed to create processor: %w", err)
		}
		stats.Processors++

		ds, metrics, err := p.aggregator.Aggregate(focals, proc)
		if errors.Is(err, aggregator.ErrEmptyPartition) || errors.Is(err, aggregator.ErrUnbalanced) {
			p.logger.Info("skipping dataset", "reference", candidate.Name, "processor", proc.String(), "reason", err)
			stats.Skipped++
			continue
		}
		if err != nil {
			return nil, stats, fmt.Errorf("aggregation failed: %w", err)
		}

		evaluated, err := p.evaluate(ds, proc, candidate)
		if err != nil {
			return nil, stats, err
		}
		for i := range evaluated {
			evaluated[i].Metrics = metrics
		}
		stats.Evaluated += len(evaluated)
		results = append(results, evaluated...)
	}

	return results, stats, nil
}

func (p *Pipeline) evaluate(ds dataset.TimelineDataset, proc *processor.Processor, candidate source.Candidate) ([]Result, error) {
	var results []Result

	shuffles := []bool{false}
	if p.shuffle {
		shuffles = append(shuffles, true)
	}

	for _, dname := range sortedKeys(p.dicterizers) {
		for _, shuffled := range shuffles {
			nd, err := vectorize.ToNumeric(ds, p.dicterizers[dname], vectorize.Options{
				ShuffleLabels: shuffled,
				Rand:          p.shuffleRand(candidate.Name),
			})
			if err != nil {
				return nil, fmt.Errorf("failed to vectorize with %s: %w", dname, err)
			}

			for _, cname := range sortedKeys(p.classifiers) {
				scores, err := classifier.Evaluate(p.classifiers[cname], nd)
				if err != nil {
					return nil, fmt.Errorf("failed to evaluate %s on %s: %w", cname, dname, err)
				}

				summary := classifier.Summarize(scores)
				p.logger.Debug("evaluated",
					"reference", candidate.Name,
					"processor", proc.String(),
					"dicterizer", dname,
					"classifier", cname,
					"shuffled", shuffled,
					"f1", summary.F1Mean,
				)

				results = append(results, Result{
					Reference:  candidate.Name,
					Popularity: candidate.Popularity,
					Processor:  proc.Describe(),
					Dicterizer: dname,
					Classifier: cname,
					Shuffled:   shuffled,
					Summary:    summary,
				})
			}
		}
	}

	return results, nil
}

// shuffleRand is deterministic per reference when a seed is configured.
func (p *Pipeline) shuffleRand(reference timeline.EntityName) *rand.Rand {
	if p.params.Seed == 0 {
		return nil
	}
	h := fnv.New64a()
	h.Write([]byte(reference))
	return rand.New(rand.NewPCG(p.params.Seed, h.Sum64()))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
