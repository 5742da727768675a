package aggregator

import (
	"errors"
	"fmt"

	"github.com/strrl/preludium/internal/dataset"
	"github.com/strrl/preludium/internal/timeline"
)

var ErrUnbalanced = errors.New("dataset outside balance thresholds")

type Processor interface {
	Apply(timeline.Timeline) dataset.TimelineDataset
}

// Accumulate applies the processor to every focal and concatenates the
// results in focal order.
func Accumulate(focals []timeline.Focal, processor Processor) (dataset.TimelineDataset, error) {
	parts := make([]dataset.TimelineDataset, 0, len(focals))

	for _, focal := range focals {
		ds := processor.Apply(focal.Timeline)
		if err := ds.Validate(); err != nil {
			return dataset.TimelineDataset{}, fmt.Errorf("processor output for focal %s: %w", focal.Name, err)
		}
		parts = append(parts, ds)
	}

	result, err := dataset.Concat(parts...)
	if err != nil {
		return dataset.TimelineDataset{}, fmt.Errorf("failed to accumulate focals: %w", err)
	}

	return result, nil
}

type Config struct {
	MinPositiveRatio float64 `yaml:"min_positive_ratio"`
	MaxPositiveRatio float64 `yaml:"max_positive_ratio"`
	MinTestRatio     float64 `yaml:"min_test_ratio"`
	MaxTestRatio     float64 `yaml:"max_test_ratio"`
}

func DefaultConfig() Config {
	return Config{
		MinPositiveRatio: 0.1,
		MaxPositiveRatio: 0.9,
		MinTestRatio:     0.1,
		MaxTestRatio:     0.5,
	}
}

func (c Config) Validate() error {
	for name, v := range map[string]float64{
		"min_positive_ratio": c.MinPositiveRatio,
		"max_positive_ratio": c.MaxPositiveRatio,
		"min_test_ratio":     c.MinTestRatio,
		"max_test_ratio":     c.MaxTestRatio,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be within [0, 1], got %v", name, v)
		}
	}
	if c.MinPositiveRatio > c.MaxPositiveRatio {
		return fmt.Errorf("min_positive_ratio %v exceeds max_positive_ratio %v", c.MinPositiveRatio, c.MaxPositiveRatio)
	}
	if c.MinTestRatio > c.MaxTestRatio {
		return fmt.Errorf("min_test_ratio %v exceeds max_test_ratio %v", c.MinTestRatio, c.MaxTestRatio)
	}
	return nil
}

type Aggregator struct {
	config Config
}

func NewAggregator(cfg Config) *Aggregator {
	return &Aggregator{config: cfg}
}

// Aggregate accumulates the focals and checks the result against the balance
// thresholds. The dataset is returned alongside its metrics even when it is
// rejected, so callers can report why.
func (a *Aggregator) Aggregate(focals []timeline.Focal, processor Processor) (dataset.TimelineDataset, Metrics, error) {
	ds, err := Accumulate(focals, processor)
	if err != nil {
		return dataset.TimelineDataset{}, Metrics{}, err
	}

	metrics, err := ComputeMetrics(ds)
	if err != nil {
		return ds, Metrics{}, err
	}

	if err := a.CheckBalance(metrics); err != nil {
		return ds, metrics, err
	}

	return ds, metrics, nil
}

func (a *Aggregator) CheckBalance(m Metrics) error {
	partitions := []struct {
		name string
		p    PartitionMetrics
	}{
		{"train", m.Train},
		{"test", m.Test},
	}

	for _, part := range partitions {
		if part.p.Ratio < a.config.MinPositiveRatio || part.p.Ratio > a.config.MaxPositiveRatio {
			return fmt.Errorf("%w: %s positive ratio %.3f not in [%.3f, %.3f]",
				ErrUnbalanced, part.name, part.p.Ratio, a.config.MinPositiveRatio, a.config.MaxPositiveRatio)
		}
	}

	if m.TestRatio < a.config.MinTestRatio || m.TestRatio > a.config.MaxTestRatio {
		return fmt.Errorf("%w: test ratio %.3f not in [%.3f, %.3f]",
			ErrUnbalanced, m.TestRatio, a.config.MinTestRatio, a.config.MaxTestRatio)
	}

	return nil
}
