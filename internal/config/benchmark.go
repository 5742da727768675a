package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/strrl/preludium/internal/aggregator"
	"github.com/strrl/preludium/internal/classifier"
	"github.com/strrl/preludium/internal/dicterizer"
	"github.com/strrl/preludium/internal/processor"
	"github.com/strrl/preludium/internal/source"
)

// BenchmarkConfig describes one benchmark run. A zero Timepoint means the
// highest focal distribution point of the source is used.
type BenchmarkConfig struct {
	Source    string    `yaml:"source"`
	Results   string    `yaml:"results"`
	Report    string    `yaml:"report"`
	Timepoint time.Time `yaml:"timepoint"`

	WindowLimit     time.Duration `yaml:"window_limit"`
	TestProbability float64       `yaml:"test_probability"`
	Seed            uint64        `yaml:"seed"`

	Processors  []string `yaml:"processors"`
	Dicterizers []string `yaml:"dicterizers"`
	Classifiers []string `yaml:"classifiers"`

	Candidates CandidatesConfig  `yaml:"candidates"`
	Balance    aggregator.Config `yaml:"balance"`

	Workers         int  `yaml:"workers"`
	ShuffleBaseline bool `yaml:"shuffle_baseline"`
	FreshStart      bool `yaml:"fresh_start"`
}

type CandidatesConfig struct {
	Precision     float64 `yaml:"precision"`
	MinPopularity int     `yaml:"min_popularity"`
	Limit         int     `yaml:"limit"`
}

func (c CandidatesConfig) Query() source.CandidateQuery {
	return source.CandidateQuery{
		Precision:     c.Precision,
		MinPopularity: c.MinPopularity,
		Limit:         c.Limit,
	}
}

func DefaultBenchmark() BenchmarkConfig {
	return BenchmarkConfig{
		WindowLimit:     72 * time.Hour,
		TestProbability: processor.DefaultTestProbability,
		Processors: []string{
			string(processor.KindTimepoint),
			string(processor.KindSlicing),
			string(processor.KindWindowing),
		},
		Dicterizers: []string{dicterizer.NameCounting},
		Classifiers: []string{classifier.NameNaiveBayes},
		Candidates: CandidatesConfig{
			Precision: 0.05,
			Limit:     50,
		},
		Balance: aggregator.DefaultConfig(),
		Workers: 4,
	}
}

// LoadBenchmark reads a YAML run file over the defaults and validates it.
func LoadBenchmark(path string) (BenchmarkConfig, error) {
	cfg := DefaultBenchmark()

	data, err := os.ReadFile(path)
	if err != nil {
		return BenchmarkConfig{}, fmt.Errorf("failed to read benchmark config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return BenchmarkConfig{}, fmt.Errorf("failed to parse benchmark config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return BenchmarkConfig{}, err
	}

	return cfg, nil
}

func (c BenchmarkConfig) Validate() error {
	var errs []error

	if len(c.Processors) == 0 {
		errs = append(errs, errors.New("at least one processor is required"))
	}
	for _, name := range c.Processors {
		if _, err := processor.ParseKind(name); err != nil {
			errs = append(errs, err)
		}
	}

	if len(c.Dicterizers) == 0 {
		errs = append(errs, errors.New("at least one dicterizer is required"))
	}
	for _, name := range c.Dicterizers {
		if !dicterizer.IsValid(name) {
			errs = append(errs, fmt.Errorf("%w: %q", dicterizer.ErrUnknownDicterizer, name))
		}
	}

	if len(c.Classifiers) == 0 {
		errs = append(errs, errors.New("at least one classifier is required"))
	}
	for _, name := range c.Classifiers {
		if !classifier.IsValid(name) {
			errs = append(errs, fmt.Errorf("%w: %q", classifier.ErrUnknownClassifier, name))
		}
	}

	if c.WindowLimit <= 0 {
		errs = append(errs, errors.New("window_limit must be positive"))
	}
	if c.TestProbability < 0 || c.TestProbability > 1 {
		errs = append(errs, fmt.Errorf("test_probability must be within [0, 1], got %v", c.TestProbability))
	}
	if c.Candidates.Precision < 0 || c.Candidates.Precision > 0.5 {
		errs = append(errs, fmt.Errorf("candidates.precision must be within [0, 0.5], got %v", c.Candidates.Precision))
	}
	if c.Workers <= 0 {
		errs = append(errs, errors.New("workers must be positive"))
	}
	if err := c.Balance.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("balance: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid benchmark config: %w", errors.Join(errs...))
	}
	return nil
}
