package benchmark

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strrl/preludium/internal/classifier"
	"github.com/strrl/preludium/internal/config"
	"github.com/strrl/preludium/internal/dicterizer"
	"github.com/strrl/preludium/internal/processor"
	"github.com/strrl/preludium/internal/source"
	"github.com/strrl/preludium/internal/timeline"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func day(n int) time.Time {
	return time.Date(2020, 1, n, 0, 0, 0, 0, time.UTC)
}

type fakeSource struct {
	focals     []timeline.Focal
	candidates []source.Candidate
	err        error
}

func (f *fakeSource) Focals(context.Context) ([]timeline.Focal, error) {
	return f.focals, f.err
}

func (f *fakeSource) PopularityCandidates(context.Context, source.CandidateQuery) ([]source.Candidate, error) {
	return f.candidates, nil
}

type memorySink struct {
	mu        sync.Mutex
	results   []Result
	completed map[string]bool
	resets    int
	saveErr   error
	// failures makes that many SaveResults calls fail before saveErr applies.
	failures int
	saves    int
}

func (s *memorySink) SaveResults(_ context.Context, reference string, results []Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.failures > 0 {
		s.failures--
		return errors.New("transaction aborted")
	}
	if s.saveErr != nil {
		return s.saveErr
	}
	s.results = append(s.results, results...)
	if s.completed == nil {
		s.completed = map[string]bool{}
	}
	s.completed[reference] = true
	return nil
}

func (s *memorySink) CompletedReferences(context.Context) (map[string]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	completed := make(map[string]bool, len(s.completed))
	for k, v := range s.completed {
		completed[k] = v
	}
	return completed, nil
}

func (s *memorySink) Reset(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resets++
	s.results = nil
	s.completed = nil
	return nil
}

func ref(name string, d int) timeline.Reference {
	return timeline.Reference{Name: name, Date: day(d)}
}

// Under slicing at day 11 every partition holds one positive and one negative
// example.
func newSource() *fakeSource {
	return &fakeSource{
		focals: []timeline.Focal{
			{Name: "@alice", Timeline: timeline.Timeline{ref("#a", 1), ref("#go", 2), ref("#b", 11), ref("#go", 12)}},
			{Name: "@bob", Timeline: timeline.Timeline{ref("#c", 1), ref("#d", 11)}},
			{Name: "@carol", Timeline: timeline.Timeline{ref("#e", 11), ref("#f", 12)}},
		},
		candidates: []source.Candidate{{Name: "#go", Popularity: 1}},
	}
}

func newConfig() config.BenchmarkConfig {
	cfg := config.DefaultBenchmark()
	cfg.Timepoint = day(11)
	cfg.Processors = []string{string(processor.KindSlicing)}
	cfg.Dicterizers = []string{dicterizer.NameCounting}
	cfg.Classifiers = []string{classifier.NameNaiveBayes, classifier.NameMajority}
	cfg.Workers = 2
	cfg.Seed = 7
	return cfg
}

func TestRun(t *testing.T) {
	sink := &memorySink{}
	cfg := newConfig()
	cfg.ShuffleBaseline = true

	runner, err := NewRunner(newSource(), sink, cfg, discard)
	require.NoError(t, err)

	report, err := runner.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Results, 4)
	assert.Len(t, sink.results, 4)
	assert.Equal(t, Stats{Processors: 1, Evaluated: 4}, report.Stats)
	assert.Equal(t, day(11), report.Timepoint)
	assert.NotEmpty(t, report.RunID)

	first := report.Results[0]
	assert.Equal(t, "#go", first.Reference)
	assert.Equal(t, "SlicingProcessor", first.Processor.Type)
	assert.Equal(t, classifier.NameMajority, first.Classifier)
	assert.False(t, first.Shuffled)
	assert.True(t, report.Results[1].Shuffled)
	assert.Equal(t, report.RunID, first.RunID)
	assert.Equal(t, 1, first.Summary.Folds)

	assert.Equal(t, 1, first.Metrics.Train.Positive)
	assert.Equal(t, 1, first.Metrics.Test.Negative)
	assert.Equal(t, 0.5, first.Metrics.TestRatio)
}

func TestRunResolvesTimepoint(t *testing.T) {
	cfg := newConfig()
	cfg.Timepoint = time.Time{}

	runner, err := NewRunner(newSource(), &memorySink{}, cfg, discard)
	require.NoError(t, err)

	report, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, day(11), report.Timepoint)
	assert.Len(t, report.Results, 2)
}

func TestRunSkipsUnbalanced(t *testing.T) {
	cfg := newConfig()
	cfg.Balance.MinPositiveRatio = 0.8
	cfg.Processors = []string{string(processor.KindSlicing), string(processor.KindTimepoint)}

	runner, err := NewRunner(newSource(), &memorySink{}, cfg, discard)
	require.NoError(t, err)

	report, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, report.Results)
	assert.Equal(t, Stats{Processors: 2, Skipped: 2}, report.Stats)
}

func TestRunResume(t *testing.T) {
	sink := &memorySink{completed: map[string]bool{"#go": true}}

	runner, err := NewRunner(newSource(), sink, newConfig(), discard)
	require.NoError(t, err)

	report, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, report.Results)
	assert.Equal(t, []timeline.EntityName{"#go"}, report.Resumed)
}

func TestRunRerunsReferenceAfterFailedSave(t *testing.T) {
	sink := &memorySink{failures: 1}

	runner, err := NewRunner(newSource(), sink, newConfig(), discard)
	require.NoError(t, err)
	_, err = runner.Run(context.Background())
	require.Error(t, err)
	assert.Empty(t, sink.results)
	assert.Empty(t, sink.completed)

	runner, err = NewRunner(newSource(), sink, newConfig(), discard)
	require.NoError(t, err)
	report, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, report.Resumed)
	assert.Len(t, report.Results, 2)
	assert.Len(t, sink.results, 2)
	assert.True(t, sink.completed["#go"])
}

func TestRunMarksSkippedReferenceCompleted(t *testing.T) {
	cfg := newConfig()
	cfg.Balance.MinPositiveRatio = 0.8
	sink := &memorySink{}

	runner, err := NewRunner(newSource(), sink, cfg, discard)
	require.NoError(t, err)
	report, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Results)
	assert.True(t, sink.completed["#go"])

	runner, err = NewRunner(newSource(), sink, cfg, discard)
	require.NoError(t, err)
	report, err = runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []timeline.EntityName{"#go"}, report.Resumed)
	assert.Equal(t, 1, sink.saves)
}

func TestRunFreshStart(t *testing.T) {
	sink := &memorySink{completed: map[string]bool{"#go": true}}
	cfg := newConfig()
	cfg.FreshStart = true

	runner, err := NewRunner(newSource(), sink, cfg, discard)
	require.NoError(t, err)

	report, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, sink.resets)
	assert.Empty(t, report.Resumed)
	assert.Len(t, report.Results, 2)
}

func TestRunErrors(t *testing.T) {
	t.Run("sink failure", func(t *testing.T) {
		sinkErr := errors.New("disk full")
		runner, err := NewRunner(newSource(), &memorySink{saveErr: sinkErr}, newConfig(), discard)
		require.NoError(t, err)

		_, err = runner.Run(context.Background())
		assert.ErrorIs(t, err, sinkErr)
	})

	t.Run("no focals", func(t *testing.T) {
		runner, err := NewRunner(&fakeSource{}, &memorySink{}, newConfig(), discard)
		require.NoError(t, err)

		_, err = runner.Run(context.Background())
		assert.ErrorIs(t, err, ErrNoFocals)
	})

	t.Run("source failure", func(t *testing.T) {
		srcErr := errors.New("broken file")
		runner, err := NewRunner(&fakeSource{err: srcErr}, &memorySink{}, newConfig(), discard)
		require.NoError(t, err)

		_, err = runner.Run(context.Background())
		assert.ErrorIs(t, err, srcErr)
	})

	t.Run("invalid config", func(t *testing.T) {
		cfg := newConfig()
		cfg.Classifiers = []string{"svm"}
		_, err := NewRunner(newSource(), &memorySink{}, cfg, discard)
		assert.ErrorIs(t, err, classifier.ErrUnknownClassifier)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		runner, err := NewRunner(newSource(), &memorySink{}, newConfig(), discard)
		require.NoError(t, err)

		_, err = runner.Run(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestRunManyReferencesConcurrently(t *testing.T) {
	src := newSource()
	for _, name := range []string{"#a", "#b", "#c", "#d", "#e", "#f"} {
		src.candidates = append(src.candidates, source.Candidate{Name: name, Popularity: 1})
	}
	cfg := newConfig()
	cfg.Balance.MinTestRatio = 0
	cfg.Balance.MaxTestRatio = 1
	cfg.Balance.MinPositiveRatio = 0
	cfg.Balance.MaxPositiveRatio = 1
	cfg.Workers = 3

	sink := &memorySink{}
	runner, err := NewRunner(src, sink, cfg, discard)
	require.NoError(t, err)

	report, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, sink.results, len(report.Results))
	assert.Equal(t, report.Stats.Evaluated, len(report.Results))
	for i := 1; i < len(report.Results); i++ {
		assert.LessOrEqual(t, report.Results[i-1].Reference, report.Results[i].Reference)
	}
}
