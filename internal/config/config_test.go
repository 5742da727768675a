package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strrl/preludium/internal/classifier"
	"github.com/strrl/preludium/internal/dicterizer"
	"github.com/strrl/preludium/internal/processor"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PRELUDIUM_LOG_FILE", "")
	t.Setenv("PRELUDIUM_LOG_LEVEL", "")
	t.Setenv("PRELUDIUM_WORKERS", "")

	cfg := Load()

	assert.Equal(t, "/tmp/preludium.log", cfg.LogFile)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, 4, cfg.Workers)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PRELUDIUM_LOG_LEVEL", "debug")
	t.Setenv("PRELUDIUM_WORKERS", "12")
	t.Setenv("PRELUDIUM_RESULTS_DB", "/data/results.db")

	cfg := Load()

	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, 12, cfg.Workers)
	assert.Equal(t, "/data/results.db", cfg.ResultsDB)
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelWarn, parseLogLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLogLevel("ERROR"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("verbose"))
}

func TestSetupLoggerWithWriters(t *testing.T) {
	var stderr, file bytes.Buffer
	logger := SetupLoggerWithWriters(&stderr, &file, slog.LevelInfo)

	logger.Info("evaluated", "reference", "#go")
	logger.Debug("hidden")

	assert.Contains(t, stderr.String(), "reference=#go")
	assert.Contains(t, file.String(), `"reference":"#go"`)
	assert.NotContains(t, stderr.String(), "hidden")
}

func TestSetupLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preludium.log")

	logger, cleanup := SetupLogger(path, slog.LevelInfo)
	logger.Info("hello")
	require.NoError(t, cleanup())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadBenchmark(t *testing.T) {
	path := writeConfig(t, `
source: references.parquet
timepoint: 2020-03-01T00:00:00Z
window_limit: 48h
processors: [slicing, windowing]
dicterizers: [counting, linear_fading]
classifiers: [naive_bayes, logistic_regression]
candidates:
  precision: 0.1
  limit: 5
balance:
  min_positive_ratio: 0.2
  max_positive_ratio: 0.8
  min_test_ratio: 0.1
  max_test_ratio: 0.4
workers: 2
shuffle_baseline: true
`)

	cfg, err := LoadBenchmark(path)
	require.NoError(t, err)

	assert.Equal(t, "references.parquet", cfg.Source)
	assert.Equal(t, time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC), cfg.Timepoint)
	assert.Equal(t, 48*time.Hour, cfg.WindowLimit)
	assert.Equal(t, []string{"slicing", "windowing"}, cfg.Processors)
	assert.Equal(t, []string{dicterizer.NameCounting, dicterizer.NameLinearFading}, cfg.Dicterizers)
	assert.Equal(t, 0.1, cfg.Candidates.Precision)
	assert.Equal(t, 5, cfg.Candidates.Query().Limit)
	assert.Equal(t, 0.2, cfg.Balance.MinPositiveRatio)
	assert.Equal(t, 2, cfg.Workers)
	assert.True(t, cfg.ShuffleBaseline)
	assert.Equal(t, processor.DefaultTestProbability, cfg.TestProbability)
}

func TestLoadBenchmarkDefaultsOnly(t *testing.T) {
	cfg, err := LoadBenchmark(writeConfig(t, "source: refs.csv\n"))
	require.NoError(t, err)

	assert.Equal(t, DefaultBenchmark().Processors, cfg.Processors)
	assert.True(t, cfg.Timepoint.IsZero())
}

func TestLoadBenchmarkRejectsUnknownNames(t *testing.T) {
	_, err := LoadBenchmark(writeConfig(t, `
processors: [bucketing]
dicterizers: [tf_idf]
classifiers: [svm]
`))

	require.Error(t, err)
	assert.ErrorIs(t, err, processor.ErrUnknownKind)
	assert.ErrorIs(t, err, dicterizer.ErrUnknownDicterizer)
	assert.ErrorIs(t, err, classifier.ErrUnknownClassifier)
}

func TestLoadBenchmarkMissingFile(t *testing.T) {
	_, err := LoadBenchmark(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
