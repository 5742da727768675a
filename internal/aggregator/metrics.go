package aggregator

import (
	"errors"
	"fmt"

	"github.com/strrl/preludium/internal/dataset"
)

var ErrEmptyPartition = errors.New("empty partition")

type PartitionMetrics struct {
	Positive int     `json:"positive"`
	Negative int     `json:"negative"`
	Ratio    float64 `json:"ratio"`
}

func (p PartitionMetrics) Count() int {
	return p.Positive + p.Negative
}

type Metrics struct {
	Train     PartitionMetrics `json:"train"`
	Test      PartitionMetrics `json:"test"`
	TestRatio float64          `json:"test_ratio"`
}

// ComputeMetrics fails with ErrEmptyPartition when either partition has no
// examples; the ratios would be undefined.
func ComputeMetrics(ds dataset.TimelineDataset) (Metrics, error) {
	if err := ds.Validate(); err != nil {
		return Metrics{}, err
	}

	var m Metrics
	classes := ds.FeatureClasses()
	for i, isTest := range ds.TestFlags() {
		part := &m.Train
		if isTest {
			part = &m.Test
		}
		if classes[i] == dataset.Positive {
			part.Positive++
		} else {
			part.Negative++
		}
	}

	if m.Train.Count() == 0 {
		return Metrics{}, fmt.Errorf("%w: train", ErrEmptyPartition)
	}
	if m.Test.Count() == 0 {
		return Metrics{}, fmt.Errorf("%w: test", ErrEmptyPartition)
	}

	m.Train.Ratio = float64(m.Train.Positive) / float64(m.Train.Count())
	m.Test.Ratio = float64(m.Test.Positive) / float64(m.Test.Count())
	m.TestRatio = float64(m.Test.Count()) / float64(m.Train.Count()+m.Test.Count())

	return m, nil
}
