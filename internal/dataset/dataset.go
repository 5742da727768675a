package dataset

import (
	"errors"
	"fmt"

	"github.com/strrl/preludium/internal/timeline"
)

var ErrLengthMismatch = errors.New("dataset arrays differ in length")

type FeatureClass int

const (
	Negative FeatureClass = 0
	Positive FeatureClass = 1
)

func (c FeatureClass) String() string {
	switch c {
	case Positive:
		return "POSITIVE"
	case Negative:
		return "NEGATIVE"
	default:
		return fmt.Sprintf("FeatureClass(%d)", int(c))
	}
}

func ClassOf(positive bool) FeatureClass {
	if positive {
		return Positive
	}
	return Negative
}

type FeatureName = string

type FeatureDict map[FeatureName]float64

// Dicterizer turns a sub-timeline into named feature intensities.
type Dicterizer func(timeline.Timeline) FeatureDict

// TimelineDataset holds parallel arrays of sub-timelines, labels and
// train/test flags. The zero value is an empty dataset.
type TimelineDataset struct {
	x    []timeline.Timeline
	y    []FeatureClass
	test []bool
}

func New(x []timeline.Timeline, y []FeatureClass, test []bool) (TimelineDataset, error) {
	if len(x) != len(y) || len(x) != len(test) {
		return TimelineDataset{}, fmt.Errorf("%w: x=%d y=%d test=%d", ErrLengthMismatch, len(x), len(y), len(test))
	}
	return TimelineDataset{x: x, y: y, test: test}, nil
}

// MustNew panics on mismatched lengths. Processors use it: a mismatch there
// is a programming error.
func MustNew(x []timeline.Timeline, y []FeatureClass, test []bool) TimelineDataset {
	ds, err := New(x, y, test)
	if err != nil {
		panic(err)
	}
	return ds
}

// Add concatenates other after d. Neither operand is modified.
func (d TimelineDataset) Add(other TimelineDataset) TimelineDataset {
	return TimelineDataset{
		x:    concat(d.x, other.x),
		y:    concat(d.y, other.y),
		test: concat(d.test, other.test),
	}
}

// Concat joins parts in order with one allocation per array. It equals
// folding Add over parts but stays linear in the total length.
func Concat(parts ...TimelineDataset) (TimelineDataset, error) {
	total := 0
	for _, p := range parts {
		total += len(p.x)
	}

	x := make([]timeline.Timeline, 0, total)
	y := make([]FeatureClass, 0, total)
	test := make([]bool, 0, total)
	for _, p := range parts {
		x = append(x, p.x...)
		y = append(y, p.y...)
		test = append(test, p.test...)
	}

	return New(x, y, test)
}

func (d TimelineDataset) Validate() error {
	if len(d.x) != len(d.y) || len(d.x) != len(d.test) {
		return fmt.Errorf("%w: x=%d y=%d test=%d", ErrLengthMismatch, len(d.x), len(d.y), len(d.test))
	}
	return nil
}

func (d TimelineDataset) Len() int {
	return len(d.x)
}

func (d TimelineDataset) Timelines() []timeline.Timeline {
	return concat(nil, d.x)
}

func (d TimelineDataset) FeatureDicts(dicterizer Dicterizer) []FeatureDict {
	result := make([]FeatureDict, 0, len(d.x))
	for _, tl := range d.x {
		result = append(result, dicterizer(tl))
	}
	return result
}

func (d TimelineDataset) FeatureClasses() []FeatureClass {
	return concat(nil, d.y)
}

func (d TimelineDataset) TestFlags() []bool {
	return concat(nil, d.test)
}

func (d TimelineDataset) TestIndices() []int {
	indices := []int{}
	for i, isTest := range d.test {
		if isTest {
			indices = append(indices, i)
		}
	}
	return indices
}

func (d TimelineDataset) TrainIndices() []int {
	indices := []int{}
	for i, isTest := range d.test {
		if !isTest {
			indices = append(indices, i)
		}
	}
	return indices
}

func concat[T any](a, b []T) []T {
	result := make([]T, 0, len(a)+len(b))
	result = append(result, a...)
	return append(result, b...)
}
