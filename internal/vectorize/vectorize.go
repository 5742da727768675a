package vectorize

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/strrl/preludium/internal/dataset"
)

type NumericDataset struct {
	X            *Matrix
	Y            []int
	FeatureNames []string
	Splits       []dataset.Split[int]
}

type Options struct {
	// ShuffleLabels permutes y independently of X. Chance baseline only.
	ShuffleLabels bool
	// Rand drives the shuffle; nil uses a randomly seeded source.
	Rand *rand.Rand
}

// ToNumeric vectorizes every example with the dicterizer over the union of
// feature names (sorted, absent features are zero) and derives a single
// train/test split from the dataset's test flags.
func ToNumeric(ds dataset.TimelineDataset, dicterizer dataset.Dicterizer, opts Options) (*NumericDataset, error) {
	if dicterizer == nil {
		return nil, errors.New("dicterizer is required")
	}
	if err := ds.Validate(); err != nil {
		return nil, fmt.Errorf("failed to vectorize dataset: %w", err)
	}

	dicts := ds.FeatureDicts(dicterizer)

	vocabulary := make(map[string]int)
	for _, d := range dicts {
		for name := range d {
			vocabulary[name] = 0
		}
	}
	names := make([]string, 0, len(vocabulary))
	for name := range vocabulary {
		names = append(names, name)
	}
	sort.Strings(names)
	for i, name := range names {
		vocabulary[name] = i
	}

	m := &Matrix{Rows: len(dicts), Cols: len(names), Indptr: make([]int, 1, len(dicts)+1)}
	for _, d := range dicts {
		cols := make([]int, 0, len(d))
		for name, value := range d {
			if value != 0 {
				cols = append(cols, vocabulary[name])
			}
		}
		sort.Ints(cols)
		for _, c := range cols {
			m.Indices = append(m.Indices, c)
			m.Data = append(m.Data, d[names[c]])
		}
		m.Indptr = append(m.Indptr, len(m.Indices))
	}

	classes := ds.FeatureClasses()
	y := make([]int, len(classes))
	for i, c := range classes {
		y[i] = int(c)
	}

	if opts.ShuffleLabels {
		r := opts.Rand
		if r == nil {
			r = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		}
		r.Shuffle(len(y), func(i, j int) { y[i], y[j] = y[j], y[i] })
	}

	return &NumericDataset{
		X:            m,
		Y:            y,
		FeatureNames: names,
		Splits:       []dataset.Split[int]{ds.IndexSplit()},
	}, nil
}
