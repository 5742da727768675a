package classifier

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/strrl/preludium/internal/vectorize"
)

type Score struct {
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

type Summary struct {
	Folds        int     `json:"folds"`
	AccuracyMean float64 `json:"accuracy_mean"`
	AccuracyStd  float64 `json:"accuracy_std"`
	F1Mean       float64 `json:"f1_mean"`
	F1Std        float64 `json:"f1_std"`
}

// Evaluate fits a fresh classifier on every split's train rows and scores it
// on the split's test rows.
func Evaluate(factory Factory, nd *vectorize.NumericDataset) ([]Score, error) {
	if len(nd.Splits) == 0 {
		return nil, ErrNoSplit
	}

	scores := make([]Score, 0, len(nd.Splits))
	for i, split := range nd.Splits {
		if len(split.Train) == 0 || len(split.Test) == 0 {
			return nil, fmt.Errorf("split %d: train=%d test=%d: both partitions must be non-empty", i, len(split.Train), len(split.Test))
		}

		clf := factory()
		if err := clf.Fit(nd.X, nd.Y, split.Train); err != nil {
			return nil, fmt.Errorf("failed to fit split %d: %w", i, err)
		}

		predicted, err := clf.Predict(nd.X, split.Test)
		if err != nil {
			return nil, fmt.Errorf("failed to predict split %d: %w", i, err)
		}
		actual := make([]int, len(split.Test))
		for k, r := range split.Test {
			actual[k] = nd.Y[r]
		}

		scores = append(scores, ScorePredictions(actual, predicted))
	}

	return scores, nil
}

// ScorePredictions treats 1 as the positive class. Undefined precision,
// recall or F1 are reported as 0.
func ScorePredictions(actual, predicted []int) Score {
	var tp, fp, fn, correct int
	for i := range actual {
		switch {
		case actual[i] == predicted[i]:
			correct++
			if actual[i] == 1 {
				tp++
			}
		case predicted[i] == 1:
			fp++
		default:
			fn++
		}
	}

	s := Score{Support: len(actual)}
	if len(actual) > 0 {
		s.Accuracy = float64(correct) / float64(len(actual))
	}
	if tp+fp > 0 {
		s.Precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		s.Recall = float64(tp) / float64(tp+fn)
	}
	if s.Precision+s.Recall > 0 {
		s.F1 = 2 * s.Precision * s.Recall / (s.Precision + s.Recall)
	}
	return s
}

// Summarize reports population standard deviations. No scores summarize to
// the zero Summary.
func Summarize(scores []Score) Summary {
	if len(scores) == 0 {
		return Summary{}
	}

	accuracy := make([]float64, len(scores))
	f1 := make([]float64, len(scores))
	for i, s := range scores {
		accuracy[i] = s.Accuracy
		f1[i] = s.F1
	}

	accMean, accStd := stat.PopMeanStdDev(accuracy, nil)
	f1Mean, f1Std := stat.PopMeanStdDev(f1, nil)

	return Summary{
		Folds:        len(scores),
		AccuracyMean: accMean,
		AccuracyStd:  accStd,
		F1Mean:       f1Mean,
		F1Std:        f1Std,
	}
}
