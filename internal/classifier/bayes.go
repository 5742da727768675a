package classifier

import (
	"errors"
	"math"

	"github.com/strrl/preludium/internal/vectorize"
)

// NaiveBayes is a multinomial naive Bayes model with additive smoothing.
type NaiveBayes struct {
	alpha     float64
	logPrior  [2]float64
	logLikely [2][]float64
}

func NewNaiveBayes(alpha float64) *NaiveBayes {
	return &NaiveBayes{alpha: alpha}
}

func (nb *NaiveBayes) Fit(X *vectorize.Matrix, y []int, rows []int) error {
	if len(rows) == 0 {
		return errors.New("no training rows")
	}

	var classCount [2]int
	var featureSum [2][]float64
	var total [2]float64
	for c := range featureSum {
		featureSum[c] = make([]float64, X.Cols)
	}

	for _, r := range rows {
		c := y[r]
		classCount[c]++
		cols, values := X.Row(r)
		for k, col := range cols {
			featureSum[c][col] += values[k]
			total[c] += values[k]
		}
	}

	for c := range nb.logLikely {
		if classCount[c] == 0 {
			nb.logPrior[c] = math.Inf(-1)
		} else {
			nb.logPrior[c] = math.Log(float64(classCount[c]) / float64(len(rows)))
		}
		denominator := total[c] + nb.alpha*float64(X.Cols)
		nb.logLikely[c] = make([]float64, X.Cols)
		for j := range nb.logLikely[c] {
			nb.logLikely[c][j] = math.Log((featureSum[c][j] + nb.alpha) / denominator)
		}
	}

	return nil
}

func (nb *NaiveBayes) Predict(X *vectorize.Matrix, rows []int) ([]int, error) {
	result := make([]int, len(rows))
	for i, r := range rows {
		var score [2]float64
		cols, values := X.Row(r)
		for c := range score {
			score[c] = nb.logPrior[c]
			for k, col := range cols {
				score[c] += values[k] * nb.logLikely[c][col]
			}
		}
		if score[1] > score[0] {
			result[i] = 1
		}
	}
	return result, nil
}
