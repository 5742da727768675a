package classifier

import (
	"errors"
	"math"

	"github.com/strrl/preludium/internal/vectorize"
)

type LogisticConfig struct {
	Epochs       int
	LearningRate float64
	L2           float64
}

func DefaultLogisticConfig() LogisticConfig {
	return LogisticConfig{
		Epochs:       300,
		LearningRate: 0.5,
		L2:           1e-4,
	}
}

// LogisticRegression is trained with full-batch gradient descent from zero
// weights, so fitting is deterministic.
type LogisticRegression struct {
	config  LogisticConfig
	weights []float64
	bias    float64
}

func NewLogisticRegression(cfg LogisticConfig) *LogisticRegression {
	return &LogisticRegression{config: cfg}
}

func (lr *LogisticRegression) Fit(X *vectorize.Matrix, y []int, rows []int) error {
	if len(rows) == 0 {
		return errors.New("no training rows")
	}

	lr.weights = make([]float64, X.Cols)
	lr.bias = 0
	gradient := make([]float64, X.Cols)
	n := float64(len(rows))

	for epoch := 0; epoch < lr.config.Epochs; epoch++ {
		for j := range gradient {
			gradient[j] = lr.config.L2 * lr.weights[j]
		}
		var biasGradient float64

		for _, r := range rows {
			diff := lr.probability(X, r) - float64(y[r])
			cols, values := X.Row(r)
			for k, col := range cols {
				gradient[col] += diff * values[k] / n
			}
			biasGradient += diff / n
		}

		for j := range lr.weights {
			lr.weights[j] -= lr.config.LearningRate * gradient[j]
		}
		lr.bias -= lr.config.LearningRate * biasGradient
	}

	return nil
}

func (lr *LogisticRegression) Predict(X *vectorize.Matrix, rows []int) ([]int, error) {
	result := make([]int, len(rows))
	for i, r := range rows {
		if lr.probability(X, r) >= 0.5 {
			result[i] = 1
		}
	}
	return result, nil
}

func (lr *LogisticRegression) probability(X *vectorize.Matrix, row int) float64 {
	z := lr.bias
	cols, values := X.Row(row)
	for k, col := range cols {
		z += lr.weights[col] * values[k]
	}
	return sigmoid(z)
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
