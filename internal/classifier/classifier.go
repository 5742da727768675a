package classifier

import (
	"errors"
	"fmt"
	"sort"

	"github.com/strrl/preludium/internal/vectorize"
)

var (
	ErrUnknownClassifier = errors.New("unknown classifier")
	ErrNoSplit           = errors.New("numeric dataset has no split")
)

const (
	NameNaiveBayes         = "naive_bayes"
	NameLogisticRegression = "logistic_regression"
	NameMajority           = "majority"
	NameDecisionTree       = "decision_tree"
	NameRandomForest       = "random_forest"
)

// Classifier is a binary classifier over rows of a sparse matrix. Labels are
// 0 or 1.
type Classifier interface {
	Fit(X *vectorize.Matrix, y []int, rows []int) error
	Predict(X *vectorize.Matrix, rows []int) ([]int, error)
}

type Factory func() Classifier

var registry = map[string]Factory{
	NameNaiveBayes:         func() Classifier { return NewNaiveBayes(1) },
	NameLogisticRegression: func() Classifier { return NewLogisticRegression(DefaultLogisticConfig()) },
	NameMajority:           func() Classifier { return &Majority{} },
	NameDecisionTree:       func() Classifier { return NewDecisionTree() },
	NameRandomForest:       func() Classifier { return NewRandomForest(DefaultForestSize) },
}

func Lookup(name string) (Factory, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownClassifier, name)
	}
	return f, nil
}

func IsValid(name string) bool {
	_, ok := registry[name]
	return ok
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Majority predicts the most frequent training label, 0 on ties.
type Majority struct {
	label int
}

func (m *Majority) Fit(_ *vectorize.Matrix, y []int, rows []int) error {
	if len(rows) == 0 {
		return errors.New("no training rows")
	}
	positives := 0
	for _, r := range rows {
		positives += y[r]
	}
	m.label = 0
	if positives*2 > len(rows) {
		m.label = 1
	}
	return nil
}

func (m *Majority) Predict(_ *vectorize.Matrix, rows []int) ([]int, error) {
	result := make([]int, len(rows))
	for i := range result {
		result[i] = m.label
	}
	return result, nil
}
