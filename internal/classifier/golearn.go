package classifier

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/sjwhitworth/golearn/base"
	"github.com/sjwhitworth/golearn/ensemble"
	"github.com/sjwhitworth/golearn/trees"

	"github.com/strrl/preludium/internal/vectorize"
)

const DefaultForestSize = 25

// gridModel is the part of golearn's estimators the adapters rely on.
type gridModel interface {
	Fit(base.FixedDataGrid) error
	Predict(base.FixedDataGrid) (base.FixedDataGrid, error)
}

// Grid adapts a golearn estimator to sparse rows. Only columns that are
// non-zero in some training row become attributes. Without any such column it
// falls back to the majority label.
type Grid struct {
	newModel func(features int) gridModel

	model    gridModel
	fallback *Majority
	columns  []int
	attrs    []*base.FloatAttribute
	class    *base.CategoricalAttribute
}

// NewDecisionTree builds an unpruned ID3 tree.
func NewDecisionTree() *Grid {
	return &Grid{newModel: func(int) gridModel {
		return trees.NewID3DecisionTree(0)
	}}
}

// NewRandomForest samples about sqrt(features) attributes per tree.
func NewRandomForest(size int) *Grid {
	return &Grid{newModel: func(features int) gridModel {
		k := int(math.Sqrt(float64(features)))
		k = max(1, min(k, features))
		return ensemble.NewRandomForest(size, k)
	}}
}

func (g *Grid) Fit(X *vectorize.Matrix, y []int, rows []int) error {
	if len(rows) == 0 {
		return errors.New("no training rows")
	}

	g.model = nil
	g.fallback = nil
	g.columns = usedColumns(X, rows)
	if len(g.columns) == 0 {
		g.fallback = &Majority{}
		return g.fallback.Fit(X, y, rows)
	}

	g.attrs = make([]*base.FloatAttribute, len(g.columns))
	for i, col := range g.columns {
		g.attrs[i] = base.NewFloatAttribute("f" + strconv.Itoa(col))
	}
	g.class = base.NewCategoricalAttribute()
	g.class.SetName("label")

	train, err := g.grid(X, rows, func(k int) int { return y[rows[k]] })
	if err != nil {
		return err
	}

	model := g.newModel(len(g.columns))
	if err := model.Fit(train); err != nil {
		return fmt.Errorf("failed to fit model: %w", err)
	}
	g.model = model
	return nil
}

func (g *Grid) Predict(X *vectorize.Matrix, rows []int) ([]int, error) {
	if g.fallback != nil {
		return g.fallback.Predict(X, rows)
	}
	if g.model == nil {
		return nil, errors.New("model is not fitted")
	}
	if len(rows) == 0 {
		return []int{}, nil
	}

	test, err := g.grid(X, rows, func(int) int { return 0 })
	if err != nil {
		return nil, err
	}

	predicted, err := g.model.Predict(test)
	if err != nil {
		return nil, fmt.Errorf("failed to predict: %w", err)
	}

	result := make([]int, len(rows))
	for i := range result {
		label, err := strconv.Atoi(base.GetClass(predicted, i))
		if err != nil {
			return nil, fmt.Errorf("unexpected class at row %d: %w", i, err)
		}
		result[i] = label
	}
	return result, nil
}

// grid writes the selected rows into dense instances that share the fitted
// attributes, so train and test grids stay compatible.
func (g *Grid) grid(X *vectorize.Matrix, rows []int, label func(k int) int) (*base.DenseInstances, error) {
	inst := base.NewDenseInstances()
	specs := make([]base.AttributeSpec, len(g.attrs))
	for i, a := range g.attrs {
		specs[i] = inst.AddAttribute(a)
	}
	classSpec := inst.AddAttribute(g.class)
	if err := inst.AddClassAttribute(g.class); err != nil {
		return nil, fmt.Errorf("failed to set class attribute: %w", err)
	}
	if err := inst.Extend(len(rows)); err != nil {
		return nil, fmt.Errorf("failed to allocate %d rows: %w", len(rows), err)
	}

	position := make(map[int]int, len(g.columns))
	for i, col := range g.columns {
		position[col] = i
	}

	zero := base.PackFloatToBytes(0)
	for k, r := range rows {
		for i := range specs {
			inst.Set(specs[i], k, zero)
		}
		cols, values := X.Row(r)
		for j, col := range cols {
			if i, ok := position[col]; ok {
				inst.Set(specs[i], k, base.PackFloatToBytes(values[j]))
			}
		}
		inst.Set(classSpec, k, g.class.GetSysValFromString(strconv.Itoa(label(k))))
	}
	return inst, nil
}

func usedColumns(X *vectorize.Matrix, rows []int) []int {
	seen := make([]bool, X.Cols)
	count := 0
	for _, r := range rows {
		cols, values := X.Row(r)
		for k, col := range cols {
			if values[k] != 0 && !seen[col] {
				seen[col] = true
				count++
			}
		}
	}

	columns := make([]int, 0, count)
	for col, ok := range seen {
		if ok {
			columns = append(columns, col)
		}
	}
	return columns
}
