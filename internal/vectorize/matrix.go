package vectorize

// Matrix is a compressed sparse row matrix. Row i holds the column indices
// Indices[Indptr[i]:Indptr[i+1]] with matching Data values, columns ascending.
type Matrix struct {
	Rows    int
	Cols    int
	Indptr  []int
	Indices []int
	Data    []float64
}

func (m *Matrix) Row(i int) ([]int, []float64) {
	lo, hi := m.Indptr[i], m.Indptr[i+1]
	return m.Indices[lo:hi], m.Data[lo:hi]
}

func (m *Matrix) At(i, j int) float64 {
	cols, values := m.Row(i)
	for k, c := range cols {
		if c == j {
			return values[k]
		}
		if c > j {
			break
		}
	}
	return 0
}

func (m *Matrix) NNZ() int {
	return len(m.Data)
}

func (m *Matrix) Dense() [][]float64 {
	result := make([][]float64, m.Rows)
	for i := range result {
		result[i] = make([]float64, m.Cols)
		cols, values := m.Row(i)
		for k, c := range cols {
			result[i][c] = values[k]
		}
	}
	return result
}
