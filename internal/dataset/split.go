package dataset

// Split pairs a train and a test partition.
type Split[T any] struct {
	Train []T `json:"train"`
	Test  []T `json:"test"`
}

func (s Split[T]) Add(other Split[T]) Split[T] {
	return Split[T]{
		Train: concat(s.Train, other.Train),
		Test:  concat(s.Test, other.Test),
	}
}

func (s Split[T]) Len() int {
	return len(s.Train) + len(s.Test)
}

// IndexSplit partitions the positions of d by their test flags.
func (d TimelineDataset) IndexSplit() Split[int] {
	return Split[int]{Train: d.TrainIndices(), Test: d.TestIndices()}
}
