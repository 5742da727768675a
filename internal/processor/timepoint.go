package processor

import (
	"github.com/strrl/preludium/internal/dataset"
	"github.com/strrl/preludium/internal/timeline"
)

// timepoint always emits two examples: the training half before the
// timepoint and the test half at or after it.
func (p *Processor) timepoint(tl timeline.Timeline) dataset.TimelineDataset {
	var ex examples

	training, test := tl.SplitByTimepoint(p.params.Timepoint)

	ex.add(training.FilterOut(p.params.Entity), dataset.ClassOf(training.Contains(p.params.Entity)), false)
	ex.add(test.FilterOut(p.params.Entity), dataset.ClassOf(test.Contains(p.params.Entity)), true)

	return ex.dataset()
}
