package processor

import (
	"github.com/strrl/preludium/internal/dataset"
	"github.com/strrl/preludium/internal/timeline"
)

// filterAndSliceToMostRecent keeps everything strictly before the last
// occurrence of the entity. The test flag is a coin flip, not a temporal
// split.
func (p *Processor) filterAndSliceToMostRecent(tl timeline.Timeline) dataset.TimelineDataset {
	var ex examples

	index := tl.LastIndex(p.params.Entity)
	if index < 0 {
		ex.add(tl.Clone(), dataset.Negative, p.flipCoin())
		return ex.dataset()
	}

	ex.add(tl[:index].FilterOut(p.params.Entity), dataset.Positive, p.flipCoin())
	return ex.dataset()
}

func (p *Processor) flipCoin() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.Float64() < p.params.TestProbability
}
