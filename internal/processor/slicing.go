package processor

import (
	"github.com/strrl/preludium/internal/dataset"
	"github.com/strrl/preludium/internal/timeline"
)

// slicing cuts the timeline at every occurrence of the entity. Segments that
// end at an occurrence are positive, the remainder after the last occurrence
// is negative. A segment is test when the reference that follows it (its
// terminating occurrence, or its own first reference for the remainder) is at
// or after the timepoint. Empty segments are not emitted.
func (p *Processor) slicing(tl timeline.Timeline) dataset.TimelineDataset {
	var ex examples

	start := 0
	for i, ref := range tl {
		if ref.Name != p.params.Entity {
			continue
		}
		if i > start {
			ex.add(tl[start:i].Clone(), dataset.Positive, atOrAfter(ref.Date, p.params.Timepoint))
		}
		start = i + 1
	}

	if start < len(tl) {
		ex.add(tl[start:].Clone(), dataset.Negative, atOrAfter(tl[start].Date, p.params.Timepoint))
	}

	return ex.dataset()
}
