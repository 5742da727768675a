package processor

import (
	"sort"
	"time"

	"github.com/strrl/preludium/internal/dataset"
	"github.com/strrl/preludium/internal/timeline"
)

// window is a half-open index range [start, end) of the source timeline.
type window struct {
	start int
	end   int
	class dataset.FeatureClass
}

// windowing buckets the timeline into runs whose consecutive references are
// at most limit apart. A window is positive when it leads up to an occurrence
// of the entity; every other window is negative.
//
// Bounded phase: every range that is terminated by an occurrence of the
// entity is scanned backward from that occurrence, most recent occurrence
// first. The run reaching back from the occurrence is the positive window;
// once it closes, whatever is left of the range down to the previous
// occurrence is cut into negative windows and the scan resumes below that
// occurrence, so nothing attributed to an occurrence is consumed twice.
//
// Unbounded phase: the range after the last occurrence (the whole timeline
// when the entity never occurs) has nothing to terminate it and is cut into
// negative windows only.
//
// Windows are emitted in chronological order. A window is test when its first
// reference is at or after the timepoint.
func (p *Processor) windowing(tl timeline.Timeline) dataset.TimelineDataset {
	occurrences := tl.IndexesOf(p.params.Entity)

	var windows []window

	for j := len(occurrences) - 1; j >= 0; j-- {
		lower := 0
		if j > 0 {
			lower = occurrences[j-1] + 1
		}
		windows = append(windows, boundedWindows(tl, lower, occurrences[j], p.params.Limit)...)
	}

	lower := 0
	if len(occurrences) > 0 {
		lower = occurrences[len(occurrences)-1] + 1
	}
	windows = append(windows, unboundedWindows(tl, lower, len(tl), p.params.Limit)...)

	sort.Slice(windows, func(i, j int) bool {
		return windows[i].start < windows[j].start
	})

	var ex examples
	for _, w := range windows {
		ex.add(tl[w.start:w.end].Clone(), w.class, atOrAfter(tl[w.start].Date, p.params.Timepoint))
	}
	return ex.dataset()
}

// boundedWindows covers tl[lower:occurrence]. The positive window is empty
// when the reference right before the occurrence is already further than
// limit away from it.
func boundedWindows(tl timeline.Timeline, lower, occurrence int, limit time.Duration) []window {
	start := occurrence
	for start > lower && tl[start].Date.Sub(tl[start-1].Date) <= limit {
		start--
	}

	var windows []window
	if start < occurrence {
		windows = append(windows, window{start: start, end: occurrence, class: dataset.Positive})
	}
	return append(windows, unboundedWindows(tl, lower, start, limit)...)
}

// unboundedWindows cuts tl[lower:upper] into negative windows, scanning
// backward from upper and closing a window at every gap wider than limit.
func unboundedWindows(tl timeline.Timeline, lower, upper int, limit time.Duration) []window {
	var windows []window

	end := upper
	for end > lower {
		start := end - 1
		for start > lower && tl[start].Date.Sub(tl[start-1].Date) <= limit {
			start--
		}
		windows = append(windows, window{start: start, end: end, class: dataset.Negative})
		end = start
	}

	return windows
}
