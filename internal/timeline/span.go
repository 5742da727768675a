package timeline

import (
	"sort"
	"time"
)

type DistributionPoint struct {
	Timepoint time.Time
	Focals    int
}

type GroupPoint struct {
	Timepoint time.Time
	Focals    []EntityName
}

// FocalGroupSpan records, for every span endpoint of every focal, which focals
// are active at that instant.
type FocalGroupSpan struct {
	Points []GroupPoint
}

func NewFocalGroupSpan(focals []Focal) *FocalGroupSpan {
	spans := make(map[EntityName]DateSpan, len(focals))
	seen := make(map[time.Time]struct{})
	var timepoints []time.Time

	for _, focal := range focals {
		if len(focal.Timeline) == 0 {
			continue
		}
		span := focal.Timeline.Span()
		spans[focal.Name] = span
		for _, tp := range []time.Time{span.Start, span.End} {
			key := tp.UTC()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			timepoints = append(timepoints, tp)
		}
	}

	sort.Slice(timepoints, func(i, j int) bool {
		return timepoints[i].Before(timepoints[j])
	})

	names := make([]EntityName, 0, len(spans))
	for name := range spans {
		names = append(names, name)
	}
	sort.Strings(names)

	points := make([]GroupPoint, 0, len(timepoints))
	for _, tp := range timepoints {
		var active []EntityName
		for _, name := range names {
			span := spans[name]
			if !tp.Before(span.Start) && !tp.After(span.End) {
				active = append(active, name)
			}
		}
		points = append(points, GroupPoint{Timepoint: tp, Focals: active})
	}

	return &FocalGroupSpan{Points: points}
}

// Outer panics when the group has no points.
func (s *FocalGroupSpan) Outer() DateSpan {
	if len(s.Points) == 0 {
		panic("timeline: outer span of empty focal group")
	}
	return DateSpan{Start: s.Points[0].Timepoint, End: s.Points[len(s.Points)-1].Timepoint}
}

func (s *FocalGroupSpan) Distribution() []DistributionPoint {
	result := make([]DistributionPoint, 0, len(s.Points))
	for _, p := range s.Points {
		result = append(result, DistributionPoint{Timepoint: p.Timepoint, Focals: len(p.Focals)})
	}
	return result
}

func (s *FocalGroupSpan) HighestDistributionPoints() []DistributionPoint {
	distribution := s.Distribution()
	maxFocals := 0
	for _, d := range distribution {
		if d.Focals > maxFocals {
			maxFocals = d.Focals
		}
	}

	var result []DistributionPoint
	for _, d := range distribution {
		if d.Focals == maxFocals {
			result = append(result, d)
		}
	}
	return result
}

type PointStats struct {
	Lower  int
	Higher int
	First  time.Time
	Last   time.Time
}

// PointStatsAt counts references dated before the timepoint (Lower) and at or
// after it (Higher) across all focals.
func PointStatsAt(focals []Focal, timepoint time.Time) PointStats {
	var stats PointStats
	for _, focal := range focals {
		for _, ref := range focal.Timeline {
			if ref.Date.Before(timepoint) {
				stats.Lower++
			} else {
				stats.Higher++
			}
			if stats.First.IsZero() || ref.Date.Before(stats.First) {
				stats.First = ref.Date
			}
			if stats.Last.IsZero() || ref.Date.After(stats.Last) {
				stats.Last = ref.Date
			}
		}
	}
	return stats
}
