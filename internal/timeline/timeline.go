package timeline

import (
	"sort"
	"time"
)

type EntityName = string

// Reference is one timestamped occurrence of a named entity in a focal's
// activity stream.
type Reference struct {
	Name EntityName `json:"name"`
	Date time.Time  `json:"date"`
}

// Timeline is ordered by Date, non-decreasing. Sources are responsible for
// supplying it sorted.
type Timeline []Reference

type Focal struct {
	Name     EntityName `json:"name"`
	Timeline Timeline   `json:"timeline"`
}

type DateSpan struct {
	Start time.Time
	End   time.Time
}

// Span returns the dates of the first and last reference by position. It does
// not re-sort, so an out-of-order timeline yields position 0 and position -1.
// Panics on an empty timeline.
func (t Timeline) Span() DateSpan {
	if len(t) == 0 {
		panic("timeline: date span of empty timeline")
	}
	return DateSpan{Start: t[0].Date, End: t[len(t)-1].Date}
}

func (t Timeline) FilterOut(name EntityName) Timeline {
	result := make(Timeline, 0, len(t))
	for _, ref := range t {
		if ref.Name != name {
			result = append(result, ref)
		}
	}
	return result
}

// SplitByTimepoint partitions at the first reference dated at or after the
// timepoint.
func (t Timeline) SplitByTimepoint(timepoint time.Time) (before, atOrAfter Timeline) {
	index := sort.Search(len(t), func(i int) bool {
		return !t[i].Date.Before(timepoint)
	})
	return t[:index:index], t[index:]
}

func (t Timeline) Contains(name EntityName) bool {
	for _, ref := range t {
		if ref.Name == name {
			return true
		}
	}
	return false
}

func (t Timeline) LastIndex(name EntityName) int {
	return LastIndex(t, func(ref Reference) bool { return ref.Name == name })
}

func (t Timeline) IndexesOf(name EntityName) []int {
	return IndexesOf(t, func(ref Reference) bool { return ref.Name == name })
}

func (t Timeline) Clone() Timeline {
	if t == nil {
		return nil
	}
	result := make(Timeline, len(t))
	copy(result, t)
	return result
}

// LastIndex returns -1 when nothing matches.
func LastIndex[T any](items []T, match func(T) bool) int {
	for i := len(items) - 1; i >= 0; i-- {
		if match(items[i]) {
			return i
		}
	}
	return -1
}

func IndexesOf[T any](items []T, match func(T) bool) []int {
	var result []int
	for i, item := range items {
		if match(item) {
			result = append(result, i)
		}
	}
	return result
}
