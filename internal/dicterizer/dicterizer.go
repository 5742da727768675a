package dicterizer

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/strrl/preludium/internal/dataset"
	"github.com/strrl/preludium/internal/timeline"
)

var ErrUnknownDicterizer = errors.New("unknown dicterizer")

const DefaultBuckets = 10

const (
	NameCounting       = "counting"
	NameMereOccurrence = "mere_occurrence"
	NameLinearFading   = "linear_fading"
	NameTimeBuckets    = "time_buckets"
)

var descriptions = map[string]string{
	NameCounting:       "Occurrences of each reference",
	NameMereOccurrence: "1 for every reference present",
	NameLinearFading:   "Sum of relative times of occurrences within the corpus span",
	NameTimeBuckets:    "Occurrences per relative-time bucket of the corpus span",
}

func Counting(tl timeline.Timeline) dataset.FeatureDict {
	result := make(dataset.FeatureDict)
	for _, ref := range tl {
		result[ref.Name]++
	}
	return result
}

func MereOccurrence(tl timeline.Timeline) dataset.FeatureDict {
	result := make(dataset.FeatureDict)
	for _, ref := range tl {
		result[ref.Name] = 1
	}
	return result
}

// Temporal maps dates onto [0, 1] relative to a corpus-wide span.
type Temporal struct {
	span    timeline.DateSpan
	buckets int
}

func NewTemporal(span timeline.DateSpan, buckets int) *Temporal {
	if buckets <= 0 {
		buckets = DefaultBuckets
	}
	return &Temporal{span: span, buckets: buckets}
}

// RelativeTime is 0 at the start of the span and 1 at its end. A zero-width
// span places everything at 1.
func (m *Temporal) RelativeTime(ref timeline.Reference) float64 {
	width := m.span.End.Sub(m.span.Start)
	if width <= 0 {
		return 1
	}
	return float64(ref.Date.Sub(m.span.Start)) / float64(width)
}

func (m *Temporal) Bucket(ref timeline.Reference) int {
	id := int(math.Floor(m.RelativeTime(ref) * float64(m.buckets)))
	if id >= m.buckets {
		return m.buckets - 1
	}
	if id < 0 {
		return 0
	}
	return id
}

func (m *Temporal) LinearFading(tl timeline.Timeline) dataset.FeatureDict {
	result := make(dataset.FeatureDict)
	for _, ref := range tl {
		result[ref.Name] += m.RelativeTime(ref)
	}
	return result
}

// TimeBuckets emits one feature per reference and bucket, named name__bucket.
func (m *Temporal) TimeBuckets(tl timeline.Timeline) dataset.FeatureDict {
	result := make(dataset.FeatureDict)
	for _, ref := range tl {
		result[fmt.Sprintf("%s__%d", ref.Name, m.Bucket(ref))]++
	}
	return result
}

// Lookup resolves a dicterizer by name. Temporal models are bound to span.
func Lookup(name string, span timeline.DateSpan) (dataset.Dicterizer, error) {
	switch name {
	case NameCounting:
		return Counting, nil
	case NameMereOccurrence:
		return MereOccurrence, nil
	case NameLinearFading:
		return NewTemporal(span, DefaultBuckets).LinearFading, nil
	case NameTimeBuckets:
		return NewTemporal(span, DefaultBuckets).TimeBuckets, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDicterizer, name)
	}
}

func IsValid(name string) bool {
	_, ok := descriptions[name]
	return ok
}

func Names() []string {
	names := make([]string, 0, len(descriptions))
	for name := range descriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func Describe(name string) string {
	return descriptions[name]
}
