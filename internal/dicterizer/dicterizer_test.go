package dicterizer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strrl/preludium/internal/dataset"
	"github.com/strrl/preludium/internal/timeline"
)

func day(n int) time.Time {
	return time.Date(2020, 1, n, 0, 0, 0, 0, time.UTC)
}

func TestCounting(t *testing.T) {
	tl := timeline.Timeline{{Name: "A", Date: day(1)}, {Name: "B", Date: day(1)}, {Name: "A", Date: day(1)}}
	assert.Equal(t, dataset.FeatureDict{"A": 2, "B": 1}, Counting(tl))
}

func TestCountingEmpty(t *testing.T) {
	assert.Empty(t, Counting(nil))
}

func TestMereOccurrence(t *testing.T) {
	tl := timeline.Timeline{{Name: "A", Date: day(1)}, {Name: "B", Date: day(1)}, {Name: "A", Date: day(1)}}
	assert.Equal(t, dataset.FeatureDict{"A": 1, "B": 1}, MereOccurrence(tl))
}

func TestLinearFading(t *testing.T) {
	model := NewTemporal(timeline.DateSpan{Start: day(1), End: day(11)}, 0)
	tl := timeline.Timeline{{Name: "A", Date: day(1)}, {Name: "A", Date: day(6)}, {Name: "B", Date: day(11)}}

	got := model.LinearFading(tl)

	assert.InDelta(t, 0.5, got["A"], 1e-9)
	assert.InDelta(t, 1.0, got["B"], 1e-9)
}

func TestTimeBuckets(t *testing.T) {
	model := NewTemporal(timeline.DateSpan{Start: day(1), End: day(11)}, 10)
	tl := timeline.Timeline{
		{Name: "A", Date: day(1)},
		{Name: "A", Date: day(1).Add(time.Hour)},
		{Name: "A", Date: day(6)},
		{Name: "B", Date: day(11)},
	}

	assert.Equal(t, dataset.FeatureDict{"A__0": 2, "A__5": 1, "B__9": 1}, model.TimeBuckets(tl))
}

func TestTemporalZeroWidthSpan(t *testing.T) {
	model := NewTemporal(timeline.DateSpan{Start: day(3), End: day(3)}, 4)
	ref := timeline.Reference{Name: "A", Date: day(3)}

	assert.Equal(t, 1.0, model.RelativeTime(ref))
	assert.Equal(t, 3, model.Bucket(ref))
}

func TestLookup(t *testing.T) {
	span := timeline.DateSpan{Start: day(1), End: day(2)}
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			d, err := Lookup(name, span)
			require.NoError(t, err)
			assert.NotNil(t, d)
			assert.True(t, IsValid(name))
			assert.NotEmpty(t, Describe(name))
		})
	}

	_, err := Lookup("tf_idf", span)
	assert.ErrorIs(t, err, ErrUnknownDicterizer)
}
