package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strrl/preludium/internal/timeline"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func day(n int) time.Time {
	return time.Date(2020, 1, n, 0, 0, 0, 0, time.UTC)
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const references = `focal,reference,date
@bob,#go,2020-01-03 00:00:00
@alice,#rust,2020-01-02 00:00:00
@alice,#go,2020-01-01 00:00:00
@carol,#zig,2020-01-05 00:00:00
@alice,#zig,2020-01-02 00:00:00
@bob,#rust,2020-01-04 00:00:00
@dave,#go,2020-01-06 00:00:00
`

func openReferences(t *testing.T) *Source {
	t.Helper()
	s, err := Open(context.Background(), writeFile(t, "references.csv", references), discard)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestFocals(t *testing.T) {
	s := openReferences(t)

	focals, err := s.Focals(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []timeline.Focal{
		{Name: "@alice", Timeline: timeline.Timeline{
			{Name: "#go", Date: day(1)},
			{Name: "#rust", Date: day(2)},
			{Name: "#zig", Date: day(2)},
		}},
		{Name: "@bob", Timeline: timeline.Timeline{
			{Name: "#go", Date: day(3)},
			{Name: "#rust", Date: day(4)},
		}},
		{Name: "@carol", Timeline: timeline.Timeline{{Name: "#zig", Date: day(5)}}},
		{Name: "@dave", Timeline: timeline.Timeline{{Name: "#go", Date: day(6)}}},
	}, focals)
}

func TestFocalsKeepFileOrderOnSameDate(t *testing.T) {
	var b strings.Builder
	b.WriteString("focal,reference,date\n")
	const focalCount = 2000
	for i := 0; i < focalCount; i++ {
		focal := fmt.Sprintf("@user%04d", i)
		fmt.Fprintf(&b, "%s,#later,2020-01-02 00:00:00\n", focal)
		fmt.Fprintf(&b, "%s,#zz,2020-01-01 00:00:00\n", focal)
		fmt.Fprintf(&b, "%s,#mm,2020-01-01 00:00:00\n", focal)
		fmt.Fprintf(&b, "%s,#aa,2020-01-01 00:00:00\n", focal)
	}

	s, err := Open(context.Background(), writeFile(t, "ties.csv", b.String()), discard)
	require.NoError(t, err)
	defer s.Close()

	focals, err := s.Focals(context.Background())
	require.NoError(t, err)
	require.Len(t, focals, focalCount)

	want := timeline.Timeline{
		{Name: "#zz", Date: day(1)},
		{Name: "#mm", Date: day(1)},
		{Name: "#aa", Date: day(1)},
		{Name: "#later", Date: day(2)},
	}
	for _, f := range focals {
		require.Equal(t, want, f.Timeline, f.Name)
	}
}

func TestPopularityCandidates(t *testing.T) {
	s := openReferences(t)
	ctx := context.Background()

	count, err := s.FocalCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	candidates, err := s.PopularityCandidates(ctx, CandidateQuery{Precision: 0})
	require.NoError(t, err)
	assert.Equal(t, []Candidate{{"#rust", 2}, {"#zig", 2}}, candidates)

	candidates, err = s.PopularityCandidates(ctx, CandidateQuery{Precision: 0.25, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []Candidate{{"#go", 3}, {"#rust", 2}}, candidates)

	candidates, err = s.PopularityCandidates(ctx, CandidateQuery{Precision: 0.5, MinPopularity: 3})
	require.NoError(t, err)
	assert.Equal(t, []Candidate{{"#go", 3}}, candidates)
}

func TestStats(t *testing.T) {
	s := openReferences(t)

	stats, err := s.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Stats{References: 7, Focals: 4, DistinctReferences: 3, First: day(1), Last: day(6)}, stats)
}

func TestOpenErrors(t *testing.T) {
	ctx := context.Background()

	_, err := Open(ctx, filepath.Join(t.TempDir(), "missing.csv"), discard)
	assert.Error(t, err)

	_, err = Open(ctx, writeFile(t, "references.txt", references), discard)
	assert.Error(t, err)

	_, err = Open(ctx, writeFile(t, "wrong.csv", "user,tag,when\n@a,#b,2020-01-01 00:00:00\n"), discard)
	assert.Error(t, err)
}

func TestMaterialize(t *testing.T) {
	tweets := writeFile(t, "tweets.csv", `id,username,date,hashtags,mentions,to
1,alice,2020-01-01 10:00:00,#go #rust,@bob,
2,bob,2020-01-02 10:00:00,,,alice
3,alice,2020-01-03 10:00:00,#go,,
`)
	out := filepath.Join(t.TempDir(), "references.csv")
	ctx := context.Background()

	count, err := Materialize(ctx, tweets, out, discard)
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)

	s, err := Open(ctx, out, discard)
	require.NoError(t, err)
	defer s.Close()

	focals, err := s.Focals(ctx)
	require.NoError(t, err)
	require.Len(t, focals, 2)

	assert.Equal(t, "@alice", focals[0].Name)
	names := make([]string, 0, len(focals[0].Timeline))
	for _, ref := range focals[0].Timeline {
		names = append(names, ref.Name)
	}
	assert.ElementsMatch(t, []string{"#go", "#rust", "@bob", "#go"}, names)
	assert.Equal(t, "#go", focals[0].Timeline[3].Name)

	assert.Equal(t, timeline.Timeline{{Name: "@alice", Date: time.Date(2020, 1, 2, 10, 0, 0, 0, time.UTC)}}, focals[1].Timeline)
}
