package processor

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/strrl/preludium/internal/dataset"
	"github.com/strrl/preludium/internal/timeline"
)

var ErrUnknownKind = errors.New("unknown processor kind")

const DefaultTestProbability = 0.2

type Kind string

const (
	KindFilterAndSliceToMostRecent Kind = "filter_and_slice_to_most_recent"
	KindTimepoint                  Kind = "timepoint"
	KindSlicing                    Kind = "slicing"
	KindWindowing                  Kind = "windowing"
)

var typeNames = map[Kind]string{
	KindFilterAndSliceToMostRecent: "FilterAndSliceToMostRecentProcessor",
	KindTimepoint:                  "TimepointProcessor",
	KindSlicing:                    "SlicingProcessor",
	KindWindowing:                  "WindowingProcessor",
}

func (k Kind) IsValid() bool {
	_, ok := typeNames[k]
	return ok
}

func ParseKind(s string) (Kind, error) {
	k := Kind(strings.TrimSpace(strings.ToLower(s)))
	if !k.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}

func Kinds() []Kind {
	kinds := make([]Kind, 0, len(typeNames))
	for k := range typeNames {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Params is the union of every kind's parameters; each kind reads only the
// fields it needs.
type Params struct {
	Entity    timeline.EntityName
	Timepoint time.Time
	Limit     time.Duration

	// Legacy filter-and-slice only. Seed 0 draws a random seed.
	TestProbability float64
	Seed            uint64
}

// Processor turns one focal's timeline into labeled, split-flagged examples.
// Safe for concurrent use.
type Processor struct {
	kind   Kind
	params Params

	mu  sync.Mutex
	rng *rand.Rand
}

func New(kind Kind, params Params) (*Processor, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if params.Entity == "" {
		return nil, fmt.Errorf("%s: entity name is required", typeNames[kind])
	}

	p := &Processor{kind: kind, params: params}

	switch kind {
	case KindFilterAndSliceToMostRecent:
		if p.params.TestProbability == 0 {
			p.params.TestProbability = DefaultTestProbability
		}
		if p.params.TestProbability < 0 || p.params.TestProbability > 1 {
			return nil, fmt.Errorf("%s: test probability %v outside [0, 1]", typeNames[kind], p.params.TestProbability)
		}
		seed := p.params.Seed
		if seed == 0 {
			seed = rand.Uint64()
		}
		p.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	case KindTimepoint, KindSlicing:
		if params.Timepoint.IsZero() {
			return nil, fmt.Errorf("%s: timepoint is required", typeNames[kind])
		}
	case KindWindowing:
		if params.Timepoint.IsZero() {
			return nil, fmt.Errorf("%s: timepoint is required", typeNames[kind])
		}
		if params.Limit <= 0 {
			return nil, fmt.Errorf("%s: window limit must be positive", typeNames[kind])
		}
	}

	return p, nil
}

func (p *Processor) Kind() Kind {
	return p.kind
}

func (p *Processor) Params() Params {
	return p.params
}

func (p *Processor) Apply(tl timeline.Timeline) dataset.TimelineDataset {
	switch p.kind {
	case KindFilterAndSliceToMostRecent:
		return p.filterAndSliceToMostRecent(tl)
	case KindTimepoint:
		return p.timepoint(tl)
	case KindSlicing:
		return p.slicing(tl)
	case KindWindowing:
		return p.windowing(tl)
	default:
		panic(fmt.Sprintf("processor: unhandled kind %q", p.kind))
	}
}

type Description struct {
	Type   string            `json:"type" yaml:"type"`
	Fields map[string]string `json:"fields" yaml:"fields"`
}

func (p *Processor) Describe() Description {
	fields := map[string]string{"entity_name": p.params.Entity}

	switch p.kind {
	case KindFilterAndSliceToMostRecent:
		fields["test_probability"] = fmt.Sprintf("%g", p.params.TestProbability)
	case KindTimepoint, KindSlicing:
		fields["timepoint"] = p.params.Timepoint.Format(time.RFC3339)
	case KindWindowing:
		fields["timepoint"] = p.params.Timepoint.Format(time.RFC3339)
		fields["limit"] = p.params.Limit.String()
	}

	return Description{Type: typeNames[p.kind], Fields: fields}
}

func (p *Processor) String() string {
	d := p.Describe()

	keys := make([]string, 0, len(d.Fields))
	for k := range d.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+d.Fields[k])
	}

	return fmt.Sprintf("%s(%s)", d.Type, strings.Join(parts, ","))
}

// examples collects parallel arrays while a processor walks a timeline.
type examples struct {
	x    []timeline.Timeline
	y    []dataset.FeatureClass
	test []bool
}

func (e *examples) add(tl timeline.Timeline, class dataset.FeatureClass, isTest bool) {
	e.x = append(e.x, tl)
	e.y = append(e.y, class)
	e.test = append(e.test, isTest)
}

func (e *examples) dataset() dataset.TimelineDataset {
	return dataset.MustNew(e.x, e.y, e.test)
}

func atOrAfter(date, timepoint time.Time) bool {
	return !date.Before(timepoint)
}
