package output

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/strrl/preludium/internal/benchmark"
	"github.com/strrl/preludium/internal/processor"
)

type Mode int

const (
	ASCII Mode = iota
	Markdown
)

// WriteTable renders one row per result as a terminal table.
func WriteTable(w io.Writer, results []benchmark.Result) error {
	_, err := io.WriteString(w, RenderResults(results, ASCII)+"\n")
	return err
}

func RenderResults(results []benchmark.Result, mode Mode) string {
	tw := newWriter(mode)
	tw.AppendHeader(table.Row{"Reference", "Processor", "Dicterizer", "Classifier", "Shuffled", "Train +/-", "Test +/-", "Acc", "F1"})

	for _, r := range results {
		tw.AppendRow(table.Row{
			r.Reference,
			processorLabel(r.Processor),
			r.Dicterizer,
			r.Classifier,
			r.Shuffled,
			fmt.Sprintf("%d/%d", r.Metrics.Train.Positive, r.Metrics.Train.Negative),
			fmt.Sprintf("%d/%d", r.Metrics.Test.Positive, r.Metrics.Test.Negative),
			fmt.Sprintf("%.3f", r.Summary.AccuracyMean),
			fmt.Sprintf("%.3f", r.Summary.F1Mean),
		})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 8, Align: text.AlignRight},
		{Number: 9, Align: text.AlignRight},
	})

	return render(tw, mode)
}

func newWriter(mode Mode) table.Writer {
	tw := table.NewWriter()
	if mode == ASCII {
		tw.SetStyle(table.StyleLight)
	}
	return tw
}

func render(tw table.Writer, mode Mode) string {
	if mode == Markdown {
		return tw.RenderMarkdown()
	}
	return tw.Render()
}

// processorLabel drops the entity name, which is already the reference column.
func processorLabel(d processor.Description) string {
	keys := make([]string, 0, len(d.Fields))
	for k := range d.Fields {
		if k == "entity_name" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+d.Fields[k])
	}
	return fmt.Sprintf("%s(%s)", d.Type, strings.Join(parts, ","))
}
