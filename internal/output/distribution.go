package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/strrl/preludium/internal/timeline"
)

// WriteDistributionCSV writes one "timepoint,focals" row per point.
func WriteDistributionCSV(w io.Writer, points []timeline.DistributionPoint) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"timepoint", "focals"}); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, p := range points {
		if err := cw.Write([]string{p.Timepoint.UTC().Format(time.RFC3339), strconv.Itoa(p.Focals)}); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func RenderDistribution(points []timeline.DistributionPoint, mode Mode) string {
	tw := newWriter(mode)
	tw.AppendHeader(table.Row{"Timepoint", "Active focals"})
	for _, p := range points {
		tw.AppendRow(table.Row{p.Timepoint.UTC().Format(time.RFC3339), p.Focals})
	}
	return render(tw, mode)
}
