package report

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"

	"github.com/spigell/cv-evaluator/internal/history"
)

// Table prints the history listing. Dates are shown relative to now.
func Table(w io.Writer, entries []*history.Entry, now time.Time) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "File", "Evaluated", "Score"})
	table.SetAutoWrapText(false)

	for _, entry := range entries {
		score := "-"
		if entry.Evaluation != nil {
			score = fmt.Sprintf("%.0f", entry.Evaluation.FitScore)
		}
		table.Append([]string{
			entry.ID,
			entry.FileName,
			humanize.RelTime(entry.Date, now, "ago", "from now"),
			score,
		})
	}

	table.Render()
}
