package internal

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// WriteSummary prints the report as a table.
func WriteSummary(w io.Writer, report *Report) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Footer = text.FormatDefault
	t.AppendHeader(table.Row{"Identifier", "Username", "Outcome", "Detail"})

	for _, entry := range report.Entries {
		var detail string
		switch entry.Outcome {
		case OutcomeAccepted:
			detail = entry.Path
		case OutcomeRejected:
			detail = strings.Join(entry.Reasons, ", ")
		case OutcomeFailed:
			detail = entry.Err.Error()
		}

		t.AppendRow(table.Row{entry.Identifier, entry.Username, string(entry.Outcome), detail})
	}

	t.AppendFooter(table.Row{
		"",
		"",
		"Total",
		fmt.Sprintf(
			"%d accepted, %d rejected, %d skipped, %d failed",
			report.Accepted, report.Rejected, report.Skipped, report.Failed,
		),
	})
	t.Render()
}
