package output

import (
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/meganame/megacheck/internal/core"
)

// TableFormatter renders results as an ASCII table.
type TableFormatter struct{}

// FormatBatch renders a batch response as a table.
func (f *TableFormatter) FormatBatch(resp *core.BatchResponse) (string, error) {
	if resp == nil {
		return "", nil
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Name", "Status", "Price", "Notes"})

	for _, r := range resp.Results {
		if r == nil {
			continue
		}
		t.AppendRow(table.Row{
			r.Display,
			statusLabel(r),
			priceLabel(r),
			formatNotes(r),
		})
	}

	t.AppendFooter(table.Row{"", "", "", summaryLine(resp.Summary)})

	return t.Render(), nil
}
