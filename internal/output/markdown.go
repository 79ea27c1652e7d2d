package output

import (
	"fmt"
	"strings"

	"github.com/meganame/megacheck/internal/core"
)

// MarkdownFormatter renders results as a markdown table.
type MarkdownFormatter struct{}

// FormatBatch renders a batch response as Markdown.
func (f *MarkdownFormatter) FormatBatch(resp *core.BatchResponse) (string, error) {
	if resp == nil {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString("## " + core.Suffix + " availability\n\n")
	sb.WriteString("| Name | Status | Price | Notes |\n")
	sb.WriteString("|------|--------|-------|-------|\n")

	for _, r := range resp.Results {
		if r == nil {
			continue
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
			escapeMarkdownCell(r.Display),
			escapeMarkdownCell(statusLabel(r)),
			escapeMarkdownCell(priceLabel(r)),
			escapeMarkdownCell(formatNotes(r)),
		))
	}

	sb.WriteString(fmt.Sprintf("\n**Summary**: %s\n", summaryLine(resp.Summary)))
	return sb.String(), nil
}

func escapeMarkdownCell(value string) string {
	return strings.ReplaceAll(value, "|", "\\|")
}
