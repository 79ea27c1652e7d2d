package output

import (
	"fmt"
	"strings"

	"github.com/meganame/megacheck/internal/core"
)

// Format represents an output format.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatYAML     Format = "yaml"
)

// Formatter renders batch responses.
type Formatter interface {
	FormatBatch(resp *core.BatchResponse) (string, error)
}

// ParseFormat validates and normalizes a format string.
func ParseFormat(value string) (Format, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "", string(FormatTable):
		return FormatTable, nil
	case string(FormatJSON):
		return FormatJSON, nil
	case string(FormatMarkdown), "md":
		return FormatMarkdown, nil
	case string(FormatYAML), "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", value)
	}
}

// NewFormatter returns a formatter for the requested format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatMarkdown:
		return &MarkdownFormatter{}
	case FormatYAML:
		return &YAMLFormatter{}
	default:
		return &TableFormatter{}
	}
}

// FilterAvailable returns a copy of resp holding only available results.
// The summary is left untouched so totals still describe the whole batch.
func FilterAvailable(resp *core.BatchResponse) *core.BatchResponse {
	if resp == nil {
		return nil
	}
	filtered := &core.BatchResponse{Summary: resp.Summary}
	for _, r := range resp.Results {
		if r != nil && r.Available() {
			filtered.Results = append(filtered.Results, r)
		}
	}
	return filtered
}

func summaryLine(s core.Summary) string {
	line := fmt.Sprintf("%d checked: %d available, %d taken, %d invalid", s.Total, s.Available, s.Taken, s.Invalid)
	if s.Error > 0 {
		line += fmt.Sprintf(", %d errors", s.Error)
	}
	return line + fmt.Sprintf(" | $%d/yr | %.2fs", s.TotalCostYear, s.ElapsedSeconds)
}
