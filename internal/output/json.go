package output

import (
	"encoding/json"

	"github.com/meganame/megacheck/internal/core"
)

// JSONFormatter renders results as JSON.
type JSONFormatter struct {
	Indent bool
}

// FormatBatch renders a batch response as JSON, matching the HTTP API body.
func (f *JSONFormatter) FormatBatch(resp *core.BatchResponse) (string, error) {
	if resp == nil {
		return "", nil
	}

	var (
		data []byte
		err  error
	)

	if f.Indent {
		data, err = json.MarshalIndent(resp, "", "  ")
	} else {
		data, err = json.Marshal(resp)
	}
	if err != nil {
		return "", err
	}

	return string(data), nil
}
