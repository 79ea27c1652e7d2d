package output

import (
	"gopkg.in/yaml.v3"

	"github.com/meganame/megacheck/internal/core"
)

// YAMLFormatter renders results as YAML.
type YAMLFormatter struct{}

// FormatBatch renders a batch response as YAML.
func (f *YAMLFormatter) FormatBatch(resp *core.BatchResponse) (string, error) {
	if resp == nil {
		return "", nil
	}
	data, err := yaml.Marshal(resp)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
