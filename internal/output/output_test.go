package output

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/meganame/megacheck/internal/core"
)

func sampleResponse() *core.BatchResponse {
	results := []*core.AvailabilityResult{
		{Name: "alpha", Display: "alpha.mega", Status: core.StatusAvailable, PriceUSDYear: 1, Length: 5},
		{
			Name:         "abc",
			Display:      "abc.mega",
			Status:       core.StatusTaken,
			Phase:        core.PhaseGrace,
			Owner:        "0x1234567890abcdef1234567890abcdef12345678",
			ExpiresDate:  "2026-01-02",
			PriceUSDYear: 100,
			Length:       3,
		},
		{Name: "bad|name", Display: "bad|name.mega", Status: core.StatusInvalid, Detail: "invalid characters (only a-z, 0-9, hyphen)"},
		{Name: "gamma", Display: "gamma.mega", Status: core.StatusError, Detail: "registry unavailable", PriceUSDYear: 1, Length: 5},
	}
	return &core.BatchResponse{Results: results, Summary: core.Summarize(results, 0)}
}

func TestParseFormat(t *testing.T) {
	format, err := ParseFormat("table")
	require.NoError(t, err)
	require.Equal(t, FormatTable, format)

	format, err = ParseFormat("JSON")
	require.NoError(t, err)
	require.Equal(t, FormatJSON, format)

	format, err = ParseFormat("yml")
	require.NoError(t, err)
	require.Equal(t, FormatYAML, format)

	format, err = ParseFormat("")
	require.NoError(t, err)
	require.Equal(t, FormatTable, format)

	_, err = ParseFormat("csv")
	require.Error(t, err)
}

func TestJSONMatchesAPIShape(t *testing.T) {
	rendered, err := NewFormatter(FormatJSON).FormatBatch(sampleResponse())
	require.NoError(t, err)

	var decoded core.BatchResponse
	require.NoError(t, json.Unmarshal([]byte(rendered), &decoded))
	require.Len(t, decoded.Results, 4)
	assert.Equal(t, core.PhaseGrace, decoded.Results[1].Phase)
	assert.Equal(t, 1, decoded.Summary.Available)
	assert.Equal(t, 1, decoded.Summary.Error)
	assert.Contains(t, rendered, "\"total_cost_year\": 1")
}

func TestYAMLUsesSnakeCaseKeys(t *testing.T) {
	rendered, err := NewFormatter(FormatYAML).FormatBatch(sampleResponse())
	require.NoError(t, err)
	assert.Contains(t, rendered, "price_usd_year: 100")
	assert.Contains(t, rendered, "total_cost_year: 1")

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(rendered), &decoded))
	assert.Contains(t, decoded, "results")
	assert.Contains(t, decoded, "summary")
}

func TestTableAndMarkdown(t *testing.T) {
	resp := sampleResponse()

	table, err := NewFormatter(FormatTable).FormatBatch(resp)
	require.NoError(t, err)
	assert.Contains(t, table, "alpha.mega")
	assert.Contains(t, table, "taken (grace)")
	assert.Contains(t, table, "0x1234...5678")
	assert.Contains(t, table, "$100/yr")
	assert.Contains(t, strings.ToLower(table), "4 checked")

	md, err := NewFormatter(FormatMarkdown).FormatBatch(resp)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(md, "## .mega availability"))
	assert.Contains(t, md, "bad\\|name.mega")
	assert.Contains(t, md, "registry unavailable")
	assert.Contains(t, md, "**Summary**")
}

func TestFilterAvailable(t *testing.T) {
	resp := sampleResponse()
	filtered := FilterAvailable(resp)

	require.Len(t, filtered.Results, 1)
	assert.Equal(t, "alpha", filtered.Results[0].Name)
	assert.Equal(t, resp.Summary, filtered.Summary)
	assert.Nil(t, FilterAvailable(nil))
}

func TestFormattersHandleNil(t *testing.T) {
	for _, format := range []Format{FormatTable, FormatJSON, FormatMarkdown, FormatYAML} {
		rendered, err := NewFormatter(format).FormatBatch(nil)
		require.NoError(t, err)
		assert.Empty(t, rendered)
	}
}
