package namegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/meganame/megacheck/internal/core"
)

func TestGenerateDefaults(t *testing.T) {
	names, err := Generate(Options{})
	require.NoError(t, err)
	assert.Len(t, names, DefaultCount)

	seen := make(map[string]bool)
	for _, name := range names {
		assert.True(t, core.DefaultLabelRules().Valid(name), "generated %q should be a valid label", name)
		assert.False(t, seen[name], "duplicate %q", name)
		seen[name] = true
	}
}

func TestGeneratePatterns(t *testing.T) {
	for _, pattern := range []Pattern{PatternWords, PatternSyllables, PatternMixed} {
		t.Run(string(pattern), func(t *testing.T) {
			names, err := Generate(Options{Count: 5, Pattern: pattern, Separator: "-"})
			require.NoError(t, err)
			require.NotEmpty(t, names)
			for _, name := range names {
				assert.True(t, core.DefaultLabelRules().Valid(name), "generated %q", name)
			}
		})
	}
}

func TestGenerateRejectsBadOptions(t *testing.T) {
	_, err := Generate(Options{Pattern: "emoji"})
	assert.ErrorIs(t, err, ErrInvalidPattern)

	_, err = Generate(Options{Count: MaxCount + 1})
	assert.Error(t, err)

	_, err = Generate(Options{Separator: "_"})
	assert.Error(t, err)

	_, err = Generate(Options{MinLength: 10, MaxLength: 4})
	assert.Error(t, err)
}

func TestParsePattern(t *testing.T) {
	p, err := ParsePattern("")
	require.NoError(t, err)
	assert.Equal(t, PatternWords, p)

	p, err = ParsePattern(" Syllables ")
	require.NoError(t, err)
	assert.Equal(t, PatternSyllables, p)
}

func TestGenerateRespectsLengthBounds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		minLen := rapid.IntRange(3, 8).Draw(t, "min")
		maxLen := rapid.IntRange(minLen+4, 20).Draw(t, "max")
		pattern := rapid.SampledFrom([]Pattern{PatternWords, PatternSyllables, PatternMixed}).Draw(t, "pattern")

		names, err := Generate(Options{Count: 5, Pattern: pattern, MinLength: minLen, MaxLength: maxLen})
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		for _, name := range names {
			if len(name) < minLen || len(name) > maxLen {
				t.Fatalf("%q outside [%d,%d]", name, minLen, maxLen)
			}
			if !core.DefaultLabelRules().Valid(name) {
				t.Fatalf("%q is not a valid label", name)
			}
		}
	})
}
