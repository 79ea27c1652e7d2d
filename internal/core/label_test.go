package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestLabelRulesValidate(t *testing.T) {
	rules := DefaultLabelRules()

	cases := []struct {
		raw    string
		label  string
		reason string
	}{
		{"alpha", "alpha", ""},
		{"  Alpha.MEGA ", "alpha", ""},
		{"a", "a", ""},
		{"web3-name", "web3-name", ""},
		{"", "", "empty name"},
		{"   ", "", "empty name"},
		{".mega", "", "empty name"},
		{"bad_name", "bad_name", "invalid characters (only a-z, 0-9, hyphen)"},
		{"héllo", "héllo", "invalid characters (only a-z, 0-9, hyphen)"},
		{"sub.name", "sub.name", "invalid characters (only a-z, 0-9, hyphen)"},
		{"-lead", "-lead", "cannot start or end with hyphen"},
		{"trail-", "trail-", "cannot start or end with hyphen"},
		{strings.Repeat("a", 64), strings.Repeat("a", 64), "too long (max 63 chars)"},
		{strings.Repeat("a", 63), strings.Repeat("a", 63), ""},
	}

	for _, tc := range cases {
		label, reason := rules.Validate(tc.raw)
		assert.Equal(t, tc.label, label, tc.raw)
		assert.Equal(t, tc.reason, reason, tc.raw)
	}
}

func TestLabelRulesBounds(t *testing.T) {
	rules := LabelRules{MinLength: 3, MaxLength: 5}

	_, reason := rules.Validate("ab")
	assert.Equal(t, "too short (min 3 chars)", reason)

	_, reason = rules.Validate("abcdef")
	assert.Equal(t, "too long (max 5 chars)", reason)

	assert.True(t, rules.Valid("abcd"))

	// Zero value falls back to the defaults.
	assert.True(t, LabelRules{}.Valid("a"))
	assert.False(t, LabelRules{}.Valid(strings.Repeat("a", 64)))
}

func TestSplitNames(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c", "d"}, SplitNames(" a, b\tc\n,d ,"))
	assert.Empty(t, SplitNames(" , \n "))
	assert.Empty(t, SplitNames(""))
}

func TestValidLabelsProperty(t *testing.T) {
	rules := DefaultLabelRules()
	rapid.Check(t, func(t *rapid.T) {
		label := rapid.StringMatching(`[a-z0-9]([a-z0-9-]{0,40}[a-z0-9])?`).Draw(t, "label")

		got, reason := rules.Validate(strings.ToUpper(label) + Suffix)
		if reason != "" {
			t.Fatalf("%q rejected: %s", label, reason)
		}
		if got != label {
			t.Fatalf("normalized %q to %q", label, got)
		}
	})
}

func TestInvalidCharsetProperty(t *testing.T) {
	rules := DefaultLabelRules()
	rapid.Check(t, func(t *rapid.T) {
		prefix := rapid.StringMatching(`[a-z0-9]{1,10}`).Draw(t, "prefix")
		bad := rapid.SampledFrom([]string{"_", "!", "@", "é", "/", "+", "*", "~"}).Draw(t, "bad")
		suffix := rapid.StringMatching(`[a-z0-9]{1,10}`).Draw(t, "suffix")

		if rules.Valid(prefix + bad + suffix) {
			t.Fatalf("%q accepted", prefix+bad+suffix)
		}
	})
}

func TestValidateIdempotentProperty(t *testing.T) {
	rules := DefaultLabelRules()
	rapid.Check(t, func(t *rapid.T) {
		raw := rapid.String().Draw(t, "raw")

		first, firstReason := rules.Validate(raw)
		second, secondReason := rules.Validate(first)
		if firstReason == "" && (second != first || secondReason != "") {
			t.Fatalf("validating %q twice changed the result: %q -> %q (%s)", raw, first, second, secondReason)
		}
	})
}
