package core

import (
	"fmt"
	"regexp"
	"strings"
)

// Default label length bounds. MegaNames labels follow DNS label limits.
const (
	DefaultMinLabelLength = 1
	DefaultMaxLabelLength = 63
)

var (
	labelPattern     = regexp.MustCompile(`^[a-z0-9-]+$`)
	separatorPattern = regexp.MustCompile(`[,\s]+`)
)

// LabelRules holds the registry's syntax constraints.
type LabelRules struct {
	MinLength int
	MaxLength int
}

// DefaultLabelRules returns the MegaNames defaults.
func DefaultLabelRules() LabelRules {
	return LabelRules{MinLength: DefaultMinLabelLength, MaxLength: DefaultMaxLabelLength}
}

// NormalizeLabel trims, lowercases and strips the .mega suffix.
func NormalizeLabel(raw string) string {
	name := strings.ToLower(strings.TrimSpace(raw))
	name = strings.TrimSuffix(name, Suffix)
	return strings.TrimSpace(name)
}

// Validate normalizes raw and checks it against the rules. The returned reason is
// empty when the label is valid.
func (r LabelRules) Validate(raw string) (label string, reason string) {
	label = NormalizeLabel(raw)
	minLen, maxLen := r.bounds()

	switch {
	case label == "":
		return label, "empty name"
	case len(label) > maxLen:
		return label, fmt.Sprintf("too long (max %d chars)", maxLen)
	case len(label) < minLen:
		return label, fmt.Sprintf("too short (min %d chars)", minLen)
	case !labelPattern.MatchString(label):
		return label, "invalid characters (only a-z, 0-9, hyphen)"
	case strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-"):
		return label, "cannot start or end with hyphen"
	}
	return label, ""
}

// Valid reports whether raw is an acceptable label.
func (r LabelRules) Valid(raw string) bool {
	_, reason := r.Validate(raw)
	return reason == ""
}

func (r LabelRules) bounds() (int, int) {
	minLen, maxLen := r.MinLength, r.MaxLength
	if minLen < 1 {
		minLen = DefaultMinLabelLength
	}
	if maxLen < minLen {
		maxLen = DefaultMaxLabelLength
	}
	return minLen, maxLen
}

// SplitNames splits free-form input on commas and whitespace.
func SplitNames(text string) []string {
	parts := separatorPattern.Split(strings.TrimSpace(text), -1)
	names := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" {
			names = append(names, part)
		}
	}
	return names
}
