// Package namegen produces random, human-readable candidate labels.
//
// Names are built from a pattern (adjective and noun words, consonant-vowel
// syllables, or a word followed by digits) using crypto/rand. Every returned
// name passes the supplied core.LabelRules; candidates that do not are drawn
// again up to a bounded number of attempts.
package namegen

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/meganame/megacheck/internal/core"
)

// Pattern selects how names are assembled.
type Pattern string

const (
	PatternWords     Pattern = "words"
	PatternSyllables Pattern = "syllables"
	PatternMixed     Pattern = "mixed"
)

const (
	MaxCount       = 100
	DefaultCount   = 10
	attemptsPerNew = 50
)

// ErrInvalidPattern is returned for unknown patterns.
var ErrInvalidPattern = errors.New("unknown pattern")

var (
	adjectives = []string{
		"able", "bold", "brave", "bright", "calm", "clear", "cool", "crisp",
		"dark", "deep", "fair", "fast", "fine", "free", "fresh", "glad",
		"gold", "good", "grand", "great", "keen", "kind", "last", "late",
		"light", "live", "loud", "lucky", "mega", "mild", "neat", "new",
		"noble", "odd", "prime", "proud", "pure", "quick", "quiet", "rare",
		"rapid", "real", "rich", "royal", "safe", "sharp", "shy", "silent",
		"slim", "smart", "solid", "swift", "true", "vast", "warm", "wild",
		"wise", "young", "zen",
	}
	nouns = []string{
		"arc", "atom", "bay", "bear", "bee", "bird", "block", "bolt",
		"byte", "cat", "chain", "cloud", "coin", "core", "crow", "dawn",
		"dock", "dove", "dusk", "eagle", "echo", "edge", "elk", "ember",
		"fern", "fire", "fox", "gate", "gem", "hawk", "hill", "key",
		"lake", "leaf", "lion", "lynx", "mint", "moon", "moth", "node",
		"oak", "orb", "owl", "peak", "pine", "pixel", "port", "pulse",
		"rain", "reef", "river", "rock", "sage", "seed", "shard", "sky",
		"spark", "star", "stone", "storm", "sun", "tide", "vault", "wave",
		"wolf", "wren",
	}
	consonants = []string{
		"b", "c", "d", "f", "g", "h", "j", "k", "l", "m", "n", "p", "r",
		"s", "t", "v", "w", "z", "ch", "sh", "th",
	}
	vowels = []string{"a", "e", "i", "o", "u"}
)

// Options configures a generation run. Zero values fall back to defaults.
type Options struct {
	Count     int
	Pattern   Pattern
	MinLength int
	MaxLength int
	Separator string
	Rules     core.LabelRules
}

// ParsePattern maps user input to a Pattern. Empty input selects PatternWords.
func ParsePattern(value string) (Pattern, error) {
	switch Pattern(strings.ToLower(strings.TrimSpace(value))) {
	case "", PatternWords:
		return PatternWords, nil
	case PatternSyllables:
		return PatternSyllables, nil
	case PatternMixed:
		return PatternMixed, nil
	default:
		return "", fmt.Errorf("%w %q (expected words, syllables or mixed)", ErrInvalidPattern, value)
	}
}

// Generate returns up to opts.Count distinct names. It returns fewer names only
// when the length bounds make further unique candidates too hard to find.
func Generate(opts Options) ([]string, error) {
	pattern, err := ParsePattern(string(opts.Pattern))
	if err != nil {
		return nil, err
	}
	count := opts.Count
	if count <= 0 {
		count = DefaultCount
	}
	if count > MaxCount {
		return nil, fmt.Errorf("count must be between 1 and %d", MaxCount)
	}
	if opts.Separator != "" && opts.Separator != "-" {
		return nil, fmt.Errorf("separator must be empty or \"-\"")
	}

	rules := opts.Rules
	if rules.MinLength == 0 && rules.MaxLength == 0 {
		rules = core.DefaultLabelRules()
	}
	minLen, maxLen := opts.MinLength, opts.MaxLength
	if minLen <= 0 {
		minLen = 3
	}
	if maxLen <= 0 {
		maxLen = 16
	}
	if minLen > maxLen {
		return nil, fmt.Errorf("min length %d exceeds max length %d", minLen, maxLen)
	}

	seen := make(map[string]struct{}, count)
	names := make([]string, 0, count)
	for attempts := 0; len(names) < count && attempts < count*attemptsPerNew; attempts++ {
		name, err := candidate(pattern, opts.Separator)
		if err != nil {
			return nil, err
		}
		if len(name) < minLen || len(name) > maxLen {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		if label, reason := rules.Validate(name); reason != "" || label != name {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names, nil
}

func candidate(pattern Pattern, sep string) (string, error) {
	switch pattern {
	case PatternSyllables:
		n, err := randInt(3)
		if err != nil {
			return "", err
		}
		var b strings.Builder
		for i := 0; i < n+2; i++ {
			c, err := pick(consonants)
			if err != nil {
				return "", err
			}
			v, err := pick(vowels)
			if err != nil {
				return "", err
			}
			b.WriteString(c)
			b.WriteString(v)
		}
		return b.String(), nil
	case PatternMixed:
		word, err := pickEither()
		if err != nil {
			return "", err
		}
		digits, err := randInt(1000)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s%s%d", word, sep, digits), nil
	default:
		adj, err := pick(adjectives)
		if err != nil {
			return "", err
		}
		noun, err := pick(nouns)
		if err != nil {
			return "", err
		}
		return adj + sep + noun, nil
	}
}

func pickEither() (string, error) {
	coin, err := randInt(2)
	if err != nil {
		return "", err
	}
	if coin == 0 {
		return pick(adjectives)
	}
	return pick(nouns)
}

func pick(words []string) (string, error) {
	i, err := randInt(len(words))
	if err != nil {
		return "", err
	}
	return words[i], nil
}

func randInt(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("read random: %w", err)
	}
	return int(v.Int64()), nil
}
