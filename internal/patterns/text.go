package patterns

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var rawKeyPattern = regexp.MustCompile(`^(\d+)\s*([a-z]*)$`)

// MakeKey builds the normalized article key from a number and an optional suffix:
// "0138", "" -> "138"; "142", "BIS" -> "142 bis".
func MakeKey(number, suffix string) string {
	number = strings.TrimSpace(number)
	if n, err := strconv.Atoi(number); err == nil {
		number = strconv.Itoa(n)
	}
	suffix = strings.ToLower(strings.TrimSpace(suffix))
	if suffix == "" {
		return number
	}
	return number + " " + suffix
}

// NormalizeKey normalizes a user- or caller-supplied key ("142bis", " 142  BIS ").
func NormalizeKey(raw string) string {
	clean := strings.Join(strings.Fields(strings.ToLower(raw)), " ")
	if m := rawKeyPattern.FindStringSubmatch(clean); m != nil {
		return MakeKey(m[1], m[2])
	}
	return clean
}

// SplitKey returns the numeric part and the suffix of a normalized key.
func SplitKey(key string) (number int, suffix string, ok bool) {
	parts := strings.SplitN(key, " ", 2)
	n, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, "", false
	}
	if len(parts) == 2 {
		suffix = parts[1]
	}
	return n, suffix, true
}

// Tokenize lowercases text and splits it on anything that is not a letter or digit.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}

	var builder strings.Builder
	builder.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			builder.WriteRune(r)
		} else {
			builder.WriteRune(' ')
		}
	}
	tokens := strings.Fields(builder.String())
	if len(tokens) == 0 {
		return nil
	}
	return tokens
}

// Phrase is a tokenized marker; multi-word markers match as contiguous tokens.
type Phrase []string

// NewPhrase tokenizes a marker.
func NewPhrase(marker string) Phrase {
	return Phrase(Tokenize(marker))
}

// In reports whether the phrase occurs in tokens.
func (p Phrase) In(tokens []string) bool {
	return p.index(tokens) >= 0
}

// Prefixes reports whether tokens start with the phrase.
func (p Phrase) Prefixes(tokens []string) bool {
	return len(p) > 0 && Phrase(tokens).hasPrefix(p)
}

func (p Phrase) index(tokens []string) int {
	if len(p) == 0 {
		return -1
	}
	for start := 0; start+len(p) <= len(tokens); start++ {
		if Phrase(tokens[start:]).hasPrefix(p) {
			return start
		}
	}
	return -1
}

func (p Phrase) hasPrefix(q Phrase) bool {
	if len(q) > len(p) {
		return false
	}
	for i := range q {
		if p[i] != q[i] {
			return false
		}
	}
	return true
}

// AnyIn reports whether any phrase occurs in tokens.
func AnyIn(phrases []Phrase, tokens []string) bool {
	for _, p := range phrases {
		if p.In(tokens) {
			return true
		}
	}
	return false
}

// AnyPrefixes reports whether tokens start with any phrase.
func AnyPrefixes(phrases []Phrase, tokens []string) bool {
	for _, p := range phrases {
		if p.Prefixes(tokens) {
			return true
		}
	}
	return false
}
