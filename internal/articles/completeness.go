package articles

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"penalcode-ai/internal/patterns"
)

// CompletenessChecker classifies an article text as closed or truncated.
type CompletenessChecker interface {
	IsIncomplete(text string) bool
}

var enumeratedItem = regexp.MustCompile(`(?m)^[ \t]*\d+\.[ \t]+`)

// Heuristic flags text as incomplete when any of these holds:
//   - it does not end in closing punctuation;
//   - it contains a truncation marker;
//   - its last enumerated item ("N. ...") carries less than ListTailMinChars of content.
//
// False positives only send the article down the index fallback.
type Heuristic struct {
	closing     []string
	substrings  []string
	words       []patterns.Phrase
	listTailMin int
}

// NewHeuristic builds the heuristic from the pattern tables.
func NewHeuristic(set *patterns.Set) *Heuristic {
	h := &Heuristic{
		closing:     set.Tables.ClosingPunctuation,
		listTailMin: set.Tables.Limits.ListTailMinChars,
	}
	for _, m := range set.Tables.TruncationMarkers {
		if isWord(m) {
			h.words = append(h.words, patterns.NewPhrase(m))
		} else if m != "" {
			h.substrings = append(h.substrings, m)
		}
	}
	return h
}

// IsIncomplete implements CompletenessChecker.
func (h *Heuristic) IsIncomplete(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return true
	}

	closed := false
	for _, c := range h.closing {
		if strings.HasSuffix(text, c) {
			closed = true
			break
		}
	}
	if !closed {
		return true
	}

	for _, m := range h.substrings {
		if strings.Contains(text, m) {
			return true
		}
	}
	if len(h.words) > 0 && patterns.AnyIn(h.words, patterns.Tokenize(text)) {
		return true
	}

	if h.listTailMin > 0 {
		items := enumeratedItem.FindAllStringIndex(text, -1)
		if len(items) > 0 {
			tail := strings.TrimSpace(text[items[len(items)-1][1]:])
			if utf8.RuneCountInString(tail) < h.listTailMin {
				return true
			}
		}
	}
	return false
}

func isWord(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
