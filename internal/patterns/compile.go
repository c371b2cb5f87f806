package patterns

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Set is the compiled form of Tables, shared read-only by every request.
type Set struct {
	Tables *Tables

	// Heading matches an article heading at the start of a line.
	Heading *regexp.Regexp
	// InlineHeading matches a heading-shaped reference anywhere ("Artículo 142." or "Artículo 142:").
	InlineHeading *regexp.Regexp
	// LooseHeading is InlineHeading without the closing punctuation, used by the fallback scan.
	LooseHeading *regexp.Regexp
	// Reference matches any article reference, abbreviations included.
	Reference *regexp.Regexp
	// BareNumber matches a query made only of an article number.
	BareNumber *regexp.Regexp
	// Ranges are the range patterns, each capturing lower and upper bound.
	Ranges []*regexp.Regexp

	Correction   []Phrase
	NewTopic     []Phrase
	Continuation []Phrase
	Connectives  []Phrase
	Synonyms     []Synonym
}

// Synonym maps a colloquial phrase to legal vocabulary.
type Synonym struct {
	Phrase Phrase
	Terms  []string
}

// Match is an article reference located in a text.
type Match struct {
	Key   string
	Start int
	End   int
}

// Compile builds the regular expressions and phrase tables.
func Compile(t *Tables) (*Set, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	headingWords := alternation(t.HeadingWords)
	referenceWords := alternation(t.ReferenceWords)
	suffixes := alternation(t.Suffixes)

	suffixGroup := ""
	if suffixes != "" {
		suffixGroup = fmt.Sprintf(`(?:[ \t]*(%s))?`, suffixes)
	}

	s := &Set{Tables: t}
	var err error

	s.Heading, err = regexp.Compile(fmt.Sprintf(`(?im)^[ \t]*(?:%s)[ \t]+(\d+)%s\b`, headingWords, suffixGroup))
	if err != nil {
		return nil, fmt.Errorf("failed to compile heading pattern: %w", err)
	}
	s.InlineHeading, err = regexp.Compile(fmt.Sprintf(`(?i)\b(?:%s)[ \t]+(\d+)%s[ \t]*[.:]`, headingWords, suffixGroup))
	if err != nil {
		return nil, fmt.Errorf("failed to compile inline heading pattern: %w", err)
	}
	s.LooseHeading, err = regexp.Compile(fmt.Sprintf(`(?i)\b(?:%s)[ \t]+(\d+)%s\b`, headingWords, suffixGroup))
	if err != nil {
		return nil, fmt.Errorf("failed to compile loose heading pattern: %w", err)
	}
	s.Reference, err = regexp.Compile(fmt.Sprintf(`(?i)\b(?:%s)\s*(\d+)%s\b`, referenceWords, strings.ReplaceAll(suffixGroup, `[ \t]`, `\s`)))
	if err != nil {
		return nil, fmt.Errorf("failed to compile reference pattern: %w", err)
	}
	s.BareNumber, err = regexp.Compile(fmt.Sprintf(`(?i)^\s*(\d+)%s\s*[.?!]*\s*$`, strings.ReplaceAll(suffixGroup, `[ \t]`, `\s`)))
	if err != nil {
		return nil, fmt.Errorf("failed to compile bare number pattern: %w", err)
	}

	for i, p := range t.RangePatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to compile range pattern %d: %w", i, err)
		}
		if re.NumSubexp() < 2 {
			return nil, fmt.Errorf("range pattern %d must capture two bounds", i)
		}
		s.Ranges = append(s.Ranges, re)
	}

	s.Correction = phrases(t.CorrectionMarkers)
	s.NewTopic = phrases(t.NewTopicMarkers)
	s.Continuation = phrases(t.ContinuationMarkers)
	s.Connectives = phrases(t.Connectives)

	colloquial := make([]string, 0, len(t.Synonyms))
	for term := range t.Synonyms {
		colloquial = append(colloquial, term)
	}
	sort.Strings(colloquial)
	for _, term := range colloquial {
		p := NewPhrase(term)
		if len(p) == 0 {
			continue
		}
		s.Synonyms = append(s.Synonyms, Synonym{Phrase: p, Terms: t.Synonyms[term]})
	}

	return s, nil
}

// MustCompileDefault compiles the embedded tables.
func MustCompileDefault() *Set {
	s, err := Compile(Default())
	if err != nil {
		panic(fmt.Sprintf("patterns: default tables do not compile: %v", err))
	}
	return s
}

// FindHeadings returns the article headings of text in order of appearance: headings
// at the start of a line, and heading-shaped references ("Artículo 139.") that open a
// sentence on the same line as the previous article.
func (s *Set) FindHeadings(text string) []Match {
	lines := collect(s.Heading, text)
	var inline []Match
	for _, m := range collect(s.InlineHeading, text) {
		if SentenceStart(text, m.Start) && !overlaps(lines, m) {
			inline = append(inline, m)
		}
	}
	if len(inline) == 0 {
		return lines
	}
	out := append(lines, inline...)
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// FindSentenceHeadings returns heading-shaped references that open a sentence, with or
// without closing punctuation. It is looser than FindHeadings.
func (s *Set) FindSentenceHeadings(text string) []Match {
	var out []Match
	for _, m := range collect(s.LooseHeading, text) {
		if SentenceStart(text, m.Start) {
			out = append(out, m)
		}
	}
	return out
}

// SentenceStart reports whether pos opens a sentence: start of text, or preceded
// (ignoring blanks) by a newline or sentence punctuation.
func SentenceStart(text string, pos int) bool {
	for i := pos - 1; i >= 0; i-- {
		switch text[i] {
		case ' ', '\t':
			continue
		case '\n', '.', ':', ';':
			return true
		default:
			return false
		}
	}
	return true
}

func overlaps(ms []Match, m Match) bool {
	for _, o := range ms {
		if m.Start < o.End && o.Start < m.End {
			return true
		}
	}
	return false
}

// FindReferences returns every article reference in order of appearance.
func (s *Set) FindReferences(text string) []Match {
	return collect(s.Reference, text)
}

func collect(re *regexp.Regexp, text string) []Match {
	locs := re.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}
	out := make([]Match, 0, len(locs))
	for _, loc := range locs {
		out = append(out, Match{
			Key:   keyFromSubmatch(text, loc),
			Start: loc[0],
			End:   loc[1],
		})
	}
	return out
}

// keyFromSubmatch builds a key from capture groups 1 (number) and 2 (optional suffix).
func keyFromSubmatch(text string, loc []int) string {
	number := text[loc[2]:loc[3]]
	suffix := ""
	if len(loc) >= 6 && loc[4] >= 0 {
		suffix = text[loc[4]:loc[5]]
	}
	return MakeKey(number, suffix)
}

// alternation quotes the words and orders them longest first, so "artículo"
// wins over its abbreviation "art".
func alternation(words []string) string {
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		quoted = append(quoted, regexp.QuoteMeta(w))
	}
	sort.SliceStable(quoted, func(i, j int) bool { return len(quoted[i]) > len(quoted[j]) })
	return strings.Join(quoted, "|")
}

func phrases(markers []string) []Phrase {
	out := make([]Phrase, 0, len(markers))
	for _, m := range markers {
		if p := NewPhrase(m); len(p) > 0 {
			out = append(out, p)
		}
	}
	return out
}
