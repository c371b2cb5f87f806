// Package articles resolves "give me article N" requests against the full statutory text.
package articles

import (
	"errors"
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/sync/singleflight"

	"penalcode-ai/internal/patterns"
)

// ErrIndexUnavailable is reported when no statutory text was available to build the index.
// Exact lookup is disabled; the semantic path keeps working.
var ErrIndexUnavailable = errors.New("article index unavailable")

// Source tells where an article text came from.
type Source string

const (
	SourceMemory Source = "memory"
	SourceRedis  Source = "redis"
	SourceRegex  Source = "regex"
)

var blankRuns = regexp.MustCompile(`(?:[ \t]*\n){3,}`)

// Index maps normalized article keys to full article text. It is built once from the
// statute and afterwards only grows through insert-if-absent on fallback hits.
type Index struct {
	set      *patterns.Set
	fullText string

	mu       sync.RWMutex
	articles map[string]string

	group singleflight.Group
}

// Build scans fullText for article headings. Each article runs from its heading to the
// next heading. When a key occurs more than once (a table of contents, for example) the
// longest text wins. An empty fullText yields an empty, unavailable index.
func Build(fullText string, set *patterns.Set) *Index {
	ix := &Index{
		set:      set,
		fullText: fullText,
		articles: make(map[string]string),
	}
	if strings.TrimSpace(fullText) == "" {
		return ix
	}

	headings := set.FindHeadings(fullText)
	for i, h := range headings {
		end := len(fullText)
		if i+1 < len(headings) {
			end = headings[i+1].Start
		}
		text := cleanArticle(fullText[h.Start:end])
		if text == "" {
			continue
		}
		if existing, ok := ix.articles[h.Key]; !ok || len(text) > len(existing) {
			ix.articles[h.Key] = text
		}
	}
	return ix
}

// Available reports whether the index was built from a statutory text.
func (ix *Index) Available() bool {
	return ix != nil && ix.fullText != ""
}

// Err returns ErrIndexUnavailable when exact lookup is disabled.
func (ix *Index) Err() error {
	if !ix.Available() {
		return ErrIndexUnavailable
	}
	return nil
}

// Len returns the number of cached articles.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.articles)
}

// Keys returns the cached keys in statute order (number, then suffix).
func (ix *Index) Keys() []string {
	ix.mu.RLock()
	keys := make([]string, 0, len(ix.articles))
	for k := range ix.articles {
		keys = append(keys, k)
	}
	ix.mu.RUnlock()

	sort.Slice(keys, func(i, j int) bool { return keyLess(keys[i], keys[j]) })
	return keys
}

// Get returns a cached article without the fallback scan.
func (ix *Index) Get(key string) (string, bool) {
	if ix == nil {
		return "", false
	}
	k := patterns.NormalizeKey(key)
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	text, ok := ix.articles[k]
	return text, ok
}

// Lookup resolves an article. On a cache miss it runs a bounded scan over the full text
// and caches the result.
func (ix *Index) Lookup(key string) (string, bool) {
	text, _, ok := ix.LookupSource(key)
	return text, ok
}

// LookupSource is Lookup that also reports whether the hit came from the map or the scan.
func (ix *Index) LookupSource(key string) (string, Source, bool) {
	if text, ok := ix.Get(key); ok {
		return text, SourceMemory, true
	}
	if !ix.Available() {
		return "", "", false
	}

	k := patterns.NormalizeKey(key)
	v, _, _ := ix.group.Do(k, func() (any, error) {
		text, ok := ix.scan(k)
		if !ok {
			return "", nil
		}
		return ix.Insert(k, text), nil
	})
	text := v.(string)
	if text == "" {
		return "", "", false
	}
	return text, SourceRegex, true
}

// Insert stores text under key unless the key is already present, and returns the
// stored value. Existing entries are never overwritten.
func (ix *Index) Insert(key, text string) string {
	k := patterns.NormalizeKey(key)
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if existing, ok := ix.articles[k]; ok {
		return existing
	}
	ix.articles[k] = text
	return text
}

// scan looks for a heading of key that Build did not split on, such as one missing its
// closing punctuation, and cuts the article at the next heading or at MaxArticleChars.
func (ix *Index) scan(key string) (string, bool) {
	start, bodyStart := -1, -1
	for _, m := range ix.set.FindSentenceHeadings(ix.fullText) {
		if m.Key == key {
			start, bodyStart = m.Start, m.End
			break
		}
	}
	if start < 0 {
		return "", false
	}

	limit := runeFloor(ix.fullText, start+ix.set.Tables.Limits.MaxArticleChars)
	if limit < bodyStart {
		limit = bodyStart
	}
	end := limit
	for _, m := range ix.set.FindSentenceHeadings(ix.fullText[bodyStart:limit]) {
		if m.Key != key {
			end = bodyStart + m.Start
			break
		}
	}

	text := cleanArticle(ix.fullText[start:end])
	return text, text != ""
}

// runeFloor clamps pos to len(text) and moves it back to the start of a rune.
func runeFloor(text string, pos int) int {
	if pos >= len(text) {
		return len(text)
	}
	for pos > 0 && !utf8.RuneStart(text[pos]) {
		pos--
	}
	return pos
}

func cleanArticle(raw string) string {
	return strings.TrimSpace(blankRuns.ReplaceAllString(raw, "\n\n"))
}

func keyLess(a, b string) bool {
	na, sa, oka := patterns.SplitKey(a)
	nb, sb, okb := patterns.SplitKey(b)
	if !oka || !okb {
		return a < b
	}
	if na != nb {
		return na < nb
	}
	return suffixRank(sa) < suffixRank(sb)
}

func suffixRank(s string) int {
	switch s {
	case "":
		return 0
	case "bis":
		return 1
	case "ter":
		return 2
	case "quater":
		return 3
	}
	return 4
}
