package indexer

import (
	"strings"

	"penalcode-ai/internal/patterns"
)

const (
	// DefaultChunkSize is the window length in runes.
	DefaultChunkSize = 800
	// DefaultChunkOverlap is the number of runes repeated between consecutive windows.
	DefaultChunkOverlap = 100
	// breakZone is the fraction of the window after which a natural break is accepted.
	breakZone = 0.7
)

// CharChunker splits text into overlapping character windows. A window is cut at its last
// newline, or failing that its last space, when that break falls in the final 30% of the
// window; otherwise it is cut at the full size.
type CharChunker struct {
	Size    int
	Overlap int
	set     *patterns.Set
}

// NewCharChunker creates a chunker. Non-positive size and negative or oversized overlap
// fall back to the defaults. set may be nil, in which case chunks carry no article keys.
func NewCharChunker(size, overlap int, set *patterns.Set) *CharChunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = min(DefaultChunkOverlap, size/2)
	}
	return &CharChunker{Size: size, Overlap: overlap, set: set}
}

// Split returns the non-empty windows of text, indexed from 0.
func (c *CharChunker) Split(text string) []Chunk {
	runes := []rune(text)
	var chunks []Chunk

	start := 0
	for start < len(runes) {
		end := min(start+c.Size, len(runes))
		if end < len(runes) {
			if cut := naturalBreak(runes[start:end]); cut > int(float64(c.Size)*breakZone) {
				end = start + cut
			}
		}

		if t := strings.TrimSpace(string(runes[start:end])); t != "" {
			chunks = append(chunks, Chunk{
				Index:    len(chunks),
				Text:     t,
				Articles: c.articles(t),
			})
		}

		if end >= len(runes) {
			break
		}
		next := end - c.Overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks
}

// naturalBreak returns the offset of the last newline in window, else the last space,
// else -1.
func naturalBreak(window []rune) int {
	space := -1
	for i := len(window) - 1; i >= 0; i-- {
		switch window[i] {
		case '\n':
			return i
		case ' ':
			if space < 0 {
				space = i
			}
		}
	}
	return space
}

func (c *CharChunker) articles(text string) []string {
	if c.set == nil {
		return nil
	}
	var keys []string
	seen := make(map[string]bool)
	for _, h := range c.set.FindHeadings(text) {
		if !seen[h.Key] {
			seen[h.Key] = true
			keys = append(keys, h.Key)
		}
	}
	return keys
}
