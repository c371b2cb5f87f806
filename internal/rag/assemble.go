package rag

import (
	"fmt"
	"strings"

	"penalcode-ai/internal/patterns"
)

const (
	// BlockSeparator joins the blocks of an assembled context.
	BlockSeparator = "\n\n---\n\n"

	// NoRelevantContext replaces the context when nothing survived the relevance filter.
	// Callers compare against it to tell an empty retrieval from real content.
	NoRelevantContext = "[SIN_CONTEXTO] No se encontró información relevante en el Código Penal para esta consulta."
)

// Assembly is the context handed to generation.
type Assembly struct {
	Context string
	Blocks  int
	Chars   int
	// Covered are the article keys emitted as reconstructed articles.
	Covered []string
}

// Assemble emits the trusted reconstructed articles first, then every fragment not already
// covered by one of them, and joins the blocks with BlockSeparator. A fragment is covered
// when it was merged into an emitted article or carries the heading of an emitted key.
// With nothing to emit the context is NoRelevantContext.
func Assemble(set *patterns.Set, recon []ReconstructedArticle, fragments []Fragment) Assembly {
	var blocks []string
	covered := make(map[string]bool)
	usedRanks := make(map[int]bool)
	var keys []string

	for _, a := range recon {
		if !a.Complete && a.Method != MethodIndexFallback {
			continue
		}
		if covered[a.Key] || strings.TrimSpace(a.Text) == "" {
			continue
		}
		covered[a.Key] = true
		keys = append(keys, a.Key)
		for _, r := range a.Ranks {
			usedRanks[r] = true
		}
		blocks = append(blocks, fmt.Sprintf("[Artículo %s | %s]\n%s", a.Key, a.Method, a.Text))
	}

	for _, f := range fragments {
		if f.Rank > 0 && usedRanks[f.Rank] {
			continue
		}
		if carriesCoveredHeading(set, f.Text, covered) {
			continue
		}
		blocks = append(blocks, fmt.Sprintf("[Fragmento relevante | score %.2f]\n%s", f.Score, strings.TrimSpace(f.Text)))
	}

	if len(blocks) == 0 {
		return Assembly{Context: NoRelevantContext, Chars: len(NoRelevantContext)}
	}
	ctx := strings.Join(blocks, BlockSeparator)
	return Assembly{
		Context: ctx,
		Blocks:  len(blocks),
		Chars:   len(ctx),
		Covered: keys,
	}
}

func carriesCoveredHeading(set *patterns.Set, text string, covered map[string]bool) bool {
	if len(covered) == 0 {
		return false
	}
	for _, h := range set.FindHeadings(text) {
		if covered[h.Key] {
			return true
		}
	}
	return false
}
