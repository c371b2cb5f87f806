package rag

import (
	"penalcode-ai/internal/intent"
	"penalcode-ai/internal/patterns"
)

// SelectStrategy chooses the vector search breadth. First matching rule wins:
//   - a single article without connectives needs few candidates and no reconstruction;
//   - long or multi-concept queries need broad coverage and reconstruction;
//   - anything else gets the default breadth with reconstruction.
func SelectStrategy(a intent.Analysis, limits patterns.Limits) Strategy {
	if a.Kind == intent.KindSingleArticle && !a.MultiConcept {
		return Strategy{
			TopK:        limits.NarrowTopK,
			Reconstruct: false,
			Reason:      "single article without connectives, exact match expected to satisfy it",
		}
	}
	if a.Tokens >= limits.BroadQueryTokens || a.MultiConcept {
		return Strategy{
			TopK:        limits.BroadTopK,
			Reconstruct: true,
			Reason:      "long or multi-concept query, fragments likely split",
		}
	}
	return Strategy{
		TopK:        limits.DefaultTopK,
		Reconstruct: true,
		Reason:      "default conceptual query",
	}
}

// ThresholdFor returns the minimum score kept after vector search.
func ThresholdFor(a intent.Analysis, limits patterns.Limits) float32 {
	if a.HasArticle() {
		return limits.ArticleThreshold
	}
	return limits.ConceptThreshold
}

// FilterByScore keeps fragments scoring at least threshold, preserving order, and
// numbers them with 1-based ranks.
func FilterByScore(fragments []Fragment, threshold float32) []Fragment {
	kept := make([]Fragment, 0, len(fragments))
	for _, f := range fragments {
		if f.Score < threshold || f.Text == "" {
			continue
		}
		f.Rank = len(kept) + 1
		kept = append(kept, f)
	}
	return kept
}
