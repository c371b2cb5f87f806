package rag

import (
	"penalcode-ai/internal/articles"
	"penalcode-ai/internal/intent"
)

// Request is one retrieval request.
type Request struct {
	// Query is the user's question.
	Query string `json:"query"`
	// History is the conversation so far, oldest first. Read-only.
	History []intent.Turn `json:"history,omitempty"`
}

// Fragment is one candidate returned by vector search.
type Fragment struct {
	// ID is the vector point identifier.
	ID string `json:"id"`
	// Score is the similarity score in [0, 1].
	Score float32 `json:"score"`
	// Text is the raw fragment text.
	Text string `json:"text"`
	// Meta is the optional payload stored with the point.
	Meta map[string]any `json:"meta,omitempty"`
	// Rank is the 1-based retrieval rank after threshold filtering.
	Rank int `json:"rank"`
}

// Cluster groups the fragments that carry the heading of one article, in merge order.
type Cluster struct {
	Key       string
	Fragments []Fragment
}

// Method tells how a ReconstructedArticle was resolved.
type Method string

const (
	// MethodExactMatch is an article resolved without vector search.
	MethodExactMatch Method = "exact_match"
	// MethodSingleFragment is an article taken from one fragment.
	MethodSingleFragment Method = "single_fragment"
	// MethodMultiFragmentMerge is an article merged from several fragments.
	MethodMultiFragmentMerge Method = "multi_fragment_merge"
	// MethodIndexFallback is an article replaced by the article index text.
	MethodIndexFallback Method = "index_fallback"
)

// ReconstructedArticle is an article recovered for one request.
type ReconstructedArticle struct {
	Key      string `json:"key"`
	Text     string `json:"text"`
	Method   Method `json:"method"`
	Complete bool   `json:"complete"`
	// Source is set when the text came from the article resolver.
	Source articles.Source `json:"source,omitempty"`
	// Ranks are the ranks of the fragments the article was built from.
	Ranks []int `json:"ranks,omitempty"`
}

// Strategy is the vector search breadth chosen for a query.
type Strategy struct {
	TopK        int    `json:"top_k"`
	Reconstruct bool   `json:"reconstruct"`
	Reason      string `json:"reason"`
}

// Path is the retrieval path a request took.
type Path string

const (
	PathExact    Path = "exact"
	PathRange    Path = "range"
	PathSemantic Path = "semantic"
	PathNone     Path = "none"
)

// Result is the outcome of Retrieve.
type Result struct {
	Analysis intent.Analysis `json:"analysis"`
	Path     Path            `json:"path"`

	// Strategy and Threshold are set on the semantic path.
	Strategy  *Strategy `json:"strategy,omitempty"`
	Threshold float32   `json:"threshold,omitempty"`

	Articles  []ReconstructedArticle `json:"articles,omitempty"`
	Fragments []Fragment             `json:"fragments,omitempty"`

	// Context is the assembled text for generation, or NoRelevantContext.
	Context string `json:"context"`
	// Blocks is the number of blocks joined into Context.
	Blocks int `json:"blocks"`
	// NoResults is true when nothing survived the relevance filter.
	NoResults bool `json:"no_results"`
	// Directive carries the correction directive for generation, if any.
	Directive string `json:"directive,omitempty"`
}

// ArticleKeys returns the keys of the resolved articles.
func (r Result) ArticleKeys() []string {
	keys := make([]string, 0, len(r.Articles))
	for _, a := range r.Articles {
		keys = append(keys, a.Key)
	}
	return keys
}
