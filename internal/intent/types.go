// Package intent classifies a legal question: which article or range it asks for, and
// how it relates to the previous turns of the conversation.
package intent

import "strconv"

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message of the conversation history, oldest first.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Kind is the retrieval intent detected on the effective query.
type Kind string

const (
	KindSingleArticle Kind = "single_article"
	KindRange         Kind = "range"
	KindConceptual    Kind = "conceptual"
)

// Fusion tells how the query was combined with the conversation history.
type Fusion string

const (
	FusionStandalone Fusion = "standalone"
	FusionFollowUp   Fusion = "follow_up"
	FusionCorrection Fusion = "correction"
)

// Range is an inclusive article range, From < To.
type Range struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Keys returns the plain article keys covered by the range.
func (r Range) Keys() []string {
	if r.To < r.From {
		return nil
	}
	span := r.To - r.From
	keys := make([]string, 0, span+1)
	for i := 0; i <= span; i++ {
		keys = append(keys, strconv.Itoa(r.From+i))
	}
	return keys
}

// Correction describes a user proposing a different article than the one discussed.
// It does not decide which article is right.
type Correction struct {
	// Proposed is the article key the user is proposing.
	Proposed string `json:"proposed"`
	// Previous are the article keys mentioned in the latest assistant answer.
	Previous []string `json:"previous"`
	// Directive is the instruction handed to generation.
	Directive string `json:"directive"`
}

// Analysis is the result of analyzing one query.
type Analysis struct {
	// Query is the literal user text.
	Query string `json:"query"`
	// EffectiveQuery is the query after conversational fusion.
	EffectiveQuery string `json:"effective_query"`
	// SearchQuery is the text to embed for vector search (enriched or expanded).
	SearchQuery string `json:"search_query"`

	Kind   Kind   `json:"kind"`
	Fusion Fusion `json:"fusion"`

	// Key is the normalized article key for KindSingleArticle.
	Key string `json:"key,omitempty"`
	// Range is set for KindRange.
	Range *Range `json:"range,omitempty"`
	// Correction is set when Fusion is FusionCorrection.
	Correction *Correction `json:"correction,omitempty"`

	// Tokens is the token count of the effective query.
	Tokens int `json:"tokens"`
	// MultiConcept reports whether the effective query joins several concepts.
	MultiConcept bool `json:"multi_concept"`
	// ExpandedTerms are the legal terms added by synonym expansion.
	ExpandedTerms []string `json:"expanded_terms,omitempty"`
}

// HasArticle reports whether an article number or range was detected.
func (a Analysis) HasArticle() bool {
	return a.Kind == KindSingleArticle || a.Kind == KindRange
}
