package intent

import (
	"strconv"
	"strings"

	"penalcode-ai/internal/patterns"
)

// Analyzer turns a query and its conversation history into an Analysis.
// It is safe for concurrent use and never fails: ambiguous input degrades to a
// standalone conceptual query.
type Analyzer struct {
	set        *patterns.Set
	classifier FusionClassifier
}

// NewAnalyzer creates an Analyzer. A nil classifier selects the MarkerClassifier.
func NewAnalyzer(set *patterns.Set, classifier FusionClassifier) *Analyzer {
	if classifier == nil {
		classifier = NewMarkerClassifier(set)
	}
	return &Analyzer{set: set, classifier: classifier}
}

// Analyze classifies query. history is read-only and may be empty.
func (a *Analyzer) Analyze(query string, history []Turn) Analysis {
	query = strings.TrimSpace(query)
	res := Analysis{
		Query:          query,
		EffectiveQuery: query,
		Fusion:         FusionStandalone,
	}

	if len(history) > 0 && query != "" {
		res.Fusion = a.classifier.Classify(query, history)
	}

	switch res.Fusion {
	case FusionFollowUp:
		if prev := lastUserText(history); prev != "" {
			res.EffectiveQuery = prev + " " + query
		} else {
			res.Fusion = FusionStandalone
		}
	case FusionCorrection:
		if proposed := proposedKey(a.set, query); proposed != "" {
			previous := without(previousKeys(a.set, history), proposed)
			res.Correction = &Correction{
				Proposed:  proposed,
				Previous:  previous,
				Directive: correctionDirective(proposed, previous),
			}
		} else {
			res.Fusion = FusionStandalone
		}
	}

	tokens := patterns.Tokenize(res.EffectiveQuery)
	res.Tokens = len(tokens)
	res.MultiConcept = patterns.AnyIn(a.set.Connectives, tokens)

	if r, ok := a.DetectRange(res.EffectiveQuery); ok {
		res.Kind = KindRange
		res.Range = &r
	} else if key := proposedKey(a.set, res.EffectiveQuery); key != "" {
		res.Kind = KindSingleArticle
		res.Key = key
	} else {
		res.Kind = KindConceptual
	}

	if res.HasArticle() {
		res.SearchQuery = a.enrich(res.EffectiveQuery)
	} else {
		res.SearchQuery, res.ExpandedTerms = a.expand(res.EffectiveQuery, tokens)
	}
	return res
}

// DetectRange returns the first range reference with From < To, a span within the
// configured limit and bounds no greater than MaxArticleNumber. Rejected ranges are
// skipped, not reported.
func (a *Analyzer) DetectRange(text string) (Range, bool) {
	maxSpan := a.set.Tables.Limits.MaxRangeSpan
	maxNumber := a.set.Tables.Limits.MaxArticleNumber
	for _, re := range a.set.Ranges {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			from, err1 := strconv.Atoi(m[1])
			to, err2 := strconv.Atoi(m[2])
			if err1 != nil || err2 != nil {
				continue
			}
			if from < to && to <= maxNumber && to-from <= maxSpan {
				return Range{From: from, To: to}, true
			}
		}
	}
	return Range{}, false
}

// enrich appends the statute's boilerplate vocabulary so the embedding of an article
// request lands near the article text.
func (a *Analyzer) enrich(query string) string {
	terms := a.set.Tables.EnrichmentTerms
	if len(terms) == 0 {
		return query
	}
	return query + " " + strings.Join(terms, " ")
}

// expand appends up to SynonymsPerTerm legal terms for every colloquial phrase found in
// the query, skipping terms the query already contains.
func (a *Analyzer) expand(query string, tokens []string) (string, []string) {
	perTerm := a.set.Tables.Limits.SynonymsPerTerm
	if perTerm <= 0 || len(a.set.Synonyms) == 0 {
		return query, nil
	}

	lower := strings.ToLower(query)
	seen := make(map[string]bool)
	var added []string
	for _, syn := range a.set.Synonyms {
		if !syn.Phrase.In(tokens) {
			continue
		}
		n := 0
		for _, term := range syn.Terms {
			if n == perTerm {
				break
			}
			n++
			t := strings.ToLower(term)
			if seen[t] || strings.Contains(lower, t) {
				continue
			}
			seen[t] = true
			added = append(added, term)
		}
	}
	if len(added) == 0 {
		return query, nil
	}
	return query + " " + strings.Join(added, " "), added
}

func without(keys []string, key string) []string {
	var out []string
	for _, k := range keys {
		if k != key {
			out = append(out, k)
		}
	}
	return out
}
