package intent

import (
	"strings"

	"penalcode-ai/internal/patterns"
)

// FusionClassifier decides how a query relates to the conversation history.
// history is never empty when Classify is called.
type FusionClassifier interface {
	Classify(query string, history []Turn) Fusion
}

// MarkerClassifier classifies turns with the marker tables:
//   - a new-topic marker always wins and disables fusion;
//   - a correction marker plus an article number is a correction;
//   - a short continuation without an article number is a follow-up.
type MarkerClassifier struct {
	set *patterns.Set
}

// NewMarkerClassifier creates a MarkerClassifier.
func NewMarkerClassifier(set *patterns.Set) *MarkerClassifier {
	return &MarkerClassifier{set: set}
}

// Classify implements FusionClassifier.
func (c *MarkerClassifier) Classify(query string, history []Turn) Fusion {
	tokens := patterns.Tokenize(query)
	if len(tokens) == 0 {
		return FusionStandalone
	}

	if patterns.AnyIn(c.set.NewTopic, tokens) {
		return FusionStandalone
	}

	mentionsArticle := proposedKey(c.set, query) != ""
	if mentionsArticle && patterns.AnyIn(c.set.Correction, tokens) {
		return FusionCorrection
	}

	if !mentionsArticle &&
		len(tokens) < c.set.Tables.Limits.FollowUpMaxTokens &&
		patterns.AnyIn(c.set.Continuation, tokens) &&
		lastUserText(history) != "" {
		return FusionFollowUp
	}

	return FusionStandalone
}

// proposedKey returns the first article key mentioned by query: an explicit reference,
// or a query made only of a number.
func proposedKey(set *patterns.Set, query string) string {
	if refs := set.FindReferences(query); len(refs) > 0 {
		return refs[0].Key
	}
	if m := set.BareNumber.FindStringSubmatchIndex(query); m != nil {
		suffix := ""
		if len(m) >= 6 && m[4] >= 0 {
			suffix = query[m[4]:m[5]]
		}
		return patterns.MakeKey(query[m[2]:m[3]], suffix)
	}
	return ""
}

func lastUserText(history []Turn) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == RoleUser {
			if text := strings.TrimSpace(history[i].Text); text != "" {
				return text
			}
		}
	}
	return ""
}

// previousKeys returns the distinct article keys of the most recent assistant turn that
// mentions any, falling back to earlier user turns when no assistant turn does.
func previousKeys(set *patterns.Set, history []Turn) []string {
	for _, role := range []Role{RoleAssistant, RoleUser} {
		for i := len(history) - 1; i >= 0; i-- {
			if history[i].Role != role {
				continue
			}
			if keys := distinctKeys(set.FindReferences(history[i].Text)); len(keys) > 0 {
				return keys
			}
		}
	}
	return nil
}

func distinctKeys(matches []patterns.Match) []string {
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(matches))
	keys := make([]string, 0, len(matches))
	for _, m := range matches {
		if !seen[m.Key] {
			seen[m.Key] = true
			keys = append(keys, m.Key)
		}
	}
	return keys
}

func correctionDirective(proposed string, previous []string) string {
	var b strings.Builder
	b.WriteString("El usuario propone el artículo ")
	b.WriteString(proposed)
	if len(previous) > 0 {
		b.WriteString(" en lugar de lo indicado anteriormente (")
		for i, k := range previous {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString("artículo ")
			b.WriteString(k)
		}
		b.WriteString("). Compara ambos artículos con el contexto, indica cuál responde a la pregunta y explica la diferencia.")
	} else {
		b.WriteString(". Verifica con el contexto si ese artículo responde a la pregunta antes de aceptarlo.")
	}
	return b.String()
}
