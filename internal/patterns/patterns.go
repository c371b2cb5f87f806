// Package patterns holds the pattern tables that drive article detection, conversational
// fusion and the completeness heuristic. The tables are data: a default set is embedded
// and can be overridden per jurisdiction with a YAML file.
package patterns

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// Tables is the YAML representation of every pattern table.
type Tables struct {
	HeadingWords        []string            `yaml:"heading_words"`
	ReferenceWords      []string            `yaml:"reference_words"`
	Suffixes            []string            `yaml:"suffixes"`
	RangePatterns       []string            `yaml:"range_patterns"`
	CorrectionMarkers   []string            `yaml:"correction_markers"`
	NewTopicMarkers     []string            `yaml:"new_topic_markers"`
	ContinuationMarkers []string            `yaml:"continuation_markers"`
	Connectives         []string            `yaml:"connectives"`
	TruncationMarkers   []string            `yaml:"truncation_markers"`
	ClosingPunctuation  []string            `yaml:"closing_punctuation"`
	EnrichmentTerms     []string            `yaml:"enrichment_terms"`
	Synonyms            map[string][]string `yaml:"synonyms"`
	Limits              Limits              `yaml:"limits"`
}

// Limits holds the numeric knobs of the retrieval heuristics.
type Limits struct {
	// MaxRangeSpan is the largest accepted M-N for an article range.
	MaxRangeSpan int `yaml:"max_range_span"`
	// MaxArticleNumber is the largest article number a range may reach.
	MaxArticleNumber int `yaml:"max_article_number"`
	// FollowUpMaxTokens: a follow-up query must have fewer tokens than this.
	FollowUpMaxTokens int `yaml:"follow_up_max_tokens"`
	// BroadQueryTokens: queries with at least this many tokens get the broad strategy.
	BroadQueryTokens int `yaml:"broad_query_tokens"`

	NarrowTopK  int `yaml:"narrow_top_k"`
	DefaultTopK int `yaml:"default_top_k"`
	BroadTopK   int `yaml:"broad_top_k"`

	// ArticleThreshold is the minimum score kept when an article number was detected.
	ArticleThreshold float32 `yaml:"article_threshold"`
	// ConceptThreshold is the minimum score kept otherwise.
	ConceptThreshold float32 `yaml:"concept_threshold"`

	// OverlapWindow bounds the suffix/prefix overlap search when merging fragments.
	OverlapWindow int `yaml:"overlap_window"`
	// MinOverlap is the shortest overlap removed between fragments of one cluster.
	MinOverlap int `yaml:"min_overlap"`
	// OrphanMinOverlap is the shortest overlap needed to attach a fragment with no heading.
	OrphanMinOverlap int `yaml:"orphan_min_overlap"`
	// ListTailMinChars: the last enumerated item needs at least this much content.
	ListTailMinChars int `yaml:"list_tail_min_chars"`
	// MaxArticleChars bounds the text captured by the regex fallback lookup.
	MaxArticleChars int `yaml:"max_article_chars"`
	// SynonymsPerTerm caps the legal terms added per colloquial term.
	SynonymsPerTerm int `yaml:"synonyms_per_term"`
}

// Default returns the embedded pattern tables.
func Default() *Tables {
	var t Tables
	if err := yaml.Unmarshal(defaultYAML, &t); err != nil {
		panic(fmt.Sprintf("patterns: embedded default.yaml is invalid: %v", err))
	}
	return &t
}

// Load returns the default tables overlaid with the YAML file at path.
// An empty path returns the defaults unchanged.
func Load(path string) (*Tables, error) {
	t := Default()
	if path == "" {
		return t, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pattern file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("failed to parse pattern file %s: %w", path, err)
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pattern file %s: %w", path, err)
	}
	return t, nil
}

// Validate checks the invariants the heuristics rely on.
func (t *Tables) Validate() error {
	if len(t.HeadingWords) == 0 {
		return errors.New("heading_words must not be empty")
	}
	if len(t.ReferenceWords) == 0 {
		return errors.New("reference_words must not be empty")
	}
	if len(t.ClosingPunctuation) == 0 {
		return errors.New("closing_punctuation must not be empty")
	}
	l := t.Limits
	if l.MaxRangeSpan <= 0 {
		return errors.New("limits.max_range_span must be greater than 0")
	}
	if l.MaxArticleNumber <= 0 {
		return errors.New("limits.max_article_number must be greater than 0")
	}
	if l.NarrowTopK <= 0 || l.DefaultTopK <= 0 || l.BroadTopK <= 0 {
		return errors.New("limits top_k values must be greater than 0")
	}
	if l.ArticleThreshold < 0 || l.ArticleThreshold > 1 || l.ConceptThreshold < 0 || l.ConceptThreshold > 1 {
		return errors.New("limits thresholds must be within [0, 1]")
	}
	if l.OverlapWindow <= 0 {
		return errors.New("limits.overlap_window must be greater than 0")
	}
	if l.MinOverlap <= 0 || l.OrphanMinOverlap < l.MinOverlap {
		return errors.New("limits.min_overlap must be > 0 and <= orphan_min_overlap")
	}
	if l.MaxArticleChars <= 0 {
		return errors.New("limits.max_article_chars must be greater than 0")
	}
	return nil
}
