package rag

import (
	"context"
	"strings"

	"penalcode-ai/internal/articles"
	"penalcode-ai/internal/contextutil"
	"penalcode-ai/internal/patterns"
)

// ArticleResolver resolves an article key to its full text.
type ArticleResolver interface {
	Resolve(ctx context.Context, key string) (articles.Resolution, bool)
}

// Reconstructor repairs articles that arrived split across fragments or truncated.
type Reconstructor struct {
	set      *patterns.Set
	checker  articles.CompletenessChecker
	resolver ArticleResolver
}

// NewReconstructor creates a Reconstructor. resolver may be nil, which disables the
// index fallback.
func NewReconstructor(set *patterns.Set, checker articles.CompletenessChecker, resolver ArticleResolver) *Reconstructor {
	return &Reconstructor{set: set, checker: checker, resolver: resolver}
}

// Clusters groups fragments by the article headings they carry. A fragment with several
// headings joins each of their clusters. A fragment with no heading is attached after the
// clustered fragment whose tail it continues, when the overlap is at least
// OrphanMinOverlap; otherwise it stays unclustered.
func (r *Reconstructor) Clusters(fragments []Fragment) []Cluster {
	var clusters []Cluster
	byKey := make(map[string]int)
	var orphans []Fragment

	for _, f := range fragments {
		headings := r.set.FindHeadings(f.Text)
		if len(headings) == 0 {
			orphans = append(orphans, f)
			continue
		}
		seen := make(map[string]bool, len(headings))
		for _, h := range headings {
			if seen[h.Key] {
				continue
			}
			seen[h.Key] = true
			i, ok := byKey[h.Key]
			if !ok {
				i = len(clusters)
				byKey[h.Key] = i
				clusters = append(clusters, Cluster{Key: h.Key})
			}
			clusters[i].Fragments = append(clusters[i].Fragments, f)
		}
	}

	limits := r.set.Tables.Limits
	for _, o := range orphans {
		bestCluster, bestPos, bestLen := -1, -1, 0
		for ci, c := range clusters {
			for fi, f := range c.Fragments {
				n := overlapLen(f.Text, o.Text, limits.OverlapWindow, limits.OrphanMinOverlap)
				if n > bestLen {
					bestCluster, bestPos, bestLen = ci, fi, n
				}
			}
		}
		if bestCluster < 0 {
			continue
		}
		c := &clusters[bestCluster]
		c.Fragments = append(c.Fragments[:bestPos+1], append([]Fragment{o}, c.Fragments[bestPos+1:]...)...)
	}
	return clusters
}

// Reconstruct returns one ReconstructedArticle per article heading found in fragments.
func (r *Reconstructor) Reconstruct(ctx context.Context, fragments []Fragment) []ReconstructedArticle {
	logger := contextutil.LoggerFromContext(ctx)

	clusters := r.Clusters(fragments)
	out := make([]ReconstructedArticle, 0, len(clusters))
	for _, c := range clusters {
		a := r.reconstructCluster(ctx, c)
		logger.DebugContext(ctx, "article reconstructed",
			"key", a.Key,
			"method", a.Method,
			"complete", a.Complete,
			"fragments", len(c.Fragments),
			"length", len(a.Text),
		)
		out = append(out, a)
	}
	return out
}

func (r *Reconstructor) reconstructCluster(ctx context.Context, c Cluster) ReconstructedArticle {
	limits := r.set.Tables.Limits

	texts := make([]string, 0, len(c.Fragments))
	ranks := make([]int, 0, len(c.Fragments))
	for _, f := range c.Fragments {
		texts = append(texts, f.Text)
		ranks = append(ranks, f.Rank)
	}

	method := MethodSingleFragment
	if len(texts) > 1 {
		method = MethodMultiFragmentMerge
	}
	merged := MergeOverlapping(texts, limits.OverlapWindow, limits.MinOverlap)
	text := ExtractArticle(r.set, merged, c.Key)

	a := ReconstructedArticle{
		Key:      c.Key,
		Text:     text,
		Method:   method,
		Complete: true,
		Ranks:    ranks,
	}
	if !r.checker.IsIncomplete(text) {
		return a
	}

	if r.resolver != nil {
		if res, ok := r.resolver.Resolve(ctx, c.Key); ok {
			a.Text = res.Text
			a.Method = MethodIndexFallback
			a.Source = res.Source
			return a
		}
	}
	a.Complete = false
	return a
}

// MergeOverlapping concatenates fragments in order. Before appending a fragment it drops
// the longest prefix that repeats the tail of the text so far, searched within window
// bytes and ignored below minOverlap. Fragments with no overlap are joined by a newline.
func MergeOverlapping(fragments []string, window, minOverlap int) string {
	var b strings.Builder
	acc := ""
	for _, f := range fragments {
		if f == "" {
			continue
		}
		if acc == "" {
			b.WriteString(f)
			acc = f
			continue
		}
		if strings.Contains(acc, f) {
			continue
		}
		n := overlapLen(acc, f, window, minOverlap)
		if n == 0 && !strings.HasSuffix(acc, "\n") {
			b.WriteString("\n")
		}
		b.WriteString(f[n:])
		acc = b.String()
	}
	return acc
}

// overlapLen returns the length of the longest suffix of a that is also a prefix of b,
// bounded by window and at least minOverlap, or 0.
func overlapLen(a, b string, window, minOverlap int) int {
	maxLen := min(window, len(a), len(b))
	for n := maxLen; n >= minOverlap && n > 0; n-- {
		if a[len(a)-n:] == b[:n] {
			return n
		}
	}
	return 0
}

// ExtractArticle cuts text from the heading of key to the next heading of a different
// article. When the heading is absent the trimmed text is returned unchanged.
func ExtractArticle(set *patterns.Set, text, key string) string {
	headings := set.FindHeadings(text)
	start := -1
	for i, h := range headings {
		if start < 0 {
			if h.Key == key {
				start = h.Start
			}
			continue
		}
		if h.Key != key {
			return strings.TrimSpace(text[start:headings[i].Start])
		}
	}
	if start < 0 {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(text[start:])
}
