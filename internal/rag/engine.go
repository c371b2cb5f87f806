package rag

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_rag.go -package=mocks penalcode-ai/internal/rag Engine,Embedder,FragmentSearcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"penalcode-ai/internal/articles"
	"penalcode-ai/internal/contextutil"
	"penalcode-ai/internal/intent"
	"penalcode-ai/internal/patterns"
)

var (
	// ErrEmbedding is returned when the query could not be embedded.
	ErrEmbedding = errors.New("embedding failed")
	// ErrSearch is returned when the vector search failed.
	ErrSearch = errors.New("vector search failed")
)

// Embedder turns texts into vectors.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// FragmentSearcher runs a similarity search and returns fragments ordered by score.
type FragmentSearcher interface {
	Search(ctx context.Context, vector []float32, topK int) ([]Fragment, error)
}

// Engine provides hybrid retrieval: exact article lookup with a vector search fallback.
type Engine interface {
	// Retrieve analyzes the request and assembles the context for generation.
	Retrieve(ctx context.Context, req Request) (Result, error)
}

// ragEngine implements the Engine interface.
type ragEngine struct {
	set           *patterns.Set
	analyzer      *intent.Analyzer
	resolver      ArticleResolver
	reconstructor *Reconstructor
	embedder      Embedder
	searcher      FragmentSearcher
}

// NewEngine creates a new retrieval engine. resolver may be nil when no statute text is
// available; every request then takes the semantic path.
func NewEngine(
	set *patterns.Set,
	analyzer *intent.Analyzer,
	resolver ArticleResolver,
	checker articles.CompletenessChecker,
	embedder Embedder,
	searcher FragmentSearcher,
) Engine {
	return &ragEngine{
		set:           set,
		analyzer:      analyzer,
		resolver:      resolver,
		reconstructor: NewReconstructor(set, checker, resolver),
		embedder:      embedder,
		searcher:      searcher,
	}
}

// Retrieve implements Engine.
func (e *ragEngine) Retrieve(ctx context.Context, req Request) (Result, error) {
	logger := contextutil.LoggerFromContext(ctx)

	analysis := e.analyzer.Analyze(req.Query, req.History)
	res := Result{Analysis: analysis}
	if analysis.Correction != nil {
		res.Directive = analysis.Correction.Directive
	}

	logger.InfoContext(ctx, "retrieval started",
		"kind", analysis.Kind,
		"fusion", analysis.Fusion,
		"key", analysis.Key,
		"tokens", analysis.Tokens,
	)
	if analysis.EffectiveQuery != analysis.Query {
		logger.DebugContext(ctx, "effective query", "query", analysis.EffectiveQuery)
	}

	switch analysis.Kind {
	case intent.KindSingleArticle:
		if e.exactArticle(ctx, &res) {
			return res, nil
		}
	case intent.KindRange:
		if e.exactRange(ctx, &res) {
			return res, nil
		}
	}

	return e.semantic(ctx, logger, res)
}

// exactArticle resolves the requested article, plus the previously discussed ones when
// the user is correcting the conversation.
func (e *ragEngine) exactArticle(ctx context.Context, res *Result) bool {
	if e.resolver == nil {
		return false
	}
	r, ok := e.resolver.Resolve(ctx, res.Analysis.Key)
	if !ok {
		contextutil.LoggerFromContext(ctx).InfoContext(ctx, "article not found, falling back to vector search", "key", res.Analysis.Key)
		return false
	}
	res.Path = PathExact
	res.Articles = append(res.Articles, exactArticle(r))

	if c := res.Analysis.Correction; c != nil {
		for _, key := range c.Previous {
			if key == r.Key {
				continue
			}
			if prev, ok := e.resolver.Resolve(ctx, key); ok {
				res.Articles = append(res.Articles, exactArticle(prev))
			}
		}
	}
	e.finish(ctx, res, nil)
	return true
}

// exactRange resolves every key of the range. It succeeds when at least one is found.
func (e *ragEngine) exactRange(ctx context.Context, res *Result) bool {
	if e.resolver == nil || res.Analysis.Range == nil {
		return false
	}
	var missing []string
	for _, key := range res.Analysis.Range.Keys() {
		r, ok := e.resolver.Resolve(ctx, key)
		if !ok {
			missing = append(missing, key)
			continue
		}
		res.Articles = append(res.Articles, exactArticle(r))
	}
	if len(res.Articles) == 0 {
		contextutil.LoggerFromContext(ctx).InfoContext(ctx, "no article of the range found, falling back to vector search",
			"from", res.Analysis.Range.From,
			"to", res.Analysis.Range.To,
		)
		return false
	}
	if len(missing) > 0 {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "range partially resolved", "missing", missing)
	}
	res.Path = PathRange
	e.finish(ctx, res, nil)
	return true
}

func (e *ragEngine) semantic(ctx context.Context, logger *slog.Logger, res Result) (Result, error) {
	limits := e.set.Tables.Limits
	strategy := SelectStrategy(res.Analysis, limits)
	threshold := ThresholdFor(res.Analysis, limits)
	res.Strategy = &strategy
	res.Threshold = threshold
	res.Path = PathSemantic

	logger.InfoContext(ctx, "retrieval strategy selected",
		"top_k", strategy.TopK,
		"reconstruct", strategy.Reconstruct,
		"reason", strategy.Reason,
		"threshold", threshold,
	)

	embeddings, err := e.embedder.EmbedTexts(ctx, []string{res.Analysis.SearchQuery})
	if err != nil {
		logger.ErrorContext(ctx, "failed to embed query", "error", err)
		return res, fmt.Errorf("%w: %w", ErrEmbedding, err)
	}
	if len(embeddings) == 0 || len(embeddings[0]) == 0 {
		return res, fmt.Errorf("%w: no embedding returned for query", ErrEmbedding)
	}

	found, err := e.searcher.Search(ctx, embeddings[0], strategy.TopK)
	if err != nil {
		logger.ErrorContext(ctx, "failed to search vector store", "error", err)
		return res, fmt.Errorf("%w: %w", ErrSearch, err)
	}

	fragments := FilterByScore(found, threshold)
	logger.InfoContext(ctx, "vector search completed",
		"results_count", len(found),
		"kept", len(fragments),
		"k_requested", strategy.TopK,
	)
	if len(fragments) == 0 {
		res.Path = PathNone
		res.NoResults = true
		res.Context = NoRelevantContext
		return res, nil
	}
	res.Fragments = fragments

	if strategy.Reconstruct {
		res.Articles = e.reconstructor.Reconstruct(ctx, fragments)
	}
	e.finish(ctx, &res, fragments)
	return res, nil
}

func (e *ragEngine) finish(ctx context.Context, res *Result, fragments []Fragment) {
	assembly := Assemble(e.set, res.Articles, fragments)
	res.Context = assembly.Context
	res.Blocks = assembly.Blocks

	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "context assembled",
		"path", res.Path,
		"blocks", assembly.Blocks,
		"context_length", assembly.Chars,
		"articles", res.ArticleKeys(),
	)
}

func exactArticle(r articles.Resolution) ReconstructedArticle {
	return ReconstructedArticle{
		Key:      r.Key,
		Text:     r.Text,
		Method:   MethodExactMatch,
		Complete: true,
		Source:   r.Source,
	}
}
