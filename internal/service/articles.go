package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_article_service.go -package=mocks -mock_names=ArticleService=MockArticleService penalcode-ai/internal/service ArticleService

import (
	"context"
	"time"

	"penalcode-ai/internal/articles"
	"penalcode-ai/internal/contextutil"
	"penalcode-ai/internal/patterns"
	"penalcode-ai/internal/storage"
)

const (
	defaultStatsLimit = 10
	maxStatsLimit     = 100
	defaultStatsDays  = 30
)

// Article is an article returned by direct lookup.
type Article struct {
	Key      string          `json:"key"`
	Text     string          `json:"text"`
	Source   articles.Source `json:"source"`
	Complete bool            `json:"complete"`
}

// ArticleService exposes direct article lookups and query statistics.
type ArticleService interface {
	// Get returns the article with the given key, e.g. "138" or "142 bis".
	Get(ctx context.Context, key string) (Article, error)
	// MostQueried returns the most queried articles of the last days days.
	// Zero values select the defaults.
	MostQueried(ctx context.Context, limit, days int) ([]storage.ArticleStat, error)
}

type articleService struct {
	resolver *articles.Resolver
	checker  articles.CompletenessChecker
	queries  storage.ArticleQueryStore
}

// NewArticleService creates a new ArticleService. queries may be nil.
func NewArticleService(resolver *articles.Resolver, checker articles.CompletenessChecker, queries storage.ArticleQueryStore) ArticleService {
	return &articleService{resolver: resolver, checker: checker, queries: queries}
}

func (s *articleService) Get(ctx context.Context, key string) (Article, error) {
	logger := contextutil.LoggerFromContext(ctx)

	k := patterns.NormalizeKey(key)
	if _, _, ok := patterns.SplitKey(k); !ok {
		return Article{}, &ValidationError{Field: "key", Message: "must be an article number"}
	}

	started := time.Now()
	res, ok := s.resolver.Resolve(ctx, k)
	s.log(ctx, storage.ArticleQuery{
		ArticleKey:     res.Key,
		SearchType:     searchType(res.Source),
		SearchQuery:    key,
		Found:          ok,
		Source:         string(res.Source),
		ResponseTimeMS: float64(time.Since(started).Microseconds()) / 1000,
	})
	if !ok {
		logger.InfoContext(ctx, "article not found", "key", k)
		return Article{}, ErrNotFound
	}

	return Article{
		Key:      res.Key,
		Text:     res.Text,
		Source:   res.Source,
		Complete: s.checker == nil || !s.checker.IsIncomplete(res.Text),
	}, nil
}

func (s *articleService) MostQueried(ctx context.Context, limit, days int) ([]storage.ArticleStat, error) {
	if limit < 0 || limit > maxStatsLimit {
		return nil, &ValidationError{Field: "limit", Message: "must be between 1 and 100"}
	}
	if days < 0 {
		return nil, &ValidationError{Field: "days", Message: "cannot be negative"}
	}
	if limit == 0 {
		limit = defaultStatsLimit
	}
	if days == 0 {
		days = defaultStatsDays
	}
	if s.queries == nil {
		return []storage.ArticleStat{}, nil
	}

	stats, err := s.queries.MostQueried(ctx, limit, days)
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to load article stats", "error", err)
		return nil, WrapError(err, "failed to load article stats")
	}
	if stats == nil {
		stats = []storage.ArticleStat{}
	}
	return stats, nil
}

func (s *articleService) log(ctx context.Context, q storage.ArticleQuery) {
	if s.queries == nil {
		return
	}
	if err := s.queries.Log(ctx, &q); err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "failed to log article query", "article", q.ArticleKey, "error", err)
	}
}

func searchType(src articles.Source) string {
	if src == articles.SourceRegex {
		return storage.SearchRegex
	}
	return storage.SearchExact
}
