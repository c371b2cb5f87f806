package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// ArticleQueryStore defines the interface for article query analytics.
type ArticleQueryStore interface {
	// Log records one article lookup. QueriedAt defaults to now.
	Log(ctx context.Context, q *ArticleQuery) error
	// MostQueried returns the most queried article keys of the last days days,
	// most queried first. days <= 0 means all time.
	MostQueried(ctx context.Context, limit, days int) ([]ArticleStat, error)
}

// ArticleQueryRepo implements ArticleQueryStore on SQLite.
type ArticleQueryRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewArticleQueryRepo creates a new ArticleQueryRepo.
func NewArticleQueryRepo(db *sql.DB) *ArticleQueryRepo {
	return &ArticleQueryRepo{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Log records one article lookup.
func (r *ArticleQueryRepo) Log(ctx context.Context, q *ArticleQuery) error {
	if q.QueriedAt.IsZero() {
		q.QueriedAt = r.now()
	}
	var conv sql.NullInt64
	if q.ConversationID != 0 {
		conv = sql.NullInt64{Int64: q.ConversationID, Valid: true}
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO article_queries
		 (article_key, conversation_id, queried_at, search_type, search_query, found, source, response_time_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		q.ArticleKey, conv, q.QueriedAt, nullString(q.SearchType), nullString(q.SearchQuery), q.Found,
		nullString(q.Source), nullFloat(q.ResponseTimeMS),
	)
	if err != nil {
		return fmt.Errorf("failed to insert article query: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		q.ID = id
	}
	return nil
}

// MostQueried returns the most queried article keys, ties broken by key.
func (r *ArticleQueryRepo) MostQueried(ctx context.Context, limit, days int) ([]ArticleStat, error) {
	if limit <= 0 {
		limit = 10
	}
	since := time.Time{}
	if days > 0 {
		since = r.now().AddDate(0, 0, -days)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT article_key, COUNT(*) AS n, SUM(CASE WHEN found THEN 1 ELSE 0 END)
		 FROM article_queries
		 WHERE queried_at >= ?
		 GROUP BY article_key
		 ORDER BY n DESC, article_key ASC
		 LIMIT ?`,
		since, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query article stats: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	stats := []ArticleStat{}
	for rows.Next() {
		var s ArticleStat
		if err := rows.Scan(&s.ArticleKey, &s.Count, &s.Found); err != nil {
			return nil, fmt.Errorf("failed to scan article stat: %w", err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return stats, nil
}
