package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_storage.go -package=mocks penalcode-ai/internal/storage ConversationStore,MessageStore,ArticleQueryStore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// ConversationStore defines the interface for conversation storage operations.
type ConversationStore interface {
	// GetOrCreate returns the conversation for sessionID, creating it if needed.
	GetOrCreate(ctx context.Context, sessionID, userIP, userAgent string) (*Conversation, error)
	// GetBySession returns ErrNotFound when the session is unknown.
	GetBySession(ctx context.Context, sessionID string) (*Conversation, error)
	// Touch bumps last_message_at and adds n to total_messages.
	Touch(ctx context.Context, id int64, n int) error
	// End marks the conversation inactive. Ending it again keeps the first ended_at.
	End(ctx context.Context, id int64) error
	// List returns conversations, most recently started first.
	List(ctx context.Context, opts ListOptions) ([]Conversation, error)
	// GlobalStats summarizes every conversation, message and article query.
	GlobalStats(ctx context.Context) (*GlobalStats, error)
	// DailyActivity returns per-day counts for conversations started in the last
	// days days, oldest day first.
	DailyActivity(ctx context.Context, days int) ([]DailyActivity, error)
}

const conversationColumns = `id, session_id, user_ip, user_agent, started_at, last_message_at, total_messages, is_active, ended_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// ConversationRepo implements ConversationStore on SQLite.
type ConversationRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewConversationRepo creates a new ConversationRepo.
func NewConversationRepo(db *sql.DB) *ConversationRepo {
	return &ConversationRepo{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// GetBySession returns the conversation for sessionID.
func (r *ConversationRepo) GetBySession(ctx context.Context, sessionID string) (*Conversation, error) {
	c, err := scanConversation(r.db.QueryRowContext(ctx,
		`SELECT `+conversationColumns+` FROM conversations WHERE session_id = ?`,
		sessionID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query conversation: %w", err)
	}
	return c, nil
}

// GetOrCreate gets an existing conversation by session id, or creates it if it doesn't exist.
func (r *ConversationRepo) GetOrCreate(ctx context.Context, sessionID, userIP, userAgent string) (*Conversation, error) {
	c, err := r.GetBySession(ctx, sessionID)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	now := r.now()
	// A concurrent request for the same session may insert first; the conflict clause
	// keeps the existing row.
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO conversations (session_id, user_ip, user_agent, started_at, last_message_at, total_messages)
		 VALUES (?, ?, ?, ?, ?, 0)
		 ON CONFLICT (session_id) DO NOTHING`,
		sessionID, userIP, userAgent, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert conversation: %w", err)
	}
	return r.GetBySession(ctx, sessionID)
}

// Touch bumps last_message_at and adds n to total_messages.
func (r *ConversationRepo) Touch(ctx context.Context, id int64, n int) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE conversations SET last_message_at = ?, total_messages = total_messages + ? WHERE id = ?",
		r.now(), n, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update conversation: %w", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return ErrNotFound
	}
	return nil
}

// End marks the conversation inactive and stamps ended_at once.
func (r *ConversationRepo) End(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE conversations SET is_active = 0, ended_at = COALESCE(ended_at, ?) WHERE id = ?",
		r.now(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to end conversation: %w", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns a page of conversations, most recently started first.
// A non-positive limit returns an empty slice.
func (r *ConversationRepo) List(ctx context.Context, opts ListOptions) ([]Conversation, error) {
	if opts.Limit <= 0 {
		return []Conversation{}, nil
	}
	query := `SELECT ` + conversationColumns + ` FROM conversations`
	args := []any{}
	if opts.Active != nil {
		query += ` WHERE is_active = ?`
		args = append(args, *opts.Active)
	}
	query += ` ORDER BY started_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, opts.Limit, max(opts.Offset, 0))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	convs := []Conversation{}
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		convs = append(convs, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return convs, nil
}

// GlobalStats counts every stored conversation, message and article query.
// Averages are rounded to two decimals and are zero on an empty database.
func (r *ConversationRepo) GlobalStats(ctx context.Context) (*GlobalStats, error) {
	var s GlobalStats
	var avgMessages, avgResponse sql.NullFloat64
	err := r.db.QueryRowContext(ctx,
		`SELECT
			(SELECT COUNT(*) FROM conversations),
			(SELECT COUNT(*) FROM conversations WHERE is_active = 1),
			(SELECT COUNT(*) FROM messages),
			(SELECT COUNT(*) FROM article_queries),
			(SELECT AVG(total_messages) FROM conversations),
			(SELECT AVG(response_time_ms) FROM messages WHERE response_time_ms IS NOT NULL)`,
	).Scan(&s.TotalConversations, &s.ActiveConversations, &s.TotalMessages, &s.TotalArticleQueries, &avgMessages, &avgResponse)
	if err != nil {
		return nil, fmt.Errorf("failed to query global stats: %w", err)
	}
	s.AvgMessagesPerConversation = round2(avgMessages.Float64)
	s.AvgResponseTimeMS = round2(avgResponse.Float64)
	return &s, nil
}

// DailyActivity groups conversations by the UTC day they started on. Messages are
// counted against the day their conversation started.
func (r *ConversationRepo) DailyActivity(ctx context.Context, days int) ([]DailyActivity, error) {
	if days <= 0 {
		return []DailyActivity{}, nil
	}
	since := r.now().AddDate(0, 0, -days)

	// Timestamps are stored as UTC text, so the first ten characters are the day.
	rows, err := r.db.QueryContext(ctx,
		`SELECT substr(c.started_at, 1, 10) AS day, COUNT(DISTINCT c.id), COUNT(m.id)
		 FROM conversations c
		 LEFT JOIN messages m ON m.conversation_id = c.id
		 WHERE c.started_at >= ?
		 GROUP BY day
		 ORDER BY day ASC`,
		since,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily activity: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	out := []DailyActivity{}
	for rows.Next() {
		var d DailyActivity
		if err := rows.Scan(&d.Date, &d.Conversations, &d.Messages); err != nil {
			return nil, fmt.Errorf("failed to scan daily activity: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return out, nil
}

func scanConversation(row rowScanner) (*Conversation, error) {
	var c Conversation
	var ip, agent sql.NullString
	var ended sql.NullTime
	if err := row.Scan(&c.ID, &c.SessionID, &ip, &agent, &c.StartedAt, &c.LastMessageAt,
		&c.TotalMessages, &c.IsActive, &ended); err != nil {
		return nil, err
	}
	c.UserIP = ip.String
	c.UserAgent = agent.String
	if ended.Valid {
		t := ended.Time
		c.EndedAt = &t
	}
	return &c, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
