package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// MessageStore defines the interface for message storage operations.
type MessageStore interface {
	// Insert stores msg and sets its ID. CreatedAt defaults to now.
	Insert(ctx context.Context, msg *Message) error
	// ListRecent returns the last limit messages of a conversation, oldest first.
	ListRecent(ctx context.Context, conversationID int64, limit int) ([]Message, error)
	// ListByConversation returns up to limit messages of a conversation, oldest first,
	// skipping the first offset.
	ListByConversation(ctx context.Context, conversationID int64, offset, limit int) ([]Message, error)
}

// MessageRepo implements MessageStore on SQLite.
type MessageRepo struct {
	db *sql.DB
}

// NewMessageRepo creates a new MessageRepo.
func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// Insert stores msg and sets its ID.
func (r *MessageRepo) Insert(ctx context.Context, msg *Message) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO messages (conversation_id, role, content, created_at, response_time_ms, extra_data)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		msg.ConversationID, msg.Role, msg.Content, msg.CreatedAt, nullFloat(msg.ResponseTimeMS), nullString(msg.ExtraData),
	)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read message id: %w", err)
	}
	msg.ID = id
	return nil
}

// ListRecent returns the last limit messages of a conversation, oldest first.
// Returns an empty slice if the conversation has no messages (not an error).
func (r *MessageRepo) ListRecent(ctx context.Context, conversationID int64, limit int) ([]Message, error) {
	if limit <= 0 {
		return []Message{}, nil
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, conversation_id, role, content, created_at, response_time_ms, extra_data
		 FROM messages WHERE conversation_id = ? ORDER BY id DESC LIMIT ?`,
		conversationID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	msgs, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// ListByConversation returns a page of a conversation's messages, oldest first.
func (r *MessageRepo) ListByConversation(ctx context.Context, conversationID int64, offset, limit int) ([]Message, error) {
	if limit <= 0 {
		return []Message{}, nil
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, conversation_id, role, content, created_at, response_time_ms, extra_data
		 FROM messages WHERE conversation_id = ? ORDER BY id ASC LIMIT ? OFFSET ?`,
		conversationID, limit, max(offset, 0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	return scanMessages(rows)
}

// scanMessages reads and closes rows.
func scanMessages(rows *sql.Rows) ([]Message, error) {
	defer func() {
		_ = rows.Close()
	}()

	msgs := []Message{}
	for rows.Next() {
		var m Message
		var rt sql.NullFloat64
		var extra sql.NullString
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.CreatedAt, &rt, &extra); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		m.ResponseTimeMS = rt.Float64
		m.ExtraData = extra.String
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return msgs, nil
}

func nullFloat(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: v != 0}
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
