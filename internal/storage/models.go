package storage

import "time"

// Conversation is one chat session.
type Conversation struct {
	ID            int64      `json:"id"`
	SessionID     string     `json:"session_id"` // UUID chosen by the client or generated on first message
	UserIP        string     `json:"-"`
	UserAgent     string     `json:"-"`
	StartedAt     time.Time  `json:"started_at"`
	LastMessageAt time.Time  `json:"last_message_at"`
	TotalMessages int        `json:"total_messages"`
	IsActive      bool       `json:"is_active"`
	EndedAt       *time.Time `json:"ended_at"` // nil while the conversation is active
}

// Message is one turn of a conversation.
type Message struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"-"`
	Role           string    `json:"role"` // "user" or "assistant"
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
	ResponseTimeMS float64   `json:"response_time_ms,omitempty"`
	// ExtraData is a JSON document: articles cited, retrieval path, fragment count.
	ExtraData string `json:"extra_data,omitempty"`
}

// ListOptions pages through conversations, newest first.
type ListOptions struct {
	Offset int
	Limit  int
	// Active filters on is_active when set.
	Active *bool
}

// GlobalStats summarizes all stored activity.
type GlobalStats struct {
	TotalConversations         int     `json:"total_conversations"`
	ActiveConversations        int     `json:"active_conversations"`
	TotalMessages              int     `json:"total_messages"`
	TotalArticleQueries        int     `json:"total_article_queries"`
	AvgMessagesPerConversation float64 `json:"avg_messages_per_conversation"`
	AvgResponseTimeMS          float64 `json:"avg_response_time_ms"`
}

// DailyActivity counts the conversations started on one UTC day and their messages.
type DailyActivity struct {
	Date          string `json:"date"` // YYYY-MM-DD
	Conversations int    `json:"conversations"`
	Messages      int    `json:"messages"`
}

// Search types recorded in ArticleQuery.SearchType.
const (
	SearchExact    = "exact"
	SearchSemantic = "semantic"
	SearchRegex    = "regex"
)

// ArticleQuery records one lookup of an article key.
type ArticleQuery struct {
	ID             int64
	ArticleKey     string
	ConversationID int64 // 0 when the query is not tied to a conversation
	QueriedAt      time.Time
	SearchType     string
	SearchQuery    string
	Found          bool
	Source         string // memory, redis, regex or vector
	ResponseTimeMS float64
}

// ArticleStat is the number of times an article was queried.
type ArticleStat struct {
	ArticleKey string `json:"article"`
	Count      int    `json:"count"`
	Found      int    `json:"found"`
}
