package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_conversation_service.go -package=mocks -mock_names=ConversationService=MockConversationService penalcode-ai/internal/service ConversationService

import (
	"context"
	"errors"
	"strings"

	"penalcode-ai/internal/contextutil"
	"penalcode-ai/internal/storage"
)

const (
	defaultDailyDays  = 7
	maxDailyDays      = 365
	defaultListLimit  = 20
	maxListLimit      = 100
	maxDetailMessages = 1000
)

// ConversationDetail is a conversation with its messages, oldest first.
type ConversationDetail struct {
	Conversation storage.Conversation `json:"conversation"`
	Messages     []storage.Message    `json:"messages"`
}

// ConversationService exposes stored conversations and usage analytics.
type ConversationService interface {
	// Stats returns totals over every stored conversation.
	Stats(ctx context.Context) (*storage.GlobalStats, error)
	// Daily returns per-day activity for the last days days. Zero selects the default.
	Daily(ctx context.Context, days int) ([]storage.DailyActivity, error)
	// List pages through conversations, newest first. A zero limit selects the default.
	List(ctx context.Context, opts storage.ListOptions) ([]storage.Conversation, error)
	// Get returns the conversation of sessionID with its messages.
	Get(ctx context.Context, sessionID string) (*ConversationDetail, error)
	// End marks the conversation of sessionID as ended and returns it.
	End(ctx context.Context, sessionID string) (*storage.Conversation, error)
}

type conversationService struct {
	convs storage.ConversationStore
	msgs  storage.MessageStore
}

// NewConversationService creates a new ConversationService.
func NewConversationService(convs storage.ConversationStore, msgs storage.MessageStore) ConversationService {
	return &conversationService{convs: convs, msgs: msgs}
}

func (s *conversationService) Stats(ctx context.Context) (*storage.GlobalStats, error) {
	stats, err := s.convs.GlobalStats(ctx)
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to load global stats", "error", err)
		return nil, WrapError(err, "failed to load global stats")
	}
	return stats, nil
}

func (s *conversationService) Daily(ctx context.Context, days int) ([]storage.DailyActivity, error) {
	if days < 0 || days > maxDailyDays {
		return nil, &ValidationError{Field: "days", Message: "must be between 1 and 365"}
	}
	if days == 0 {
		days = defaultDailyDays
	}

	daily, err := s.convs.DailyActivity(ctx, days)
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to load daily activity", "days", days, "error", err)
		return nil, WrapError(err, "failed to load daily activity")
	}
	if daily == nil {
		daily = []storage.DailyActivity{}
	}
	return daily, nil
}

func (s *conversationService) List(ctx context.Context, opts storage.ListOptions) ([]storage.Conversation, error) {
	if opts.Limit < 0 || opts.Limit > maxListLimit {
		return nil, &ValidationError{Field: "limit", Message: "must be between 1 and 100"}
	}
	if opts.Offset < 0 {
		return nil, &ValidationError{Field: "offset", Message: "cannot be negative"}
	}
	if opts.Limit == 0 {
		opts.Limit = defaultListLimit
	}

	convs, err := s.convs.List(ctx, opts)
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to list conversations", "error", err)
		return nil, WrapError(err, "failed to list conversations")
	}
	if convs == nil {
		convs = []storage.Conversation{}
	}
	return convs, nil
}

func (s *conversationService) Get(ctx context.Context, sessionID string) (*ConversationDetail, error) {
	conv, err := s.lookup(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	msgs, err := s.msgs.ListByConversation(ctx, conv.ID, 0, maxDetailMessages)
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to load messages", "session_id", conv.SessionID, "error", err)
		return nil, WrapError(err, "failed to load messages")
	}
	if msgs == nil {
		msgs = []storage.Message{}
	}
	return &ConversationDetail{Conversation: *conv, Messages: msgs}, nil
}

func (s *conversationService) End(ctx context.Context, sessionID string) (*storage.Conversation, error) {
	logger := contextutil.LoggerFromContext(ctx)

	conv, err := s.lookup(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.convs.End(ctx, conv.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		logger.ErrorContext(ctx, "failed to end conversation", "session_id", conv.SessionID, "error", err)
		return nil, WrapError(err, "failed to end conversation")
	}

	ended, err := s.lookup(ctx, conv.SessionID)
	if err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "conversation ended", "session_id", ended.SessionID, "messages", ended.TotalMessages)
	return ended, nil
}

// lookup validates sessionID and maps a missing conversation to ErrNotFound.
func (s *conversationService) lookup(ctx context.Context, sessionID string) (*storage.Conversation, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, &ValidationError{Field: "session_id", Message: "cannot be empty"}
	}

	conv, err := s.convs.GetBySession(ctx, sessionID)
	if errors.Is(err, storage.ErrNotFound) {
		contextutil.LoggerFromContext(ctx).InfoContext(ctx, "conversation not found", "session_id", sessionID)
		return nil, ErrNotFound
	}
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to load conversation", "session_id", sessionID, "error", err)
		return nil, WrapError(err, "failed to load conversation")
	}
	return conv, nil
}
