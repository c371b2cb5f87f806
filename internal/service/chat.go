package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_generator.go -package=mocks penalcode-ai/internal/service Generator
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chat_service.go -package=mocks -mock_names=ChatService=MockChatService penalcode-ai/internal/service ChatService

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"penalcode-ai/internal/articles"
	"penalcode-ai/internal/contextutil"
	"penalcode-ai/internal/intent"
	"penalcode-ai/internal/rag"
	"penalcode-ai/internal/storage"
)

// Generator produces the answer text from a system instruction and a prompt.
// This interface is defined from the service layer's perspective (consumer-first).
type Generator interface {
	// Generate returns the full answer.
	Generate(ctx context.Context, system, prompt string) (string, error)
	// StreamGenerate streams the answer via callback.
	StreamGenerate(ctx context.Context, system, prompt string, callback func(chunk string) error) error
}

// ChatRequest represents a chat request in the domain layer.
type ChatRequest struct {
	Message string `validate:"required"`
	// SessionID identifies the conversation. A new one is generated when empty.
	SessionID string
	UserIP    string
	UserAgent string
}

// ChatMetadata describes how an answer was produced.
type ChatMetadata struct {
	SessionID      string   `json:"session_id"`
	Path           rag.Path `json:"path"`
	Intent         string   `json:"intent"`
	Fusion         string   `json:"fusion"`
	Articles       []string `json:"articles"`
	Fragments      int      `json:"fragments"`
	Verbatim       bool     `json:"verbatim"`
	NoResults      bool     `json:"no_results"`
	ResponseTimeMS float64  `json:"response_time_ms"`
}

// ChatResponse represents a chat response in the domain layer.
type ChatResponse struct {
	Reply    string
	Metadata ChatMetadata
}

// ChatService answers legal questions over the penal code.
type ChatService interface {
	// ProcessChat processes a chat request and returns a response.
	ProcessChat(ctx context.Context, req ChatRequest) (ChatResponse, error)
	// StreamChat processes a chat request and streams the response via callback.
	StreamChat(ctx context.Context, req ChatRequest, callback func(chunk string) error) (ChatMetadata, error)
}

// Stores are the optional persistence backends of the chat service. A nil store
// disables that part of the bookkeeping.
type Stores struct {
	Conversations  storage.ConversationStore
	Messages       storage.MessageStore
	ArticleQueries storage.ArticleQueryStore
}

// Options tune the chat service.
type Options struct {
	// HistoryTurns is how many previous messages feed the intent analyzer.
	HistoryTurns int
	// VerbatimMaxChars is the longest exact article returned without generation.
	// Zero disables verbatim answers.
	VerbatimMaxChars int
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{HistoryTurns: 6, VerbatimMaxChars: 2500}
}

// chatService implements ChatService.
type chatService struct {
	engine    rag.Engine
	generator Generator
	stores    Stores
	opts      Options
	now       func() time.Time
}

// NewChatService creates a new ChatService.
func NewChatService(engine rag.Engine, generator Generator, stores Stores, opts Options) ChatService {
	return &chatService{
		engine:    engine,
		generator: generator,
		stores:    stores,
		opts:      opts,
		now:       time.Now,
	}
}

// turn carries the state of one request through retrieval, generation and bookkeeping.
type turn struct {
	req          ChatRequest
	conversation *storage.Conversation
	started      time.Time
	result       rag.Result
}

// ProcessChat processes a chat request.
func (s *chatService) ProcessChat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	t, err := s.prepare(ctx, logger, req)
	if err != nil {
		return ChatResponse{}, err
	}

	var reply string
	if article, ok := s.verbatim(t.result); ok {
		reply = FormatVerbatim(article)
	} else {
		reply, err = s.generator.Generate(ctx, SystemPrompt, BuildPrompt(t.req.Message, t.result))
		if err != nil {
			logger.ErrorContext(ctx, "failed to get LLM response", "error", err)
			return ChatResponse{}, generationError(err)
		}
	}

	meta := s.finish(ctx, logger, t, reply)
	logger.InfoContext(ctx, "chat request processed successfully",
		"path", meta.Path,
		"articles", meta.Articles,
		"verbatim", meta.Verbatim,
		"reply_length", len(reply),
	)
	return ChatResponse{Reply: reply, Metadata: meta}, nil
}

// StreamChat processes a chat request and streams the response.
func (s *chatService) StreamChat(ctx context.Context, req ChatRequest, callback func(chunk string) error) (ChatMetadata, error) {
	logger := contextutil.LoggerFromContext(ctx)

	t, err := s.prepare(ctx, logger, req)
	if err != nil {
		return ChatMetadata{}, err
	}

	var reply strings.Builder
	if article, ok := s.verbatim(t.result); ok {
		text := FormatVerbatim(article)
		reply.WriteString(text)
		if err := callback(text); err != nil {
			return ChatMetadata{}, WrapError(err, "failed to stream verbatim article")
		}
	} else {
		err := s.generator.StreamGenerate(ctx, SystemPrompt, BuildPrompt(t.req.Message, t.result), func(chunk string) error {
			reply.WriteString(chunk)
			return callback(chunk)
		})
		if err != nil {
			logger.ErrorContext(ctx, "failed to stream LLM response", "error", err)
			return ChatMetadata{}, generationError(err)
		}
	}

	meta := s.finish(ctx, logger, t, reply.String())
	logger.InfoContext(ctx, "streaming chat request processed successfully",
		"path", meta.Path,
		"articles", meta.Articles,
		"verbatim", meta.Verbatim,
	)
	return meta, nil
}

// prepare validates the request, loads the conversation history and runs retrieval.
func (s *chatService) prepare(ctx context.Context, logger *slog.Logger, req ChatRequest) (*turn, error) {
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		logger.WarnContext(ctx, "empty message in chat request")
		return nil, &ValidationError{
			Field:   "message",
			Message: "cannot be empty",
		}
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	t := &turn{req: req, started: s.now()}
	history := s.history(ctx, logger, t)

	res, err := s.engine.Retrieve(ctx, rag.Request{Query: req.Message, History: history})
	if err != nil {
		logger.ErrorContext(ctx, "retrieval failed", "error", err)
		return nil, retrievalError(err)
	}
	t.result = res
	return t, nil
}

// history returns the recent turns of the request's conversation, oldest first.
// Persistence failures degrade to an empty history.
func (s *chatService) history(ctx context.Context, logger *slog.Logger, t *turn) []intent.Turn {
	if s.stores.Conversations == nil {
		return nil
	}
	conv, err := s.stores.Conversations.GetOrCreate(ctx, t.req.SessionID, t.req.UserIP, t.req.UserAgent)
	if err != nil {
		logger.WarnContext(ctx, "failed to load conversation", "session_id", t.req.SessionID, "error", err)
		return nil
	}
	t.conversation = conv

	if s.stores.Messages == nil || s.opts.HistoryTurns <= 0 {
		return nil
	}
	msgs, err := s.stores.Messages.ListRecent(ctx, conv.ID, s.opts.HistoryTurns)
	if err != nil {
		logger.WarnContext(ctx, "failed to load conversation history", "session_id", t.req.SessionID, "error", err)
		return nil
	}
	turns := make([]intent.Turn, 0, len(msgs))
	for _, m := range msgs {
		turns = append(turns, intent.Turn{Role: intent.Role(m.Role), Text: m.Content})
	}
	return turns
}

// verbatim reports whether the result is a single complete article short enough to be
// returned as is.
func (s *chatService) verbatim(res rag.Result) (rag.ReconstructedArticle, bool) {
	if s.opts.VerbatimMaxChars <= 0 || res.Path != rag.PathExact || res.Directive != "" || len(res.Articles) != 1 {
		return rag.ReconstructedArticle{}, false
	}
	a := res.Articles[0]
	if !a.Complete || utf8.RuneCountInString(a.Text) > s.opts.VerbatimMaxChars {
		return rag.ReconstructedArticle{}, false
	}
	return a, true
}

// finish builds the response metadata and records the exchange.
func (s *chatService) finish(ctx context.Context, logger *slog.Logger, t *turn, reply string) ChatMetadata {
	res := t.result
	_, verbatim := s.verbatim(res)
	meta := ChatMetadata{
		SessionID:      t.req.SessionID,
		Path:           res.Path,
		Intent:         string(res.Analysis.Kind),
		Fusion:         string(res.Analysis.Fusion),
		Articles:       res.ArticleKeys(),
		Fragments:      len(res.Fragments),
		Verbatim:       verbatim,
		NoResults:      res.NoResults,
		ResponseTimeMS: float64(s.now().Sub(t.started).Microseconds()) / 1000,
	}
	s.record(ctx, logger, t, reply, meta)
	return meta
}

// record persists the exchange and the article lookups. Failures are logged only.
func (s *chatService) record(ctx context.Context, logger *slog.Logger, t *turn, reply string, meta ChatMetadata) {
	var convID int64
	if t.conversation != nil {
		convID = t.conversation.ID
	}

	if convID != 0 && s.stores.Messages != nil {
		extra, err := json.Marshal(meta)
		if err != nil {
			logger.WarnContext(ctx, "failed to encode message metadata", "error", err)
		}
		msgs := []*storage.Message{
			{ConversationID: convID, Role: string(intent.RoleUser), Content: t.req.Message},
			{ConversationID: convID, Role: string(intent.RoleAssistant), Content: reply, ResponseTimeMS: meta.ResponseTimeMS, ExtraData: string(extra)},
		}
		stored := 0
		for _, m := range msgs {
			if err := s.stores.Messages.Insert(ctx, m); err != nil {
				logger.WarnContext(ctx, "failed to store message", "role", m.Role, "error", err)
				continue
			}
			stored++
		}
		if stored > 0 && s.stores.Conversations != nil {
			if err := s.stores.Conversations.Touch(ctx, convID, stored); err != nil {
				logger.WarnContext(ctx, "failed to update conversation", "error", err)
			}
		}
	}

	if s.stores.ArticleQueries == nil {
		return
	}
	for _, q := range articleQueries(t.result, t.req.Message, convID, meta.ResponseTimeMS) {
		if err := s.stores.ArticleQueries.Log(ctx, &q); err != nil {
			logger.WarnContext(ctx, "failed to log article query", "article", q.ArticleKey, "error", err)
		}
	}
}

// articleQueries lists the article lookups made while answering. An article number the
// user asked for but that could not be resolved is recorded as not found.
func articleQueries(res rag.Result, query string, convID int64, elapsedMS float64) []storage.ArticleQuery {
	var out []storage.ArticleQuery
	seen := make(map[string]bool)
	for _, a := range res.Articles {
		if seen[a.Key] {
			continue
		}
		seen[a.Key] = true
		q := storage.ArticleQuery{
			ArticleKey:     a.Key,
			ConversationID: convID,
			SearchQuery:    query,
			Found:          true,
			ResponseTimeMS: elapsedMS,
		}
		switch {
		case a.Source == articles.SourceRegex:
			q.SearchType, q.Source = storage.SearchRegex, string(a.Source)
		case a.Source != "":
			q.SearchType, q.Source = storage.SearchExact, string(a.Source)
		default:
			q.SearchType, q.Source = storage.SearchSemantic, "vector"
		}
		out = append(out, q)
	}

	if key := res.Analysis.Key; key != "" && !seen[key] {
		out = append(out, storage.ArticleQuery{
			ArticleKey:     key,
			ConversationID: convID,
			SearchType:     storage.SearchExact,
			SearchQuery:    query,
			ResponseTimeMS: elapsedMS,
		})
	}
	return out
}

// generationError marks LLM failures as external unless the request was cancelled.
func generationError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return WrapError(err, "failed to get LLM response")
	}
	return fmt.Errorf("failed to get LLM response: %w: %w", ErrExternalService, err)
}
