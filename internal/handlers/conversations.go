package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"penalcode-ai/internal/contextutil"
	"penalcode-ai/internal/service"
	"penalcode-ai/internal/storage"
)

// ConversationsHandler serves stored conversations and usage analytics.
type ConversationsHandler struct {
	conversationService service.ConversationService
}

// NewConversationsHandler creates a new ConversationsHandler.
func NewConversationsHandler(conversationService service.ConversationService) *ConversationsHandler {
	return &ConversationsHandler{conversationService: conversationService}
}

// DailyResponse lists per-day activity.
type DailyResponse struct {
	Days  int                     `json:"days"`
	Daily []storage.DailyActivity `json:"daily"`
}

// ConversationsResponse is one page of conversations.
type ConversationsResponse struct {
	Offset        int                    `json:"offset"`
	Limit         int                    `json:"limit"`
	Conversations []storage.Conversation `json:"conversations"`
}

// Stats handles GET /api/v1/stats.
func (h *ConversationsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.conversationService.Stats(ctx)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to load statistics")
		return
	}
	writeJSON(ctx, w, http.StatusOK, stats)
}

// Daily handles GET /api/v1/stats/daily?days=N.
func (h *ConversationsHandler) Daily(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	days, err := intParam(r, "days")
	if err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "invalid days parameter", "error", err)
		writeError(w, http.StatusBadRequest, "days must be an integer")
		return
	}

	daily, err := h.conversationService.Daily(ctx, days)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to load daily statistics")
		return
	}
	writeJSON(ctx, w, http.StatusOK, DailyResponse{Days: days, Daily: daily})
}

// List handles GET /api/v1/conversations?limit=N&offset=M&active=true.
func (h *ConversationsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var opts storage.ListOptions
	var err error
	if opts.Limit, err = intParam(r, "limit"); err != nil {
		logger.WarnContext(ctx, "invalid limit parameter", "error", err)
		writeError(w, http.StatusBadRequest, "limit must be an integer")
		return
	}
	if opts.Offset, err = intParam(r, "offset"); err != nil {
		logger.WarnContext(ctx, "invalid offset parameter", "error", err)
		writeError(w, http.StatusBadRequest, "offset must be an integer")
		return
	}
	if raw := r.URL.Query().Get("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			logger.WarnContext(ctx, "invalid active parameter", "error", err)
			writeError(w, http.StatusBadRequest, "active must be true or false")
			return
		}
		opts.Active = &active
	}

	convs, err := h.conversationService.List(ctx, opts)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to list conversations")
		return
	}
	writeJSON(ctx, w, http.StatusOK, ConversationsResponse{Offset: opts.Offset, Limit: opts.Limit, Conversations: convs})
}

// Get handles GET /api/v1/conversations/{session_id}.
func (h *ConversationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	detail, err := h.conversationService.Get(ctx, chi.URLParam(r, "session_id"))
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to load conversation")
		return
	}
	writeJSON(ctx, w, http.StatusOK, detail)
}

// End handles POST /api/v1/conversations/{session_id}/end.
func (h *ConversationsHandler) End(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	conv, err := h.conversationService.End(ctx, chi.URLParam(r, "session_id"))
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to end conversation")
		return
	}
	writeJSON(ctx, w, http.StatusOK, conv)
}
