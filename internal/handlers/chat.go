package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"penalcode-ai/internal/contextutil"
	"penalcode-ai/internal/service"
)

// ChatHandler handles HTTP requests for chat.
type ChatHandler struct {
	chatService service.ChatService
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
	}
}

// ChatRequest represents the HTTP request payload for chat.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

// ChatResponse represents the HTTP response payload for chat.
type ChatResponse struct {
	Reply    string               `json:"reply"`
	Metadata service.ChatMetadata `json:"metadata"`
}

// ServeHTTP handles HTTP requests for chat. With ?stream=true the reply is sent as
// Server-Sent Events: data chunks, a "metadata" event, then "[DONE]".
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Convert HTTP request to service request
	svcReq := service.ChatRequest{
		Message:   req.Message,
		SessionID: req.SessionID,
		UserIP:    r.RemoteAddr,
		UserAgent: r.UserAgent(),
	}

	if r.URL.Query().Get("stream") == "true" {
		h.handleStreamingChat(w, r, svcReq)
		return
	}

	svcResp, err := h.chatService.ProcessChat(ctx, svcReq)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to process chat request")
		return
	}

	writeJSON(ctx, w, http.StatusOK, ChatResponse{
		Reply:    svcResp.Reply,
		Metadata: svcResp.Metadata,
	})
}

// handleStreamingChat handles streaming chat requests using Server-Sent Events.
func (h *ChatHandler) handleStreamingChat(w http.ResponseWriter, r *http.Request, svcReq service.ChatRequest) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	flusher, ok := w.(http.Flusher)
	if !ok {
		logger.ErrorContext(ctx, "streaming not supported by response writer")
		writeError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	// Validation happens before the first byte so it can still be a 400.
	if strings.TrimSpace(svcReq.Message) == "" {
		handleServiceError(ctx, w, &service.ValidationError{Field: "message", Message: "cannot be empty"}, "Invalid request")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	meta, err := h.chatService.StreamChat(ctx, svcReq, func(chunk string) error {
		if err := writeEvent(w, "", chunk); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})
	if err != nil {
		logger.ErrorContext(ctx, "error streaming chat", "error", err)
		payload, _ := json.Marshal(ErrorResponse{Error: err.Error()})
		_ = writeEvent(w, "error", string(payload))
		flusher.Flush()
		return
	}

	if payload, err := json.Marshal(meta); err == nil {
		_ = writeEvent(w, "metadata", string(payload))
	}
	_ = writeEvent(w, "", "[DONE]")
	flusher.Flush()
}

// writeEvent writes one SSE event. Every line of data gets its own "data:" field so
// newlines in the answer survive the stream.
func writeEvent(w io.Writer, event, data string) error {
	var b strings.Builder
	if event != "" {
		fmt.Fprintf(&b, "event: %s\n", event)
	}
	for _, line := range strings.Split(data, "\n") {
		fmt.Fprintf(&b, "data: %s\n", line)
	}
	b.WriteString("\n")
	_, err := io.WriteString(w, b.String())
	return err
}
