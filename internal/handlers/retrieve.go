package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"penalcode-ai/internal/contextutil"
	"penalcode-ai/internal/intent"
	"penalcode-ai/internal/rag"
)

const maxRetrieveHistory = 20

// RetrieveHandler exposes the retrieval engine without generation, returning the
// analysis, the reconstructed articles and the assembled context.
type RetrieveHandler struct {
	engine rag.Engine
}

// NewRetrieveHandler creates a new RetrieveHandler.
func NewRetrieveHandler(engine rag.Engine) *RetrieveHandler {
	return &RetrieveHandler{engine: engine}
}

// RetrieveRequest represents the HTTP request payload for retrieval.
type RetrieveRequest struct {
	Query   string        `json:"query"`
	History []intent.Turn `json:"history,omitempty"`
}

// ServeHTTP handles POST /api/v1/retrieve. Fragments are only included with ?debug=true.
func (h *RetrieveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req RetrieveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		logger.WarnContext(ctx, "empty query in request")
		writeError(w, http.StatusBadRequest, "Query is required")
		return
	}
	if len(req.History) > maxRetrieveHistory {
		req.History = req.History[len(req.History)-maxRetrieveHistory:]
	}

	res, err := h.engine.Retrieve(ctx, rag.Request{Query: req.Query, History: req.History})
	if err != nil {
		logger.ErrorContext(ctx, "retrieval failed", "error", err)
		if errors.Is(err, rag.ErrEmbedding) || errors.Is(err, rag.ErrSearch) {
			writeError(w, http.StatusBadGateway, "External service error")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to retrieve context")
		return
	}

	debug := r.URL.Query().Get("debug")
	if !strings.EqualFold(debug, "true") && debug != "1" {
		res.Fragments = nil
	}
	writeJSON(ctx, w, http.StatusOK, res)
}
