package handlers

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_ingester.go -package=mocks penalcode-ai/internal/handlers Ingester

import (
	"context"
	"net/http"

	"penalcode-ai/internal/contextutil"
	"penalcode-ai/internal/indexer"
)

// Ingester runs statute ingestion in the background.
type Ingester interface {
	// Start begins ingesting path unless a run is in progress. It reports whether a run
	// was started.
	Start(ctx context.Context, path string) bool
	Running() bool
	// Last returns the outcome of the latest finished run.
	Last() (*indexer.IngestStats, error)
}

// IndexHandler handles HTTP requests for triggering re-indexing.
type IndexHandler struct {
	ingester    Ingester
	statutePath string
}

// NewIndexHandler creates a new IndexHandler.
func NewIndexHandler(ingester Ingester, statutePath string) *IndexHandler {
	return &IndexHandler{
		ingester:    ingester,
		statutePath: statutePath,
	}
}

// IndexResponse represents the response from the index endpoint.
type IndexResponse struct {
	Message string               `json:"message"`
	Status  string               `json:"status"`
	Last    *indexer.IngestStats `json:"last,omitempty"`
	Error   string               `json:"error,omitempty"`
}

// ServeHTTP starts ingestion on POST and reports the latest run on GET.
func (h *IndexHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	switch r.Method {
	case http.MethodGet:
		resp := IndexResponse{Status: "idle"}
		if h.ingester.Running() {
			resp.Status = "running"
		}
		stats, err := h.ingester.Last()
		resp.Last = stats
		if err != nil {
			resp.Error = err.Error()
		}
		writeJSON(ctx, w, http.StatusOK, resp)

	case http.MethodPost:
		// Ingestion outlives the request, so it must not inherit its cancellation.
		if !h.ingester.Start(context.WithoutCancel(ctx), h.statutePath) {
			logger.WarnContext(ctx, "ingestion already running")
			writeJSON(ctx, w, http.StatusConflict, IndexResponse{
				Message: "Ingestion is already running.",
				Status:  "running",
			})
			return
		}
		logger.InfoContext(ctx, "re-indexing triggered via API", "path", h.statutePath)
		writeJSON(ctx, w, http.StatusAccepted, IndexResponse{
			Message: "Indexing started. Check server logs for progress.",
			Status:  "accepted",
		})

	default:
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}
