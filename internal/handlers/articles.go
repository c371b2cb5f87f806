package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"penalcode-ai/internal/contextutil"
	"penalcode-ai/internal/service"
	"penalcode-ai/internal/storage"
)

// ArticlesHandler serves direct article lookups and query statistics.
type ArticlesHandler struct {
	articleService service.ArticleService
}

// NewArticlesHandler creates a new ArticlesHandler.
func NewArticlesHandler(articleService service.ArticleService) *ArticlesHandler {
	return &ArticlesHandler{articleService: articleService}
}

// StatsResponse lists the most queried articles.
type StatsResponse struct {
	Limit    int                   `json:"limit"`
	Days     int                   `json:"days"`
	Articles []storage.ArticleStat `json:"articles"`
}

// Get handles GET /api/v1/articles/{key}.
func (h *ArticlesHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	article, err := h.articleService.Get(ctx, chi.URLParam(r, "key"))
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to load article")
		return
	}
	writeJSON(ctx, w, http.StatusOK, article)
}

// Stats handles GET /api/v1/stats/articles?limit=N&days=D.
func (h *ArticlesHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	limit, err := intParam(r, "limit")
	if err != nil {
		logger.WarnContext(ctx, "invalid limit parameter", "error", err)
		writeError(w, http.StatusBadRequest, "limit must be an integer")
		return
	}
	days, err := intParam(r, "days")
	if err != nil {
		logger.WarnContext(ctx, "invalid days parameter", "error", err)
		writeError(w, http.StatusBadRequest, "days must be an integer")
		return
	}

	stats, err := h.articleService.MostQueried(ctx, limit, days)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to load article statistics")
		return
	}
	writeJSON(ctx, w, http.StatusOK, StatsResponse{Limit: limit, Days: days, Articles: stats})
}

// intParam parses an optional integer query parameter. Missing means zero.
func intParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
