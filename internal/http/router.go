package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"penalcode-ai/internal/articles"
	"penalcode-ai/internal/handlers"
	"penalcode-ai/internal/rag"
	"penalcode-ai/internal/service"
	"penalcode-ai/internal/vectorstore"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	ChatService         service.ChatService
	ArticleService      service.ArticleService
	ConversationService service.ConversationService
	Engine              rag.Engine

	// Ingester is optional. Without it the index endpoint is not registered.
	Ingester    handlers.Ingester
	StatutePath string

	VectorStore vectorstore.VectorStore
	Collection  string
	Index       *articles.Index
	DB          handlers.Pinger
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(CORS)

	chatHandler := handlers.NewChatHandler(deps.ChatService)
	articlesHandler := handlers.NewArticlesHandler(deps.ArticleService)
	conversationsHandler := handlers.NewConversationsHandler(deps.ConversationService)
	retrieveHandler := handlers.NewRetrieveHandler(deps.Engine)

	r.Method(http.MethodGet, "/health", handlers.NewHealthHandler(deps.VectorStore, deps.Collection, deps.Index, deps.DB))

	r.Route("/api/v1", func(r chi.Router) {
		r.Handle("/chat", chatHandler)
		r.Handle("/retrieve", retrieveHandler)
		r.Get("/articles/{key}", articlesHandler.Get)
		r.Get("/stats", conversationsHandler.Stats)
		r.Get("/stats/articles", articlesHandler.Stats)
		r.Get("/stats/daily", conversationsHandler.Daily)
		r.Get("/conversations", conversationsHandler.List)
		r.Get("/conversations/{session_id}", conversationsHandler.Get)
		r.Post("/conversations/{session_id}/end", conversationsHandler.End)
		if deps.Ingester != nil {
			r.Handle("/index", handlers.NewIndexHandler(deps.Ingester, deps.StatutePath))
		}
	})

	return r
}
