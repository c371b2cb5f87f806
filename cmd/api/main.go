package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"penalcode-ai/internal/articles"
	"penalcode-ai/internal/bootstrap"
	"penalcode-ai/internal/config"
	"penalcode-ai/internal/http"
	"penalcode-ai/internal/indexer"
	"penalcode-ai/internal/intent"
	"penalcode-ai/internal/rag"
	"penalcode-ai/internal/service"
	"penalcode-ai/internal/statute"
	"penalcode-ai/internal/storage"
)

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	slog.SetDefault(bootstrap.Logger(cfg, os.Stdout))
	slog.Debug("Logging configured", "level", cfg.LogLevel, "format", cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	set, err := bootstrap.Patterns(cfg)
	if err != nil {
		log.Fatalf("Failed to load pattern tables: %v", err)
	}

	// A missing statute disables exact lookup but not the service.
	var fullText string
	doc, err := statute.Load(cfg.StatutePath)
	if err != nil {
		slog.Warn("Statute unavailable, exact article lookup disabled", "path", cfg.StatutePath, "error", err)
	} else {
		fullText = doc.Text
	}
	index := articles.Build(fullText, set)
	slog.Info("Article index built", "articles", index.Len(), "available", index.Available())

	var cache articles.Cache
	if cfg.RedisAddr != "" {
		redisCache, err := articles.NewRedisCache(ctx, cfg.RedisAddr, cfg.RedisTTL)
		if err != nil {
			slog.Warn("Redis unavailable, article cache disabled", "addr", cfg.RedisAddr, "error", err)
		} else {
			defer func() {
				_ = redisCache.Close()
			}()
			cache = redisCache
			slog.Info("Article cache connected", "addr", cfg.RedisAddr, "ttl", cfg.RedisTTL)
		}
	}
	resolver := articles.NewResolver(index, cache)

	// Initialize database
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)

	conversationRepo := storage.NewConversationRepo(db)
	messageRepo := storage.NewMessageRepo(db)
	articleQueryRepo := storage.NewArticleQueryRepo(db)

	vectorStore, err := bootstrap.VectorStore(cfg)
	if err != nil {
		log.Fatalf("Failed to create vector store client: %v", err)
	}

	// Ensure collection exists with correct vector size
	if err := vectorStore.EnsureCollection(ctx, cfg.QdrantCollection, cfg.QdrantVectorSize); err != nil {
		log.Fatalf("Failed to ensure vector collection: %v", err)
	}
	slog.Info("Vector collection ready", "backend", cfg.VectorStore, "collection", cfg.QdrantCollection, "vector_size", cfg.QdrantVectorSize)

	clients, err := bootstrap.NewClients(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create model clients: %v", err)
	}
	defer func() {
		_ = clients.Close()
	}()

	// Validate embedding client vector size (fail-fast)
	if err := bootstrap.ValidateEmbedder(ctx, clients.Embedder, cfg.QdrantVectorSize); err != nil {
		log.Fatalf("%v", err)
	}
	slog.Info("Embedding client validated", "provider", cfg.EmbeddingProvider, "vector_size", cfg.QdrantVectorSize)

	if err := bootstrap.PreloadModel(ctx, cfg); err != nil {
		slog.Warn("Failed to preload LLM model", "model", cfg.LLMModelName, "error", err)
	}

	pipeline := indexer.NewPipeline(
		indexer.NewCharChunker(cfg.ChunkSize, cfg.ChunkOverlap, set),
		clients.Embedder,
		vectorStore,
		cfg.QdrantCollection,
		cfg.QdrantVectorSize,
		cfg.EmbeddingModelName,
	)

	// Only points written with the current chunking and embedding model are searched.
	searcher := rag.NewStoreSearcher(vectorStore, cfg.QdrantCollection).WithIndexVersion(pipeline.IndexVersion())

	checker := articles.NewHeuristic(set)
	engine := rag.NewEngine(
		set,
		intent.NewAnalyzer(set, nil),
		resolver,
		checker,
		clients.Embedder,
		searcher,
	)
	slog.Info("Retrieval engine initialized", "index_version", pipeline.IndexVersion())

	chatService := service.NewChatService(engine, clients.Generator, service.Stores{
		Conversations:  conversationRepo,
		Messages:       messageRepo,
		ArticleQueries: articleQueryRepo,
	}, service.Options{
		HistoryTurns:     cfg.HistoryTurns,
		VerbatimMaxChars: cfg.VerbatimMaxChars,
	})
	articleService := service.NewArticleService(resolver, checker, articleQueryRepo)
	conversationService := service.NewConversationService(conversationRepo, messageRepo)

	router := http.NewRouter(&http.Deps{
		ChatService:         chatService,
		ArticleService:      articleService,
		ConversationService: conversationService,
		Engine:              engine,
		Ingester:            pipeline,
		StatutePath:         cfg.StatutePath,
		VectorStore:         vectorStore,
		Collection:          cfg.QdrantCollection,
		Index:               index,
		DB:                  db,
	})

	// Ingest in background on first start, when the collection is still empty
	if n, err := vectorStore.Count(ctx, cfg.QdrantCollection); err != nil {
		slog.Warn("Failed to count indexed fragments", "error", err)
	} else if n == 0 && index.Available() {
		slog.Info("Vector collection is empty, starting background ingestion", "path", cfg.StatutePath)
		pipeline.Start(context.WithoutCancel(ctx), cfg.StatutePath)
	}

	// Start API server
	server := &nethttp.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("API server shutdown failed", "error", err)
		}
	}()

	slog.Info("Starting API server", "addr", server.Addr)
	slog.Debug("LLM configuration", "provider", cfg.LLMProvider, "base_url", cfg.LLMBaseURL, "model", cfg.LLMModelName)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		log.Fatalf("API server failed to start: %v", err)
	}
	slog.Info("API server stopped")
}
