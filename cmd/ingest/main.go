// Command ingest splits the statute into character windows, embeds them and stores
// them in the vector collection, then prints the ingestion stats as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"penalcode-ai/internal/bootstrap"
	"penalcode-ai/internal/config"
	"penalcode-ai/internal/indexer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	path := flag.String("statute", cfg.StatutePath, "statute file to ingest (.txt or .md)")
	flag.Parse()

	// Stats go to stdout, logs to stderr.
	slog.SetDefault(bootstrap.Logger(cfg, os.Stderr))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	set, err := bootstrap.Patterns(cfg)
	if err != nil {
		log.Fatalf("Failed to load pattern tables: %v", err)
	}

	vectorStore, err := bootstrap.VectorStore(cfg)
	if err != nil {
		log.Fatalf("Failed to create vector store client: %v", err)
	}

	clients, err := bootstrap.NewClients(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create model clients: %v", err)
	}
	defer func() {
		_ = clients.Close()
	}()

	if err := bootstrap.ValidateEmbedder(ctx, clients.Embedder, cfg.QdrantVectorSize); err != nil {
		log.Fatalf("%v", err)
	}

	pipeline := indexer.NewPipeline(
		indexer.NewCharChunker(cfg.ChunkSize, cfg.ChunkOverlap, set),
		clients.Embedder,
		vectorStore,
		cfg.QdrantCollection,
		cfg.QdrantVectorSize,
		cfg.EmbeddingModelName,
	)

	slog.Info("Starting ingestion", "path", *path, "collection", cfg.QdrantCollection, "chunk_size", cfg.ChunkSize, "chunk_overlap", cfg.ChunkOverlap)
	stats, err := pipeline.IndexFile(ctx, *path)
	if stats != nil {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(stats)
	}
	if err != nil {
		slog.Error("Ingestion failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Ingestion completed", "embedded", stats.ChunksEmbedded, "skipped", stats.ChunksSkipped, "articles", stats.ArticlesCovered)
}
