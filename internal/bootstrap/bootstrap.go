// Package bootstrap builds the collaborators shared by the API server and the ingest
// command from configuration.
package bootstrap

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"penalcode-ai/internal/config"
	"penalcode-ai/internal/llm"
	"penalcode-ai/internal/patterns"
	"penalcode-ai/internal/rag"
	"penalcode-ai/internal/service"
	"penalcode-ai/internal/vectorstore"
)

// Logger builds the process logger from the configured level and format.
func Logger(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// Patterns loads the pattern tables, overlaying PATTERNS_PATH on the embedded defaults.
func Patterns(cfg *config.Config) (*patterns.Set, error) {
	tables, err := patterns.Load(cfg.PatternsPath)
	if err != nil {
		return nil, err
	}
	set, err := patterns.Compile(tables)
	if err != nil {
		return nil, fmt.Errorf("failed to compile pattern tables: %w", err)
	}
	return set, nil
}

// VectorStore opens the configured vector store backend.
func VectorStore(cfg *config.Config) (vectorstore.VectorStore, error) {
	switch cfg.VectorStore {
	case config.VectorStoreChromem:
		return vectorstore.NewChromemStore(cfg.ChromemPath)
	default:
		return vectorstore.NewQdrantStore(cfg.QdrantURL)
	}
}

// Clients are the model-backed collaborators.
type Clients struct {
	Generator service.Generator
	Embedder  rag.Embedder

	gemini *llm.GeminiClient
}

// NewClients builds the generator and embedder for the configured providers. A single
// Gemini client serves both when both use Gemini.
func NewClients(ctx context.Context, cfg *config.Config) (*Clients, error) {
	c := &Clients{}

	if cfg.LLMProvider == config.ProviderGemini || cfg.EmbeddingProvider == config.ProviderGemini {
		g, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.LLMModelName, cfg.EmbeddingModelName, cfg.QdrantVectorSize)
		if err != nil {
			return nil, err
		}
		c.gemini = g
	}

	if cfg.LLMProvider == config.ProviderGemini {
		c.Generator = c.gemini
	} else {
		c.Generator = llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModelName)
	}

	if cfg.EmbeddingProvider == config.ProviderGemini {
		c.Embedder = c.gemini
	} else {
		c.Embedder = llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.LLMAPIKey, cfg.EmbeddingModelName, cfg.QdrantVectorSize)
	}
	return c, nil
}

// Close releases the Gemini client, if any.
func (c *Clients) Close() error {
	if c.gemini != nil {
		return c.gemini.Close()
	}
	return nil
}

// ValidateEmbedder embeds a sample text and checks the vector size (fail-fast).
func ValidateEmbedder(ctx context.Context, embedder rag.Embedder, size int) error {
	vectors, err := embedder.EmbedTexts(ctx, []string{"artículo 1 del código penal"})
	if err != nil {
		return fmt.Errorf("failed to validate embedding client: %w", err)
	}
	if len(vectors) == 0 || len(vectors[0]) != size {
		got := 0
		if len(vectors) > 0 {
			got = len(vectors[0])
		}
		return fmt.Errorf("embedding vector size mismatch: expected %d, got %d", size, got)
	}
	return nil
}

// PreloadModel asks an OpenAI-compatible router to load the generation model. It is a
// no-op unless LLM_PRELOAD is set and the provider is openai.
func PreloadModel(ctx context.Context, cfg *config.Config) error {
	if !cfg.LLMPreload || cfg.LLMProvider != config.ProviderOpenAI {
		return nil
	}
	return llm.NewModelLoader(cfg.LLMBaseURL).EnsureLoaded(ctx, cfg.LLMModelName)
}
