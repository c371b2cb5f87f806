package indexer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"unicode/utf8"

	"github.com/google/uuid"

	"penalcode-ai/internal/contextutil"
	"penalcode-ai/internal/rag"
	"penalcode-ai/internal/statute"
	"penalcode-ai/internal/vectorstore"
)

// DefaultBatchSize is the number of chunks embedded and upserted together.
const DefaultBatchSize = 16

// ErrNothingIndexed is returned when no chunk could be embedded and stored.
var ErrNothingIndexed = errors.New("no chunks indexed")

// pointNamespace derives stable point IDs, so re-ingesting overwrites the previous run.
var pointNamespace = uuid.MustParse("5b0e7c1e-2f55-4c5e-9a43-7d1f3c0b8a61")

// PointID returns the vector point ID of the chunk at index.
func PointID(index int) string {
	return uuid.NewSHA1(pointNamespace, []byte(fmt.Sprintf("chunk_%d", index))).String()
}

// Pipeline ingests the statute text into the vector store.
type Pipeline struct {
	chunker        *CharChunker
	embedder       rag.Embedder
	vectorStore    vectorstore.VectorStore
	collection     string
	vectorSize     int
	embeddingModel string
	batchSize      int

	running atomic.Bool
	mu      sync.Mutex
	last    *IngestStats
	lastErr error
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	chunker *CharChunker,
	embedder rag.Embedder,
	vectorStore vectorstore.VectorStore,
	collection string,
	vectorSize int,
	embeddingModel string,
) *Pipeline {
	return &Pipeline{
		chunker:        chunker,
		embedder:       embedder,
		vectorStore:    vectorStore,
		collection:     collection,
		vectorSize:     vectorSize,
		embeddingModel: embeddingModel,
		batchSize:      DefaultBatchSize,
	}
}

// IndexVersion identifies the points this pipeline writes.
func (p *Pipeline) IndexVersion() string {
	return IndexVersion(p.embeddingModel, p.chunker.Size, p.chunker.Overlap)
}

// IndexFile loads the statute at path and indexes it.
func (p *Pipeline) IndexFile(ctx context.Context, path string) (*IngestStats, error) {
	doc, err := statute.Load(path)
	if err != nil {
		return nil, err
	}
	return p.IndexText(ctx, doc.Path, doc.Text)
}

// IndexText chunks text, embeds the chunks in batches and upserts them with payload
// {text, chunk_index, articles, source, index_version}. A failed batch is counted as
// skipped and ingestion continues. Points left over from a previous longer run are deleted.
func (p *Pipeline) IndexText(ctx context.Context, source, text string) (*IngestStats, error) {
	logger := contextutil.LoggerFromContext(ctx)

	stats := &IngestStats{
		Source:         source,
		TextLength:     utf8.RuneCountInString(text),
		ChunkerVersion: ChunkerVersion,
		IndexVersion:   p.IndexVersion(),
	}

	chunks := p.chunker.Split(text)
	if len(chunks) == 0 {
		return stats, fmt.Errorf("%w: text produced no chunks", ErrNothingIndexed)
	}
	chunkStats(stats, chunks)
	logger.InfoContext(ctx, "starting ingestion",
		"source", source,
		"text_length", stats.TextLength,
		"chunks", len(chunks),
		"articles", stats.ArticlesCovered,
	)

	if err := p.vectorStore.EnsureCollection(ctx, p.collection, p.vectorSize); err != nil {
		return stats, fmt.Errorf("failed to ensure collection: %w", err)
	}
	before, err := p.vectorStore.Count(ctx, p.collection)
	if err != nil {
		logger.WarnContext(ctx, "failed to count existing points", "error", err)
		before = 0
	}

	for start := 0; start < len(chunks); start += p.batchSize {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		batch := chunks[start:min(start+p.batchSize, len(chunks))]
		stats.ChunksAttempted += len(batch)

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}
		vecs, err := p.embedder.EmbedTexts(ctx, texts)
		if err == nil && len(vecs) != len(batch) {
			err = fmt.Errorf("embedding count mismatch: expected %d, got %d", len(batch), len(vecs))
		}
		if err != nil {
			stats.skip(SkipEmbeddingError, len(batch))
			logger.ErrorContext(ctx, "failed to embed batch", "first_chunk", batch[0].Index, "size", len(batch), "error", err)
			continue
		}

		points := make([]vectorstore.Point, len(batch))
		for i, c := range batch {
			points[i] = vectorstore.Point{
				ID:  PointID(c.Index),
				Vec: vecs[i],
				Meta: map[string]any{
					"text":          c.Text,
					"chunk_index":   c.Index,
					"articles":      strings.Join(c.Articles, ","),
					"source":        source,
					vectorstore.IndexVersionKey: stats.IndexVersion,
				},
			}
		}
		if err := p.vectorStore.Upsert(ctx, p.collection, points); err != nil {
			stats.skip(SkipUpsertError, len(batch))
			logger.ErrorContext(ctx, "failed to upsert batch", "first_chunk", batch[0].Index, "size", len(batch), "error", err)
			continue
		}
		stats.ChunksEmbedded += len(batch)
		logger.DebugContext(ctx, "batch indexed", "first_chunk", batch[0].Index, "size", len(batch))
	}

	if before > len(chunks) {
		stale := make([]string, 0, before-len(chunks))
		for i := len(chunks); i < before; i++ {
			stale = append(stale, PointID(i))
		}
		if err := p.vectorStore.Delete(ctx, p.collection, stale); err != nil {
			logger.WarnContext(ctx, "failed to delete stale points", "count", len(stale), "error", err)
		} else {
			stats.StalePointsDeleted = len(stale)
		}
	}

	logger.InfoContext(ctx, "ingestion completed",
		"attempted", stats.ChunksAttempted,
		"embedded", stats.ChunksEmbedded,
		"skipped", stats.ChunksSkipped,
		"stale_deleted", stats.StalePointsDeleted,
		"index_version", stats.IndexVersion,
	)

	if stats.ChunksEmbedded == 0 {
		return stats, ErrNothingIndexed
	}
	return stats, nil
}

// Start indexes path in the background. It returns false without starting when an
// ingestion is already running. ctx should outlive the caller's request.
func (p *Pipeline) Start(ctx context.Context, path string) bool {
	if !p.running.CompareAndSwap(false, true) {
		return false
	}
	go func() {
		defer p.running.Store(false)
		stats, err := p.IndexFile(ctx, path)
		if err != nil {
			contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "background ingestion failed", "path", path, "error", err)
		}
		p.mu.Lock()
		p.last, p.lastErr = stats, err
		p.mu.Unlock()
	}()
	return true
}

// Running reports whether a background ingestion is in progress.
func (p *Pipeline) Running() bool {
	return p.running.Load()
}

// Last returns the stats and error of the most recent background ingestion, or nil
// stats when none completed yet.
func (p *Pipeline) Last() (*IngestStats, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last, p.lastErr
}
