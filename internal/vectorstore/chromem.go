package vectorstore

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/philippgille/chromem-go"

	"penalcode-ai/internal/contextutil"
)

// ChromemStore implements VectorStore on an embedded chromem-go database. It is meant for
// local development and tests where running Qdrant is not wanted.
type ChromemStore struct {
	db *chromem.DB

	mu          sync.Mutex
	collections map[string]*chromem.Collection
	sizes       map[string]int
}

// NewChromemStore opens a persistent chromem database at path. An empty path keeps the
// database in memory.
func NewChromemStore(path string) (*ChromemStore, error) {
	var db *chromem.DB
	if path == "" {
		db = chromem.NewDB()
	} else {
		var err error
		db, err = chromem.NewPersistentDB(path, false)
		if err != nil {
			return nil, fmt.Errorf("failed to open chromem database: %w", err)
		}
	}
	return &ChromemStore{
		db:          db,
		collections: make(map[string]*chromem.Collection),
		sizes:       make(map[string]int),
	}, nil
}

// EnsureCollection implements VectorStore. chromem does not fix a vector size, so the
// size is only remembered and checked on Upsert.
func (s *ChromemStore) EnsureCollection(ctx context.Context, collection string, vectorSize int) error {
	if _, err := s.collection(collection); err != nil {
		return err
	}
	s.mu.Lock()
	s.sizes[collection] = vectorSize
	s.mu.Unlock()
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "collection validated", "collection", collection, "vector_size", vectorSize)
	return nil
}

// Upsert implements VectorStore. Existing IDs are replaced.
func (s *ChromemStore) Upsert(ctx context.Context, collection string, points []Point) error {
	logger := contextutil.LoggerFromContext(ctx)

	if len(points) == 0 {
		return nil
	}
	c, err := s.collection(collection)
	if err != nil {
		return err
	}

	s.mu.Lock()
	size := s.sizes[collection]
	s.mu.Unlock()

	ids := make([]string, 0, len(points))
	vectors := make([][]float32, 0, len(points))
	metadatas := make([]map[string]string, 0, len(points))
	contents := make([]string, 0, len(points))
	for _, p := range points {
		if size > 0 && len(p.Vec) != size {
			return fmt.Errorf("point %s has vector size %d, collection expects %d", p.ID, len(p.Vec), size)
		}
		text, _ := p.Meta["text"].(string)
		ids = append(ids, p.ID)
		vectors = append(vectors, p.Vec)
		metadatas = append(metadatas, flattenMeta(p.Meta))
		contents = append(contents, text)
	}

	if err := c.Delete(ctx, nil, nil, ids...); err != nil {
		return fmt.Errorf("failed to replace points: %w", err)
	}
	if err := c.Add(ctx, ids, vectors, metadatas, contents); err != nil {
		logger.ErrorContext(ctx, "failed to upsert points", "collection", collection, "count", len(points), "error", err)
		return fmt.Errorf("failed to upsert points: %w", err)
	}

	logger.InfoContext(ctx, "upserted points", "collection", collection, "count", len(points))
	return nil
}

// Search implements VectorStore. Filters match metadata values exactly.
func (s *ChromemStore) Search(ctx context.Context, collection string, query []float32, k int, filters map[string]any) ([]SearchResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if k <= 0 {
		return nil, fmt.Errorf("k must be greater than 0")
	}
	c, err := s.collection(collection)
	if err != nil {
		return nil, err
	}

	// chromem rejects nResults above the document count.
	n := min(k, c.Count())
	if n == 0 {
		return nil, nil
	}

	var where map[string]string
	if len(filters) > 0 {
		where = make(map[string]string, len(filters))
		for key, v := range filters {
			where[key] = fmt.Sprint(v)
		}
	}

	found, err := c.QueryEmbedding(ctx, query, n, where, nil)
	if err != nil {
		logger.ErrorContext(ctx, "failed to search points", "collection", collection, "k", k, "error", err)
		return nil, fmt.Errorf("failed to search points: %w", err)
	}

	results := make([]SearchResult, 0, len(found))
	for _, r := range found {
		meta := make(map[string]any, len(r.Metadata)+1)
		for key, v := range r.Metadata {
			meta[key] = v
		}
		meta["text"] = r.Content
		results = append(results, SearchResult{
			PointID: r.ID,
			Score:   r.Similarity,
			Meta:    meta,
		})
	}

	logger.InfoContext(ctx, "search completed", "collection", collection, "k", k, "results", len(results))
	return results, nil
}

// Delete implements VectorStore.
func (s *ChromemStore) Delete(ctx context.Context, collection string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	c, err := s.collection(collection)
	if err != nil {
		return err
	}
	if err := c.Delete(ctx, nil, nil, ids...); err != nil {
		return fmt.Errorf("failed to delete points: %w", err)
	}
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "deleted points", "collection", collection, "count", len(ids))
	return nil
}

// Count implements VectorStore.
func (s *ChromemStore) Count(_ context.Context, collection string) (int, error) {
	c, err := s.collection(collection)
	if err != nil {
		return 0, err
	}
	return c.Count(), nil
}

func (s *ChromemStore) collection(name string) (*chromem.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.collections[name]; ok {
		return c, nil
	}
	c, err := s.db.GetOrCreateCollection(name, map[string]string{"hnsw:space": "cosine"}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open collection %s: %w", name, err)
	}
	s.collections[name] = c
	return c, nil
}

// flattenMeta converts payload values to the string metadata chromem stores. The text is
// stored as document content instead. Lists are joined with commas.
func flattenMeta(meta map[string]any) map[string]string {
	out := make(map[string]string, len(meta))
	for k, v := range meta {
		if k == "text" {
			continue
		}
		switch val := v.(type) {
		case []any:
			parts := make([]string, 0, len(val))
			for _, item := range val {
				parts = append(parts, fmt.Sprint(item))
			}
			out[k] = strings.Join(parts, ",")
		case []string:
			out[k] = strings.Join(val, ",")
		default:
			out[k] = fmt.Sprint(val)
		}
	}
	return out
}
