package rag

import (
	"context"

	"penalcode-ai/internal/vectorstore"
)

// StoreSearcher adapts a VectorStore collection to FragmentSearcher. The fragment text is
// read from the "text" payload field written at ingestion.
type StoreSearcher struct {
	store      vectorstore.VectorStore
	collection string
	filters    map[string]any
}

// NewStoreSearcher creates a StoreSearcher over collection.
func NewStoreSearcher(store vectorstore.VectorStore, collection string) *StoreSearcher {
	return &StoreSearcher{store: store, collection: collection}
}

// WithIndexVersion returns a searcher restricted to points written with version, so
// fragments left behind by an ingestion with other chunking parameters are not returned.
// An empty version disables the restriction.
func (s *StoreSearcher) WithIndexVersion(version string) *StoreSearcher {
	out := &StoreSearcher{store: s.store, collection: s.collection}
	if version != "" {
		out.filters = map[string]any{vectorstore.IndexVersionKey: version}
	}
	return out
}

// Search implements FragmentSearcher.
func (s *StoreSearcher) Search(ctx context.Context, vector []float32, topK int) ([]Fragment, error) {
	results, err := s.store.Search(ctx, s.collection, vector, topK, s.filters)
	if err != nil {
		return nil, err
	}

	fragments := make([]Fragment, 0, len(results))
	for _, r := range results {
		text, _ := r.Meta["text"].(string)
		fragments = append(fragments, Fragment{
			ID:    r.PointID,
			Score: r.Score,
			Text:  text,
			Meta:  r.Meta,
		})
	}
	return fragments, nil
}
