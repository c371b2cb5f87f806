package rag_test

import (
	"context"
	"errors"
	"testing"

	"penalcode-ai/internal/rag"
	"penalcode-ai/internal/vectorstore"
	vsmocks "penalcode-ai/internal/vectorstore/mocks"

	"go.uber.org/mock/gomock"
)

func TestStoreSearcher(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := vsmocks.NewMockVectorStore(ctrl)
	searcher := rag.NewStoreSearcher(store, "codigo_penal")
	vec := []float32{0.5, 0.5}

	store.EXPECT().
		Search(gomock.Any(), "codigo_penal", vec, 20, nil).
		Return([]vectorstore.SearchResult{
			{PointID: "p1", Score: 0.9, Meta: map[string]any{"text": "Artículo 138.", "chunk_index": int64(3)}},
			{PointID: "p2", Score: 0.5, Meta: map[string]any{}},
		}, nil)

	got, err := searcher.Search(context.Background(), vec, 20)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Search() returned %d fragments, want 2", len(got))
	}
	if got[0].ID != "p1" || got[0].Text != "Artículo 138." || got[0].Score != 0.9 {
		t.Errorf("first fragment = %+v", got[0])
	}
	if got[1].Text != "" {
		t.Errorf("fragment without text payload = %+v", got[1])
	}

	store.EXPECT().Search(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("unavailable"))
	if _, err := searcher.Search(context.Background(), vec, 20); err == nil {
		t.Error("Search() should propagate store errors")
	}
}

func TestStoreSearcher_WithIndexVersion(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := vsmocks.NewMockVectorStore(ctrl)
	base := rag.NewStoreSearcher(store, "codigo_penal")
	vec := []float32{0.5, 0.5}

	store.EXPECT().
		Search(gomock.Any(), "codigo_penal", vec, 10, map[string]any{vectorstore.IndexVersionKey: "abc123"}).
		Return([]vectorstore.SearchResult{{PointID: "p1", Score: 0.9, Meta: map[string]any{"text": "Artículo 138."}}}, nil)
	got, err := base.WithIndexVersion("abc123").Search(context.Background(), vec, 10)
	if err != nil || len(got) != 1 {
		t.Fatalf("Search() = %+v, %v", got, err)
	}

	// The original searcher and an empty version stay unfiltered.
	store.EXPECT().Search(gomock.Any(), "codigo_penal", vec, 10, nil).Return(nil, nil).Times(2)
	if _, err := base.Search(context.Background(), vec, 10); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if _, err := base.WithIndexVersion("").Search(context.Background(), vec, 10); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
}
