package vectorstore

import (
	"context"
	"testing"

	"github.com/qdrant/go-client/qdrant"
)

func TestGRPCAddress(t *testing.T) {
	tests := []struct {
		name     string
		urlStr   string
		wantErr  bool
		wantHost string
		wantPort int
	}{
		{
			name:     "valid URL",
			urlStr:   "http://localhost:6333",
			wantHost: "localhost",
			wantPort: 6334, // gRPC port is HTTP port + 1
		},
		{
			name:     "URL with custom port",
			urlStr:   "http://qdrant:9000",
			wantHost: "qdrant",
			wantPort: 9001,
		},
		{
			name:    "invalid URL",
			urlStr:  "://invalid",
			wantErr: true,
		},
		{
			name:     "URL without port",
			urlStr:   "http://localhost",
			wantHost: "localhost",
			wantPort: 6334, // Default
		},
		{
			name:     "URL without hostname",
			urlStr:   "http://:6333",
			wantHost: "localhost", // Defaults to localhost
			wantPort: 6334,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, port, err := grpcAddress(tt.urlStr)
			if (err != nil) != tt.wantErr {
				t.Fatalf("grpcAddress() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if host != tt.wantHost {
				t.Errorf("Host = %v, want %v", host, tt.wantHost)
			}
			if port != tt.wantPort {
				t.Errorf("Port = %v, want %v", port, tt.wantPort)
			}
		})
	}
}

func TestNewQdrantStore_InvalidURL(t *testing.T) {
	if _, err := NewQdrantStore("://invalid"); err == nil {
		t.Error("NewQdrantStore() with invalid URL should return error")
	}
}

func TestBuildFilter(t *testing.T) {
	if f := buildFilter(nil); f != nil {
		t.Errorf("buildFilter(nil) = %v, want nil", f)
	}

	f := buildFilter(map[string]any{
		"articles":    "138",
		"chunk_index": 3,
	})
	if f == nil || len(f.Must) != 2 {
		t.Fatalf("buildFilter() = %v, want 2 must conditions", f)
	}
	// Keys are sorted, so "articles" comes first.
	if got := f.Must[0].GetField().GetKey(); got != "articles" {
		t.Errorf("first condition key = %q, want articles", got)
	}
	if got := f.Must[0].GetField().GetMatch().GetKeyword(); got != "138" {
		t.Errorf("keyword = %q, want 138", got)
	}
	if got := f.Must[1].GetField().GetMatch().GetInteger(); got != 3 {
		t.Errorf("integer = %d, want 3", got)
	}
}

func TestConvertPayloadToMap(t *testing.T) {
	payload := qdrant.NewValueMap(map[string]any{
		"text":        "Artículo 138.",
		"chunk_index": 4,
		"articles":    "138,139",
	})

	got := convertPayloadToMap(payload)
	if got["text"] != "Artículo 138." {
		t.Errorf("text = %v", got["text"])
	}
	if got["chunk_index"] != int64(4) {
		t.Errorf("chunk_index = %v (%T), want int64 4", got["chunk_index"], got["chunk_index"])
	}
	if got["articles"] != "138,139" {
		t.Errorf("articles = %v", got["articles"])
	}
}

func TestQdrantStore_EmptyBatches(t *testing.T) {
	// Upsert and Delete return before touching the client.
	store := &QdrantStore{}
	ctx := context.Background()

	if err := store.Upsert(ctx, "codigo_penal", []Point{}); err != nil {
		t.Errorf("Upsert() with empty points should return early without error, got: %v", err)
	}
	if err := store.Delete(ctx, "codigo_penal", []string{}); err != nil {
		t.Errorf("Delete() with empty IDs should return early without error, got: %v", err)
	}
	if _, err := store.Search(ctx, "codigo_penal", []float32{1}, 0, nil); err == nil {
		t.Error("Search() with k=0 should return error")
	}
}
