package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/mock/gomock"

	"penalcode-ai/internal/articles"
	"penalcode-ai/internal/patterns"
	vectorstore_mocks "penalcode-ai/internal/vectorstore/mocks"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }

func TestHealthHandler_ServeHTTP(t *testing.T) {
	set := patterns.MustCompileDefault()
	built := articles.Build("Artículo 1.\nNo será castigada ninguna acción ni omisión que no esté prevista como delito.\n", set)
	empty := articles.Build("", set)

	tests := []struct {
		name       string
		count      int
		countErr   error
		index      *articles.Index
		ping       error
		wantStatus int
		wantState  string
	}{
		{name: "healthy", count: 120, index: built, wantStatus: http.StatusOK, wantState: "healthy"},
		{name: "vector store down", countErr: errors.New("connection refused"), index: built, wantStatus: http.StatusServiceUnavailable, wantState: "unhealthy"},
		{name: "empty collection", count: 0, index: built, wantStatus: http.StatusServiceUnavailable, wantState: "unhealthy"},
		{name: "index unavailable", count: 120, index: empty, wantStatus: http.StatusOK, wantState: "degraded"},
		{name: "database down", count: 120, index: built, ping: errors.New("database is closed"), wantStatus: http.StatusOK, wantState: "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			store := vectorstore_mocks.NewMockVectorStore(ctrl)
			store.EXPECT().Count(gomock.Any(), "codigo_penal").Return(tt.count, tt.countErr)

			db := pingFunc(func(context.Context) error { return tt.ping })
			handler := NewHealthHandler(store, "codigo_penal", tt.index, db)

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			if w.Code != tt.wantStatus {
				t.Errorf("ServeHTTP() status = %v, want %v", w.Code, tt.wantStatus)
			}
			var resp HealthResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("ServeHTTP() invalid JSON: %v", err)
			}
			if resp.Status != tt.wantState {
				t.Errorf("ServeHTTP() status field = %q, want %q (issues %v)", resp.Status, tt.wantState, resp.Issues)
			}
			if tt.wantState == "healthy" && (resp.Articles != 1 || len(resp.Issues) != 0) {
				t.Errorf("ServeHTTP() = %+v", resp)
			}
		})
	}
}

func TestHealthHandler_MethodNotAllowed(t *testing.T) {
	ctrl := gomock.NewController(t)
	handler := NewHealthHandler(vectorstore_mocks.NewMockVectorStore(ctrl), "codigo_penal", nil, nil)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/health", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("ServeHTTP() status = %v, want %v", w.Code, http.StatusMethodNotAllowed)
	}
}
