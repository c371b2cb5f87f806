package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"penalcode-ai/internal/rag"
	"penalcode-ai/internal/service"
	"penalcode-ai/internal/service/mocks"
)

// httptest.NewRequest uses this remote address.
const testRemoteAddr = "192.0.2.1:1234"

func svcRequest(message, session string) service.ChatRequest {
	return service.ChatRequest{Message: message, SessionID: session, UserIP: testRemoteAddr}
}

func TestNewChatHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockChatService := mocks.NewMockChatService(ctrl)
	handler := NewChatHandler(mockChatService)

	if handler == nil {
		t.Fatal("NewChatHandler() returned nil")
	}
	if handler.chatService != mockChatService {
		t.Error("NewChatHandler() chatService not set correctly")
	}
}

func TestChatHandler_ServeHTTP(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	tests := []struct {
		name          string
		method        string
		body          interface{}
		mockSetup     func(*mocks.MockChatService)
		wantStatus    int
		checkResponse func(*httptest.ResponseRecorder) bool
	}{
		{
			name:   "successful POST request",
			method: http.MethodPost,
			body:   ChatRequest{Message: "¿Qué dice el artículo 138?", SessionID: "s-1"},
			mockSetup: func(m *mocks.MockChatService) {
				m.EXPECT().
					ProcessChat(gomock.Any(), svcRequest("¿Qué dice el artículo 138?", "s-1")).
					Return(service.ChatResponse{
						Reply:    "El artículo 138 castiga el homicidio.",
						Metadata: service.ChatMetadata{SessionID: "s-1", Path: rag.PathExact, Articles: []string{"138"}},
					}, nil)
			},
			wantStatus: http.StatusOK,
			checkResponse: func(w *httptest.ResponseRecorder) bool {
				var resp ChatResponse
				if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
					return false
				}
				return resp.Reply == "El artículo 138 castiga el homicidio." &&
					resp.Metadata.SessionID == "s-1" &&
					resp.Metadata.Path == rag.PathExact
			},
		},
		{
			name:       "method not allowed",
			method:     http.MethodGet,
			mockSetup:  func(m *mocks.MockChatService) {},
			wantStatus: http.StatusMethodNotAllowed,
		},
		{
			name:       "invalid JSON body",
			method:     http.MethodPost,
			body:       "invalid json",
			mockSetup:  func(m *mocks.MockChatService) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:   "validation error",
			method: http.MethodPost,
			body:   ChatRequest{Message: ""},
			mockSetup: func(m *mocks.MockChatService) {
				m.EXPECT().
					ProcessChat(gomock.Any(), svcRequest("", "")).
					Return(service.ChatResponse{}, &service.ValidationError{
						Field:   "message",
						Message: "cannot be empty",
					})
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:   "service error",
			method: http.MethodPost,
			body:   ChatRequest{Message: "Hola"},
			mockSetup: func(m *mocks.MockChatService) {
				m.EXPECT().
					ProcessChat(gomock.Any(), svcRequest("Hola", "")).
					Return(service.ChatResponse{}, errors.New("service error"))
			},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:   "ErrExternalService",
			method: http.MethodPost,
			body:   ChatRequest{Message: "Hola"},
			mockSetup: func(m *mocks.MockChatService) {
				m.EXPECT().
					ProcessChat(gomock.Any(), svcRequest("Hola", "")).
					Return(service.ChatResponse{}, service.ErrExternalService)
			},
			wantStatus: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockChatService := mocks.NewMockChatService(ctrl)
			tt.mockSetup(mockChatService)

			handler := NewChatHandler(mockChatService)

			var bodyBytes []byte
			if s, ok := tt.body.(string); ok {
				bodyBytes = []byte(s)
			} else if tt.body != nil {
				bodyBytes, _ = json.Marshal(tt.body)
			}

			req := httptest.NewRequest(tt.method, "/api/v1/chat", bytes.NewBuffer(bodyBytes))
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("ServeHTTP() status = %v, want %v", w.Code, tt.wantStatus)
			}

			if tt.checkResponse != nil && !tt.checkResponse(w) {
				t.Error("ServeHTTP() response validation failed")
			}
		})
	}
}

func TestChatHandler_handleStreamingChat(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	tests := []struct {
		name       string
		body       interface{}
		mockSetup  func(*mocks.MockChatService)
		wantStatus int
		wantBody   []string
	}{
		{
			name: "successful streaming",
			body: ChatRequest{Message: "Hola"},
			mockSetup: func(m *mocks.MockChatService) {
				m.EXPECT().
					StreamChat(gomock.Any(), svcRequest("Hola", ""), gomock.Any()).
					DoAndReturn(func(ctx context.Context, req service.ChatRequest, callback func(chunk string) error) (service.ChatMetadata, error) {
						for _, chunk := range []string{"Artículo 138.", "\nEl que matare"} {
							if err := callback(chunk); err != nil {
								return service.ChatMetadata{}, err
							}
						}
						return service.ChatMetadata{SessionID: "generated", Path: rag.PathExact}, nil
					})
			},
			wantStatus: http.StatusOK,
			wantBody: []string{
				"data: Artículo 138.\n\n",
				"data: \ndata: El que matare\n\n",
				"event: metadata\ndata: {\"session_id\":\"generated\"",
				"data: [DONE]\n\n",
			},
		},
		{
			name:       "invalid JSON body",
			body:       "invalid json",
			mockSetup:  func(m *mocks.MockChatService) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "empty message is rejected before streaming",
			body:       ChatRequest{Message: "  "},
			mockSetup:  func(m *mocks.MockChatService) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "streaming error",
			body: ChatRequest{Message: "Hola"},
			mockSetup: func(m *mocks.MockChatService) {
				m.EXPECT().
					StreamChat(gomock.Any(), svcRequest("Hola", ""), gomock.Any()).
					Return(service.ChatMetadata{}, errors.New("stream error"))
			},
			wantStatus: http.StatusOK, // SSE sends error in stream, not HTTP status
			wantBody:   []string{"event: error\ndata: {\"error\":\"stream error\"}\n\n"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockChatService := mocks.NewMockChatService(ctrl)
			tt.mockSetup(mockChatService)

			handler := NewChatHandler(mockChatService)

			var bodyBytes []byte
			if s, ok := tt.body.(string); ok {
				bodyBytes = []byte(s)
			} else {
				bodyBytes, _ = json.Marshal(tt.body)
			}
			req := httptest.NewRequest(http.MethodPost, "/api/v1/chat?stream=true", bytes.NewBuffer(bodyBytes))
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("handleStreamingChat() status = %v, want %v", w.Code, tt.wantStatus)
			}
			if len(tt.wantBody) > 0 && w.Header().Get("Content-Type") != "text/event-stream" {
				t.Error("handleStreamingChat() missing Content-Type header")
			}
			body := w.Body.String()
			for _, want := range tt.wantBody {
				if !strings.Contains(body, want) {
					t.Errorf("handleStreamingChat() body missing %q in:\n%s", want, body)
				}
			}
		})
	}
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()

	writeError(w, http.StatusBadRequest, "test error")

	if w.Code != http.StatusBadRequest {
		t.Errorf("writeError() status = %v, want %v", w.Code, http.StatusBadRequest)
	}

	var resp ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("writeError() invalid JSON: %v", err)
	}

	if resp.Error != "test error" {
		t.Errorf("writeError() error = %v, want test error", resp.Error)
	}
}
