package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrModelLoadFailed is returned when the server reports a failed model load.
var ErrModelLoadFailed = errors.New("model load failed")

// ModelLoader warms up models on a llama.cpp router server through its /models
// endpoints, so the first legal question does not pay the model load time.
type ModelLoader struct {
	baseURL      string
	client       *http.Client
	pollInterval time.Duration
	maxWait      time.Duration
}

// NewModelLoader creates a new model loader.
func NewModelLoader(baseURL string) *ModelLoader {
	return &ModelLoader{
		baseURL:      strings.TrimRight(baseURL, "/"),
		client:       &http.Client{Timeout: 30 * time.Second},
		pollInterval: time.Second,
		maxWait:      2 * time.Minute,
	}
}

// LoadModelRequest represents the request payload for loading a model.
type LoadModelRequest struct {
	Model string `json:"model"`
}

// LoadModelResponse represents the response from the load model endpoint.
type LoadModelResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// ModelStatus represents the status of a model from the /models endpoint.
type ModelStatus struct {
	ID      string `json:"id"`
	InCache bool   `json:"in_cache"`
	Status  struct {
		Value    string `json:"value"`
		ExitCode *int   `json:"exit_code,omitempty"`
		Failed   *bool  `json:"failed,omitempty"`
	} `json:"status"`
}

// ModelsResponse represents the response from the /models endpoint.
type ModelsResponse struct {
	Data []ModelStatus `json:"data"`
}

// Status returns the server's view of model, or ok=false when it is not listed.
func (ml *ModelLoader) Status(ctx context.Context, model string) (ModelStatus, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ml.baseURL+"/models", nil)
	if err != nil {
		return ModelStatus{}, false, fmt.Errorf("failed to create status request: %w", err)
	}

	resp, err := ml.client.Do(req)
	if err != nil {
		return ModelStatus{}, false, fmt.Errorf("failed to check model status: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return ModelStatus{}, false, fmt.Errorf("bad status %d: %s", resp.StatusCode, string(raw))
	}

	var modelsResp ModelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&modelsResp); err != nil {
		return ModelStatus{}, false, fmt.Errorf("failed to decode models response: %w", err)
	}
	for _, m := range modelsResp.Data {
		if m.ID == model {
			return m, true, nil
		}
	}
	return ModelStatus{}, false, nil
}

// EnsureLoaded requests a load of model unless it is already in cache, then polls until
// the server reports it loaded, failed, or maxWait elapses.
func (ml *ModelLoader) EnsureLoaded(ctx context.Context, model string) error {
	if st, ok, err := ml.Status(ctx, model); err == nil && ok && st.InCache {
		return nil
	}

	body, err := json.Marshal(LoadModelRequest{Model: model})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ml.baseURL+"/models/load", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := ml.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("bad status %d: %s", resp.StatusCode, string(raw))
	}
	var loadResp LoadModelResponse
	if err := json.NewDecoder(resp.Body).Decode(&loadResp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if !loadResp.Success {
		return fmt.Errorf("%w: %s", ErrModelLoadFailed, loadResp.Error)
	}

	// /models/load answers before the load finishes.
	ctx, cancel := context.WithTimeout(ctx, ml.maxWait)
	defer cancel()
	ticker := time.NewTicker(ml.pollInterval)
	defer ticker.Stop()
	for {
		st, ok, err := ml.Status(ctx, model)
		if err == nil && ok {
			if st.InCache {
				return nil
			}
			if st.Status.Failed != nil && *st.Status.Failed {
				exitCode := 0
				if st.Status.ExitCode != nil {
					exitCode = *st.Status.ExitCode
				}
				return fmt.Errorf("%w: exit code %d", ErrModelLoadFailed, exitCode)
			}
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("model %s did not load: %w", model, ctx.Err())
		case <-ticker.C:
		}
	}
}
