package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GeminiClient generates answers and embeddings with the Gemini API.
type GeminiClient struct {
	client         *genai.Client
	model          string
	embeddingModel string
	expectedSize   int
	params         ChatParams
}

// NewGeminiClient creates a Gemini client. expectedSize validates embeddings and is
// ignored when 0.
func NewGeminiClient(ctx context.Context, apiKey, model, embeddingModel string, expectedSize int) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiClient{
		client:         client,
		model:          model,
		embeddingModel: embeddingModel,
		expectedSize:   expectedSize,
		params:         DefaultChatParams(),
	}, nil
}

// Close releases the underlying connection.
func (g *GeminiClient) Close() error {
	return g.client.Close()
}

func (g *GeminiClient) generativeModel(system string) *genai.GenerativeModel {
	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(g.params.Temperature)
	model.SetTopP(g.params.TopP)
	if g.params.TopK > 0 {
		model.SetTopK(g.params.TopK)
	}
	if g.params.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(g.params.MaxTokens))
	}
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}
	return model
}

// Generate sends the system instructions and the prompt and returns the full answer.
func (g *GeminiClient) Generate(ctx context.Context, system, prompt string) (string, error) {
	resp, err := g.generativeModel(system).GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	text := responseText(resp)
	if text == "" {
		return "", fmt.Errorf("no candidates returned")
	}
	return text, nil
}

// StreamGenerate is Generate with a streamed answer.
func (g *GeminiClient) StreamGenerate(ctx context.Context, system, prompt string, callback func(chunk string) error) error {
	iter := g.generativeModel(system).GenerateContentStream(ctx, genai.Text(prompt))
	for {
		resp, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read stream: %w", err)
		}
		if chunk := responseText(resp); chunk != "" {
			if err := callback(chunk); err != nil {
				return fmt.Errorf("callback error: %w", err)
			}
		}
	}
}

// EmbedTexts embeds texts in one batch request, preserving order.
func (g *GeminiClient) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("empty input array")
	}

	em := g.client.EmbeddingModel(g.embeddingModel)
	batch := em.NewBatch()
	for _, t := range texts {
		batch.AddContent(genai.Text(t))
	}
	resp, err := em.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("failed to embed contents: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Embeddings))
	}

	result := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		if e == nil {
			return nil, fmt.Errorf("embedding %d missing from response", i)
		}
		if g.expectedSize > 0 && len(e.Values) != g.expectedSize {
			return nil, fmt.Errorf("embedding %d has size %d, expected %d", i, len(e.Values), g.expectedSize)
		}
		vec := make([]float32, len(e.Values))
		for j, v := range e.Values {
			vec[j] = float32(v)
		}
		result[i] = vec
	}
	return result, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var parts []string
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				parts = append(parts, string(text))
			}
		}
	}
	return strings.Join(parts, "")
}
