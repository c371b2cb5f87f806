package llm

// ChatParams holds generation parameters shared by every provider.
type ChatParams struct {
	// Model overrides the client's default model when set.
	Model string

	// MaxTokens specifies the maximum number of tokens to generate.
	// If 0, no limit is applied.
	MaxTokens int

	Temperature float32
	TopP        float32
	// TopK is only honored by providers that support it.
	TopK int32
}

// DefaultChatParams favors sober, grounded legal answers over creative ones.
func DefaultChatParams() ChatParams {
	return ChatParams{
		MaxTokens:   800,
		Temperature: 0.3,
		TopP:        0.8,
		TopK:        20,
	}
}
