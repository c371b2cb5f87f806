package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Providers for generation and embeddings.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Vector store backends.
const (
	VectorStoreQdrant  = "qdrant"
	VectorStoreChromem = "chromem"
)

// Config holds all configuration for the application.
type Config struct {
	APIPort   string
	LogLevel  string
	LogFormat string

	DBPath       string
	StatutePath  string
	PatternsPath string

	LLMProvider  string
	LLMBaseURL   string
	LLMModelName string
	LLMAPIKey    string
	// LLMPreload asks an OpenAI-compatible router to load the model at startup.
	LLMPreload   bool
	GeminiAPIKey string

	EmbeddingProvider  string
	EmbeddingBaseURL   string
	EmbeddingModelName string

	VectorStore      string
	QdrantURL        string
	QdrantCollection string
	QdrantVectorSize int
	ChromemPath      string

	RedisAddr string
	RedisTTL  time.Duration

	HistoryTurns     int
	VerbatimMaxChars int
	ChunkSize        int
	ChunkOverlap     int
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates required fields.
// If a .env file exists in the current directory or an ancestor, it will be loaded automatically.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	loadDotEnv()

	cfg := &Config{
		APIPort:   getEnv("API_PORT", "9000"),
		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "text")),

		DBPath:       getEnv("DB_PATH", "./data/penalcode-ai.db"),
		StatutePath:  getEnv("STATUTE_PATH", "./data/codigo_penal.md"),
		PatternsPath: getEnv("PATTERNS_PATH", ""),

		LLMProvider:  strings.ToLower(getEnv("LLM_PROVIDER", ProviderOpenAI)),
		LLMBaseURL:   getEnv("LLM_BASE_URL", "http://localhost:8080"),
		LLMAPIKey:    getEnv("LLM_API_KEY", ""),
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),

		EmbeddingProvider: strings.ToLower(getEnv("EMBEDDING_PROVIDER", ProviderOpenAI)),
		EmbeddingBaseURL:  getEnv("EMBEDDING_BASE_URL", "http://localhost:8081"),

		VectorStore:      strings.ToLower(getEnv("VECTOR_STORE", VectorStoreQdrant)),
		QdrantURL:        getEnv("QDRANT_URL", "http://localhost:6334"),
		QdrantCollection: getEnv("QDRANT_COLLECTION", "codigo_penal"),
		ChromemPath:      getEnv("CHROMEM_PATH", "./data/chromem"),

		RedisAddr: getEnv("REDIS_ADDR", ""),
	}

	if err := oneOf("LLM_PROVIDER", cfg.LLMProvider, ProviderOpenAI, ProviderGemini); err != nil {
		return nil, err
	}
	if err := oneOf("EMBEDDING_PROVIDER", cfg.EmbeddingProvider, ProviderOpenAI, ProviderGemini); err != nil {
		return nil, err
	}
	if err := oneOf("VECTOR_STORE", cfg.VectorStore, VectorStoreQdrant, VectorStoreChromem); err != nil {
		return nil, err
	}
	if err := oneOf("LOG_LEVEL", cfg.LogLevel, "debug", "info", "warn", "error"); err != nil {
		return nil, err
	}
	if err := oneOf("LOG_FORMAT", cfg.LogFormat, "text", "json"); err != nil {
		return nil, err
	}

	cfg.LLMModelName = getEnv("LLM_MODEL", defaultFor(cfg.LLMProvider, "Llama-3.1-8B-Instruct", "gemini-1.5-flash"))
	cfg.EmbeddingModelName = getEnv("EMBEDDING_MODEL_NAME", defaultFor(cfg.EmbeddingProvider, "granite-embedding-278m-multilingual", "text-embedding-004"))

	if (cfg.LLMProvider == ProviderGemini || cfg.EmbeddingProvider == ProviderGemini) && cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required when a gemini provider is selected")
	}

	var err error
	if cfg.LLMPreload, err = getBool("LLM_PRELOAD", false); err != nil {
		return nil, err
	}

	// Parse QDRANT_VECTOR_SIZE
	// Note: This must match the output vector size of the embeddings model. If it
	// changes, the collection must be recreated.
	vectorSizeStr := getEnv("QDRANT_VECTOR_SIZE", "")
	if vectorSizeStr == "" {
		return nil, fmt.Errorf("QDRANT_VECTOR_SIZE is required")
	}
	vectorSize, err := strconv.Atoi(vectorSizeStr)
	if err != nil {
		return nil, fmt.Errorf("QDRANT_VECTOR_SIZE must be a valid integer: %w", err)
	}
	if vectorSize <= 0 {
		return nil, fmt.Errorf("QDRANT_VECTOR_SIZE must be greater than 0")
	}
	cfg.QdrantVectorSize = vectorSize

	ttl, err := getInt("REDIS_TTL", 86400)
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("REDIS_TTL must be greater than 0")
	}
	cfg.RedisTTL = time.Duration(ttl) * time.Second

	if cfg.HistoryTurns, err = getInt("HISTORY_TURNS", 6); err != nil {
		return nil, err
	}
	if cfg.VerbatimMaxChars, err = getInt("VERBATIM_MAX_CHARS", 2500); err != nil {
		return nil, err
	}
	if cfg.ChunkSize, err = getInt("CHUNK_SIZE", 800); err != nil {
		return nil, err
	}
	if cfg.ChunkOverlap, err = getInt("CHUNK_OVERLAP", 100); err != nil {
		return nil, err
	}
	if cfg.HistoryTurns < 0 || cfg.VerbatimMaxChars < 0 {
		return nil, fmt.Errorf("HISTORY_TURNS and VERBATIM_MAX_CHARS cannot be negative")
	}
	if cfg.ChunkSize <= 0 {
		return nil, fmt.Errorf("CHUNK_SIZE must be greater than 0")
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		return nil, fmt.Errorf("CHUNK_OVERLAP must be between 0 and CHUNK_SIZE-1")
	}

	// Create the data directory for the database file
	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// SlogLevel returns LogLevel as a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// loadDotEnv loads .env from the current directory, then from the nearest ancestor
// holding one. Errors are ignored: the file is optional.
func loadDotEnv() {
	_ = godotenv.Load()

	wd, err := os.Getwd()
	if err != nil {
		return
	}
	dir := wd
	for i := 0; i < 5; i++ { // Limit search depth
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return // Reached filesystem root
		}
		dir = parent
	}
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return v, nil
}

func getBool(key string, defaultValue bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return v, nil
}

func oneOf(key, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%s must be one of %s, got %q", key, strings.Join(allowed, "|"), value)
}

func defaultFor(provider, openai, gemini string) string {
	if provider == ProviderGemini {
		return gemini
	}
	return openai
}
