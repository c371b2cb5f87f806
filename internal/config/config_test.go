package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

var envVars = []string{
	"API_PORT", "LOG_LEVEL", "LOG_FORMAT", "DB_PATH", "STATUTE_PATH", "PATTERNS_PATH",
	"LLM_PROVIDER", "LLM_BASE_URL", "LLM_MODEL", "LLM_API_KEY", "LLM_PRELOAD", "GEMINI_API_KEY",
	"EMBEDDING_PROVIDER", "EMBEDDING_BASE_URL", "EMBEDDING_MODEL_NAME",
	"VECTOR_STORE", "QDRANT_URL", "QDRANT_COLLECTION", "QDRANT_VECTOR_SIZE", "CHROMEM_PATH",
	"REDIS_ADDR", "REDIS_TTL", "HISTORY_TURNS", "VERBATIM_MAX_CHARS", "CHUNK_SIZE", "CHUNK_OVERLAP",
}

// isolate clears every config variable for the test and moves to a directory without
// a .env file. Empty values fall back to defaults.
func isolate(t *testing.T) {
	t.Helper()
	for _, key := range envVars {
		t.Setenv(key, "")
	}
	t.Chdir(t.TempDir())
	t.Setenv("DB_PATH", filepath.Join(t.TempDir(), "data", "test.db"))
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		wantErr     bool
		checkConfig func(*testing.T, *Config)
	}{
		{
			name: "default values for optional fields",
			env:  map[string]string{"QDRANT_VECTOR_SIZE": "768"},
			checkConfig: func(t *testing.T, cfg *Config) {
				if cfg.APIPort != "9000" || cfg.LogLevel != "info" || cfg.LogFormat != "text" {
					t.Errorf("server defaults = %+v", cfg)
				}
				if cfg.LLMProvider != ProviderOpenAI || cfg.LLMModelName != "Llama-3.1-8B-Instruct" || cfg.LLMPreload {
					t.Errorf("LLM defaults = %+v", cfg)
				}
				if cfg.EmbeddingBaseURL != "http://localhost:8081" || cfg.EmbeddingModelName != "granite-embedding-278m-multilingual" {
					t.Errorf("embedding defaults = %+v", cfg)
				}
				if cfg.VectorStore != VectorStoreQdrant || cfg.QdrantCollection != "codigo_penal" || cfg.QdrantVectorSize != 768 {
					t.Errorf("vector store defaults = %+v", cfg)
				}
				if cfg.RedisAddr != "" || cfg.RedisTTL != 24*time.Hour {
					t.Errorf("redis defaults = %+v", cfg)
				}
				if cfg.HistoryTurns != 6 || cfg.VerbatimMaxChars != 2500 || cfg.ChunkSize != 800 || cfg.ChunkOverlap != 100 {
					t.Errorf("retrieval defaults = %+v", cfg)
				}
			},
		},
		{
			name: "custom values",
			env: map[string]string{
				"QDRANT_VECTOR_SIZE": "384",
				"LOG_LEVEL":          "DEBUG",
				"LOG_FORMAT":         "json",
				"VECTOR_STORE":       "chromem",
				"REDIS_ADDR":         "localhost:6379",
				"REDIS_TTL":          "60",
				"LLM_MODEL":          "custom-model",
				"LLM_PRELOAD":        "true",
				"CHUNK_SIZE":         "1000",
				"CHUNK_OVERLAP":      "200",
			},
			checkConfig: func(t *testing.T, cfg *Config) {
				if cfg.LogLevel != "debug" || cfg.LogFormat != "json" || cfg.VectorStore != VectorStoreChromem {
					t.Errorf("Load() = %+v", cfg)
				}
				if cfg.RedisAddr != "localhost:6379" || cfg.RedisTTL != time.Minute {
					t.Errorf("redis = %q %v", cfg.RedisAddr, cfg.RedisTTL)
				}
				if cfg.LLMModelName != "custom-model" || !cfg.LLMPreload || cfg.ChunkSize != 1000 || cfg.ChunkOverlap != 200 {
					t.Errorf("Load() = %+v", cfg)
				}
			},
		},
		{
			name: "gemini providers use gemini model defaults",
			env: map[string]string{
				"QDRANT_VECTOR_SIZE": "768",
				"LLM_PROVIDER":       "gemini",
				"EMBEDDING_PROVIDER": "gemini",
				"GEMINI_API_KEY":     "key",
			},
			checkConfig: func(t *testing.T, cfg *Config) {
				if cfg.LLMModelName != "gemini-1.5-flash" || cfg.EmbeddingModelName != "text-embedding-004" {
					t.Errorf("Load() models = %q %q", cfg.LLMModelName, cfg.EmbeddingModelName)
				}
			},
		},
		{name: "missing QDRANT_VECTOR_SIZE", env: map[string]string{}, wantErr: true},
		{name: "invalid QDRANT_VECTOR_SIZE", env: map[string]string{"QDRANT_VECTOR_SIZE": "invalid"}, wantErr: true},
		{name: "zero QDRANT_VECTOR_SIZE", env: map[string]string{"QDRANT_VECTOR_SIZE": "0"}, wantErr: true},
		{name: "negative QDRANT_VECTOR_SIZE", env: map[string]string{"QDRANT_VECTOR_SIZE": "-1"}, wantErr: true},
		{name: "unknown provider", env: map[string]string{"QDRANT_VECTOR_SIZE": "768", "LLM_PROVIDER": "anthropic"}, wantErr: true},
		{name: "unknown vector store", env: map[string]string{"QDRANT_VECTOR_SIZE": "768", "VECTOR_STORE": "pinecone"}, wantErr: true},
		{name: "gemini without key", env: map[string]string{"QDRANT_VECTOR_SIZE": "768", "EMBEDDING_PROVIDER": "gemini"}, wantErr: true},
		{name: "invalid log level", env: map[string]string{"QDRANT_VECTOR_SIZE": "768", "LOG_LEVEL": "verbose"}, wantErr: true},
		{name: "overlap not below size", env: map[string]string{"QDRANT_VECTOR_SIZE": "768", "CHUNK_SIZE": "100", "CHUNK_OVERLAP": "100"}, wantErr: true},
		{name: "invalid REDIS_TTL", env: map[string]string{"QDRANT_VECTOR_SIZE": "768", "REDIS_TTL": "1d"}, wantErr: true},
		{name: "invalid LLM_PRELOAD", env: map[string]string{"QDRANT_VECTOR_SIZE": "768", "LLM_PRELOAD": "sometimes"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()

			if tt.wantErr {
				if err == nil {
					t.Errorf("Load() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() unexpected error: %v", err)
			}
			if tt.checkConfig != nil {
				tt.checkConfig(t, cfg)
			}
		})
	}
}

func TestLoad_CreatesDataDirectory(t *testing.T) {
	isolate(t)

	dbPath := filepath.Join(t.TempDir(), "test", "db.db")
	t.Setenv("QDRANT_VECTOR_SIZE", "768")
	t.Setenv("DB_PATH", dbPath)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// Check that directory was created
	if _, err := os.Stat(filepath.Dir(dbPath)); os.IsNotExist(err) {
		t.Errorf("Load() should create data directory: %v", err)
	}
	if cfg.DBPath != dbPath {
		t.Errorf("Load() DBPath = %v, want %v", cfg.DBPath, dbPath)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	isolate(t)

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("QDRANT_VECTOR_SIZE=512\nQDRANT_COLLECTION=from_dotenv\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(dir, "cmd", "api")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	t.Chdir(nested)
	// Variables already set take precedence over the file.
	t.Setenv("QDRANT_COLLECTION", "from_env")
	// godotenv never overrides a variable that exists, even when empty. isolate has
	// registered the restore, so unsetting here is safe.
	_ = os.Unsetenv("QDRANT_VECTOR_SIZE")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.QdrantVectorSize != 512 {
		t.Errorf("QdrantVectorSize = %d, want 512 from .env", cfg.QdrantVectorSize)
	}
	if cfg.QdrantCollection != "from_env" {
		t.Errorf("QdrantCollection = %q, want from_env", cfg.QdrantCollection)
	}
}

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		defaultValue string
		want         string
	}{
		{name: "env var set", value: "set-value", defaultValue: "default", want: "set-value"},
		{name: "empty env var uses default", value: "", defaultValue: "default", want: "default"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_ENV_VAR", tt.value)
			got := getEnv("TEST_ENV_VAR", tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnv(%q, %q) = %q, want %q", "TEST_ENV_VAR", tt.defaultValue, got, tt.want)
			}
		})
	}
}

func TestConfig_SlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		if got := (&Config{LogLevel: tt.level}).SlogLevel(); got != tt.want {
			t.Errorf("SlogLevel(%q) = %v, want %v", tt.level, got, tt.want)
		}
	}
}
