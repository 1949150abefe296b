package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"document-retrieval/internal/models"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 400, cfg.RAG.ChunkSize)
	assert.Equal(t, 20, cfg.RAG.ChunkOverlap)
	assert.Equal(t, 5, cfg.RAG.TopK)
	assert.Equal(t, SplitterRecursive, cfg.RAG.Splitter)
	assert.Equal(t, models.DefaultSeparators, cfg.RAG.Separators)
	assert.Equal(t, ProviderOpenAI, cfg.EmbedLLM.Provider)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfig_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadConfig_YAML(t *testing.T) {
	path := writeConfig(t, `
rag:
  chunk_size: 256
  chunk_overlap: 32
  separators: ["\n\n", " "]
  top_k: 3
  strict: true
embed_llm:
  provider: ollama
  base_url: http://localhost:11434
  model: nomic-embed-text
  dimension: 768
snapshot:
  path: ./data/index.gob
  compress: true
log:
  level: debug
  format: json
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 256, cfg.RAG.ChunkSize)
	assert.Equal(t, 32, cfg.RAG.ChunkOverlap)
	assert.Equal(t, []string{"\n\n", " "}, cfg.RAG.Separators)
	assert.Equal(t, 3, cfg.RAG.TopK)
	assert.True(t, cfg.RAG.Strict)
	assert.Equal(t, models.DefaultConcurrency, cfg.RAG.Concurrency)
	assert.Equal(t, ProviderOllama, cfg.EmbedLLM.Provider)
	assert.Equal(t, "nomic-embed-text", cfg.EmbedLLM.Model)
	assert.Equal(t, 768, cfg.EmbedLLM.Dimension)
	assert.Equal(t, "./data/index.gob", cfg.Snapshot.Path)
	assert.True(t, cfg.Snapshot.Compress)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_ZeroOverlap(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "rag:\n  chunk_overlap: 0\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.RAG.ChunkOverlap)
	assert.Equal(t, 400, cfg.RAG.ChunkSize)

	cfg, err = LoadConfig(writeConfig(t, "rag:\n  chunk_size: 300\n"))
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.RAG.ChunkOverlap, "absent key keeps the default")

	t.Setenv("DOCRAG_RAG_CHUNK_OVERLAP", "0")
	cfg, err = LoadConfig(writeConfig(t, "rag:\n  chunk_overlap: 50\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.RAG.ChunkOverlap)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "rag:\n  chunk_size: 256\nembed_llm:\n  provider: openai\n")
	t.Setenv("DOCRAG_RAG_CHUNK_SIZE", "512")
	t.Setenv("DOCRAG_RAG_TOP_K", "8")
	t.Setenv("DOCRAG_EMBED_LLM_KEY", "sk-test")
	t.Setenv("DOCRAG_DATABASE_DSN", "postgres://u:p@localhost:5432/db?sslmode=disable")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 512, cfg.RAG.ChunkSize)
	assert.Equal(t, 8, cfg.RAG.TopK)
	assert.Equal(t, "sk-test", cfg.EmbedLLM.Key)
	assert.Equal(t, "postgres://u:p@localhost:5432/db?sslmode=disable", cfg.Database.DSN)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "rag: [unclosed"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.EmbedLLM.Key = "sk-test"
		return cfg
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative chunk size", func(c *Config) { c.RAG.ChunkSize = -1 }},
		{"overlap equals size", func(c *Config) { c.RAG.ChunkOverlap = c.RAG.ChunkSize }},
		{"negative overlap", func(c *Config) { c.RAG.ChunkOverlap = -5 }},
		{"zero top_k", func(c *Config) { c.RAG.TopK = 0 }},
		{"zero concurrency", func(c *Config) { c.RAG.Concurrency = 0 }},
		{"unknown splitter", func(c *Config) { c.RAG.Splitter = "sentence" }},
		{"unknown provider", func(c *Config) { c.EmbedLLM.Provider = "cohere" }},
		{"openai without key", func(c *Config) { c.EmbedLLM.Key = "" }},
		{"short encryption key", func(c *Config) { c.Snapshot.EncryptionKey = "too-short" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			var cerr *models.ConfigurationError
			assert.ErrorAs(t, cfg.Validate(), &cerr)
		})
	}
}

func TestValidate_OllamaNeedsNoKey(t *testing.T) {
	cfg := Default()
	cfg.EmbedLLM.Provider = ProviderOllama
	assert.NoError(t, cfg.Validate())
}
