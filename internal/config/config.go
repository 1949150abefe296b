package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"document-retrieval/internal/models"
)

const envPrefix = "DOCRAG"

type Config struct {
	RAG      RAGConfig      `yaml:"rag" split_words:"true"`
	EmbedLLM LLMConfig      `yaml:"embed_llm" split_words:"true"`
	Snapshot SnapshotConfig `yaml:"snapshot" split_words:"true"`
	Database DatabaseConfig `yaml:"database" split_words:"true"`
	Log      LogConfig      `yaml:"log" split_words:"true"`
}

type RAGConfig struct {
	ChunkSize    int      `yaml:"chunk_size" split_words:"true"`
	ChunkOverlap int      `yaml:"chunk_overlap" split_words:"true"`
	Separators   []string `yaml:"separators" ignored:"true"`
	Splitter     string   `yaml:"splitter" split_words:"true"`
	TopK         int      `yaml:"top_k" split_words:"true"`
	Strict       bool     `yaml:"strict" split_words:"true"`
	Concurrency  int      `yaml:"concurrency" split_words:"true"`
}

type LLMConfig struct {
	Provider   string `yaml:"provider" split_words:"true"`
	BaseURL    string `yaml:"base_url" split_words:"true"`
	Key        string `yaml:"key" split_words:"true" json:"-"`
	Model      string `yaml:"model" split_words:"true"`
	Dimension  int    `yaml:"dimension" split_words:"true"`
	MaxRetries int    `yaml:"max_retries" split_words:"true"`
}

type SnapshotConfig struct {
	Path          string `yaml:"path" split_words:"true"`
	EncryptionKey string `yaml:"encryption_key" split_words:"true" json:"-"`
	Compress      bool   `yaml:"compress" split_words:"true"`
}

type DatabaseConfig struct {
	DSN   string `yaml:"dsn" split_words:"true" json:"-"`
	Debug bool   `yaml:"debug" split_words:"true"`
}

type LogConfig struct {
	Level  string `yaml:"level" split_words:"true"`
	Format string `yaml:"format" split_words:"true"`
}

const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"

	SplitterRecursive = "recursive"
	SplitterLangchain = "langchain"
)

// Default returns the settings the pipeline runs with when nothing is configured.
func Default() *Config {
	cfg := &Config{RAG: RAGConfig{ChunkOverlap: models.DefaultChunkOverlap}}
	applyDefaults(cfg)
	return cfg
}

// LoadConfig reads the YAML file at path, then applies a .env file and
// DOCRAG_* environment overrides. Both layers start from Default(), so a
// key that is absent keeps its default while an explicit value, including
// chunk_overlap: 0, is kept as written. A missing file yields defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}

	_ = godotenv.Load()
	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	applyDefaults(cfg)
	return cfg, nil
}

// applyDefaults fills settings whose zero value is never valid. Overlap is
// not among them: zero overlap is a legal choice.
func applyDefaults(cfg *Config) {
	if cfg.RAG.ChunkSize == 0 {
		cfg.RAG.ChunkSize = models.DefaultChunkSize
	}
	if len(cfg.RAG.Separators) == 0 {
		cfg.RAG.Separators = append([]string(nil), models.DefaultSeparators...)
	}
	if cfg.RAG.Splitter == "" {
		cfg.RAG.Splitter = SplitterRecursive
	}
	if cfg.RAG.TopK == 0 {
		cfg.RAG.TopK = models.DefaultTopK
	}
	if cfg.RAG.Concurrency == 0 {
		cfg.RAG.Concurrency = models.DefaultConcurrency
	}
	if cfg.EmbedLLM.Provider == "" {
		cfg.EmbedLLM.Provider = ProviderOpenAI
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
}

// Validate checks the settings that would otherwise fail deep inside the pipeline.
func (c *Config) Validate() error {
	switch {
	case c.RAG.ChunkSize <= 0:
		return &models.ConfigurationError{Reason: "rag.chunk_size must be positive"}
	case c.RAG.ChunkOverlap < 0 || c.RAG.ChunkOverlap >= c.RAG.ChunkSize:
		return &models.ConfigurationError{Reason: "rag.chunk_overlap must be in [0, chunk_size)"}
	case c.RAG.TopK <= 0:
		return &models.ConfigurationError{Reason: "rag.top_k must be positive"}
	case c.RAG.Concurrency <= 0:
		return &models.ConfigurationError{Reason: "rag.concurrency must be positive"}
	}

	switch c.RAG.Splitter {
	case SplitterRecursive, SplitterLangchain:
	default:
		return &models.ConfigurationError{Reason: fmt.Sprintf("unknown splitter %q", c.RAG.Splitter)}
	}

	switch c.EmbedLLM.Provider {
	case ProviderOpenAI:
		if c.EmbedLLM.Key == "" {
			return &models.ConfigurationError{Reason: "embed_llm.key is required for the openai provider"}
		}
	case ProviderOllama:
	default:
		return &models.ConfigurationError{Reason: fmt.Sprintf("unknown embedding provider %q", c.EmbedLLM.Provider)}
	}

	if k := len(c.Snapshot.EncryptionKey); k != 0 && k != 32 {
		return &models.ConfigurationError{Reason: "snapshot.encryption_key must be empty or 32 bytes"}
	}
	return nil
}
