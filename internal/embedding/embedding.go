// Package embedding adapts text embedding providers to the narrow contract
// the index and retriever depend on.
package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"document-retrieval/internal/config"
	"document-retrieval/internal/models"
)

// Embedder maps text to a fixed-length vector. Name identifies the embedding
// space: an index only answers queries embedded by an embedder of the same
// name. Dimension is 0 when it is learned from the first vector.
type Embedder interface {
	Name() string
	Dimension() int
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Provider wraps a langchaingo embedder.
type Provider struct {
	name      string
	dimension int
	impl      embeddings.Embedder
}

func (p *Provider) Name() string   { return p.name }
func (p *Provider) Dimension() int { return p.dimension }

func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	return p.impl.EmbedQuery(ctx, text)
}

// NewOpenAI creates an embedder backed by an OpenAI-compatible endpoint.
func NewOpenAI(cfg *config.LLMConfig) (*Provider, error) {
	log.Debug().Interface("config", map[string]string{
		"base_url":        cfg.BaseURL,
		"embedding_model": cfg.Model,
	}).Msg("Creating openai embedder")

	opts := []openai.Option{
		openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Model != "" {
		opts = append(opts, openai.WithEmbeddingModel(cfg.Model))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("init openai client: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}
	return &Provider{name: "openai/" + cfg.Model, dimension: cfg.Dimension, impl: embedder}, nil
}

// NewOllamaEmbedder creates an embedder backed by an Ollama server.
func NewOllamaEmbedder(cfg *config.LLMConfig) (*Provider, error) {
	log.Debug().Interface("config", map[string]string{
		"base_url":        cfg.BaseURL,
		"embedding_model": cfg.Model,
	}).Msg("Creating ollama embedder")

	opts := []ollama.Option{ollama.WithModel(cfg.Model)}
	if cfg.BaseURL != "" {
		opts = append(opts, ollama.WithServerURL(cfg.BaseURL))
	}
	llm, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("init ollama client: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}
	return &Provider{name: "ollama/" + cfg.Model, dimension: cfg.Dimension, impl: embedder}, nil
}

// New builds the configured provider, wrapped with retries when
// cfg.MaxRetries is positive.
func New(cfg *config.LLMConfig) (Embedder, error) {
	var (
		p   *Provider
		err error
	)
	switch cfg.Provider {
	case config.ProviderOpenAI:
		if cfg.Key == "" {
			return nil, &models.ConfigurationError{Reason: "missing openai api key"}
		}
		p, err = NewOpenAI(cfg)
	case config.ProviderOllama:
		p, err = NewOllamaEmbedder(cfg)
	default:
		return nil, &models.ConfigurationError{Reason: fmt.Sprintf("unknown embedding provider %q", cfg.Provider)}
	}
	if err != nil {
		return nil, &models.ConfigurationError{Reason: "embedding provider", Err: err}
	}
	if cfg.MaxRetries > 0 {
		return WithRetry(p, cfg.MaxRetries), nil
	}
	return p, nil
}

type funcEmbedder struct {
	name      string
	dimension int
	fn        func(ctx context.Context, text string) ([]float32, error)
}

// NewFunc adapts a plain embedding function.
func NewFunc(name string, dimension int, fn func(ctx context.Context, text string) ([]float32, error)) Embedder {
	return &funcEmbedder{name: name, dimension: dimension, fn: fn}
}

func (f *funcEmbedder) Name() string   { return f.name }
func (f *funcEmbedder) Dimension() int { return f.dimension }

func (f *funcEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return f.fn(ctx, text)
}
