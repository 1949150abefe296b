// Package retriever answers top-k similarity queries against a built index.
package retriever

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"document-retrieval/internal/embedding"
	"document-retrieval/internal/index"
	"document-retrieval/internal/models"
)

// Search embeds query with embedder and returns the k nearest chunks of ix,
// nearest first. A nil or empty index is a *PreconditionError; an embedder
// other than the one ix was built with is a *ConfigurationError.
func Search(ctx context.Context, ix *index.Index, query string, embedder embedding.Embedder, k int) (models.RetrievalResult, error) {
	if ix == nil || ix.Len() == 0 {
		return nil, &models.PreconditionError{Err: models.ErrNoCorpus}
	}
	if strings.TrimSpace(query) == "" {
		return nil, &models.PreconditionError{Err: models.ErrEmptyQuery}
	}
	if k <= 0 {
		return nil, &models.ConfigurationError{Reason: fmt.Sprintf("k must be positive, got %d", k)}
	}
	if embedder.Name() != ix.Embedder() {
		return nil, &models.ConfigurationError{
			Reason: fmt.Sprintf("index was built with embedder %q, query uses %q", ix.Embedder(), embedder.Name()),
		}
	}

	vec, err := embedder.Embed(ctx, query)
	if err != nil {
		return nil, &models.EmbeddingError{Ordinal: -1, Err: err}
	}
	if len(vec) == 0 {
		return nil, &models.EmbeddingError{Ordinal: -1, Err: fmt.Errorf("empty embedding")}
	}

	hits, err := ix.Search(ctx, vec, k)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("corpus", ix.CorpusID()).Int("k", k).Int("hits", len(hits)).Msg("Retrieved chunks")
	return hits, nil
}
