// Package rag ties ingestion, indexing and retrieval into a session that
// owns the active corpus.
package rag

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/schema"

	"document-retrieval/internal/config"
	"document-retrieval/internal/embedding"
	"document-retrieval/internal/index"
	"document-retrieval/internal/ingest"
	"document-retrieval/internal/models"
	"document-retrieval/internal/retriever"
)

type State int

const (
	StateNone State = iota
	StateBuilt
)

func (s State) String() string {
	if s == StateBuilt {
		return "built"
	}
	return "none"
}

// BuildIndex runs the ingestion pipeline over files and embeds the result.
// It either returns a complete index or an error; nothing partial escapes.
func BuildIndex(ctx context.Context, files []models.File, pipeline *ingest.Pipeline, embedder embedding.Embedder, concurrency int) (*index.Index, *ingest.Report, error) {
	chunks, report, err := pipeline.Run(ctx, files)
	if err != nil {
		return nil, report, err
	}
	ix, err := index.Build(ctx, chunks, embedder,
		index.WithConcurrency(concurrency),
		index.WithCorpusID(report.CorpusID),
	)
	if err != nil {
		return nil, report, err
	}
	return ix, report, nil
}

// Session holds the active index for one conversation. Ingest replaces the
// index wholesale; queries already running keep the index they started with.
type Session struct {
	pipeline    *ingest.Pipeline
	embedder    embedding.Embedder
	concurrency int
	topK        int
	active      atomic.Pointer[index.Index]
}

func NewSession(pipeline *ingest.Pipeline, embedder embedding.Embedder, cfg *config.RAGConfig) *Session {
	return &Session{
		pipeline:    pipeline,
		embedder:    embedder,
		concurrency: cfg.Concurrency,
		topK:        cfg.TopK,
	}
}

// State reports whether a corpus has been ingested.
func (s *Session) State() State {
	if s.active.Load() == nil {
		return StateNone
	}
	return StateBuilt
}

// Active returns the current index, or nil.
func (s *Session) Active() *index.Index { return s.active.Load() }

// Ingest builds a new index from files and makes it active. On error the
// previous index, if any, stays active.
func (s *Session) Ingest(ctx context.Context, files []models.File) (*ingest.Report, error) {
	ix, report, err := BuildIndex(ctx, files, s.pipeline, s.embedder, s.concurrency)
	if err != nil {
		log.Error().Err(err).Msg("Ingestion failed, keeping previous corpus")
		return report, err
	}
	s.Restore(ix)
	return report, nil
}

// Restore makes ix the active index, superseding the previous one.
func (s *Session) Restore(ix *index.Index) {
	if prev := s.active.Swap(ix); prev != nil {
		prev.MarkSuperseded()
		log.Debug().Str("corpus", prev.CorpusID()).Msg("Superseded corpus")
	}
}

// Query returns the k chunks closest to query; k <= 0 uses the configured top_k.
func (s *Session) Query(ctx context.Context, query string, k int) (models.RetrievalResult, error) {
	if k <= 0 {
		k = s.topK
	}
	return retriever.Search(ctx, s.active.Load(), query, s.embedder, k)
}

// FormatContext renders hits as the context block of a prompt, one passage
// per hit labelled with its file and source.
func FormatContext(result models.RetrievalResult) string {
	var b strings.Builder
	for i, h := range result {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "[%s %s] %s\n", h.Chunk.DocumentID, h.Chunk.SourceLabel, h.Chunk.Text)
	}
	return b.String()
}

// ToSchemaDocuments converts hits for langchaingo chains. Score is the
// cosine similarity.
func ToSchemaDocuments(result models.RetrievalResult) []schema.Document {
	docs := make([]schema.Document, len(result))
	for i, h := range result {
		docs[i] = schema.Document{
			PageContent: h.Chunk.Text,
			Score:       1 - h.Distance,
			Metadata: map[string]any{
				models.MetaUnitIndex:   h.Chunk.UnitIndex,
				models.MetaChunkIndex:  h.Chunk.ChunkIndex,
				models.MetaSourceLabel: h.Chunk.SourceLabel,
				models.MetaDocumentID:  h.Chunk.DocumentID,
			},
		}
	}
	return docs
}
