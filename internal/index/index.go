// Package index embeds chunks and holds them in an in-memory chromem
// collection for nearest-neighbour search.
//
// An Index is immutable once built. Rebuilding produces a new Index; the
// previous one stays usable by readers that still hold it.
package index

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"document-retrieval/internal/embedding"
	"document-retrieval/internal/models"
)

const collectionName = "corpus"

// Index is a built vector index over one corpus.
type Index struct {
	db         *chromem.DB
	collection *chromem.Collection
	chunks     []models.Chunk // insertion order; chromem ids are positions
	embedder   string
	dimension  int
	corpusID   string
	builtAt    time.Time
	superseded atomic.Bool
}

type buildConfig struct {
	concurrency int
	corpusID    string
}

type Option func(*buildConfig)

// WithConcurrency bounds the number of embedding calls in flight.
func WithConcurrency(n int) Option {
	return func(c *buildConfig) { c.concurrency = n }
}

func WithCorpusID(id string) Option {
	return func(c *buildConfig) { c.corpusID = id }
}

// Build embeds every chunk and indexes the result. Any embedding failure,
// or a vector whose dimension differs from the others, aborts the build and
// no index is returned. chunks is not modified.
func Build(ctx context.Context, chunks []models.Chunk, embedder embedding.Embedder, opts ...Option) (*Index, error) {
	cfg := buildConfig{concurrency: models.DefaultConcurrency}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.concurrency <= 0 {
		cfg.concurrency = 1
	}

	start := time.Now()
	vectors := make([][]float32, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.concurrency)
	for i := range chunks {
		g.Go(func() error {
			vec, err := embedder.Embed(gctx, chunks[i].Text)
			if err != nil {
				return &models.EmbeddingError{Ordinal: chunks[i].Ordinal, Err: err}
			}
			vectors[i] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	dim := embedder.Dimension()
	records := make([]models.ChunkEmbedding, len(chunks))
	for i, vec := range vectors {
		if dim == 0 {
			dim = len(vec)
		}
		if err := checkVector(vec, dim); err != nil {
			return nil, &models.EmbeddingError{Ordinal: chunks[i].Ordinal, Err: err}
		}
		records[i] = models.ChunkEmbedding{Chunk: chunks[i], Embedding: vec}
	}

	ix, err := fromRecords(ctx, records, embedder.Name(), dim, cfg)
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("corpus", ix.corpusID).
		Int("chunks", len(chunks)).
		Int("dimension", dim).
		Dur("took", time.Since(start)).
		Msg("Built vector index")
	return ix, nil
}

// FromRecords rebuilds an index from stored embeddings without calling an
// embedder. Records are inserted in ordinal order.
func FromRecords(ctx context.Context, records []models.ChunkEmbedding, embedderName string, opts ...Option) (*Index, error) {
	cfg := buildConfig{concurrency: models.DefaultConcurrency}
	for _, o := range opts {
		o(&cfg)
	}
	sorted := append([]models.ChunkEmbedding(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Ordinal < sorted[j].Ordinal })

	dim := 0
	for _, r := range sorted {
		if dim == 0 {
			dim = len(r.Embedding)
		}
		if err := checkVector(r.Embedding, dim); err != nil {
			return nil, fmt.Errorf("chunk %d: %w", r.Ordinal, err)
		}
	}
	return fromRecords(ctx, sorted, embedderName, dim, cfg)
}

func fromRecords(ctx context.Context, records []models.ChunkEmbedding, embedderName string, dim int, cfg buildConfig) (*Index, error) {
	db := chromem.NewDB()
	c, err := db.CreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %v", err)
	}

	docs := make([]chromem.Document, len(records))
	chunks := make([]models.Chunk, len(records))
	for i, r := range records {
		chunks[i] = r.Chunk
		docs[i] = chromem.Document{
			ID:        strconv.Itoa(i),
			Content:   r.Text,
			Metadata:  metadata(r.Chunk, embedderName, cfg.corpusID),
			Embedding: append([]float32(nil), r.Embedding...),
		}
	}
	if len(docs) > 0 {
		if err := c.AddDocuments(ctx, docs, max(cfg.concurrency, 1)); err != nil {
			return nil, fmt.Errorf("failed to add documents: %v", err)
		}
	}

	return &Index{
		db:         db,
		collection: c,
		chunks:     chunks,
		embedder:   embedderName,
		dimension:  dim,
		corpusID:   cfg.corpusID,
		builtAt:    time.Now(),
	}, nil
}

func checkVector(vec []float32, dim int) error {
	if len(vec) == 0 {
		return errors.New("empty embedding")
	}
	if len(vec) != dim {
		return fmt.Errorf("embedding has dimension %d, want %d", len(vec), dim)
	}
	var norm float64
	for _, v := range vec {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return errors.New("embedding contains NaN or Inf")
		}
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return errors.New("embedding is the zero vector")
	}
	return nil
}

func metadata(c models.Chunk, embedderName, corpusID string) map[string]string {
	return map[string]string{
		models.MetaDocumentID:  c.DocumentID,
		models.MetaUnitIndex:   strconv.Itoa(c.UnitIndex),
		models.MetaChunkIndex:  strconv.Itoa(c.ChunkIndex),
		models.MetaSourceLabel: c.SourceLabel,
		models.MetaEmbedder:    embedderName,
		models.MetaOrdinal:     strconv.Itoa(c.Ordinal),
		models.MetaCorpusID:    corpusID,
	}
}

// Len is the number of indexed chunks.
func (ix *Index) Len() int { return len(ix.chunks) }

// Chunks returns a copy of the indexed chunks in insertion order.
func (ix *Index) Chunks() []models.Chunk { return append([]models.Chunk(nil), ix.chunks...) }

func (ix *Index) Embedder() string { return ix.embedder }
func (ix *Index) Dimension() int { return ix.dimension }
func (ix *Index) CorpusID() string { return ix.corpusID }
func (ix *Index) BuiltAt() time.Time { return ix.builtAt }
func (ix *Index) Superseded() bool { return ix.superseded.Load() }
func (ix *Index) MarkSuperseded() { ix.superseded.Store(true) }

// Search returns the k chunks nearest to vector by cosine distance, nearest
// first, ties in insertion order. k larger than Len returns every chunk.
func (ix *Index) Search(ctx context.Context, vector []float32, k int) (models.RetrievalResult, error) {
	if ix.Len() == 0 {
		return nil, &models.PreconditionError{Err: models.ErrNoCorpus}
	}
	if k <= 0 {
		return nil, &models.ConfigurationError{Reason: fmt.Sprintf("k must be positive, got %d", k)}
	}
	if len(vector) != ix.dimension {
		return nil, &models.ConfigurationError{
			Reason: fmt.Sprintf("query vector has dimension %d, index has %d", len(vector), ix.dimension),
		}
	}

	// rank the whole collection so ties at the cut-off resolve by ordinal
	results, err := ix.collection.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: append([]float32(nil), vector...),
		NResults:       ix.collection.Count(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %v", err)
	}

	type ranked struct {
		pos      int
		distance float32
	}
	ranking := make([]ranked, 0, len(results))
	for _, r := range results {
		pos, err := strconv.Atoi(r.ID)
		if err != nil || pos < 0 || pos >= len(ix.chunks) {
			return nil, fmt.Errorf("unexpected document id %q", r.ID)
		}
		ranking = append(ranking, ranked{pos: pos, distance: 1 - r.Similarity})
	}
	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].distance != ranking[j].distance {
			return ranking[i].distance < ranking[j].distance
		}
		return ranking[i].pos < ranking[j].pos
	})

	n := min(k, len(ranking))
	hits := make(models.RetrievalResult, n)
	for i := 0; i < n; i++ {
		hits[i] = models.Hit{Chunk: ix.chunks[ranking[i].pos], Distance: ranking[i].distance}
	}
	return hits, nil
}
