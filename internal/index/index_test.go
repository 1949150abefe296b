package index

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"document-retrieval/internal/embedding"
	"document-retrieval/internal/models"
	"document-retrieval/internal/testutil"
)

func makeChunks(texts ...string) []models.Chunk {
	chunks := make([]models.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = models.Chunk{
			Text:        text,
			DocumentID:  "doc.txt",
			UnitIndex:   i + 1,
			ChunkIndex:  0,
			SourceLabel: models.SourceLabel(i+1, 0),
			Ordinal:     i,
		}
	}
	return chunks
}

func queryVector(t *testing.T, text string) []float32 {
	t.Helper()
	vec, err := testutil.LetterEmbedder("letters").Embed(context.Background(), text)
	require.NoError(t, err)
	return vec
}

func TestBuild(t *testing.T) {
	ctx := context.Background()
	chunks := makeChunks("apple apple apple", "zebra quiz", "banana bread")

	ix, err := Build(ctx, chunks, testutil.LetterEmbedder("letters"), WithCorpusID("corpus-1"), WithConcurrency(2))
	require.NoError(t, err)

	assert.Equal(t, 3, ix.Len())
	assert.Equal(t, "letters", ix.Embedder())
	assert.Equal(t, testutil.LetterDimension, ix.Dimension())
	assert.Equal(t, "corpus-1", ix.CorpusID())
	assert.False(t, ix.BuiltAt().IsZero())
	assert.False(t, ix.Superseded())
	assert.Equal(t, chunks, ix.Chunks())
}

func TestBuild_Empty(t *testing.T) {
	ix, err := Build(context.Background(), nil, testutil.LetterEmbedder("letters"))
	require.NoError(t, err)
	assert.Equal(t, 0, ix.Len())

	_, err = ix.Search(context.Background(), queryVector(t, "anything"), 3)
	var perr *models.PreconditionError
	require.ErrorAs(t, err, &perr)
	assert.True(t, errors.Is(err, models.ErrNoCorpus))
}

func TestBuild_EmbeddingFailureAbortsBuild(t *testing.T) {
	chunks := makeChunks("fine one", "fine two", "this one will BOOM", "fine four")
	embedder := &testutil.FailingEmbedder{Marker: "BOOM"}

	ix, err := Build(context.Background(), chunks, embedder, WithConcurrency(1))
	require.Error(t, err)
	assert.Nil(t, ix)

	var eerr *models.EmbeddingError
	require.ErrorAs(t, err, &eerr)
	assert.Equal(t, 2, eerr.Ordinal)
	assert.True(t, errors.Is(err, testutil.ErrInjected))
}

func TestBuild_RejectsBadVectors(t *testing.T) {
	tests := []struct {
		name string
		fn   func(text string) []float32
	}{
		{"mixed dimensions", func(text string) []float32 {
			if text == "odd" {
				return []float32{1, 2, 3, 4}
			}
			return []float32{1, 2, 3}
		}},
		{"zero vector", func(text string) []float32 {
			if text == "odd" {
				return []float32{0, 0, 0}
			}
			return []float32{1, 2, 3}
		}},
		{"empty vector", func(text string) []float32 {
			if text == "odd" {
				return nil
			}
			return []float32{1, 2, 3}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			embedder := embedding.NewFunc("fixed", 0, func(_ context.Context, text string) ([]float32, error) {
				return tt.fn(text), nil
			})

			ix, err := Build(context.Background(), makeChunks("even", "odd"), embedder)
			assert.Nil(t, ix)
			var eerr *models.EmbeddingError
			require.ErrorAs(t, err, &eerr)
			assert.Equal(t, 1, eerr.Ordinal)
		})
	}
}

func TestBuild_DoesNotModifyChunks(t *testing.T) {
	chunks := makeChunks("one", "two")
	before := append([]models.Chunk(nil), chunks...)

	_, err := Build(context.Background(), chunks, testutil.LetterEmbedder("letters"))
	require.NoError(t, err)
	assert.Equal(t, before, chunks)
}

func TestSearch_OrdersByDistance(t *testing.T) {
	ctx := context.Background()
	ix, err := Build(ctx, makeChunks("zebra zone", "apple apple", "apple pie zebra"), testutil.LetterEmbedder("letters"))
	require.NoError(t, err)

	hits, err := ix.Search(ctx, queryVector(t, "apple apple"), 3)
	require.NoError(t, err)
	require.Len(t, hits, 3)

	assert.Equal(t, "apple apple", hits[0].Chunk.Text)
	assert.InDelta(t, 0, hits[0].Distance, 1e-5)
	for i := 1; i < len(hits); i++ {
		assert.LessOrEqual(t, hits[i-1].Distance, hits[i].Distance)
	}
}

func TestSearch_TiesKeepInsertionOrder(t *testing.T) {
	ctx := context.Background()
	ix, err := Build(ctx, makeChunks("same words", "other stuff", "same words", "same words"), testutil.LetterEmbedder("letters"))
	require.NoError(t, err)

	hits, err := ix.Search(ctx, queryVector(t, "same words"), 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, 0, hits[0].Chunk.Ordinal)
	assert.Equal(t, 2, hits[1].Chunk.Ordinal)
}

func TestSearch_KLargerThanIndex(t *testing.T) {
	ctx := context.Background()
	ix, err := Build(ctx, makeChunks("one", "two", "three"), testutil.LetterEmbedder("letters"))
	require.NoError(t, err)

	hits, err := ix.Search(ctx, queryVector(t, "two"), 5)
	require.NoError(t, err)
	assert.Len(t, hits, 3)
}

func TestSearch_InvalidArguments(t *testing.T) {
	ctx := context.Background()
	ix, err := Build(ctx, makeChunks("one"), testutil.LetterEmbedder("letters"))
	require.NoError(t, err)

	var cerr *models.ConfigurationError
	_, err = ix.Search(ctx, queryVector(t, "one"), 0)
	assert.ErrorAs(t, err, &cerr)

	_, err = ix.Search(ctx, []float32{1, 2, 3}, 1)
	assert.ErrorAs(t, err, &cerr)
}

func TestRecordsRoundTrip(t *testing.T) {
	ctx := context.Background()
	ix, err := Build(ctx, makeChunks("alpha", "beta", "gamma"), testutil.LetterEmbedder("letters"), WithCorpusID("c1"))
	require.NoError(t, err)

	records, err := ix.Records(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)

	// shuffled input comes back in ordinal order
	records[0], records[2] = records[2], records[0]
	restored, err := FromRecords(ctx, records, ix.Embedder(), WithCorpusID("c1"))
	require.NoError(t, err)
	assert.Equal(t, ix.Chunks(), restored.Chunks())
	assert.Equal(t, ix.Dimension(), restored.Dimension())

	want, err := ix.Search(ctx, queryVector(t, "beta"), 3)
	require.NoError(t, err)
	got, err := restored.Search(ctx, queryVector(t, "beta"), 3)
	require.NoError(t, err)
	assert.Equal(t, want.Chunks(), got.Chunks())
}

func TestFromRecords_RejectsMixedDimensions(t *testing.T) {
	records := []models.ChunkEmbedding{
		{Chunk: makeChunks("a")[0], Embedding: []float32{1, 0}},
		{Chunk: models.Chunk{Text: "b", Ordinal: 1}, Embedding: []float32{1, 0, 0}},
	}
	_, err := FromRecords(context.Background(), records, "letters")
	assert.Error(t, err)
}

func TestExportImport(t *testing.T) {
	ctx := context.Background()
	ix, err := Build(ctx, makeChunks("apple apple", "zebra zone", "banana"), testutil.LetterEmbedder("letters"), WithCorpusID("c42"))
	require.NoError(t, err)

	tests := []struct {
		name     string
		file     string
		compress bool
		key      string
	}{
		{"plain", "index.gob", false, ""},
		{"compressed", "index.gob.gz", true, ""},
		{"encrypted", "index.gob.enc", false, "0123456789abcdef0123456789abcdef"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			require.NoError(t, ix.Export(path, tt.compress, tt.key))

			restored, err := Import(ctx, path, tt.key)
			require.NoError(t, err)
			assert.Equal(t, ix.Len(), restored.Len())
			assert.Equal(t, "letters", restored.Embedder())
			assert.Equal(t, "c42", restored.CorpusID())
			assert.Equal(t, ix.Chunks(), restored.Chunks())

			hits, err := restored.Search(ctx, queryVector(t, "apple apple"), 1)
			require.NoError(t, err)
			assert.Equal(t, "apple apple", hits[0].Chunk.Text)
		})
	}
}

func TestImport_WrongKey(t *testing.T) {
	ctx := context.Background()
	ix, err := Build(ctx, makeChunks("apple"), testutil.LetterEmbedder("letters"))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "index.gob.enc")
	require.NoError(t, ix.Export(path, false, "0123456789abcdef0123456789abcdef"))

	_, err = Import(ctx, path, "fedcba9876543210fedcba9876543210")
	assert.Error(t, err)
}

func TestMarkSuperseded(t *testing.T) {
	ix, err := Build(context.Background(), makeChunks("one"), testutil.LetterEmbedder("letters"))
	require.NoError(t, err)
	ix.MarkSuperseded()
	assert.True(t, ix.Superseded())
}
