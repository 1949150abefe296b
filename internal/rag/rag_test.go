package rag

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"document-retrieval/internal/chunker"
	"document-retrieval/internal/config"
	"document-retrieval/internal/embedding"
	"document-retrieval/internal/ingest"
	"document-retrieval/internal/models"
	"document-retrieval/internal/testutil"
)

func newSession(embedder embedding.Embedder) *Session {
	cfg := config.Default().RAG
	return NewSession(ingest.NewPipeline(chunker.NewRecursive(), false), embedder, &cfg)
}

func textFile(name, body string) models.File {
	return models.File{Name: name, Data: []byte(body)}
}

func TestSession_SecondIngestReplacesCorpus(t *testing.T) {
	ctx := context.Background()
	s := newSession(testutil.LetterEmbedder("letters"))
	assert.Equal(t, StateNone, s.State())

	_, err := s.Ingest(ctx, []models.File{
		textFile("corpus_a.txt", "Apples and apricots.\n\nAlpaca farming notes."),
	})
	require.NoError(t, err)
	assert.Equal(t, StateBuilt, s.State())
	first := s.Active()

	_, err = s.Ingest(ctx, []models.File{
		textFile("corpus_b_1.txt", "Zebras in the zoo."),
		textFile("corpus_b_2.txt", "Bison grazing.\n\nBuffalo wings."),
	})
	require.NoError(t, err)
	assert.True(t, first.Superseded())
	assert.False(t, s.Active().Superseded())

	result, err := s.Query(ctx, "Apples and apricots.", 10)
	require.NoError(t, err)
	require.Len(t, result, 3)
	for _, h := range result {
		assert.NotEqual(t, "corpus_a.txt", h.Chunk.DocumentID)
	}
}

func TestSession_FailedIngestKeepsPreviousCorpus(t *testing.T) {
	ctx := context.Background()
	s := newSession(&testutil.FailingEmbedder{Marker: "BOOM"})

	report, err := s.Ingest(ctx, []models.File{textFile("good.txt", "Pricing was fair.")})
	require.NoError(t, err)
	require.NotNil(t, report)
	good := s.Active()

	_, err = s.Ingest(ctx, []models.File{textFile("bad.txt", "This paragraph goes BOOM.")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, testutil.ErrInjected))

	assert.Same(t, good, s.Active())
	assert.False(t, good.Superseded())

	result, err := s.Query(ctx, "pricing", 0)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "good.txt", result[0].Chunk.DocumentID)
}

func TestSession_QueryBeforeIngest(t *testing.T) {
	s := newSession(testutil.LetterEmbedder("letters"))

	_, err := s.Query(context.Background(), "anything", 3)
	var perr *models.PreconditionError
	require.ErrorAs(t, err, &perr)
	assert.True(t, errors.Is(err, models.ErrNoCorpus))
}

func TestSession_EmptyCorpusIsNotQueryable(t *testing.T) {
	ctx := context.Background()
	s := newSession(testutil.LetterEmbedder("letters"))

	report, err := s.Ingest(ctx, []models.File{{Name: "empty.docx"}})
	require.NoError(t, err)
	assert.Equal(t, 0, report.Chunks)
	assert.Equal(t, StateBuilt, s.State())

	_, err = s.Query(ctx, "anything", 3)
	assert.True(t, errors.Is(err, models.ErrNoCorpus))
}

func TestSession_Restore(t *testing.T) {
	ctx := context.Background()
	embedder := testutil.LetterEmbedder("letters")
	pipeline := ingest.NewPipeline(chunker.NewRecursive(), false)

	a, _, err := BuildIndex(ctx, []models.File{textFile("a.txt", "first corpus")}, pipeline, embedder, 2)
	require.NoError(t, err)
	b, _, err := BuildIndex(ctx, []models.File{textFile("b.txt", "second corpus")}, pipeline, embedder, 2)
	require.NoError(t, err)
	assert.NotEqual(t, a.CorpusID(), b.CorpusID())

	s := newSession(embedder)
	s.Restore(a)
	s.Restore(b)
	assert.True(t, a.Superseded())
	assert.Same(t, b, s.Active())
}

func TestFormatContext(t *testing.T) {
	result := models.RetrievalResult{
		{Chunk: models.Chunk{Text: "text one", DocumentID: "a.pdf", SourceLabel: "1-0"}, Distance: 0.1},
		{Chunk: models.Chunk{Text: "text two", DocumentID: "b.docx", SourceLabel: "2-1"}, Distance: 0.2},
	}
	assert.Equal(t, "[a.pdf 1-0] text one\n\n[b.docx 2-1] text two\n", FormatContext(result))
	assert.Empty(t, FormatContext(nil))
}

func TestToSchemaDocuments(t *testing.T) {
	result := models.RetrievalResult{
		{Chunk: models.Chunk{Text: "text one", DocumentID: "a.pdf", UnitIndex: 3, ChunkIndex: 1, SourceLabel: "3-1"}, Distance: 0.25},
	}

	docs := ToSchemaDocuments(result)
	require.Len(t, docs, 1)
	assert.Equal(t, "text one", docs[0].PageContent)
	assert.InDelta(t, 0.75, docs[0].Score, 1e-6)
	assert.Equal(t, "a.pdf", docs[0].Metadata[models.MetaDocumentID])
	assert.Equal(t, 3, docs[0].Metadata[models.MetaUnitIndex])
	assert.Equal(t, "3-1", docs[0].Metadata[models.MetaSourceLabel])
}
