package index

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"document-retrieval/internal/models"
)

// Records returns every chunk with its stored (normalized) embedding, in
// insertion order.
func (ix *Index) Records(ctx context.Context) ([]models.ChunkEmbedding, error) {
	out := make([]models.ChunkEmbedding, len(ix.chunks))
	for i, c := range ix.chunks {
		doc, err := ix.collection.GetByID(ctx, strconv.Itoa(i))
		if err != nil {
			return nil, fmt.Errorf("failed to read document %d: %v", i, err)
		}
		out[i] = models.ChunkEmbedding{Chunk: c, Embedding: doc.Embedding}
	}
	return out, nil
}

// Export writes the index to filePath in chromem's gob format. A non-empty
// encryptionKey must be 32 bytes and enables AES-GCM encryption.
func (ix *Index) Export(filePath string, compress bool, encryptionKey string) error {
	if filePath == "" {
		return errors.New("snapshot path is required")
	}
	log.Debug().
		Str("path", filePath).
		Bool("compress", compress).
		Bool("encrypted", encryptionKey != "").
		Msg("Exporting index")

	if err := ix.db.ExportToFile(filePath, compress, encryptionKey, collectionName); err != nil {
		return fmt.Errorf("failed to export database: %v", err)
	}
	return nil
}

// Import loads an index written by Export. The embedder name and corpus id
// recorded at build time are restored with it. Compression is detected
// from the file itself.
func Import(ctx context.Context, filePath, encryptionKey string, opts ...Option) (*Index, error) {
	db := chromem.NewDB()
	if err := db.ImportFromFile(filePath, encryptionKey, collectionName); err != nil {
		return nil, fmt.Errorf("failed to import database: %v", err)
	}
	c := db.GetCollection(collectionName, nil)
	if c == nil {
		return nil, fmt.Errorf("snapshot %s has no %q collection", filePath, collectionName)
	}

	n := c.Count()
	records := make([]models.ChunkEmbedding, 0, n)
	embedderName, corpusID := "", ""
	for i := 0; i < n; i++ {
		doc, err := c.GetByID(ctx, strconv.Itoa(i))
		if err != nil {
			return nil, fmt.Errorf("failed to read document %d: %v", i, err)
		}
		chunk, err := chunkFromDocument(doc)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			embedderName = doc.Metadata[models.MetaEmbedder]
			corpusID = doc.Metadata[models.MetaCorpusID]
		}
		records = append(records, models.ChunkEmbedding{Chunk: chunk, Embedding: doc.Embedding})
	}

	opts = append([]Option{WithCorpusID(corpusID)}, opts...)
	ix, err := FromRecords(ctx, records, embedderName, opts...)
	if err != nil {
		return nil, err
	}
	log.Info().Str("path", filePath).Int("chunks", ix.Len()).Str("embedder", embedderName).Msg("Imported index")
	return ix, nil
}

func chunkFromDocument(doc chromem.Document) (models.Chunk, error) {
	atoi := func(key string) (int, error) {
		v, err := strconv.Atoi(doc.Metadata[key])
		if err != nil {
			return 0, fmt.Errorf("document %s: bad %s metadata: %w", doc.ID, key, err)
		}
		return v, nil
	}
	unit, err := atoi(models.MetaUnitIndex)
	if err != nil {
		return models.Chunk{}, err
	}
	chunkIndex, err := atoi(models.MetaChunkIndex)
	if err != nil {
		return models.Chunk{}, err
	}
	ordinal, err := atoi(models.MetaOrdinal)
	if err != nil {
		return models.Chunk{}, err
	}
	return models.Chunk{
		Text:        doc.Content,
		DocumentID:  doc.Metadata[models.MetaDocumentID],
		UnitIndex:   unit,
		ChunkIndex:  chunkIndex,
		SourceLabel: doc.Metadata[models.MetaSourceLabel],
		Ordinal:     ordinal,
	}, nil
}
