package chunker

import "document-retrieval/internal/models"

// Tag turns the split pieces of one unit into chunks. Chunk indexes restart
// at 0 for every unit; ordinals continue from firstOrdinal.
func Tag(documentID string, unitIndex int, pieces []string, firstOrdinal int) []models.Chunk {
	chunks := make([]models.Chunk, 0, len(pieces))
	for i, p := range pieces {
		chunks = append(chunks, models.Chunk{
			Text:        p,
			DocumentID:  documentID,
			UnitIndex:   unitIndex,
			ChunkIndex:  i,
			SourceLabel: models.SourceLabel(unitIndex, i),
			Ordinal:     firstOrdinal + i,
		})
	}
	return chunks
}
