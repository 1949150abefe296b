package models

import "fmt"

// File is one uploaded document: raw bytes plus the name that carries its format.
type File struct {
	Name string
	Data []byte
}

// RawTextUnit is one page or paragraph as extracted, before normalization.
type RawTextUnit struct {
	Content    string
	UnitIndex  int // 1-based
	DocumentID string
}

// Chunk is the atomic retrievable object.
type Chunk struct {
	Text        string
	DocumentID  string
	UnitIndex   int
	ChunkIndex  int // 0-based within its unit
	SourceLabel string
	Ordinal     int // insertion order across the whole corpus
}

// SourceLabel derives the "{unit}-{chunk}" label of a chunk.
func SourceLabel(unitIndex, chunkIndex int) string {
	return fmt.Sprintf("%d-%d", unitIndex, chunkIndex)
}

// ChunkEmbedding pairs a chunk with its vector. It is the persisted form of
// one index entry.
type ChunkEmbedding struct {
	Chunk
	Embedding []float32
}

// Hit is one retrieved chunk with its cosine distance to the query.
type Hit struct {
	Chunk    Chunk
	Distance float32
}

// RetrievalResult is ordered by ascending distance.
type RetrievalResult []Hit

// Chunks returns the chunks of r in rank order.
func (r RetrievalResult) Chunks() []Chunk {
	out := make([]Chunk, len(r))
	for i, h := range r {
		out[i] = h.Chunk
	}
	return out
}
