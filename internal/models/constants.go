package models

const (
	DefaultChunkSize    = 400
	DefaultChunkOverlap = 20
	DefaultTopK         = 5
	DefaultConcurrency  = 4
)

// DefaultSeparators is the split priority used by the recursive splitter:
// paragraph break, line break, sentence terminators, comma, space, hard cut.
var DefaultSeparators = []string{"\n\n", "\n", ".", "!", "?", ",", " ", ""}

// metadata keys stored alongside every indexed chunk
const (
	MetaDocumentID  = "filename"
	MetaUnitIndex   = "page"
	MetaChunkIndex  = "chunk"
	MetaSourceLabel = "source"
	MetaEmbedder    = "embedder"
	MetaOrdinal     = "ordinal"
	MetaCorpusID    = "corpus"
)
