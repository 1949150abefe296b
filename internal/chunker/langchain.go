package chunker

import (
	"github.com/tmc/langchaingo/textsplitter"
)

// Langchain delegates to langchaingo's RecursiveCharacter splitter. It
// trims whitespace around chunks and overlaps on whole pieces, so the exact
// overlap and coverage guarantees of Recursive do not hold for it.
type Langchain struct {
	splitter textsplitter.RecursiveCharacter
}

func NewLangchain(maxSize, overlap int, separators []string) *Langchain {
	return &Langchain{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(maxSize),
			textsplitter.WithChunkOverlap(overlap),
			textsplitter.WithSeparators(separators),
		),
	}
}

func (l *Langchain) Split(text string) ([]string, error) {
	if text == "" {
		return nil, nil
	}
	return l.splitter.SplitText(text)
}
