package parser

import (
	"bytes"

	"github.com/nguyenthenguyen/docx"

	"document-retrieval/internal/models"
)

type docxExtractor struct {
	data       []byte
	documentID string
}

// Extract returns one unit per non-empty w:p paragraph of word/document.xml.
func (e *docxExtractor) Extract() ([]models.RawTextUnit, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(e.data), int64(len(e.data)))
	if err != nil {
		return nil, err
	}
	defer r.Close()

	paragraphs, err := ooxmlParagraphs(r.Editable().GetContent())
	if err != nil {
		return nil, err
	}
	return paragraphUnits(paragraphs, e.documentID), nil
}
