package parser

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"

	"document-retrieval/internal/models"
)

type pdfExtractor struct {
	data       []byte
	documentID string
}

// Extract returns one unit per page, numbered by page. Pages without a
// text layer keep their number and produce an empty unit. A page whose
// content stream cannot be read fails the whole document.
func (e *pdfExtractor) Extract() (units []models.RawTextUnit, err error) {
	// the pdf reader panics on some malformed cross-reference tables
	defer func() {
		if r := recover(); r != nil {
			units, err = nil, fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(e.data), int64(len(e.data)))
	if err != nil {
		return nil, err
	}

	numPages := reader.NumPage()
	units = make([]models.RawTextUnit, 0, numPages)
	for i := 1; i <= numPages; i++ {
		unit := models.RawTextUnit{UnitIndex: i, DocumentID: e.documentID}
		page := reader.Page(i)
		if !page.V.IsNull() {
			text, err := page.GetPlainText(nil)
			if err != nil {
				return nil, fmt.Errorf("page %d: %w", i, err)
			}
			unit.Content = text
		}
		units = append(units, unit)
	}
	return units, nil
}
