// Package parser extracts ordered text units from uploaded documents.
//
// Formats form a closed set. Paginated formats yield one unit per page or
// sheet; paragraph formats yield one unit per non-empty paragraph. Adding a
// format means adding a Format constant, its extensions and an Extractor.
package parser

import (
	"path/filepath"
	"strings"

	"document-retrieval/internal/models"
)

type Format int

const (
	FormatUnknown Format = iota
	FormatPDF
	FormatDOCX
	FormatXLSX
	FormatPPTX
	FormatMarkdown
	FormatText
)

var extensions = map[string]Format{
	".pdf":      FormatPDF,
	".docx":     FormatDOCX,
	".xlsx":     FormatXLSX,
	".pptx":     FormatPPTX,
	".md":       FormatMarkdown,
	".markdown": FormatMarkdown,
	".txt":      FormatText,
}

func (f Format) String() string {
	switch f {
	case FormatPDF:
		return "pdf"
	case FormatDOCX:
		return "docx"
	case FormatXLSX:
		return "xlsx"
	case FormatPPTX:
		return "pptx"
	case FormatMarkdown:
		return "markdown"
	case FormatText:
		return "text"
	default:
		return "unknown"
	}
}

// Paginated reports whether units of f are pages, sheets or slides rather
// than paragraphs.
func (f Format) Paginated() bool {
	return f == FormatPDF || f == FormatXLSX || f == FormatPPTX
}

// Extractor produces the text units of one document.
type Extractor interface {
	Extract() ([]models.RawTextUnit, error)
}

// Detect maps a filename to its format by extension, ignoring case.
func Detect(filename string) Format {
	return extensions[strings.ToLower(filepath.Ext(filename))]
}

// NewExtractor returns the extractor for format f, or nil for FormatUnknown.
func NewExtractor(f Format, data []byte, filename string) Extractor {
	switch f {
	case FormatPDF:
		return &pdfExtractor{data: data, documentID: filename}
	case FormatDOCX:
		return &docxExtractor{data: data, documentID: filename}
	case FormatXLSX:
		return &xlsxExtractor{data: data, documentID: filename}
	case FormatPPTX:
		return &pptxExtractor{data: data, documentID: filename}
	case FormatMarkdown:
		return &markdownExtractor{data: data, documentID: filename}
	case FormatText:
		return &textExtractor{data: data, documentID: filename}
	default:
		return nil
	}
}

// Parse extracts the units of one file. The filename is returned as the
// document id. Unsupported extensions yield an *UnsupportedFormatError,
// undecodable bytes a *DecodeError. An empty file has no units.
func Parse(data []byte, filename string) ([]models.RawTextUnit, string, error) {
	format := Detect(filename)
	if format == FormatUnknown {
		return nil, filename, &models.UnsupportedFormatError{Filename: filename, Ext: filepath.Ext(filename)}
	}
	if len(data) == 0 {
		return nil, filename, nil
	}

	units, err := NewExtractor(format, data, filename).Extract()
	if err != nil {
		return nil, filename, &models.DecodeError{Filename: filename, Format: format.String(), Err: err}
	}
	return units, filename, nil
}

// paragraphUnits numbers the non-blank paragraphs from 1.
func paragraphUnits(paragraphs []string, documentID string) []models.RawTextUnit {
	var units []models.RawTextUnit
	for _, p := range paragraphs {
		if strings.TrimSpace(p) == "" {
			continue
		}
		units = append(units, models.RawTextUnit{
			Content:    p,
			UnitIndex:  len(units) + 1,
			DocumentID: documentID,
		})
	}
	return units
}
