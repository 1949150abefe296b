package parser

import (
	"errors"
	"strings"
	"unicode/utf8"

	"document-retrieval/internal/models"
)

type textExtractor struct {
	data       []byte
	documentID string
}

// Extract returns one unit per blank-line separated paragraph.
func (e *textExtractor) Extract() ([]models.RawTextUnit, error) {
	if !utf8.Valid(e.data) {
		return nil, errors.New("text is not valid UTF-8")
	}
	content := strings.ReplaceAll(string(e.data), "\r\n", "\n")

	var (
		paragraphs []string
		current    []string
	)
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == "" {
			if len(current) > 0 {
				paragraphs = append(paragraphs, strings.Join(current, "\n"))
				current = nil
			}
			continue
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		paragraphs = append(paragraphs, strings.Join(current, "\n"))
	}
	return paragraphUnits(paragraphs, e.documentID), nil
}
