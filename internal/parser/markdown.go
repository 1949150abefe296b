package parser

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"document-retrieval/internal/models"
)

type markdownExtractor struct {
	data       []byte
	documentID string
}

// Extract returns one unit per leaf block (heading, paragraph, list item
// text, code block) with the block markup removed. Inline markup is kept.
func (e *markdownExtractor) Extract() ([]models.RawTextUnit, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	doc := md.Parser().Parse(text.NewReader(e.data))

	var paragraphs []string
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case ast.KindParagraph, ast.KindHeading, ast.KindTextBlock,
			ast.KindCodeBlock, ast.KindFencedCodeBlock:
			paragraphs = append(paragraphs, blockText(n, e.data))
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}
	return paragraphUnits(paragraphs, e.documentID), nil
}

func blockText(n ast.Node, source []byte) string {
	lines := n.Lines()
	parts := make([]string, 0, lines.Len())
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		parts = append(parts, strings.TrimRight(string(seg.Value(source)), "\r\n"))
	}
	return strings.Join(parts, "\n")
}
