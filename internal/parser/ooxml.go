package parser

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

// ooxmlParagraphs walks WordprocessingML or DrawingML and collects the text
// runs of every p element. Paragraphs nested in text boxes are emitted on
// their own, before the paragraph that contains them.
func ooxmlParagraphs(content string) ([]string, error) {
	dec := xml.NewDecoder(strings.NewReader(content))
	var (
		out    []string
		open   []*strings.Builder
		inText bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				open = append(open, &strings.Builder{})
			case "t":
				inText = true
			case "tab":
				if len(open) > 0 {
					open[len(open)-1].WriteByte('\t')
				}
			case "br", "cr":
				if len(open) > 0 {
					open[len(open)-1].WriteByte('\n')
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p":
				if len(open) > 0 {
					out = append(out, open[len(open)-1].String())
					open = open[:len(open)-1]
				}
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText && len(open) > 0 {
				open[len(open)-1].Write(t)
			}
		}
	}
	return out, nil
}
