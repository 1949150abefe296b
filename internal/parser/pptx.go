package parser

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"document-retrieval/internal/models"
)

var slidePath = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

type pptxExtractor struct {
	data       []byte
	documentID string
}

type slideFile struct {
	number int
	file   *zip.File
}

// Extract returns one unit per slide, numbered by slide. The text of a
// slide is its DrawingML paragraphs, one per line.
func (e *pptxExtractor) Extract() ([]models.RawTextUnit, error) {
	zr, err := zip.NewReader(bytes.NewReader(e.data), int64(len(e.data)))
	if err != nil {
		return nil, err
	}

	var slides []slideFile
	for _, f := range zr.File {
		m := slidePath.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, fmt.Errorf("slide name %s: %w", f.Name, err)
		}
		slides = append(slides, slideFile{number: n, file: f})
	}
	if len(slides) == 0 {
		return nil, fmt.Errorf("no slides found")
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].number < slides[j].number })

	units := make([]models.RawTextUnit, 0, len(slides))
	for i, s := range slides {
		content, err := readZipFile(s.file)
		if err != nil {
			return nil, fmt.Errorf("slide %d: %w", s.number, err)
		}
		paragraphs, err := ooxmlParagraphs(content)
		if err != nil {
			return nil, fmt.Errorf("slide %d: %w", s.number, err)
		}
		units = append(units, models.RawTextUnit{
			Content:    strings.Join(paragraphs, "\n"),
			UnitIndex:  i + 1,
			DocumentID: e.documentID,
		})
	}
	return units, nil
}

func readZipFile(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
