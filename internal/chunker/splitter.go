// Package chunker splits normalized text units into bounded, overlapping
// chunks and stamps them with provenance metadata.
package chunker

import (
	"strings"
	"unicode/utf8"

	"document-retrieval/internal/models"
)

// Splitter turns one normalized text unit into ordered chunk strings.
type Splitter interface {
	Split(text string) ([]string, error)
}

// Recursive splits on the highest-priority separator present in the text,
// recursing with lower-priority separators into pieces that are still too
// large, then packs the pieces back toward the size bound.
//
// Consecutive chunks share exactly overlap characters: chunk i+1 starts with
// the last overlap characters of chunk i. Removing that prefix from every
// chunk but the first and concatenating the rest yields the input unchanged.
// Lengths are counted in runes.
type Recursive struct {
	maxSize    int
	overlap    int
	separators []string
}

// Option configures a Recursive splitter.
type Option func(*Recursive)

func WithChunkSize(n int) Option {
	return func(r *Recursive) { r.maxSize = n }
}

func WithChunkOverlap(n int) Option {
	return func(r *Recursive) { r.overlap = n }
}

// WithSeparators sets the split priority, highest first. An empty string
// means a hard cut; it is implied after the last separator in any case.
func WithSeparators(seps []string) Option {
	return func(r *Recursive) { r.separators = append([]string(nil), seps...) }
}

// NewRecursive returns a splitter with the package defaults (400/20) unless
// overridden.
func NewRecursive(opts ...Option) *Recursive {
	r := &Recursive{
		maxSize:    models.DefaultChunkSize,
		overlap:    models.DefaultChunkOverlap,
		separators: models.DefaultSeparators,
	}
	for _, o := range opts {
		o(r)
	}
	if r.maxSize <= 0 {
		r.maxSize = models.DefaultChunkSize
	}
	if r.overlap < 0 {
		r.overlap = 0
	}
	if r.overlap >= r.maxSize {
		r.overlap = r.maxSize / 2
	}
	return r
}

// Split never fails; the error is part of the Splitter contract.
func (r *Recursive) Split(text string) ([]string, error) {
	if text == "" {
		return nil, nil
	}
	if runeLen(text) <= r.maxSize {
		return []string{text}, nil
	}

	// every fresh piece must fit next to a carried-over overlap
	budget := r.maxSize - r.overlap
	pieces := r.splitPieces(text, r.separators, budget)
	return r.merge(pieces), nil
}

// splitPieces cuts text into pieces of at most budget runes whose
// concatenation equals text. Separators stay attached to the piece they end.
func (r *Recursive) splitPieces(text string, seps []string, budget int) []string {
	if runeLen(text) <= budget {
		return []string{text}
	}

	for i, sep := range seps {
		if sep == "" {
			break
		}
		if !strings.Contains(text, sep) {
			continue
		}
		var out []string
		for _, part := range strings.SplitAfter(text, sep) {
			if part == "" {
				continue
			}
			if runeLen(part) <= budget {
				out = append(out, part)
				continue
			}
			out = append(out, r.splitPieces(part, seps[i+1:], budget)...)
		}
		return out
	}

	return hardCut(text, budget)
}

// merge packs pieces greedily. A new chunk is seeded with the tail of the
// previous one.
func (r *Recursive) merge(pieces []string) []string {
	var (
		chunks  []string
		current strings.Builder
		size    int
		seeded  int
	)
	for _, p := range pieces {
		n := runeLen(p)
		if size > seeded && size+n > r.maxSize {
			chunk := current.String()
			chunks = append(chunks, chunk)

			tail := lastRunes(chunk, r.overlap)
			current.Reset()
			current.WriteString(tail)
			size = runeLen(tail)
			seeded = size
		}
		current.WriteString(p)
		size += n
	}
	if size > seeded || len(chunks) == 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}

func hardCut(text string, size int) []string {
	runes := []rune(text)
	out := make([]string, 0, len(runes)/size+1)
	for start := 0; start < len(runes); start += size {
		end := min(start+size, len(runes))
		out = append(out, string(runes[start:end]))
	}
	return out
}

func lastRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }
