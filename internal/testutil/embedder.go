// Package testutil holds fakes and fixtures shared by package tests.
package testutil

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"unicode"

	"document-retrieval/internal/embedding"
)

// LetterDimension is the vector size produced by LetterEmbedder.
const LetterDimension = 27

// LetterEmbedder embeds text as letter frequencies a..z plus a constant
// component, so no vector is zero and similar words land close together.
func LetterEmbedder(name string) embedding.Embedder {
	return embedding.NewFunc(name, LetterDimension, func(_ context.Context, text string) ([]float32, error) {
		return letterVector(text), nil
	})
}

func letterVector(text string) []float32 {
	vec := make([]float32, LetterDimension)
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' {
			vec[r-'a']++
		}
	}
	vec[26] = 0.01
	return vec
}

var ErrInjected = errors.New("injected embedding failure")

// FailingEmbedder behaves like LetterEmbedder but fails for any text
// containing marker. Calls counts every Embed call.
type FailingEmbedder struct {
	Marker string
	Calls  atomic.Int64
}

func (f *FailingEmbedder) Name() string   { return "letters" }
func (f *FailingEmbedder) Dimension() int { return LetterDimension }

func (f *FailingEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.Calls.Add(1)
	if strings.Contains(text, f.Marker) {
		return nil, ErrInjected
	}
	return letterVector(text), nil
}

// Filler returns n characters of sentence-structured English-like text.
func Filler(n int) string {
	const sentence = "The panel discussed pricing and packaging. "
	var b strings.Builder
	for b.Len() < n {
		b.WriteString(sentence)
	}
	return strings.TrimRightFunc(b.String()[:n], unicode.IsSpace)
}
