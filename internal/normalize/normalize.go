// Package normalize cleans extracted text before it is split into chunks.
package normalize

import (
	"strings"
	"unicode"
)

// Normalize rejoins hyphen-wrapped words, folds single line breaks into
// spaces and reduces every run of blank lines to one "\n\n" separator.
// Whitespace-only input returns "".
//
// Normalize is idempotent: its output contains no single line breaks, so
// nothing is left for a second pass to join.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	text = joinHyphenated(text)

	var (
		paragraphs []string
		current    []string
	)
	flush := func() {
		if len(current) == 0 {
			return
		}
		p := strings.TrimSpace(strings.Join(current, " "))
		if p != "" {
			paragraphs = append(paragraphs, p)
		}
		current = current[:0]
	}
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		current = append(current, line)
	}
	flush()

	return strings.Join(paragraphs, "\n\n")
}

// joinHyphenated drops "-\n" between two word characters.
func joinHyphenated(text string) string {
	if !strings.Contains(text, "-\n") {
		return text
	}
	runes := []rune(text)
	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(runes); i++ {
		if runes[i] == '-' && i > 0 && i+2 < len(runes) && runes[i+1] == '\n' &&
			isWord(runes[i-1]) && isWord(runes[i+2]) {
			i++
			continue
		}
		b.WriteRune(runes[i])
	}
	return b.String()
}

func isWord(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
