package embedding

import (
	"strings"
	"unicode"
)

// MaxTextLength is the number of characters kept after preprocessing.
const MaxTextLength = 500

// Preprocess normalizes text before embedding: whitespace runs collapse to a
// single space, characters other than letters, digits, underscore, space and
// . , ! ? ; : - are removed, and the result is cut to MaxTextLength
// characters and trimmed.
func Preprocess(text string) string {
	if text == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(text))
	inSpace := false
	n := 0
	for _, r := range text {
		if unicode.IsSpace(r) {
			if inSpace {
				continue
			}
			inSpace = true
			r = ' '
		} else {
			inSpace = false
			if !keepRune(r) {
				continue
			}
		}
		if n == MaxTextLength {
			break
		}
		b.WriteRune(r)
		n++
	}
	return strings.TrimSpace(b.String())
}

func keepRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsNumber(r) {
		return true
	}
	switch r {
	case '_', '.', ',', '!', '?', ';', ':', '-':
		return true
	}
	return false
}
