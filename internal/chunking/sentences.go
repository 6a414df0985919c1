package chunking

import (
	"strings"
	"unicode"
)

type sentence struct {
	text  string
	start int // character offset of the first non-space character
	end   int // character offset just past the last non-space character
}

// splitSentences breaks text after '.', '!' or '?' when the terminator is
// followed by whitespace. Abbreviations are not special-cased.
func splitSentences(text string) []sentence {
	runes := []rune(text)
	var out []sentence

	emit := func(from, to int) {
		for from < to && unicode.IsSpace(runes[from]) {
			from++
		}
		for to > from && unicode.IsSpace(runes[to-1]) {
			to--
		}
		if from >= to {
			return
		}
		out = append(out, sentence{
			text:  strings.TrimSpace(string(runes[from:to])),
			start: from,
			end:   to,
		})
	}

	segStart := 0
	for i := 0; i < len(runes); i++ {
		if !isTerminator(runes[i]) || i+1 >= len(runes) || !unicode.IsSpace(runes[i+1]) {
			continue
		}
		emit(segStart, i+1)

		j := i + 1
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}
		segStart = j
		i = j - 1
	}
	emit(segStart, len(runes))

	return out
}

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
