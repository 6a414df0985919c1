// Package chunking splits extracted document text into overlapping,
// sentence-aligned chunks sized for embedding.
package chunking

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// DefaultChunkSize is the target chunk length in characters.
	DefaultChunkSize = 500

	// DefaultOverlap is the number of trailing characters of a closed chunk
	// that seed the next one.
	DefaultOverlap = 50

	// MinChunkLength is the floor below which chunks are discarded.
	// Chunks must be strictly longer than this many characters.
	MinChunkLength = 10
)

// Chunk is one segment of a document.
// StartChar and EndChar are character offsets into the original text spanning
// the sentences that begin in this chunk; the overlap seed is not included.
type Chunk struct {
	Index     int
	Text      string
	StartChar int
	EndChar   int
}

// Chunker splits text into chunks of roughly Size characters.
type Chunker struct {
	size    int
	overlap int
}

// New creates a Chunker. A size of zero or less selects DefaultChunkSize and
// a negative overlap is treated as zero.
func New(size, overlap int) *Chunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	return &Chunker{size: size, overlap: overlap}
}

// Size returns the configured chunk size.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the configured overlap.
func (c *Chunker) Overlap() int { return c.overlap }

// CreateChunks splits text with the given size and overlap.
func CreateChunks(text string, size, overlap int) []string {
	return New(size, overlap).CreateChunks(text)
}

// CreateChunks returns the chunk texts in document order.
func (c *Chunker) CreateChunks(text string) []string {
	chunks := c.Split(text)
	out := make([]string, len(chunks))
	for i, ch := range chunks {
		out[i] = ch.Text
	}
	return out
}

// Split returns the chunks of text with their indexes and offsets.
// Empty or whitespace-only text yields no chunks; any other text yields at
// least one.
func (c *Chunker) Split(text string) []Chunk {
	if strings.TrimSpace(text) == "" {
		return []Chunk{}
	}

	var (
		chunks  []Chunk
		current []rune
		length  int
		start   = -1
		end     int
	)

	closeChunk := func() {
		chunks = append(chunks, Chunk{
			Text:      strings.TrimSpace(string(current)),
			StartChar: start,
			EndChar:   end,
		})
	}

	for _, s := range splitSentences(text) {
		sentence := []rune(s.text)
		sentenceLen := len(sentence)

		if length+sentenceLen > c.size && len(current) > 0 {
			closeChunk()

			// The seed may cut through a word; downstream consumers accept this.
			if c.overlap > 0 && len(current) > c.overlap {
				seed := current[len(current)-c.overlap:]
				next := make([]rune, 0, len(seed)+1+sentenceLen)
				next = append(next, seed...)
				next = append(next, ' ')
				next = append(next, sentence...)
				current = next
				length = len(current)
			} else {
				current = append([]rune(nil), sentence...)
				length = sentenceLen
			}
			start, end = s.start, s.end
			continue
		}

		if len(current) > 0 {
			current = append(current, ' ')
		}
		current = append(current, sentence...)
		length += sentenceLen
		if start < 0 {
			start = s.start
		}
		end = s.end
	}

	if strings.TrimSpace(string(current)) != "" {
		closeChunk()
	}

	kept := make([]Chunk, 0, len(chunks))
	for _, ch := range chunks {
		if utf8.RuneCountInString(strings.TrimSpace(ch.Text)) > MinChunkLength {
			ch.Index = len(kept)
			kept = append(kept, ch)
		}
	}

	if len(kept) == 0 {
		kept = append(kept, c.headChunk(text))
	}
	return kept
}

// headChunk is the last-resort chunk made of the first Size characters of the
// trimmed text.
func (c *Chunker) headChunk(text string) Chunk {
	leading := len(text) - len(strings.TrimLeftFunc(text, unicode.IsSpace))
	startChar := utf8.RuneCountInString(text[:leading])

	runes := []rune(strings.TrimSpace(text))
	if len(runes) > c.size {
		runes = runes[:c.size]
	}
	return Chunk{
		Index:     0,
		Text:      string(runes),
		StartChar: startChar,
		EndChar:   startChar + len(runes),
	}
}
