package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatContext_RespectsTokenLimit(t *testing.T) {
	hits := []Hit{
		{Source: "a.pdf", Text: "one two three four"},
		{Source: "b.pdf", Text: "five six seven"},
	}

	ctx := FormatContext(hits, 5)
	assert.Equal(t, 5, ctx.Tokens)
	assert.Equal(t, 2, ctx.SourceCoverage)
	assert.Equal(t, "CONTEXT\n[doc:a.pdf] one two three four\n[doc:b.pdf] five", ctx.Text)
}

func TestFormatContext_NoLimit(t *testing.T) {
	hits := []Hit{
		{Source: "a.pdf", Text: "alpha beta"},
		{Source: "a.pdf", Text: "  "},
		{Source: "a.pdf", Text: "gamma"},
	}

	ctx := FormatContext(hits, 0)
	assert.Equal(t, 3, ctx.Tokens)
	assert.Equal(t, 1, ctx.SourceCoverage)
	assert.Equal(t, "CONTEXT\n[doc:a.pdf] alpha beta\n[doc:a.pdf] gamma", ctx.Text)
}

func TestFormatContext_Empty(t *testing.T) {
	assert.Equal(t, Context{}, FormatContext(nil, 10))
	assert.Equal(t, Context{}, FormatContext([]Hit{{Source: "x", Text: " "}}, 10))
}
