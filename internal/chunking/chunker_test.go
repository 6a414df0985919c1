package chunking

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const threeSentences = "First sentence here. Second sentence here. Third sentence here."

func TestCreateChunks_Empty(t *testing.T) {
	assert.Empty(t, CreateChunks("", 500, 50))
	assert.Empty(t, CreateChunks("   \n\t ", 500, 50))
	assert.NotNil(t, CreateChunks("", 500, 50), "empty result should be a non-nil slice")
}

func TestCreateChunks_ShortTextFallsBackToHead(t *testing.T) {
	assert.Equal(t, []string{"Hi"}, CreateChunks("Hi", 500, 50))
	assert.Equal(t, []string{"Hi"}, CreateChunks("   Hi  ", 500, 50))
}

func TestCreateChunks_AllFilteredUsesFirstChunkSizeChars(t *testing.T) {
	chunks := CreateChunks("Ok. No. Yes.", 3, 0)
	assert.Equal(t, []string{"Ok."}, chunks)
}

func TestCreateChunks_SingleChunk(t *testing.T) {
	chunks := CreateChunks(threeSentences, 500, 50)
	assert.Equal(t, []string{threeSentences}, chunks)
}

func TestCreateChunks_ClosesBeforeExceedingSize(t *testing.T) {
	chunks := CreateChunks(threeSentences, 45, 0)
	assert.Equal(t, []string{
		"First sentence here. Second sentence here.",
		"Third sentence here.",
	}, chunks)
}

func TestCreateChunks_SeedsOverlap(t *testing.T) {
	chunks := CreateChunks(threeSentences, 45, 10)
	require.Len(t, chunks, 2)
	assert.Equal(t, "First sentence here. Second sentence here.", chunks[0])
	assert.Equal(t, "ence here. Third sentence here.", chunks[1])
}

func TestCreateChunks_OverlapNotAppliedToShortChunks(t *testing.T) {
	// The closed chunk (20 chars) is not longer than the overlap, so the
	// next chunk starts fresh.
	text := "Alpha beta gamma ok. Delta epsilon zeta ok."
	chunks := CreateChunks(text, 25, 30)
	assert.Equal(t, []string{"Alpha beta gamma ok.", "Delta epsilon zeta ok."}, chunks)
}

func TestCreateChunks_OversizedSentenceIsNotSplit(t *testing.T) {
	long := strings.Repeat("word ", 150) + "end."
	chunks := CreateChunks(long, 500, 50)
	require.Len(t, chunks, 1)
	assert.Greater(t, utf8.RuneCountInString(chunks[0]), 500)
}

func TestCreateChunks_SplitsOnAllTerminators(t *testing.T) {
	text := "Is this a question? Yes it certainly is! And this is a statement."
	chunks := CreateChunks(text, 20, 0)
	assert.Equal(t, []string{
		"Is this a question?",
		"Yes it certainly is!",
		"And this is a statement.",
	}, chunks)
}

func TestCreateChunks_TerminatorWithoutWhitespaceDoesNotSplit(t *testing.T) {
	text := "Version 3.14 is stable.The next one is not."
	chunks := CreateChunks(text, 10, 0)
	assert.Equal(t, []string{text}, chunks)
}

func TestSplit_IndexesAreContiguous(t *testing.T) {
	text := buildText(40)
	chunks := New(120, 20).Split(text)
	require.NotEmpty(t, chunks)
	for i, ch := range chunks {
		assert.Equal(t, i, ch.Index)
	}
}

func TestSplit_OffsetsMatchSource(t *testing.T) {
	text := buildText(12)
	runes := []rune(text)

	chunks := New(90, 0).Split(text)
	require.Greater(t, len(chunks), 1)
	for _, ch := range chunks {
		assert.Equal(t, ch.Text, string(runes[ch.StartChar:ch.EndChar]))
	}
}

func TestSplit_OffsetsCountCharactersNotBytes(t *testing.T) {
	text := "Élève très motivé aujourd'hui. Ça marche très bien ici."
	runes := []rune(text)

	chunks := New(35, 0).Split(text)
	require.Len(t, chunks, 2)
	for _, ch := range chunks {
		assert.Equal(t, ch.Text, string(runes[ch.StartChar:ch.EndChar]))
	}
}

func TestCreateChunks_Coverage(t *testing.T) {
	inputs := []string{
		"a",
		"Hi.",
		"x. y. z.",
		"No terminator at all but plenty of words to make a chunk",
		buildText(3),
		buildText(100),
		strings.Repeat("?", 2000),
	}
	for _, in := range inputs {
		for _, size := range []int{1, 10, 100, 500} {
			assert.NotEmpty(t, CreateChunks(in, size, 5), "input %q size %d", in, size)
		}
	}
}

func TestCreateChunks_PreservesSentenceOrder(t *testing.T) {
	text := buildText(30)
	chunks := CreateChunks(text, 150, 0)
	require.Greater(t, len(chunks), 1)
	assert.Equal(t, text, strings.Join(chunks, " "))
}

func TestCreateChunks_OrderWithOverlap(t *testing.T) {
	text := buildText(30)
	chunks := CreateChunks(text, 150, 40)

	last := -1
	for n := 0; n < 30; n++ {
		marker := fmt.Sprintf("number %03d", n)
		for i, ch := range chunks {
			if strings.Contains(ch, marker) {
				assert.GreaterOrEqual(t, i, last, "sentence %d appeared out of order", n)
				last = i
				break
			}
		}
	}
}

func TestNew_Defaults(t *testing.T) {
	c := New(0, -3)
	assert.Equal(t, DefaultChunkSize, c.Size())
	assert.Equal(t, 0, c.Overlap())
}

func buildText(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("This is sentence number %03d of the test.", i)
	}
	return strings.Join(parts, " ")
}
