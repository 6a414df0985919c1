package retrieval

import (
	"fmt"
	"strings"
)

// Hit is a retrieved chunk as fed to FormatContext.
type Hit struct {
	Source string
	Text   string
	Score  float64
}

// Context is the prompt block built from retrieved chunks.
type Context struct {
	Text           string
	Tokens         int
	SourceCoverage int
}

// FormatContext builds the CONTEXT block, one "[doc:<source>] <text>" line
// per hit, stopping once maxTokens whitespace-separated tokens are used. A
// maxTokens of zero or less means no limit.
func FormatContext(hits []Hit, maxTokens int) Context {
	if len(hits) == 0 {
		return Context{}
	}
	if maxTokens < 0 {
		maxTokens = 0
	}

	var b strings.Builder
	b.WriteString("CONTEXT\n")

	used := 0
	remaining := maxTokens
	sources := make(map[string]struct{})

	for _, hit := range hits {
		text := strings.TrimSpace(hit.Text)
		if text == "" {
			continue
		}

		if maxTokens > 0 {
			if remaining <= 0 {
				break
			}
			if estimateTokens(text) > remaining {
				text = truncateToTokens(text, remaining)
			}
		}

		tokens := estimateTokens(text)
		if tokens == 0 {
			continue
		}

		fmt.Fprintf(&b, "[doc:%s] %s\n", hit.Source, text)
		used += tokens
		remaining -= tokens
		sources[hit.Source] = struct{}{}
	}

	if used == 0 {
		return Context{}
	}
	return Context{
		Text:           strings.TrimRight(b.String(), "\n"),
		Tokens:         used,
		SourceCoverage: len(sources),
	}
}

func estimateTokens(text string) int {
	return len(strings.Fields(text))
}

func truncateToTokens(text string, maxTokens int) string {
	if maxTokens <= 0 {
		return ""
	}
	parts := strings.Fields(text)
	if len(parts) <= maxTokens {
		return text
	}
	return strings.Join(parts[:maxTokens], " ")
}
