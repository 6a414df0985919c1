// Package markdown turns markdown sources into plain text for chunking and
// extracts their heading outline.
package markdown

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/toc"
)

// Parser renders markdown to plain text.
type Parser struct {
	md goldmark.Markdown
}

// NewParser creates a Parser configured with goldmark.
func NewParser() *Parser {
	return &Parser{
		md: goldmark.New(
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
		),
	}
}

// Document is the result of parsing one markdown source.
type Document struct {
	Text     string   // Plain text, one block per paragraph
	Headings []string // Heading paths: "Cells > Mitosis"
}

// Parse extracts the plain text and outline of source.
func (p *Parser) Parse(source []byte) (*Document, error) {
	doc := p.md.Parser().Parse(text.NewReader(source))

	headings, err := outline(doc, source)
	if err != nil {
		return nil, err
	}
	return &Document{
		Text:     plainText(doc, source),
		Headings: headings,
	}, nil
}

// PlainText returns the readable text of source with markup removed.
func PlainText(source []byte) string {
	p := NewParser()
	return plainText(p.md.Parser().Parse(text.NewReader(source)), source)
}

// Outline returns the heading paths of source in document order.
func Outline(source []byte) ([]string, error) {
	p := NewParser()
	return outline(p.md.Parser().Parse(text.NewReader(source)), source)
}

func plainText(doc ast.Node, source []byte) string {
	var buf bytes.Buffer

	endBlock := func() {
		b := bytes.TrimRight(buf.Bytes(), " ")
		buf.Truncate(len(b))
		if buf.Len() > 0 && !bytes.HasSuffix(buf.Bytes(), []byte("\n\n")) {
			if bytes.HasSuffix(buf.Bytes(), []byte("\n")) {
				buf.WriteByte('\n')
			} else {
				buf.WriteString("\n\n")
			}
		}
	}

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.Text:
			if entering {
				buf.Write(node.Segment.Value(source))
				if node.SoftLineBreak() || node.HardLineBreak() {
					buf.WriteByte(' ')
				}
			}
		case *ast.String:
			if entering {
				buf.Write(node.Value)
			}
		case *ast.AutoLink:
			if entering {
				buf.Write(node.Label(source))
			}
		case *ast.CodeBlock, *ast.FencedCodeBlock:
			if entering {
				lines := n.Lines()
				for i := 0; i < lines.Len(); i++ {
					seg := lines.At(i)
					buf.Write(seg.Value(source))
				}
				endBlock()
				return ast.WalkSkipChildren, nil
			}
		case *ast.HTMLBlock, *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		default:
			if !entering && n.Type() == ast.TypeBlock && n.Kind() != ast.KindDocument {
				endBlock()
			}
		}
		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(buf.String())
}

func outline(doc ast.Node, source []byte) ([]string, error) {
	tree, err := toc.Inspect(doc, source,
		toc.MinDepth(1),
		toc.MaxDepth(3),
		toc.Compact(true),
	)
	if err != nil {
		return nil, fmt.Errorf("inspect TOC: %w", err)
	}

	var headings []string
	collectHeadings(tree.Items, nil, &headings)
	return headings, nil
}

// collectHeadings flattens the TOC into "Parent > Child" paths.
func collectHeadings(items toc.Items, ancestors []string, out *[]string) {
	for _, item := range items {
		path := ancestors
		if title := strings.TrimSpace(string(item.Title)); title != "" {
			path = append(append([]string(nil), ancestors...), title)
			*out = append(*out, strings.Join(path, " > "))
		}
		if len(item.Items) > 0 {
			collectHeadings(item.Items, path, out)
		}
	}
}
