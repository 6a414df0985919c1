package markdown

import (
	"reflect"
	"strings"
	"testing"
)

const lesson = `# Cell Biology

Cells are the **basic unit** of life. See [the notes](https://example.com).

## Mitosis

Mitosis produces two identical cells.
It has four phases.

- Prophase
- Metaphase

## Meiosis

` + "```" + `
diagram here
` + "```" + `

<div>ignored html</div>
`

// TestPlainText_StripsMarkup verifies emphasis and link markup are removed.
func TestPlainText_StripsMarkup(t *testing.T) {
	got := PlainText([]byte(lesson))

	for _, want := range []string{
		"Cell Biology",
		"Cells are the basic unit of life. See the notes.",
		"Mitosis produces two identical cells. It has four phases.",
		"Prophase",
		"diagram here",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("PlainText missing %q in:\n%s", want, got)
		}
	}

	for _, unwanted := range []string{"**", "](", "```", "<div>"} {
		if strings.Contains(got, unwanted) {
			t.Errorf("PlainText kept markup %q in:\n%s", unwanted, got)
		}
	}
}

// TestPlainText_SeparatesBlocks verifies blocks are separated by blank lines.
func TestPlainText_SeparatesBlocks(t *testing.T) {
	got := PlainText([]byte("# Title\n\nFirst paragraph.\n\nSecond paragraph."))
	want := "Title\n\nFirst paragraph.\n\nSecond paragraph."
	if got != want {
		t.Errorf("PlainText = %q, want %q", got, want)
	}
}

// TestPlainText_Empty verifies empty input yields empty text.
func TestPlainText_Empty(t *testing.T) {
	if got := PlainText(nil); got != "" {
		t.Errorf("PlainText(nil) = %q, want empty", got)
	}
}

// TestOutline verifies heading paths keep their hierarchy.
func TestOutline(t *testing.T) {
	got, err := Outline([]byte(lesson))
	if err != nil {
		t.Fatalf("Outline failed: %v", err)
	}

	want := []string{"Cell Biology", "Cell Biology > Mitosis", "Cell Biology > Meiosis"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Outline = %v, want %v", got, want)
	}
}

// TestOutline_NoHeadings verifies documents without headings have no outline.
func TestOutline_NoHeadings(t *testing.T) {
	got, err := Outline([]byte("Just a paragraph."))
	if err != nil {
		t.Fatalf("Outline failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Outline = %v, want none", got)
	}
}

// TestParse verifies Parse returns both text and outline.
func TestParse(t *testing.T) {
	doc, err := NewParser().Parse([]byte("# Algebra\n\nSolve for x."))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if doc.Text != "Algebra\n\nSolve for x." {
		t.Errorf("Text = %q", doc.Text)
	}
	if !reflect.DeepEqual(doc.Headings, []string{"Algebra"}) {
		t.Errorf("Headings = %v", doc.Headings)
	}
}
