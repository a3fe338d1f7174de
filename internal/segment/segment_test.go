package segment

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/dgallion1/mdhighlight/internal/document"
)

// paragraphDoc builds a document of n lines as repeated 4-line paragraphs
// separated by blank lines (every 5th line is blank).
func paragraphDoc(n int) *document.Document {
	lines := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		if i%5 == 0 {
			lines = append(lines, "")
		} else {
			lines = append(lines, fmt.Sprintf("line %d of running prose body text", i))
		}
	}
	return &document.Document{Lines: lines}
}

func TestSplit_SmallDocumentSingleChunk(t *testing.T) {
	doc := paragraphDoc(50)
	chunks, err := Split(doc, Config{MinLines: 200, MaxLines: 400})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].StartLine != 1 || chunks[0].EndLine != 50 {
		t.Errorf("expected lines 1-50, got %d-%d", chunks[0].StartLine, chunks[0].EndLine)
	}
}

func TestSplit_ThousandLineScenario(t *testing.T) {
	doc := paragraphDoc(1000)
	chunks, err := Split(doc, Config{MinLines: 200, MaxLines: 400})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}

	// Coverage: increasing, gap-free, lines 1-1000.
	if chunks[0].StartLine != 1 {
		t.Errorf("first chunk starts at %d, want 1", chunks[0].StartLine)
	}
	for i := 1; i < len(chunks); i++ {
		if chunks[i].StartLine != chunks[i-1].EndLine+1 {
			t.Errorf("gap between chunk %d and %d: %d vs %d",
				i-1, i, chunks[i-1].EndLine, chunks[i].StartLine)
		}
	}
	if chunks[len(chunks)-1].EndLine != 1000 {
		t.Errorf("last chunk ends at %d, want 1000", chunks[len(chunks)-1].EndLine)
	}

	// Every internal boundary sits on a blank line.
	for _, c := range chunks[:len(chunks)-1] {
		last := c.Lines[len(c.Lines)-1]
		if strings.TrimSpace(last) != "" {
			t.Errorf("chunk ending at line %d does not end on a blank line: %q", c.EndLine, last)
		}
	}
}

func TestSplit_ConcatenationReproducesDocument(t *testing.T) {
	docs := []*document.Document{
		paragraphDoc(37),
		paragraphDoc(500),
		paragraphDoc(1234),
	}
	for _, doc := range docs {
		chunks, err := Split(doc, Config{MinLines: 50, MaxLines: 120})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		parts := make([]string, len(chunks))
		for i, c := range chunks {
			parts[i] = c.RawText()
		}
		got := strings.Join(parts, "\n")
		want := strings.Join(doc.Lines, "\n")
		if got != want {
			t.Errorf("concatenated chunks differ from source (%d lines)", len(doc.Lines))
		}
	}
}

func TestSplit_HeadingBoundary(t *testing.T) {
	var lines []string
	for s := 0; s < 10; s++ {
		lines = append(lines, fmt.Sprintf("## Section %d", s))
		for i := 0; i < 30; i++ {
			lines = append(lines, "body text")
		}
	}
	doc := &document.Document{Lines: lines}

	chunks, err := Split(doc, Config{MinLines: 60, MaxLines: 100})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	// With no blank lines, every internal boundary must precede a heading.
	for _, c := range chunks[1:] {
		if !strings.HasPrefix(c.Lines[0], "#") {
			t.Errorf("chunk at line %d does not start at a heading: %q", c.StartLine, c.Lines[0])
		}
	}
}

func TestSplit_NeverSplitsFencedCodeBlock(t *testing.T) {
	var lines []string
	// 60 lines of prose with blanks, then a 100-line fence, then more prose.
	for i := 0; i < 60; i++ {
		if i%5 == 4 {
			lines = append(lines, "")
		} else {
			lines = append(lines, "prose before the code")
		}
	}
	fenceStart := len(lines) + 1
	lines = append(lines, "```go")
	for i := 0; i < 25; i++ {
		lines = append(lines, "")
		lines = append(lines, "\tcode()")
	}
	lines = append(lines, "```")
	fenceEnd := len(lines)
	for i := 0; i < 120; i++ {
		if i%5 == 4 {
			lines = append(lines, "")
		} else {
			lines = append(lines, "prose after the code")
		}
	}
	doc := &document.Document{Lines: lines}

	chunks, err := Split(doc, Config{MinLines: 40, MaxLines: 90})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, c := range chunks {
		if c.StartLine > fenceStart && c.StartLine <= fenceEnd {
			t.Errorf("chunk boundary at line %d falls inside the fence %d-%d",
				c.StartLine, fenceStart, fenceEnd)
		}
	}
}

func TestSplit_OversizedFenceFails(t *testing.T) {
	lines := []string{"intro", ""}
	lines = append(lines, "```")
	for i := 0; i < 500; i++ {
		lines = append(lines, "code line")
	}
	lines = append(lines, "```")
	doc := &document.Document{Path: "big.md", Lines: lines}

	_, err := Split(doc, Config{MinLines: 100, MaxLines: 200})
	var ce *ChunkingError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ChunkingError, got %v", err)
	}
	if ce.Path != "big.md" {
		t.Errorf("expected path in error, got %q", ce.Path)
	}
	if ce.StartLine <= 0 || ce.EndLine <= ce.StartLine {
		t.Errorf("expected a line range, got %d-%d", ce.StartLine, ce.EndLine)
	}
}

func TestSplit_NeverSplitsTable(t *testing.T) {
	var lines []string
	for i := 0; i < 50; i++ {
		if i%5 == 4 {
			lines = append(lines, "")
		} else {
			lines = append(lines, "prose")
		}
	}
	tableStart := len(lines) + 1
	lines = append(lines, "| col a | col b |")
	lines = append(lines, "| --- | --- |")
	for i := 0; i < 60; i++ {
		lines = append(lines, fmt.Sprintf("| row %d | value |", i))
	}
	tableEnd := len(lines)
	for i := 0; i < 100; i++ {
		if i%5 == 4 {
			lines = append(lines, "")
		} else {
			lines = append(lines, "prose")
		}
	}
	doc := &document.Document{Lines: lines}

	chunks, err := Split(doc, Config{MinLines: 30, MaxLines: 100})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, c := range chunks {
		if c.StartLine > tableStart && c.StartLine <= tableEnd {
			t.Errorf("chunk boundary at line %d falls inside the table %d-%d",
				c.StartLine, tableStart, tableEnd)
		}
	}
}

func TestSplit_OversizedTableFails(t *testing.T) {
	var lines []string
	lines = append(lines, "| h1 | h2 |", "| -- | -- |")
	for i := 0; i < 400; i++ {
		lines = append(lines, "| a | b |")
	}
	doc := &document.Document{Path: "table.md", Lines: lines}

	_, err := Split(doc, Config{MinLines: 50, MaxLines: 100})
	var ce *ChunkingError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ChunkingError, got %v", err)
	}
}

func TestSplit_CutsAtBlankLineBeforeFenceOpener(t *testing.T) {
	var lines []string
	for i := 0; i < 59; i++ {
		lines = append(lines, "prose with no blank lines at all")
	}
	lines = append(lines, "") // line 60: the only boundary in range
	lines = append(lines, "```")
	for i := 0; i < 80; i++ {
		lines = append(lines, "code()")
	}
	lines = append(lines, "```") // fence spans lines 61-142
	for i := 0; i < 10; i++ {
		lines = append(lines, "tail prose")
	}
	doc := &document.Document{Path: "doc.md", Lines: lines}

	chunks, err := Split(doc, Config{MinLines: 40, MaxLines: 100})
	if err != nil {
		t.Fatalf("blank line adjacent to a fence opener must stay cuttable: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].EndLine != 60 {
		t.Errorf("first chunk ends at %d, want the blank line 60", chunks[0].EndLine)
	}
	if chunks[1].StartLine != 61 || chunks[1].EndLine != 152 {
		t.Errorf("second chunk spans %d-%d, want 61-152", chunks[1].StartLine, chunks[1].EndLine)
	}
}

func TestSplit_CutsBeforeHeadingAfterFenceCloser(t *testing.T) {
	var lines []string
	lines = append(lines, "```")
	for i := 0; i < 48; i++ {
		lines = append(lines, "code()")
	}
	lines = append(lines, "```") // fence spans lines 1-50
	lines = append(lines, "# Closing notes")
	for i := 0; i < 49; i++ {
		lines = append(lines, "prose with no blank lines")
	}
	doc := &document.Document{Path: "doc.md", Lines: lines}

	chunks, err := Split(doc, Config{MinLines: 30, MaxLines: 60})
	if err != nil {
		t.Fatalf("heading adjacent to a fence closer must stay cuttable: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].EndLine != 50 {
		t.Errorf("first chunk ends at %d, want the fence closer line 50", chunks[0].EndLine)
	}
	if !strings.HasPrefix(chunks[1].Lines[0], "# ") {
		t.Errorf("second chunk starts with %q, want the heading", chunks[1].Lines[0])
	}
}

func TestSplit_EmptyDocument(t *testing.T) {
	chunks, err := Split(&document.Document{Lines: []string{}}, DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected no chunks, got %d", len(chunks))
	}
}
