// Package segment splits a document into ordered, boundary-respecting
// chunks sized for a single annotation request. Chunks are contiguous,
// non-overlapping, and cover the whole document; a boundary is only placed
// at a blank line or just before a heading, never inside a fenced code
// block or a table-row run.
package segment

import (
	"fmt"
	"strings"

	"github.com/dgallion1/mdhighlight/internal/document"
)

// Config controls chunk sizing.
type Config struct {
	MinLines int // Lower edge of the target chunk size.
	MaxLines int // Upper edge; a chunk never exceeds this many lines.
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MinLines: 200,
		MaxLines: 400,
	}
}

// Chunk is a contiguous slice of a document's lines. StartLine and EndLine
// are 1-based and inclusive. Chunks are immutable value objects.
type Chunk struct {
	Index     int
	StartLine int
	EndLine   int
	Lines     []string
}

// RawText joins the chunk's lines without a trailing newline.
func (c Chunk) RawText() string {
	return strings.Join(c.Lines, "\n")
}

// LineCount returns the number of lines in the chunk.
func (c Chunk) LineCount() int {
	return len(c.Lines)
}

// ChunkingError reports a region with no legal chunk boundary, e.g. a code
// block or table longer than the maximum chunk size. Fatal for the document.
type ChunkingError struct {
	Path      string
	StartLine int
	EndLine   int
}

func (e *ChunkingError) Error() string {
	return fmt.Sprintf("no legal chunk boundary in %s lines %d-%d", e.Path, e.StartLine, e.EndLine)
}

// Split produces the ordered chunk list for a document. The chunks
// partition doc.Lines exactly: increasing, gap-free, non-overlapping.
func Split(doc *document.Document, cfg Config) ([]Chunk, error) {
	if cfg.MinLines <= 0 {
		cfg.MinLines = 200
	}
	if cfg.MaxLines < cfg.MinLines {
		cfg.MaxLines = cfg.MinLines * 2
	}

	lines := doc.Lines
	total := len(lines)

	// A document that fits the maximum is a single chunk, even when it is
	// shorter than the minimum.
	if total <= cfg.MaxLines {
		if total == 0 {
			return nil, nil
		}
		return []Chunk{{Index: 0, StartLine: 1, EndLine: total, Lines: lines}}, nil
	}

	sc := newScanner(lines)
	var chunks []Chunk
	start := 0 // 0-based index of the first line of the current chunk

	for start < total {
		remaining := total - start
		if remaining <= cfg.MaxLines {
			chunks = append(chunks, makeChunk(len(chunks), lines, start, total-1))
			break
		}

		// Scan the window [start, start+MaxLines) remembering the last
		// permitted cut whose chunk size lands in [MinLines, MaxLines].
		lastCut := -1
		for i := start; i < start+cfg.MaxLines; i++ {
			size := i - start + 1
			if size >= cfg.MinLines && sc.cutAllowedAfter(i) {
				lastCut = i
			}
		}
		if lastCut < 0 {
			return nil, &ChunkingError{
				Path:      doc.Path,
				StartLine: start + 1,
				EndLine:   start + cfg.MaxLines,
			}
		}
		chunks = append(chunks, makeChunk(len(chunks), lines, start, lastCut))
		start = lastCut + 1
	}

	return chunks, nil
}

func makeChunk(index int, lines []string, start, end int) Chunk {
	return Chunk{
		Index:     index,
		StartLine: start + 1,
		EndLine:   end + 1,
		Lines:     lines[start : end+1],
	}
}

// scanner precomputes, per line, whether the line sits inside a fenced code
// block, so cut decisions are O(1) regardless of how often a window is
// rescanned.
type scanner struct {
	lines   []string
	inFence []bool // inFence[i]: line i is part of an open fence (incl. delimiters)
}

func newScanner(lines []string) *scanner {
	sc := &scanner{
		lines:   lines,
		inFence: make([]bool, len(lines)),
	}
	var open bool
	var marker byte
	var width int
	for i, line := range lines {
		if !open {
			if m, w, ok := fenceDelimiter(line); ok {
				open = true
				marker = m
				width = w
				sc.inFence[i] = true
				continue
			}
		} else {
			sc.inFence[i] = true
			if m, w, ok := fenceDelimiter(line); ok && m == marker && w >= width {
				open = false
			}
		}
	}
	return sc
}

// cutAllowedAfter reports whether a chunk may end at line i (0-based).
// Permitted at a blank line outside any fence, or directly before a
// heading outside any fence, and never between two table rows. A blank
// line just before a fence opener and a heading just after a fence closer
// are both legal cut points: the fence itself stays intact either way.
func (sc *scanner) cutAllowedAfter(i int) bool {
	if i+1 >= len(sc.lines) {
		return true
	}
	if isTableRow(sc.lines[i]) && isTableRow(sc.lines[i+1]) {
		return false
	}
	if isBlank(sc.lines[i]) && !sc.inFence[i] {
		return true
	}
	return isHeading(sc.lines[i+1]) && !sc.inFence[i+1]
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

// isHeading matches ATX headings: repeated '#' followed by a space.
func isHeading(line string) bool {
	trimmed := strings.TrimLeft(line, "#")
	n := len(line) - len(trimmed)
	return n >= 1 && n <= 6 && strings.HasPrefix(trimmed, " ")
}

// fenceDelimiter recognizes lines of three or more identical fence
// characters (backtick or tilde), optionally followed by an info string.
func fenceDelimiter(line string) (marker byte, width int, ok bool) {
	trimmed := strings.TrimSpace(line)
	if len(trimmed) < 3 {
		return 0, 0, false
	}
	c := trimmed[0]
	if c != '`' && c != '~' {
		return 0, 0, false
	}
	n := 0
	for n < len(trimmed) && trimmed[n] == c {
		n++
	}
	if n < 3 {
		return 0, 0, false
	}
	// An info string after the delimiter is fine for backticks; a closing
	// fence is bare, but the opener decides the marker either way.
	return c, n, true
}

// isTableRow matches pipe-table rows: a line that begins and ends with '|'.
func isTableRow(line string) bool {
	trimmed := strings.TrimSpace(line)
	return len(trimmed) >= 2 && trimmed[0] == '|' && trimmed[len(trimmed)-1] == '|'
}
