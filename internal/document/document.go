// Package document holds the line-oriented document model shared by the
// segmenter and the writer. A Document round-trips byte-for-byte: splitting
// into lines and re-joining reproduces the original input exactly.
package document

import (
	"fmt"
	"os"
	"strings"
)

// Document is an ordered sequence of lines loaded from a file or buffer.
// Lines carry no terminators; TrailingNewline records whether the source
// ended with '\n' so Text can reproduce it.
type Document struct {
	Path            string
	Lines           []string
	TrailingNewline bool
}

// Load reads a document from path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	d := FromText(string(data))
	d.Path = path
	return d, nil
}

// FromText builds a Document from raw text.
func FromText(text string) *Document {
	d := &Document{}
	if text == "" {
		d.Lines = []string{}
		return d
	}
	if strings.HasSuffix(text, "\n") {
		d.TrailingNewline = true
		text = strings.TrimSuffix(text, "\n")
	}
	d.Lines = strings.Split(text, "\n")
	return d
}

// Text re-joins the document into its original byte representation.
func (d *Document) Text() string {
	s := strings.Join(d.Lines, "\n")
	if d.TrailingNewline {
		s += "\n"
	}
	return s
}

// LineCount returns the number of lines.
func (d *Document) LineCount() int {
	return len(d.Lines)
}
