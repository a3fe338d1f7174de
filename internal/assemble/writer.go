// Package assemble writes annotated chunks back into the output document.
// Chunks must arrive in exactly the order the segmenter produced them; each
// accepted chunk is flushed atomically so a crash never leaves a reader
// looking at a half-written boundary.
package assemble

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/mdhighlight/internal/document"
	"github.com/dgallion1/mdhighlight/internal/highlight"
)

// SequencingError means a chunk arrived out of order or with a gap. It
// signals a logic defect, not a transient failure: the run must abort.
type SequencingError struct {
	Path         string
	ExpectedLine int
	GotLine      int
}

func (e *SequencingError) Error() string {
	return fmt.Sprintf("chunk out of sequence in %s: expected start line %d, got %d",
		e.Path, e.ExpectedLine, e.GotLine)
}

// OutputPath derives the sibling output filename for a source document.
func OutputPath(srcPath string) string {
	ext := filepath.Ext(srcPath)
	return strings.TrimSuffix(srcPath, ext) + ".annotated" + ext
}

// Writer reassembles a document from its annotated chunks. The write
// cursor tracks the next expected start line; every accepted chunk is
// persisted via temp-then-rename, with the not-yet-processed remainder of
// the original appended so the file on disk is always a complete, valid
// document (annotated prefix + original tail).
type Writer struct {
	doc     *document.Document
	outPath string
	cursor  int // next expected 1-based start line
	written []string
	flushed int // chunks flushed so far
}

// NewWriter prepares a writer targeting outPath. Pass the source path
// itself for overwrite-in-place semantics.
func NewWriter(doc *document.Document, outPath string) *Writer {
	return &Writer{
		doc:     doc,
		outPath: outPath,
		cursor:  1,
		written: make([]string, 0, doc.LineCount()),
	}
}

// Cursor returns the next expected start line.
func (w *Writer) Cursor() int {
	return w.cursor
}

// WriteChunk appends one annotated chunk and flushes the document state.
func (w *Writer) WriteChunk(ac highlight.AnnotatedChunk) error {
	if ac.StartLine != w.cursor {
		return &SequencingError{
			Path:         w.outPath,
			ExpectedLine: w.cursor,
			GotLine:      ac.StartLine,
		}
	}
	markedLines := strings.Split(ac.MarkedText, "\n")
	if len(markedLines) != ac.LineCount() {
		// Spans never cross lines, so annotation preserves the line count.
		return &SequencingError{
			Path:         w.outPath,
			ExpectedLine: ac.EndLine + 1,
			GotLine:      ac.StartLine + len(markedLines),
		}
	}
	w.written = append(w.written, markedLines...)
	w.cursor = ac.EndLine + 1
	w.flushed++
	return w.flush()
}

// flush writes annotated-so-far plus the untouched original remainder.
func (w *Writer) flush() error {
	var sb strings.Builder
	sb.WriteString(strings.Join(w.written, "\n"))
	if w.cursor <= w.doc.LineCount() {
		if len(w.written) > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(strings.Join(w.doc.Lines[w.cursor-1:], "\n"))
	}
	if w.doc.TrailingNewline {
		sb.WriteString("\n")
	}
	return atomicWrite(w.outPath, []byte(sb.String()))
}

// Close verifies the cursor consumed every line of the source document.
func (w *Writer) Close() error {
	if w.cursor != w.doc.LineCount()+1 {
		return &SequencingError{
			Path:         w.outPath,
			ExpectedLine: w.doc.LineCount() + 1,
			GotLine:      w.cursor,
		}
	}
	return nil
}

// atomicWrite writes data to a temp file in the target directory and
// renames it over path, so readers never observe a partial write.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
