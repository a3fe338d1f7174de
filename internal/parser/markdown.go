package parser

import (
	"io"
	"strings"
)

// MarkdownParser passes markdown through unchanged with line endings
// normalized, so segmentation and reassembly see the same bytes.
type MarkdownParser struct{}

func (p *MarkdownParser) ToMarkdown(r io.Reader, filename string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return normalizeNewlines(string(data)), nil
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
