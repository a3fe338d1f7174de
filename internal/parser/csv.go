package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// CSVParser renders CSV files as a markdown pipe table under a title
// heading. The segmenter treats the table as an unsplittable unit.
type CSVParser struct{}

func (p *CSVParser) ToMarkdown(r io.Reader, filename string) (string, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return "", fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString("# " + Title(filename) + "\n\n")

	headers := records[0]
	sb.WriteString(tableRow(headers))
	sep := make([]string, len(headers))
	for i := range sep {
		sep[i] = "---"
	}
	sb.WriteString(tableRow(sep))
	for _, row := range records[1:] {
		sb.WriteString(tableRow(row))
	}

	return sb.String(), nil
}

func tableRow(cells []string) string {
	escaped := make([]string, len(cells))
	for i, c := range cells {
		escaped[i] = strings.ReplaceAll(c, "|", "\\|")
	}
	return "| " + strings.Join(escaped, " | ") + " |\n"
}
