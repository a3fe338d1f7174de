package parser

import (
	"strings"
	"testing"
)

func TestMarkdownParser_Passthrough(t *testing.T) {
	input := "# Title\n\nSome **bold** text.\n\n```go\ncode here\n```\n"
	p := &MarkdownParser{}
	out, err := p.ToMarkdown(strings.NewReader(input), "doc.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != input {
		t.Errorf("expected passthrough, got %q", out)
	}
}

func TestMarkdownParser_NormalizesNewlines(t *testing.T) {
	input := "line one\r\nline two\rline three\n"
	p := &MarkdownParser{}
	out, err := p.ToMarkdown(strings.NewReader(input), "doc.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(out, "\r") {
		t.Errorf("expected no carriage returns, got %q", out)
	}
	if out != "line one\nline two\nline three\n" {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestTextParser_ParagraphBreaks(t *testing.T) {
	input := "First paragraph\nstill first.\n\n\n\nSecond paragraph.\n"
	p := &TextParser{}
	out, err := p.ToMarkdown(strings.NewReader(input), "notes.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "First paragraph\nstill first.\n\nSecond paragraph."
	if out != want {
		t.Errorf("expected %q, got %q", want, out)
	}
}

func TestCSVParser_PipeTable(t *testing.T) {
	input := "name,score\nalice,10\nbob,20\n"
	p := &CSVParser{}
	out, err := p.ToMarkdown(strings.NewReader(input), "scores.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(out, "# scores\n\n") {
		t.Errorf("expected title heading, got %q", out)
	}
	if !strings.Contains(out, "| name | score |\n| --- | --- |\n| alice | 10 |\n| bob | 20 |\n") {
		t.Errorf("expected pipe table, got %q", out)
	}
}

func TestCSVParser_EscapesPipes(t *testing.T) {
	input := "col\na|b\n"
	p := &CSVParser{}
	out, err := p.ToMarkdown(strings.NewReader(input), "data.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, `a\|b`) {
		t.Errorf("expected escaped pipe, got %q", out)
	}
}

func TestHTMLParser_HeadingsAndParagraphs(t *testing.T) {
	input := `<html><head><title>Ignored</title></head><body>
<h1>Report</h1>
<p>Intro paragraph.</p>
<h2>Findings</h2>
<p>Finding one.</p>
<ul><li>bullet a</li><li>bullet b</li></ul>
<pre>x := 1
y := 2</pre>
<script>alert("skip me")</script>
</body></html>`
	p := &HTMLParser{}
	out, err := p.ToMarkdown(strings.NewReader(input), "report.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "# Report") {
		t.Errorf("expected h1 heading, got %q", out)
	}
	if !strings.Contains(out, "## Findings") {
		t.Errorf("expected h2 heading, got %q", out)
	}
	if !strings.Contains(out, "- bullet a") {
		t.Errorf("expected list item, got %q", out)
	}
	if !strings.Contains(out, "```\nx := 1\ny := 2\n```") {
		t.Errorf("expected fenced code block, got %q", out)
	}
	if strings.Contains(out, "skip me") {
		t.Errorf("script content leaked into output: %q", out)
	}
}

func TestHTMLParser_TitleFallback(t *testing.T) {
	input := `<html><head><title>Doc Title</title></head><body><p>Only text.</p></body></html>`
	p := &HTMLParser{}
	out, err := p.ToMarkdown(strings.NewReader(input), "page.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(out, "# Doc Title") {
		t.Errorf("expected title heading fallback, got %q", out)
	}
}

func TestForFile(t *testing.T) {
	cases := []struct {
		filename string
		wantType string
	}{
		{"doc.md", "*parser.MarkdownParser"},
		{"doc.markdown", "*parser.MarkdownParser"},
		{"doc.txt", "*parser.TextParser"},
		{"doc.csv", "*parser.CSVParser"},
		{"doc.html", "*parser.HTMLParser"},
		{"doc.htm", "*parser.HTMLParser"},
		{"doc.pdf", "*parser.PDFParser"},
		{"doc.docx", "*parser.DOCXParser"},
	}
	for _, tc := range cases {
		p, err := ForFile(tc.filename, Options{})
		if err != nil {
			t.Errorf("ForFile(%q) error: %v", tc.filename, err)
			continue
		}
		got := typeName(p)
		if got != tc.wantType {
			t.Errorf("ForFile(%q) = %s, want %s", tc.filename, got, tc.wantType)
		}
	}

	if _, err := ForFile("doc.xyz", Options{}); err == nil {
		t.Error("expected error for unsupported extension")
	}
}

func typeName(v interface{}) string {
	switch v.(type) {
	case *MarkdownParser:
		return "*parser.MarkdownParser"
	case *TextParser:
		return "*parser.TextParser"
	case *CSVParser:
		return "*parser.CSVParser"
	case *HTMLParser:
		return "*parser.HTMLParser"
	case *PDFParser:
		return "*parser.PDFParser"
	case *DOCXParser:
		return "*parser.DOCXParser"
	default:
		return "unknown"
	}
}

func TestIsSupportedExtension(t *testing.T) {
	if !IsSupportedExtension("report.PDF") {
		t.Error("expected uppercase extension to be supported")
	}
	if IsSupportedExtension("archive.zip") {
		t.Error("expected .zip to be unsupported")
	}
}

func TestTitle(t *testing.T) {
	if got := Title("/tmp/uploads/quarterly-report.pdf"); got != "quarterly-report" {
		t.Errorf("expected %q, got %q", "quarterly-report", got)
	}
}
