// Package render turns annotated markdown into a standalone HTML preview
// with the highlight stylesheet embedded, so span classes show up as
// colored highlights in a browser.
package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/dgallion1/mdhighlight/internal/highlight"
)

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { max-width: 48rem; margin: 2rem auto; padding: 0 1rem; font-family: system-ui, sans-serif; line-height: 1.6; color: #222; }
pre { background: #f6f8fa; padding: 1rem; border-radius: 6px; overflow-x: auto; }
table { border-collapse: collapse; }
th, td { border: 1px solid #ccc; padding: 0.3rem 0.6rem; }
%s</style>
</head>
<body>
%s</body>
</html>
`

// Stylesheet returns CSS rules mapping each highlight class to its
// palette color.
func Stylesheet() string {
	var sb strings.Builder
	for _, cat := range highlight.Categories {
		fmt.Fprintf(&sb, ".%s { background-color: %s; padding: 2px 4px; border-radius: 3px; }\n", cat.Class(), cat.Color())
	}
	return sb.String()
}

// Page converts annotated markdown into a complete HTML document.
// Raw HTML rendering is enabled so highlight spans pass through intact.
func Page(title, markdown string) (string, error) {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
	)

	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}

	return fmt.Sprintf(pageTemplate, htmlEscape(title), Stylesheet(), buf.String()), nil
}

func htmlEscape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}
