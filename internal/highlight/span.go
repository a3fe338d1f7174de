package highlight

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// SpanFormat selects how spans are written into markdown.
type SpanFormat string

const (
	// FormatClass emits <span class="hl-concept">…</span>. The class
	// definitions live in the HTML renderer's stylesheet, so the markdown
	// itself gains no extra lines.
	FormatClass SpanFormat = "class"
	// FormatInline emits a self-contained styled span.
	FormatInline SpanFormat = "inline"
)

var (
	classSpanRe  = regexp.MustCompile(`<span class="(hl-[a-z]+)">([^<]+)</span>`)
	inlineSpanRe = regexp.MustCompile(`<span style="background-color:(#[0-9a-fA-F]{6}); padding:2px 4px; border-radius:3px;">([^<]+)</span>`)
)

// Span is one highlighted occurrence inside marked text.
type Span struct {
	Category Category
	Text     string
}

// WriteSpan renders a span in the given format.
func WriteSpan(cat Category, text string, format SpanFormat) string {
	if format == FormatInline {
		return fmt.Sprintf(`<span style="background-color:%s; padding:2px 4px; border-radius:3px;">%s</span>`, cat.Color(), text)
	}
	return fmt.Sprintf(`<span class="%s">%s</span>`, cat.Class(), text)
}

// Strip removes every highlight span (either format), keeping the inner
// text. Stripping annotated output must reproduce the original input
// exactly; callers rely on that to verify content preservation.
func Strip(marked string) string {
	s := classSpanRe.ReplaceAllString(marked, "$2")
	return inlineSpanRe.ReplaceAllString(s, "$2")
}

// HasSpans reports whether text already carries highlight spans. Used for
// idempotence: an already-annotated chunk is never sent out again.
func HasSpans(text string) bool {
	return classSpanRe.MatchString(text) || inlineSpanRe.MatchString(text)
}

// ParseSpans extracts all spans from marked text in document order.
// Unknown classes or colors yield a Span with empty Category.
func ParseSpans(marked string) []Span {
	var spans []Span
	for _, m := range classSpanRe.FindAllStringSubmatch(marked, -1) {
		spans = append(spans, Span{Category: categoryByClass[m[1]], Text: m[2]})
	}
	for _, m := range inlineSpanRe.FindAllStringSubmatch(marked, -1) {
		spans = append(spans, Span{Category: categoryByColor[strings.ToLower(m[1])], Text: m[2]})
	}
	return spans
}

// Rules bounds annotation density. The source material states these as
// qualitative heuristics; they are exposed as numeric tunables.
type Rules struct {
	MaxSpansPerParagraph int     `yaml:"max_spans_per_paragraph"`
	MaxDensity           float64 `yaml:"max_density"` // fraction of a paragraph's characters inside spans
	MinSpanRunes         int     `yaml:"min_span_runes"`
	MaxSpanRunes         int     `yaml:"max_span_runes"`
}

// DefaultRules returns the stock density ceilings.
func DefaultRules() Rules {
	return Rules{
		MaxSpansPerParagraph: 3,
		MaxDensity:           0.30,
		MinSpanRunes:         2,
		MaxSpanRunes:         60,
	}
}

// ValidationError reports annotated text that violates content
// preservation or the density rules. Never written to output.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "annotation rejected: " + e.Reason
}

var (
	paragraphSplitRe = regexp.MustCompile(`\n\s*\n`)
	equalsMarkRe     = regexp.MustCompile(`==[^=\n]+==`)
)

// Validate checks marked text against the original raw text and the
// density rules. Returns nil when the annotation is acceptable.
func Validate(raw, marked string, rules Rules) error {
	// Content preservation: stripping all markup must reproduce the input.
	if Strip(marked) != raw {
		return &ValidationError{Reason: "stripped text differs from original"}
	}

	// Any leftover span tag after removing well-formed ones is malformed.
	leftover := classSpanRe.ReplaceAllString(marked, "")
	leftover = inlineSpanRe.ReplaceAllString(leftover, "")
	if strings.Contains(leftover, `<span class="hl-`) || strings.Contains(leftover, `<span style="background-color:`) {
		return &ValidationError{Reason: "malformed span markup"}
	}

	for _, sp := range ParseSpans(marked) {
		if !sp.Category.Valid() {
			return &ValidationError{Reason: "unknown span category"}
		}
		n := utf8.RuneCountInString(strings.TrimSpace(sp.Text))
		if rules.MinSpanRunes > 0 && n < rules.MinSpanRunes {
			return &ValidationError{Reason: fmt.Sprintf("span %q too short (%d runes)", sp.Text, n)}
		}
		if rules.MaxSpanRunes > 0 && n > rules.MaxSpanRunes {
			return &ValidationError{Reason: fmt.Sprintf("span of %d runes exceeds limit %d", n, rules.MaxSpanRunes)}
		}
	}

	// Proscribed ==text== emphasis must not appear.
	if equalsMarkRe.MatchString(marked) {
		return &ValidationError{Reason: "uses ==…== instead of span markup"}
	}

	// Per-paragraph density ceilings.
	for i, para := range paragraphSplitRe.Split(marked, -1) {
		spans := ParseSpans(para)
		if rules.MaxSpansPerParagraph > 0 && len(spans) > rules.MaxSpansPerParagraph {
			return &ValidationError{
				Reason: fmt.Sprintf("paragraph %d has %d spans (max %d)", i+1, len(spans), rules.MaxSpansPerParagraph),
			}
		}
		if rules.MaxDensity > 0 && len(spans) > 0 {
			inside := 0
			for _, sp := range spans {
				inside += utf8.RuneCountInString(sp.Text)
			}
			total := utf8.RuneCountInString(Strip(para))
			if total > 0 && float64(inside)/float64(total) > rules.MaxDensity {
				return &ValidationError{
					Reason: fmt.Sprintf("paragraph %d density %.0f%% exceeds %.0f%%",
						i+1, 100*float64(inside)/float64(total), 100*rules.MaxDensity),
				}
			}
		}
	}

	return nil
}
