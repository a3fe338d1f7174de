package highlight

import (
	"errors"
	"strings"
	"testing"
)

func TestPaletteIsFixed(t *testing.T) {
	want := map[Category]string{
		CategoryConclusion: "#fff3cd",
		CategoryData:       "#d4edda",
		CategoryConcept:    "#d1ecf1",
		CategoryWarning:    "#fff2e6",
		CategoryStep:       "#ede7f6",
	}
	for cat, color := range want {
		if got := cat.Color(); got != color {
			t.Errorf("%s: color %s, want %s", cat, got, color)
		}
	}
	if len(Palette) != len(want) {
		t.Errorf("palette has %d entries, want %d", len(Palette), len(want))
	}
}

func TestStripRoundTrip(t *testing.T) {
	raw := "The observed rate was 42 per day.\n\nA buffer holds pending work."

	classMarked := `The observed rate was <span class="hl-data">42 per day</span>.` +
		"\n\n" + `A <span class="hl-concept">buffer</span> holds pending work.`
	if got := Strip(classMarked); got != raw {
		t.Errorf("class format strip:\n got %q\nwant %q", got, raw)
	}

	inlineMarked := `The observed rate was <span style="background-color:#d4edda; padding:2px 4px; border-radius:3px;">42 per day</span>.` +
		"\n\n" + `A <span style="background-color:#d1ecf1; padding:2px 4px; border-radius:3px;">buffer</span> holds pending work.`
	if got := Strip(inlineMarked); got != raw {
		t.Errorf("inline format strip:\n got %q\nwant %q", got, raw)
	}
}

func TestWriteSpanFormats(t *testing.T) {
	if got := WriteSpan(CategoryWarning, "do not retry", FormatClass); got != `<span class="hl-warning">do not retry</span>` {
		t.Errorf("class span: %q", got)
	}
	inline := WriteSpan(CategoryWarning, "do not retry", FormatInline)
	if !strings.Contains(inline, "#fff2e6") {
		t.Errorf("inline span missing warning color: %q", inline)
	}
	if Strip(inline) != "do not retry" {
		t.Errorf("inline span does not strip cleanly: %q", inline)
	}
}

func TestHasSpans(t *testing.T) {
	if HasSpans("plain text with no markup") {
		t.Error("false positive on plain text")
	}
	if !HasSpans(`before <span class="hl-step">do the thing</span> after`) {
		t.Error("missed class span")
	}
}

func TestValidate_AcceptsConformingAnnotation(t *testing.T) {
	raw := "Retries are bounded to a small fixed number of attempts.\n\nThe default limit is 2 attempts before the chunk is written unannotated."
	marked := `Retries are <span class="hl-conclusion">bounded</span> to a small fixed number of attempts.` +
		"\n\n" + `The default limit is <span class="hl-data">2 attempts</span> before the chunk is written unannotated.`
	if err := Validate(raw, marked, DefaultRules()); err != nil {
		t.Fatalf("unexpected rejection: %v", err)
	}
}

func TestValidate_RejectsAlteredText(t *testing.T) {
	raw := "The limit is 2 attempts."
	marked := `The limit is <span class="hl-data">3 attempts</span>.` // word altered
	err := Validate(raw, marked, DefaultRules())
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestValidate_RejectsTooManySpansPerParagraph(t *testing.T) {
	raw := "alpha beta gamma delta epsilon zeta eta theta"
	marked := `<span class="hl-data">alpha</span> <span class="hl-data">beta</span> ` +
		`<span class="hl-data">gamma</span> <span class="hl-data">delta</span> epsilon zeta eta theta`
	rules := DefaultRules()
	rules.MaxDensity = 0.9
	err := Validate(raw, marked, rules)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for 4 spans in one paragraph, got %v", err)
	}
}

func TestValidate_RejectsExcessiveDensity(t *testing.T) {
	raw := "short line of words here"
	marked := `<span class="hl-concept">short line of words</span> here`
	rules := DefaultRules()
	rules.MaxDensity = 0.30
	err := Validate(raw, marked, rules)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected density rejection, got %v", err)
	}
}

func TestValidate_RejectsUnknownClass(t *testing.T) {
	raw := "some text"
	marked := `<span class="hl-bogus">some</span> text`
	err := Validate(raw, marked, DefaultRules())
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestValidate_RejectsEqualsMarkers(t *testing.T) {
	raw := "an important point stands"
	marked := "an ==important point== stands"
	err := Validate(raw, marked, DefaultRules())
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestValidate_SpanLengthBounds(t *testing.T) {
	rules := DefaultRules()
	rules.MinSpanRunes = 2
	rules.MaxSpanRunes = 10

	raw := "x marks a spot somewhere"
	short := `<span class="hl-data">x</span> marks a spot somewhere`
	if err := Validate(raw, short, rules); err == nil {
		t.Error("expected rejection of single-rune span")
	}

	raw2 := "this span body is far too long to accept"
	long := `<span class="hl-concept">this span body is far too long</span> to accept`
	if err := Validate(raw2, long, rules); err == nil {
		t.Error("expected rejection of overlong span")
	}
}
