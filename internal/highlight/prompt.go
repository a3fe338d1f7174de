package highlight

import (
	"fmt"
	"strings"
)

const annotationPrompt = `You will receive a fragment of a markdown document. Insert highlight spans around the key content and return the ENTIRE fragment with spans added. Do not change, add, or remove any of the original text — only wrap existing words in span tags.

Categories:
- "conclusion": core conclusions, key takeaways
- "data": numbers, dates, quantities, measurable facts
- "concept": terms and concepts being defined or introduced
- "warning": cautions, requirements, things that must not be done
- "step": actions in a procedure, ordered steps

Rules:
- Highlight short phrases, not whole sentences
- At most 3 highlights per paragraph; many paragraphs deserve none
- Never highlight inside code blocks or table separator rows
- Keep each span on a single line
- Do not use ==text== markers
- Return ONLY the annotated fragment, no commentary, no code fence around it`

const classFormatInstruction = `Mark each highlight as <span class="hl-CATEGORY">text</span>, e.g. <span class="hl-data">42 percent</span>.`

const inlineFormatInstruction = `Mark each highlight as <span style="background-color:COLOR; padding:2px 4px; border-radius:3px;">text</span> using the category colors: conclusion %s, data %s, concept %s, warning %s, step %s.`

// BuildPrompt assembles the annotation request for one chunk.
func BuildPrompt(docTitle, chunkText string, format SpanFormat) string {
	var sb strings.Builder
	sb.WriteString(annotationPrompt)
	sb.WriteString("\n\n")
	if format == FormatInline {
		sb.WriteString(fmt.Sprintf(inlineFormatInstruction,
			CategoryConclusion.Color(), CategoryData.Color(), CategoryConcept.Color(),
			CategoryWarning.Color(), CategoryStep.Color()))
	} else {
		sb.WriteString(classFormatInstruction)
	}
	sb.WriteString("\n\n---\n")
	if docTitle != "" {
		sb.WriteString(fmt.Sprintf("Document: %q\n", docTitle))
	}
	sb.WriteString("---\n")
	sb.WriteString(chunkText)
	return sb.String()
}
