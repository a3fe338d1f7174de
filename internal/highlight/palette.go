// Package highlight defines the highlight span model and the boundary to
// the external annotation capability: the category palette, span
// parsing/stripping, content-preservation and density validation, and the
// retrying annotation service.
package highlight

// Category classifies a highlighted span.
type Category string

const (
	CategoryConclusion Category = "conclusion"
	CategoryData       Category = "data"
	CategoryConcept    Category = "concept"
	CategoryWarning    Category = "warning"
	CategoryStep       Category = "step"
)

// Categories lists every valid category in rendering order.
var Categories = []Category{
	CategoryConclusion,
	CategoryData,
	CategoryConcept,
	CategoryWarning,
	CategoryStep,
}

// Palette is the process-wide category→color table. It is fixed: the same
// category never renders in two colors within one document.
var Palette = map[Category]string{
	CategoryConclusion: "#fff3cd", // pale yellow
	CategoryData:       "#d4edda", // pale green
	CategoryConcept:    "#d1ecf1", // pale blue
	CategoryWarning:    "#fff2e6", // pale orange
	CategoryStep:       "#ede7f6", // pale violet
}

// classByCategory maps categories to span class names and back.
var classByCategory = map[Category]string{
	CategoryConclusion: "hl-conclusion",
	CategoryData:       "hl-data",
	CategoryConcept:    "hl-concept",
	CategoryWarning:    "hl-warning",
	CategoryStep:       "hl-step",
}

var categoryByClass = func() map[string]Category {
	m := make(map[string]Category, len(classByCategory))
	for cat, cls := range classByCategory {
		m[cls] = cat
	}
	return m
}()

var categoryByColor = func() map[string]Category {
	m := make(map[string]Category, len(Palette))
	for cat, color := range Palette {
		m[color] = cat
	}
	return m
}()

// Class returns the span class for a category ("hl-concept" etc).
func (c Category) Class() string {
	return classByCategory[c]
}

// Color returns the fixed background color for a category.
func (c Category) Color() string {
	return Palette[c]
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	_, ok := Palette[c]
	return ok
}
