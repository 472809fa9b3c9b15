package models

import "time"

// Category classifies a generated article. The set is closed; anything the
// generation service returns outside of it is normalized to DefaultCategory.
type Category string

const (
	CategoryMedical  Category = "medical"
	CategoryHealth   Category = "health"
	CategoryResearch Category = "research"
	CategoryNews     Category = "news"

	// DefaultCategory is substituted when the generation service returns an
	// unknown category value.
	DefaultCategory = CategoryMedical
)

// IsValid reports whether the category is one of the closed enum values.
func (c Category) IsValid() bool {
	switch c {
	case CategoryMedical, CategoryHealth, CategoryResearch, CategoryNews:
		return true
	}
	return false
}

// NormalizeCategory maps a free-form category string onto the closed enum,
// falling back to DefaultCategory. Returns the category and whether the raw
// value was already valid.
func NormalizeCategory(raw string) (Category, bool) {
	c := Category(raw)
	if c.IsValid() {
		return c, true
	}
	return DefaultCategory, false
}

// SynthesisResult is the transient, in-memory output of the text generation
// stage before illustration and publishing.
type SynthesisResult struct {
	Title    string   `json:"title" validate:"required"`
	Content  string   `json:"content" validate:"required"`
	Summary  string   `json:"summary" validate:"required"`
	Tags     []string `json:"tags"`
	Category Category `json:"category" validate:"required"`
}

// Illustration is the result of the image stage. The stage never fails the
// pipeline: ImageURL may be empty, and any degradation is reported through
// Warnings rather than an error.
type Illustration struct {
	ImageURL string   `json:"image_url,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Article is the durable output entity of the pipeline.
type Article struct {
	ID       string   `json:"id"` // art_{uuid}
	Title    string   `json:"title"`
	Content  string   `json:"content"` // Markdown
	Summary  string   `json:"summary"`
	Tags     []string `json:"tags"`
	Category Category `json:"category"`
	ImageURL string   `json:"image_url,omitempty"`

	// SourceFragmentKey is a back-reference to the fragment that produced
	// this article, not an ownership edge.
	SourceFragmentKey int64 `json:"source_fragment_key"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
