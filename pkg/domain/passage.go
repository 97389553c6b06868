package domain

// Passage is a named unit of story content.
// Content holds the raw markup; rendered text and links are derived on demand.
type Passage struct {
	Name     string         `json:"name" yaml:"name"`
	Tags     []string       `json:"tags,omitempty" yaml:"tags,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Content  string         `json:"content" yaml:"content"`

	// Line is the 1-based line of the passage header in the source text.
	Line int `json:"line,omitempty" yaml:"line,omitempty"`
}

// HasTag reports whether the passage carries the given tag.
func (p Passage) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Link is a labeled reference from one passage to another, the unit of reader choice.
type Link struct {
	Label  string `json:"label" yaml:"label"`
	Target string `json:"target" yaml:"target"`
}
