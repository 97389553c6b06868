package runtime

import (
	"github.com/aretw0/storyline/pkg/domain"
)

// PassageView is a read-only rendering of one passage for debugging tools.
type PassageView struct {
	Name     string        `json:"name" yaml:"name"`
	Tags     []string      `json:"tags,omitempty" yaml:"tags,omitempty"`
	Rendered string        `json:"rendered" yaml:"rendered"`
	Links    []domain.Link `json:"links" yaml:"links"`
	Dead     []string      `json:"dead_links,omitempty" yaml:"dead_links,omitempty"`
}

// Inspect renders every passage of the story in source order.
func Inspect(story *domain.Story) []PassageView {
	passages := story.Passages()
	views := make([]PassageView, len(passages))
	for i, p := range passages {
		views[i] = view(story, p)
	}
	return views
}

// InspectPassage renders a single passage by name.
func InspectPassage(story *domain.Story, name string) (PassageView, error) {
	p, ok := story.Passage(name)
	if !ok {
		return PassageView{}, &domain.MissingPassageError{Name: name}
	}
	return view(story, p), nil
}

func view(story *domain.Story, p domain.Passage) PassageView {
	text, links := Render(p)
	v := PassageView{
		Name:     p.Name,
		Tags:     p.Tags,
		Rendered: text,
		Links:    links,
	}
	for _, l := range links {
		if !story.Has(l.Target) {
			v.Dead = append(v.Dead, l.Target)
		}
	}
	return v
}
