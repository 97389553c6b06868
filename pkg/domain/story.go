package domain

import "fmt"

// StoryData holds the story-level metadata declared in the StoryData special passage.
type StoryData struct {
	IFID          string            `json:"ifid,omitempty" mapstructure:"ifid"`
	Format        string            `json:"format,omitempty" mapstructure:"format"`
	FormatVersion string            `json:"format-version,omitempty" mapstructure:"format-version"`
	Start         string            `json:"start,omitempty" mapstructure:"start"`
	TagColors     map[string]string `json:"tag-colors,omitempty" mapstructure:"tag-colors"`
	Zoom          float64           `json:"zoom,omitempty" mapstructure:"zoom"`
}

// Story is the parsed passage graph. It is immutable once built and safe to share
// across goroutines without locking.
type Story struct {
	title    string
	data     StoryData
	start    string
	order    []string
	passages map[string]Passage
}

// NewStory assembles a Story from passages in source order.
// It rejects duplicate names and a start passage that does not resolve.
func NewStory(title string, data StoryData, start string, passages []Passage) (*Story, error) {
	s := &Story{
		title:    title,
		data:     data,
		start:    start,
		order:    make([]string, 0, len(passages)),
		passages: make(map[string]Passage, len(passages)),
	}
	for _, p := range passages {
		if _, dup := s.passages[p.Name]; dup {
			return nil, &MalformedStoryError{Reason: fmt.Sprintf("duplicate passage name %q", p.Name)}
		}
		s.passages[p.Name] = p
		s.order = append(s.order, p.Name)
	}
	if start == "" {
		return nil, &NoStartPassageError{Wanted: DefaultStartPassage}
	}
	if _, ok := s.passages[start]; !ok {
		return nil, &MissingPassageError{Name: start}
	}
	return s, nil
}

// Title returns the story title (from StoryTitle), possibly empty.
func (s *Story) Title() string { return s.title }

// Data returns the StoryData metadata.
func (s *Story) Data() StoryData {
	d := s.data
	if s.data.TagColors != nil {
		d.TagColors = make(map[string]string, len(s.data.TagColors))
		for k, v := range s.data.TagColors {
			d.TagColors[k] = v
		}
	}
	return d
}

// Start returns the name of the entry passage.
func (s *Story) Start() string { return s.start }

// Len returns the number of playable passages.
func (s *Story) Len() int { return len(s.order) }

// Passage looks up a passage by name.
func (s *Story) Passage(name string) (Passage, bool) {
	p, ok := s.passages[name]
	return p, ok
}

// Has reports whether name resolves to a passage.
func (s *Story) Has(name string) bool {
	_, ok := s.passages[name]
	return ok
}

// Passages returns all passages in source order.
func (s *Story) Passages() []Passage {
	out := make([]Passage, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.passages[name])
	}
	return out
}

// Names returns passage names in source order.
func (s *Story) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}
