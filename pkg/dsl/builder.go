package dsl

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aretw0/storyline/internal/compiler"
	"github.com/aretw0/storyline/pkg/domain"
)

// Builder manages the story construction.
type Builder struct {
	title    string
	start    string
	order    []string
	passages map[string]*PassageBuilder
}

// New creates a new story builder.
func New(title string) *Builder {
	return &Builder{
		title:    title,
		passages: make(map[string]*PassageBuilder),
	}
}

// Start names the entry passage (default: "Start").
func (b *Builder) Start(name string) *Builder {
	b.start = name
	return b
}

// Add creates a new passage in the story.
// If the passage already exists, it returns the existing builder.
func (b *Builder) Add(name string) *PassageBuilder {
	if pb, ok := b.passages[name]; ok {
		return pb
	}
	pb := &PassageBuilder{name: name}
	b.passages[name] = pb
	b.order = append(b.order, name)
	return pb
}

// Twee renders the story as Twee 3 source, passages in insertion order.
func (b *Builder) Twee() string {
	var sb strings.Builder
	if b.title != "" {
		fmt.Fprintf(&sb, ":: %s\n%s\n\n", domain.PassageStoryTitle, b.title)
	}
	if b.start != "" {
		data, _ := json.Marshal(map[string]string{"start": b.start})
		fmt.Fprintf(&sb, ":: %s\n%s\n\n", domain.PassageStoryData, data)
	}
	for _, name := range b.order {
		b.passages[name].write(&sb)
	}
	return sb.String()
}

// Build compiles the story through the regular parser, so a built story obeys
// exactly the rules of one loaded from a file.
func (b *Builder) Build() (*domain.Story, error) {
	story, err := compiler.Parse(b.Twee())
	if err != nil {
		return nil, fmt.Errorf("failed to build story: %w", err)
	}
	return story, nil
}
