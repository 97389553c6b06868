package dsl

import (
	"strings"
)

// PassageBuilder provides a fluent API for configuring a passage.
type PassageBuilder struct {
	name  string
	tags  []string
	lines []string
}

// Text appends a paragraph of markup.
func (p *PassageBuilder) Text(content string) *PassageBuilder {
	p.lines = append(p.lines, content)
	return p
}

// Link appends a choice labelled label that leads to target.
func (p *PassageBuilder) Link(label, target string) *PassageBuilder {
	if label == target {
		return p.Go(target)
	}
	p.lines = append(p.lines, "[["+label+"->"+target+"]]")
	return p
}

// Go appends a choice whose label is the target name.
func (p *PassageBuilder) Go(target string) *PassageBuilder {
	p.lines = append(p.lines, "[["+target+"]]")
	return p
}

// Tags adds passage tags.
func (p *PassageBuilder) Tags(tags ...string) *PassageBuilder {
	p.tags = append(p.tags, tags...)
	return p
}

func (p *PassageBuilder) write(sb *strings.Builder) {
	sb.WriteString(":: ")
	sb.WriteString(escapeName(p.name))
	if len(p.tags) > 0 {
		sb.WriteString(" [")
		sb.WriteString(strings.Join(p.tags, " "))
		sb.WriteString("]")
	}
	sb.WriteString("\n")
	sb.WriteString(strings.Join(p.lines, "\n"))
	sb.WriteString("\n\n")
}

// escapeName protects the characters that open tag and metadata blocks.
func escapeName(name string) string {
	var sb strings.Builder
	for _, r := range name {
		switch r {
		case '\\', '[', ']', '{', '}':
			sb.WriteRune('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
