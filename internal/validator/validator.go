package validator

import (
	"fmt"
	"strings"

	"github.com/aretw0/storyline/internal/runtime"
	"github.com/aretw0/storyline/pkg/domain"
)

// DeadLink is a link whose target passage does not exist.
type DeadLink struct {
	From   string `json:"from" yaml:"from"`
	Label  string `json:"label" yaml:"label"`
	Target string `json:"target" yaml:"target"`
}

// Report lists structural findings that are legal at parse time but usually
// authoring mistakes.
type Report struct {
	DeadLinks   []DeadLink `json:"dead_links,omitempty" yaml:"dead_links,omitempty"`
	Unreachable []string   `json:"unreachable,omitempty" yaml:"unreachable,omitempty"`
	Terminal    []string   `json:"terminal,omitempty" yaml:"terminal,omitempty"`
}

// OK reports whether there is nothing to fix. Terminal passages are informational.
func (r Report) OK() bool {
	return len(r.DeadLinks) == 0 && len(r.Unreachable) == 0
}

// Err summarizes the findings as an error, or nil when OK.
func (r Report) Err() error {
	if r.OK() {
		return nil
	}
	var problems []string
	for _, d := range r.DeadLinks {
		problems = append(problems, fmt.Sprintf("Dead link in '%s': [[%s]] -> '%s'", d.From, d.Label, d.Target))
	}
	for _, name := range r.Unreachable {
		problems = append(problems, fmt.Sprintf("Unreachable passage: '%s'", name))
	}
	return fmt.Errorf("found %d problems:\n- %s", len(problems), strings.Join(problems, "\n- "))
}

// Validate crawls the story from its start passage. Every passage is checked
// for dead links; passages the crawl never reaches are reported as unreachable.
func Validate(story *domain.Story) Report {
	var report Report

	links := make(map[string][]domain.Link, story.Len())
	for _, p := range story.Passages() {
		_, ls := runtime.Render(p)
		links[p.Name] = ls
		if len(ls) == 0 {
			report.Terminal = append(report.Terminal, p.Name)
		}
		for _, l := range ls {
			if !story.Has(l.Target) {
				report.DeadLinks = append(report.DeadLinks, DeadLink{From: p.Name, Label: l.Label, Target: l.Target})
			}
		}
	}

	visited := make(map[string]bool)
	queue := []string{story.Start()}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if visited[current] {
			continue
		}
		visited[current] = true

		for _, l := range links[current] {
			if story.Has(l.Target) && !visited[l.Target] {
				queue = append(queue, l.Target)
			}
		}
	}

	for _, name := range story.Names() {
		if !visited[name] {
			report.Unreachable = append(report.Unreachable, name)
		}
	}
	return report
}
