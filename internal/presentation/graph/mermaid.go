package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/storyline/internal/runtime"
	"github.com/aretw0/storyline/pkg/domain"
)

// GraphOverlay contains reader state to visualize on the graph.
type GraphOverlay struct {
	VisitedPassages []string
	CurrentPassage  string
}

// GenerateMermaid produces a Mermaid flowchart of the story.
// It applies semantic styling:
// - Start: ((Circle))
// - Terminal (no links): ([Stadium])
// - Default: [Rectangle]
// - Missing link targets: {{Hexagon}} with a dashed edge
// Edges are labelled with the choice label.
func GenerateMermaid(story *domain.Story, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	ids := make(map[string]string, story.Len())
	for i, name := range story.Names() {
		ids[name] = fmt.Sprintf("p%d", i)
	}

	var missing []string
	missingIDs := make(map[string]string)

	for _, p := range story.Passages() {
		id := ids[p.Name]
		_, links := runtime.Render(p)

		opener, closer := "[", "]"
		switch {
		case p.Name == story.Start():
			opener, closer = "((", "))"
		case len(links) == 0:
			opener, closer = "([", "])"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", id, opener, escape(p.Name), closer)

		for _, l := range links {
			to, ok := ids[l.Target]
			arrow := "-->"
			if !ok {
				to, ok = missingIDs[l.Target]
				if !ok {
					to = fmt.Sprintf("m%d", len(missing))
					missingIDs[l.Target] = to
					missing = append(missing, l.Target)
				}
				arrow = "-.->"
			}
			if l.Label != l.Target {
				fmt.Fprintf(&sb, "    %s %s|\"%s\"| %s\n", id, arrow, escape(l.Label), to)
			} else {
				fmt.Fprintf(&sb, "    %s %s %s\n", id, arrow, to)
			}
		}
	}

	if len(missing) > 0 {
		sb.WriteString("\n    %% Missing passages\n")
		sb.WriteString("    classDef missing fill:#ffebee,stroke:#c62828,stroke-dasharray:4 2,color:#000;\n")
		for _, name := range missing {
			id := missingIDs[name]
			fmt.Fprintf(&sb, "    %s{{\"%s\"}}\n", id, escape(name))
			fmt.Fprintf(&sb, "    class %s missing;\n", id)
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, name := range overlay.VisitedPassages {
			id, ok := ids[name]
			if !ok || seen[id] {
				continue
			}
			seen[id] = true
			fmt.Fprintf(&sb, "    class %s visited;\n", id)
		}
		if id, ok := ids[overlay.CurrentPassage]; ok {
			fmt.Fprintf(&sb, "    class %s current;\n", id)
		}
	}

	return sb.String()
}

// escape makes a passage name safe inside a quoted Mermaid label.
func escape(s string) string {
	s = strings.ReplaceAll(s, "\"", "#quot;")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}
