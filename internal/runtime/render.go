package runtime

import (
	"strings"

	"github.com/aretw0/storyline/internal/compiler"
	"github.com/aretw0/storyline/pkg/domain"
)

var emphasis = strings.NewReplacer("''", "**")

var italics = strings.NewReplacer("//", "*")

// Render turns a passage into display text plus its links in order of
// appearance.
//
// Explicit links are collapsed to "[[Label]]" span by span, so repeated
// identical links are all rewritten. Then the Harlowe bold marker (two single
// quotes) becomes ** and italics (//) becomes *. Strikethrough (~~) is already Markdown.
func Render(p domain.Passage) (string, []domain.Link) {
	spans, _ := compiler.ScanLinks(p.Content)

	links := make([]domain.Link, 0, len(spans))
	var sb strings.Builder
	sb.Grow(len(p.Content))

	last := 0
	for _, s := range spans {
		links = append(links, s.Link())
		if !s.Explicit {
			continue
		}
		sb.WriteString(p.Content[last:s.Start])
		sb.WriteString("[[")
		sb.WriteString(s.Label)
		sb.WriteString("]]")
		last = s.End
	}
	sb.WriteString(p.Content[last:])

	text := emphasis.Replace(sb.String())
	text = italics.Replace(text)
	return text, links
}
