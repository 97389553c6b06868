package compiler

import (
	"strings"

	"github.com/aretw0/storyline/pkg/domain"
)

const (
	linkOpen  = "[["
	linkClose = "]]"
	linkArrow = "->"
)

// LinkSpan is one well-formed link token found in passage content.
type LinkSpan struct {
	// Start and End are byte offsets of the whole "[[...]]" token.
	Start, End int

	Label  string
	Target string

	// Explicit is true when the token was written as [[Label->Target]].
	Explicit bool
}

// Link returns the domain link for the span.
func (s LinkSpan) Link() domain.Link {
	return domain.Link{Label: s.Label, Target: s.Target}
}

// LinkIssue is a malformed link token. Offset is the byte offset of its "[[".
type LinkIssue struct {
	Offset  int
	Kind    domain.WarningKind
	Message string
}

// ScanLinks finds every link token in content, left to right.
// Malformed tokens are reported as issues and never returned as spans.
func ScanLinks(content string) ([]LinkSpan, []LinkIssue) {
	var spans []LinkSpan
	var issues []LinkIssue

	pos := 0
	for pos < len(content) {
		rel := strings.Index(content[pos:], linkOpen)
		if rel < 0 {
			break
		}
		open := pos + rel
		bodyStart := open + len(linkOpen)

		closeRel := strings.Index(content[bodyStart:], linkClose)
		if closeRel < 0 {
			issues = append(issues, LinkIssue{
				Offset:  open,
				Kind:    domain.WarnUnterminatedLink,
				Message: "unterminated link: missing \"]]\"",
			})
			break
		}
		body := content[bodyStart : bodyStart+closeRel]
		end := bodyStart + closeRel + len(linkClose)
		pos = end

		if strings.TrimSpace(body) == "" {
			issues = append(issues, LinkIssue{Offset: open, Kind: domain.WarnEmptyLink, Message: "empty link \"[[]]\""})
			continue
		}

		label, target, explicit := strings.Cut(body, linkArrow)
		if !explicit {
			target = body
		}
		if strings.TrimSpace(target) != target && strings.TrimSpace(target) != "" {
			issues = append(issues, LinkIssue{
				Offset:  open,
				Kind:    domain.WarnLinkWhitespace,
				Message: "link \"" + content[open:end] + "\" has whitespace around its target",
			})
			continue
		}
		if !explicit {
			spans = append(spans, LinkSpan{Start: open, End: end, Label: body, Target: body})
			continue
		}
		if strings.TrimSpace(target) == "" {
			issues = append(issues, LinkIssue{
				Offset:  open,
				Kind:    domain.WarnEmptyLinkTarget,
				Message: "link \"" + content[open:end] + "\" has an empty target",
			})
			continue
		}
		if strings.TrimSpace(label) == "" {
			issues = append(issues, LinkIssue{
				Offset:  open,
				Kind:    domain.WarnEmptyLinkLabel,
				Message: "link \"" + content[open:end] + "\" has an empty label",
			})
			continue
		}
		spans = append(spans, LinkSpan{Start: open, End: end, Label: label, Target: target, Explicit: true})
	}

	return spans, issues
}
