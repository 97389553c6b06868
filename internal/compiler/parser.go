package compiler

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/storyline/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

const headerPrefix = "::"

// Parser is responsible for converting raw Twee source into a Story.
// Parsing is strict: any structural warning fails the whole story.
// A Parser holds no state and is safe for concurrent use.
type Parser struct{}

// NewParser creates a new parser instance.
func NewParser() *Parser {
	return &Parser{}
}

// Parse is a convenience wrapper around NewParser().Parse.
func Parse(raw string) (*domain.Story, error) {
	return NewParser().Parse(raw)
}

type rawPassage struct {
	passage domain.Passage
	body    []string
}

// Parse splits raw into passages, decodes the special StoryTitle and StoryData
// passages, validates every link token and resolves the start passage.
func (p *Parser) Parse(raw string) (*domain.Story, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, &domain.MalformedStoryError{Reason: "story is empty"}
	}

	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	lines := strings.Split(raw, "\n")

	var warnings []domain.Warning
	var blocks []*rawPassage
	var current *rawPassage
	prologueLine := 0

	for i, line := range lines {
		lineNo := i + 1
		if strings.HasPrefix(line, headerPrefix) {
			name, tags, meta, headerWarnings := parseHeader(line[len(headerPrefix):], lineNo)
			warnings = append(warnings, headerWarnings...)
			current = &rawPassage{passage: domain.Passage{
				Name:     name,
				Tags:     tags,
				Metadata: meta,
				Line:     lineNo,
			}}
			blocks = append(blocks, current)
			continue
		}
		if current == nil {
			if prologueLine == 0 && strings.TrimSpace(line) != "" {
				prologueLine = lineNo
			}
			continue
		}
		current.body = append(current.body, line)
	}

	if len(blocks) == 0 {
		return nil, &domain.MalformedStoryError{Reason: "no passage headers (lines starting with \"::\")"}
	}
	if prologueLine > 0 {
		warnings = append(warnings, domain.Warning{
			Line:    prologueLine,
			Kind:    domain.WarnPrologue,
			Message: "text before the first passage header",
		})
	}

	var (
		title    string
		data     domain.StoryData
		passages []domain.Passage
		seen     = make(map[string]int)
	)

	for _, b := range blocks {
		b.passage.Content = strings.TrimRight(strings.Join(b.body, "\n"), " \t\n")
		name := b.passage.Name

		if name == "" {
			warnings = append(warnings, domain.Warning{Line: b.passage.Line, Kind: domain.WarnEmptyName, Message: "passage has an empty name"})
			continue
		}
		if first, dup := seen[name]; dup {
			warnings = append(warnings, domain.Warning{
				Line:    b.passage.Line,
				Kind:    domain.WarnDuplicateName,
				Message: fmt.Sprintf("duplicate passage name %q (first defined on line %d)", name, first),
			})
			continue
		}
		seen[name] = b.passage.Line

		switch name {
		case domain.PassageStoryTitle:
			title = strings.TrimSpace(b.passage.Content)
			continue
		case domain.PassageStoryData:
			decoded, err := decodeStoryData(b.passage.Content)
			if err != nil {
				warnings = append(warnings, domain.Warning{Line: b.passage.Line, Kind: domain.WarnBadStoryData, Message: err.Error()})
			}
			data = decoded
			continue
		}

		_, issues := ScanLinks(b.passage.Content)
		for _, issue := range issues {
			warnings = append(warnings, domain.Warning{
				Line:    b.passage.Line + 1 + strings.Count(b.passage.Content[:issue.Offset], "\n"),
				Kind:    issue.Kind,
				Message: fmt.Sprintf("passage %q: %s", name, issue.Message),
			})
		}
		passages = append(passages, b.passage)
	}

	if len(warnings) > 0 {
		sort.SliceStable(warnings, func(i, j int) bool { return warnings[i].Line < warnings[j].Line })
		return nil, &domain.MalformedStoryError{Reason: "story has unresolved warnings", Warnings: warnings}
	}
	if len(passages) == 0 {
		return nil, &domain.MalformedStoryError{Reason: "story has no playable passages"}
	}

	start, err := resolveStart(data, passages)
	if err != nil {
		return nil, err
	}
	return domain.NewStory(title, data, start, passages)
}

// resolveStart picks StoryData.start when declared, else the passage named "Start".
func resolveStart(data domain.StoryData, passages []domain.Passage) (string, error) {
	has := func(name string) bool {
		for _, p := range passages {
			if p.Name == name {
				return true
			}
		}
		return false
	}
	if data.Start != "" {
		if !has(data.Start) {
			return "", &domain.MissingPassageError{Name: data.Start}
		}
		return data.Start, nil
	}
	if has(domain.DefaultStartPassage) {
		return domain.DefaultStartPassage, nil
	}
	return "", &domain.NoStartPassageError{Wanted: domain.DefaultStartPassage}
}

// parseHeader decodes `Name [tags] {metadata}`. Backslash escapes a literal
// character inside the name.
func parseHeader(header string, line int) (string, []string, map[string]any, []domain.Warning) {
	var warnings []domain.Warning
	var name strings.Builder

	rest := ""
	escaped := false
	for i, r := range header {
		if escaped {
			name.WriteRune(r)
			escaped = false
			continue
		}
		if r == '\\' {
			escaped = true
			continue
		}
		if r == '[' || r == '{' {
			rest = header[i:]
			break
		}
		name.WriteRune(r)
	}

	var tags []string
	rest = strings.TrimSpace(rest)
	if strings.HasPrefix(rest, "[") {
		end := strings.Index(rest, "]")
		if end < 0 {
			warnings = append(warnings, domain.Warning{Line: line, Kind: domain.WarnUnterminatedTags, Message: "unterminated tag block: missing \"]\""})
			rest = ""
		} else {
			tags = strings.Fields(rest[1:end])
			rest = strings.TrimSpace(rest[end+1:])
		}
	}

	var meta map[string]any
	if rest != "" {
		if err := json.Unmarshal([]byte(rest), &meta); err != nil {
			warnings = append(warnings, domain.Warning{Line: line, Kind: domain.WarnBadMetadata, Message: fmt.Sprintf("malformed passage metadata: %v", err)})
			meta = nil
		}
	}

	return strings.TrimSpace(name.String()), tags, meta, warnings
}

// decodeStoryData reads the StoryData JSON body into the typed struct.
func decodeStoryData(content string) (domain.StoryData, error) {
	var data domain.StoryData
	if strings.TrimSpace(content) == "" {
		return data, nil
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return data, fmt.Errorf("malformed StoryData: %w", err)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &data,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return data, fmt.Errorf("StoryData decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return data, fmt.Errorf("malformed StoryData: %w", err)
	}
	return data, nil
}
