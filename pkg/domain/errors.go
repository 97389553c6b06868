package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrProgressNotFound is returned by a ProgressStore when a reader has no stored progress.
var ErrProgressNotFound = errors.New("progress not found")

// ErrNoPendingChoice is returned by a transport when an interaction matches no waiting session.
var ErrNoPendingChoice = errors.New("no pending choice for token")

// ErrInputClosed is returned by a transport when the reader's input stream has
// ended. Transports that read an io.Reader wrap io.EOF with it.
var ErrInputClosed = errors.New("reader input closed")

// WarningKind classifies a structural problem found while parsing.
type WarningKind string

const (
	WarnPrologue         WarningKind = "prologue"
	WarnEmptyName        WarningKind = "empty_name"
	WarnDuplicateName    WarningKind = "duplicate_name"
	WarnUnterminatedTags WarningKind = "unterminated_tags"
	WarnBadMetadata      WarningKind = "bad_metadata"
	WarnBadStoryData     WarningKind = "bad_story_data"
	WarnUnterminatedLink WarningKind = "unterminated_link"
	WarnEmptyLink        WarningKind = "empty_link"
	WarnEmptyLinkLabel   WarningKind = "empty_link_label"
	WarnEmptyLinkTarget  WarningKind = "empty_link_target"
	WarnLinkWhitespace   WarningKind = "link_whitespace"
)

// Warning is a single structural problem. The parser is strict, so any warning
// fails the whole story.
type Warning struct {
	Line    int         `json:"line"`
	Kind    WarningKind `json:"kind"`
	Message string      `json:"message"`
}

func (w Warning) String() string {
	if w.Line > 0 {
		return fmt.Sprintf("line %d: %s", w.Line, w.Message)
	}
	return w.Message
}

// MalformedStoryError is returned when the markup cannot be turned into a story.
type MalformedStoryError struct {
	Reason   string
	Warnings []Warning
}

func (e *MalformedStoryError) Error() string {
	if len(e.Warnings) == 0 {
		return "malformed story: " + e.Reason
	}
	if len(e.Warnings) == 1 {
		return "malformed story: " + e.Warnings[0].String()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "malformed story: %d warnings:\n", len(e.Warnings))
	for i, w := range e.Warnings {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, w.String())
	}
	return sb.String()
}

// NoStartPassageError is returned when no passage is designated as the entry point.
type NoStartPassageError struct {
	Wanted string
}

func (e *NoStartPassageError) Error() string {
	return fmt.Sprintf("no start passage (expected StoryData start or a passage named %q)", e.Wanted)
}

// MissingPassageError is returned when a passage name does not resolve.
type MissingPassageError struct {
	Name string
	From string // passage holding the broken link, empty for start/resume lookups
}

func (e *MissingPassageError) Error() string {
	if e.From != "" {
		return fmt.Sprintf("passage %q (linked from %q) does not exist", e.Name, e.From)
	}
	return fmt.Sprintf("passage %q does not exist", e.Name)
}

// ProgressStoreError wraps any persistence failure.
type ProgressStoreError struct {
	Op       string
	ReaderID ReaderID
	Err      error
}

func (e *ProgressStoreError) Error() string {
	return fmt.Sprintf("progress store %s for reader %d: %v", e.Op, int64(e.ReaderID), e.Err)
}

func (e *ProgressStoreError) Unwrap() error { return e.Err }

// InvariantError signals that a branch believed unreachable was taken.
type InvariantError struct {
	Reason string
}

func (e *InvariantError) Error() string {
	return "internal invariant violated: " + e.Reason
}
