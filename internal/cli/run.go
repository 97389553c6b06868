package cli

import (
	"io"

	"github.com/aretw0/storyline/pkg/domain"
)

// PlayOptions configures a foreground session.
type PlayOptions struct {
	Reader domain.ReaderID
	// JSON switches to the JSON-Lines transport for headless hosts.
	JSON bool
	// Pretty renders passages as Markdown and prints a banner. Only used in
	// text mode on a terminal.
	Pretty bool
	In     io.Reader
	Out    io.Writer
}
