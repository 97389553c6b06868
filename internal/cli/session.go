package cli

import (
	"context"
	"fmt"

	"github.com/aretw0/storyline/internal/presentation/tui"
	"github.com/aretw0/storyline/pkg/ports"
	"github.com/aretw0/storyline/pkg/runner"
)

// RunSession plays one reader's session in the foreground until the story
// ends, the choice times out or the user quits.
func RunSession(ctx context.Context, app *App, opts PlayOptions) error {
	var transport ports.Transport
	quit := make(chan struct{})

	if opts.JSON {
		transport = runner.NewJSONTransport(opts.In, opts.Out)
	} else {
		textOpts := []runner.TextTransportOption{runner.WithQuitChannel(quit)}
		if opts.Pretty && opts.Out != nil {
			tui.PrintBanner(opts.Out, app.Story.Title())
			render, err := tui.NewRenderer(80)
			if err != nil {
				return fmt.Errorf("failed to create renderer: %w", err)
			}
			textOpts = append(textOpts, runner.WithTextRenderer(render))
		}
		transport = runner.NewTextTransport(opts.In, opts.Out, textOpts...)
	}

	engine := app.NewEngine(transport)
	r := runner.New(engine, opts.Reader,
		runner.WithLogger(app.Logger),
		runner.WithInterruptSource(quit),
	)

	app.Logger.Debug("Starting session", "reader_id", int64(opts.Reader), "story", app.Story.Title())
	return r.Run(ctx)
}
