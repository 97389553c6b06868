/*
Package runner connects the engine to a terminal or to a line-oriented pipe.

It provides two ports.Transport implementations and a Runner that plays one
reader's session with OS signal handling.

# Key Components

  - TextTransport: numbered choices on a terminal, answered by number or label.
  - JSONTransport: JSON-Lines for headless hosts and scripted tests.
  - Runner: runs a session until it ends, the user quits or a signal arrives.

# Usage

	quit := make(chan struct{})
	tr := runner.NewTextTransport(os.Stdin, os.Stdout, runner.WithQuitChannel(quit))
	eng := runtime.NewEngine(story, store, tr)

	r := runner.New(eng, readerID, runner.WithInterruptSource(quit))
	if err := r.Run(ctx); err != nil {
		log.Fatal(err)
	}
*/
package runner
