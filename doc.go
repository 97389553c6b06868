/*
Package storyline plays Twee 3 interactive fiction for many readers at once,
one passage and one choice at a time.

A story is parsed once into an immutable graph of passages. Each reader gets a
session that shows the current passage with one choice per link, waits for a
selection, records the reader's new position and moves on. Sessions end when
the story reaches a passage without links, when the reader takes longer than
the choice timeout, or on an internal error.

# Concept

The engine follows a hexagonal layout: the session loop lives in
internal/runtime and talks to the outside world through two ports.

  - ports.ProgressStore keeps one row per reader: the passage they are on.
    Adapters exist for memory, Redis, Postgres, SQLite and a JSON file.
  - ports.Transport presents messages and delivers selections. Adapters exist
    for an in-memory inbox, the terminal, JSON lines and HTTP.

# Usage

	eng, err := storyline.Load("./cave.twee")
	if err != nil {
		log.Fatal(err)
	}

	go eng.Play(ctx, 42)

	inbox, _ := eng.Transport()
	// ... read inbox.Last(42), then answer:
	inbox.Dispatch(domain.Interaction{Kind: domain.InteractionButton, Token: token})

The storyline command wraps the same engine for the terminal, HTTP and MCP.
*/
package storyline
