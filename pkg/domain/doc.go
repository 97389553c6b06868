/*
Package domain contains the core domain models of the Storyline engine.

It defines the story graph (Story, Passage, Link), the durable reader state
(ReaderProgress), the transient per-cycle Session and the values exchanged with
a transport (Message, Choice, Interaction). This package is kept pure and free of
external dependencies like I/O or persistence.

# Key Entities

  - Story: the immutable, parsed passage graph shared by every session.
  - Passage: a named unit of story content with embedded choice links.
  - ReaderProgress: the last passage a reader reached, persisted between sessions.
  - Session: one render-await-resolve cycle of the navigation state machine.
  - ChoiceToken: the opaque value bound to each choice control.
*/
package domain
