package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventSessionStart EventType = "session_start"
	EventPassageEnter EventType = "passage_enter"
	EventChoice       EventType = "choice"
	EventTimeout      EventType = "timeout"
	EventSessionEnd   EventType = "session_end"
)

// EndReason explains why a session stopped.
type EndReason string

const (
	EndTerminal EndReason = "terminal"
	EndTimeout  EndReason = "timeout"
	EndError    EndReason = "error"
	EndCanceled EndReason = "canceled"
	EndClosed   EndReason = "closed"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
	ReaderID  ReaderID  `json:"reader_id"`
}

// PassageEvent is emitted when a passage (or the tutorial) is presented.
type PassageEvent struct {
	EventBase
	Passage  string `json:"passage"`
	Tutorial bool   `json:"tutorial,omitempty"`
	Terminal bool   `json:"terminal,omitempty"`
	Choices  int    `json:"choices"`
}

// ChoiceEvent is emitted when a reader picks a link.
type ChoiceEvent struct {
	EventBase
	From   string `json:"from"`
	Target string `json:"target"`
}

// SessionEvent marks the start or end of a session.
type SessionEvent struct {
	EventBase
	Passage string    `json:"passage,omitempty"`
	Reason  EndReason `json:"reason,omitempty"`
	Err     string    `json:"error,omitempty"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnSessionStart func(context.Context, *SessionEvent)
	OnPassageEnter func(context.Context, *PassageEvent)
	OnChoice       func(context.Context, *ChoiceEvent)
	OnTimeout      func(context.Context, *SessionEvent)
	OnSessionEnd   func(context.Context, *SessionEvent)
}

// ChainHooks fans each callback out to every non-nil hook in order.
func ChainHooks(hooks ...LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnSessionStart: func(ctx context.Context, e *SessionEvent) {
			for _, h := range hooks {
				if h.OnSessionStart != nil {
					h.OnSessionStart(ctx, e)
				}
			}
		},
		OnPassageEnter: func(ctx context.Context, e *PassageEvent) {
			for _, h := range hooks {
				if h.OnPassageEnter != nil {
					h.OnPassageEnter(ctx, e)
				}
			}
		},
		OnChoice: func(ctx context.Context, e *ChoiceEvent) {
			for _, h := range hooks {
				if h.OnChoice != nil {
					h.OnChoice(ctx, e)
				}
			}
		},
		OnTimeout: func(ctx context.Context, e *SessionEvent) {
			for _, h := range hooks {
				if h.OnTimeout != nil {
					h.OnTimeout(ctx, e)
				}
			}
		},
		OnSessionEnd: func(ctx context.Context, e *SessionEvent) {
			for _, h := range hooks {
				if h.OnSessionEnd != nil {
					h.OnSessionEnd(ctx, e)
				}
			}
		},
	}
}
