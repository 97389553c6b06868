package domain

import "time"

// Session is the transient state of one render-await-resolve cycle.
// A fresh value is built for every cycle so that PendingTokens always matches
// exactly the choices last shown.
type Session struct {
	ID             string
	ReaderID       ReaderID
	CurrentPassage string
	PendingTokens  map[string]struct{}
	Deadline       time.Time
}

// NewSession builds the session for a message that was just presented.
func NewSession(id string, reader ReaderID, passage string, msg Message, deadline time.Time) Session {
	pending := make(map[string]struct{}, len(msg.Choices))
	for _, c := range msg.Choices {
		pending[c.Token] = struct{}{}
	}
	return Session{
		ID:             id,
		ReaderID:       reader,
		CurrentPassage: passage,
		PendingTokens:  pending,
		Deadline:       deadline,
	}
}

// Expects reports whether token was issued in this cycle.
func (s Session) Expects(token string) bool {
	_, ok := s.PendingTokens[token]
	return ok
}
