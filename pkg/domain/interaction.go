package domain

// InteractionKind enumerates the selection events a transport can deliver.
// The set is closed: the engine handles every kind explicitly.
type InteractionKind string

const (
	// InteractionButton is a press on a choice control. The only kind the engine acts on.
	InteractionButton InteractionKind = "button"
	// InteractionSelectMenu is a pick from a drop-down. Never offered by the engine.
	InteractionSelectMenu InteractionKind = "select_menu"
	// InteractionTextInput is free-form text. Never offered by the engine.
	InteractionTextInput InteractionKind = "text_input"
)

// Valid reports whether k is a known kind.
func (k InteractionKind) Valid() bool {
	switch k {
	case InteractionButton, InteractionSelectMenu, InteractionTextInput:
		return true
	}
	return false
}

// Interaction is a selection event delivered by a transport.
type Interaction struct {
	Kind     InteractionKind `json:"kind"`
	ReaderID ReaderID        `json:"reader_id"`
	Token    string          `json:"token"`
	Values   []string        `json:"values,omitempty"`
}
