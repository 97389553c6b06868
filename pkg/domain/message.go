package domain

// Choice is one selectable control attached to a Message.
type Choice struct {
	Label string `json:"label"`
	Token string `json:"token"`
}

// Message is what a transport presents to the reader: a text body and zero or
// more ordered choices. A message without choices is terminal.
type Message struct {
	Text    string   `json:"text"`
	Choices []Choice `json:"choices,omitempty"`
}

// Terminal reports whether the message offers no further choice.
func (m Message) Terminal() bool {
	return len(m.Choices) == 0
}

// Tokens returns the tokens of all choices in order.
func (m Message) Tokens() []string {
	out := make([]string, len(m.Choices))
	for i, c := range m.Choices {
		out[i] = c.Token
	}
	return out
}

// FailureMessage is the generic, choice-less message shown when a session aborts.
func FailureMessage() Message {
	return Message{Text: FailureText}
}
