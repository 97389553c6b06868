package runtime

import "github.com/aretw0/storyline/pkg/domain"

// TutorialMessage is shown to a reader with no usable progress. Its single
// choice leads to the story's start passage.
func TutorialMessage(reader domain.ReaderID, start string) domain.Message {
	return domain.Message{
		Text: domain.TutorialText,
		Choices: []domain.Choice{{
			Label: domain.TutorialStartLabel,
			Token: domain.ChoiceToken{ReaderID: reader, Index: 0, Target: start}.String(),
		}},
	}
}

// PassageMessage renders p and binds one choice per link, in link order.
func PassageMessage(reader domain.ReaderID, p domain.Passage) domain.Message {
	text, links := Render(p)
	msg := domain.Message{Text: text}
	if len(links) == 0 {
		return msg
	}
	msg.Choices = make([]domain.Choice, len(links))
	for i, l := range links {
		msg.Choices[i] = domain.Choice{
			Label: l.Label,
			Token: domain.ChoiceToken{ReaderID: reader, Index: i, Target: l.Target}.String(),
		}
	}
	return msg
}
