package domain

import "time"

const (
	// DefaultStartPassage is the passage used as entry point when StoryData does not name one.
	DefaultStartPassage = "Start"

	// DefaultChoiceTimeout bounds how long a session waits for a selection.
	DefaultChoiceTimeout = 600 * time.Second

	// TutorialStartLabel is the label of the single choice offered by the tutorial.
	TutorialStartLabel = "Click here to start"

	// TutorialText explains the bracket-link convention to first-time readers.
	TutorialText = "# Tutorial\n\nWhen playing through this story, you will see text in double-brackets. " +
		"For example, it'll look like this: [[" + TutorialStartLabel + "]].\n" +
		"If you see that, a button with the same text at the bottom of the post will take you to that page.\n\n" +
		"Try it now!"

	// FailureText is shown to a reader when a session aborts on an internal error.
	FailureText = "Something went wrong while playing the story. Please try again later."
)

// Special passage names consumed by the parser and never exposed as playable passages.
const (
	PassageStoryTitle = "StoryTitle"
	PassageStoryData  = "StoryData"
)
