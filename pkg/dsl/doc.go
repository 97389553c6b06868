/*
Package dsl provides a Go DSL for programmatically constructing Storyline stories.

It produces regular Twee 3 source and runs it through the same strict parser used
for story files, so a built story cannot bypass any validation. This is useful
for tests, generated stories and IDE autocompletion.

Example usage:

	b := dsl.New("The Cave")

	b.Add("Start").
		Text("You stand at a fork.").
		Link("Go north", "Forest").
		Link("Go south", "Cave")

	b.Add("Forest").
		Text("Birds sing.").
		Link("Return", "Start")

	b.Add("Cave").
		Text("It is dark. The end.")

	story, err := b.Build()
*/
package dsl
