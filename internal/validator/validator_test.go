package validator_test

import (
	"testing"

	"github.com/aretw0/storyline/internal/compiler"
	"github.com/aretw0/storyline/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Clean(t *testing.T) {
	story, err := compiler.Parse(":: Start\n[[Go->End]]\n:: End\nFin.\n")
	require.NoError(t, err)

	report := validator.Validate(story)
	assert.True(t, report.OK())
	assert.NoError(t, report.Err())
	assert.Equal(t, []string{"End"}, report.Terminal)
}

func TestValidate_Findings(t *testing.T) {
	story, err := compiler.Parse(`:: Start
[[Forest]] [[Jump->Cliff]]
:: Forest
[[Back->Start]]
:: Island
Nobody links here. [[Forest]]
:: Lagoon
Only the island's neighbour.
`)
	require.NoError(t, err)

	report := validator.Validate(story)
	assert.False(t, report.OK())
	assert.Equal(t, []validator.DeadLink{{From: "Start", Label: "Jump", Target: "Cliff"}}, report.DeadLinks)
	assert.Equal(t, []string{"Island", "Lagoon"}, report.Unreachable)

	err = report.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "found 3 problems")
	assert.Contains(t, err.Error(), "'Cliff'")
}
