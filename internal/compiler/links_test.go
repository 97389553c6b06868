package compiler

import (
	"testing"

	"github.com/aretw0/storyline/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestScanLinks(t *testing.T) {
	content := "Go [[North->Forest]], [[Cave]] or [[North->Forest]]. [not a link] [[A->B->C]]"
	spans, issues := ScanLinks(content)

	assert.Empty(t, issues)
	links := make([]domain.Link, len(spans))
	for i, s := range spans {
		links[i] = s.Link()
	}
	assert.Equal(t, []domain.Link{
		{Label: "North", Target: "Forest"},
		{Label: "Cave", Target: "Cave"},
		{Label: "North", Target: "Forest"},
		{Label: "A", Target: "B->C"},
	}, links, "duplicates are preserved and only the first arrow splits")

	assert.True(t, spans[0].Explicit)
	assert.False(t, spans[1].Explicit)
	assert.Equal(t, "[[North->Forest]]", content[spans[0].Start:spans[0].End])
}

func TestScanLinks_Issues(t *testing.T) {
	spans, issues := ScanLinks("ok [[Fine]] then [[]] and [[x->]] and [[tail")

	assert.Len(t, spans, 1)
	kinds := make([]domain.WarningKind, len(issues))
	for i, is := range issues {
		kinds[i] = is.Kind
	}
	assert.Equal(t, []domain.WarningKind{
		domain.WarnEmptyLink,
		domain.WarnEmptyLinkTarget,
		domain.WarnUnterminatedLink,
	}, kinds)
}

func TestScanLinks_WhitespaceAroundTarget(t *testing.T) {
	for _, content := range []string{
		"[[Go north -> Forest]]",
		"[[Go north->Forest ]]",
		"[[ Cave]]",
		"[[Cave\t]]",
	} {
		t.Run(content, func(t *testing.T) {
			spans, issues := ScanLinks(content)
			assert.Empty(t, spans)
			if assert.Len(t, issues, 1) {
				assert.Equal(t, domain.WarnLinkWhitespace, issues[0].Kind)
				assert.Equal(t, 0, issues[0].Offset)
			}
		})
	}

	spans, issues := ScanLinks("[[Go north ->Forest]] [[Dark cave]]")
	assert.Empty(t, issues, "spaces in the label or inside a name are fine")
	assert.Len(t, spans, 2)
}
