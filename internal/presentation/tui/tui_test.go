package tui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRenderer(t *testing.T) {
	render, err := NewRenderer(60)
	require.NoError(t, err)

	out, err := render("**Bold** and [[Go north]]")
	require.NoError(t, err)
	assert.Contains(t, out, "Bold")
	assert.Contains(t, out, "Go north")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "The Cave")
	assert.Contains(t, buf.String(), "The Cave")
}
