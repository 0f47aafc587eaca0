package ui

import (
	"testing"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestLabel(t *testing.T) {
	tests := []struct {
		name string
		in   string
		w    int
		want string
	}{
		{"pads short ids", "P1", 3, "P1 "},
		{"cuts long ids", "worker-12", 3, "wor"},
		{"keeps multibyte runes whole", "é1x", 2, "é1"},
		{"zero width", "P1", 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, label(tt.in, tt.w))
		})
	}
}

func TestLabel_WideRunesFitCells(t *testing.T) {
	for _, w := range []int{1, 2, 3, 5} {
		got := label("進程進程", w)
		assert.True(t, utf8.ValidString(got), "width %d: %q", w, got)
		assert.Equal(t, w, lipgloss.Width(got), "width %d: %q", w, got)
	}
}
