package theme

import (
	"strings"
	"testing"

	"charm.land/lipgloss/v2"
	"github.com/stretchr/testify/assert"
)

func TestProgressBar(t *testing.T) {
	tests := []struct {
		percent, width int
		filled         int
		label          string
	}{
		{0, 20, 0, "  0%"},
		{50, 20, 10, " 50%"},
		{100, 20, 20, "100%"},
		{150, 10, 10, "100%"},
		{-5, 10, 0, "  0%"},
		{75, 2, 3, " 75%"},
	}
	for _, tt := range tests {
		bar := ProgressBar(tt.percent, tt.width)
		assert.Equal(t, tt.filled, strings.Count(bar, "█"), "percent %d", tt.percent)
		assert.True(t, strings.HasSuffix(bar, tt.label), "bar %q", bar)

		width := tt.width
		if width < 4 {
			width = 4
		}
		assert.Equal(t, width+1+len(tt.label), lipgloss.Width(bar))
	}
}

func TestTableRendersHeadersAndRows(t *testing.T) {
	out := Table("Path", "Calls").Row("/courses/{courseId}", "3").String()
	assert.Contains(t, out, "Path")
	assert.Contains(t, out, "/courses/{courseId}")
}

func TestMark(t *testing.T) {
	assert.Contains(t, Mark(true), "✓")
	assert.Contains(t, Mark(false), "✗")
	assert.Contains(t, Field("Progress", "50%"), "50%")
}
