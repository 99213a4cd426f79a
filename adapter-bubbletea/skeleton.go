package bubble_adapter

import (
	"strings"

	"charm.land/lipgloss/v2"
)

// skeletonStyle is the dim block look used for cache-miss placeholders
// when a variant does not supply its own Skeleton renderer.
var skeletonStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))

// genericSkeleton paints a placeholder block of the given size: a
// shimmering bar on the first line, faint rules on the rest.
func genericSkeleton(width, height int) string {
	if width <= 0 {
		width = 1
	}
	if height <= 0 {
		height = 1
	}
	bar := skeletonStyle.Render(strings.Repeat("▒", max(1, width*3/4)))
	lines := make([]string, height)
	lines[0] = bar
	for i := 1; i < height; i++ {
		lines[i] = skeletonStyle.Render(strings.Repeat("░", max(1, width/2)))
	}
	return strings.Join(lines, "\n")
}
