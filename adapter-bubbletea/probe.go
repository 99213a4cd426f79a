package bubble_adapter

import (
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/rivo/uniseg"

	"github.com/ionut-t/goscroll/core"
)

// ItemVariant binds a core variant key to its render capabilities: the
// real renderer, the placeholder renderer, and an inert probe sample
// used solely to obtain a reference height and width before any data
// arrives. Resolution is by key lookup, never by type switching on the
// payload.
type ItemVariant struct {
	Key          string
	ElementCount int

	// Render paints one record at the given width.
	Render func(rec core.Record, width int) string

	// Skeleton paints the placeholder shown while the record for an
	// index is not cached yet. Optional; a generic skeleton is used
	// when nil.
	Skeleton func(width int) string

	// Probe returns a representative sample rendered exactly like real
	// content. It is measured once per size change and never shown.
	Probe func(width int) string
}

// probeMeasurement is the result of rendering one variant's probe.
type probeMeasurement struct {
	height int
	width  int
}

// measureProbe renders the variant's sample off-screen and measures
// it. Height is the rendered line count; width is the widest line in
// grapheme cluster terms, so double-width runes and combining marks
// measure the way the terminal lays them out.
func measureProbe(v ItemVariant, width int) probeMeasurement {
	if v.Probe == nil {
		return probeMeasurement{height: 1, width: width}
	}
	sample := v.Probe(width)
	m := probeMeasurement{height: lipgloss.Height(sample)}
	for _, line := range strings.Split(sample, "\n") {
		if w := uniseg.StringWidth(line); w > m.width {
			m.width = w
		}
	}
	return m
}

// measureAll feeds every variant's probe height into the engine,
// unblocking windowing once the last one lands. It returns the
// per-variant measurements for grid layout derivation.
func measureAll(engine *core.Engine, variants []ItemVariant, width int) (map[string]probeMeasurement, error) {
	measured := make(map[string]probeMeasurement, len(variants))
	for _, v := range variants {
		pm := measureProbe(v, width)
		if err := engine.MeasureVariant(v.Key, float64(pm.height)); err != nil {
			return nil, err
		}
		measured[v.Key] = pm
	}
	return measured, nil
}

// itemsPerRow derives the per-row capacity for grid packing from the
// container width and the packable variant's measured probe width.
// Changing the result is a structural input change for the row packer.
func itemsPerRow(containerWidth int, probe probeMeasurement, gap int) int {
	cell := probe.width + gap
	if cell <= 0 {
		return 1
	}
	n := (containerWidth + gap) / cell
	if n < 1 {
		n = 1
	}
	return n
}
