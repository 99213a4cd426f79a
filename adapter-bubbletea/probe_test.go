package bubble_adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ionut-t/goscroll/core"
)

func TestMeasureProbe_MultiLine(t *testing.T) {
	v := ItemVariant{
		Key:   "card",
		Probe: func(width int) string { return "abc\ndefgh" },
	}
	m := measureProbe(v, 80)
	assert.Equal(t, 2, m.height)
	assert.Equal(t, 5, m.width, "width is the widest line")
}

func TestMeasureProbe_WideRunes(t *testing.T) {
	v := ItemVariant{
		Key:   "cjk",
		Probe: func(width int) string { return "日本語" },
	}
	m := measureProbe(v, 80)
	assert.Equal(t, 6, m.width, "double-width runes count as two columns")
}

func TestMeasureProbe_NilProbeDefaultsToOneLine(t *testing.T) {
	m := measureProbe(ItemVariant{Key: "bare"}, 40)
	assert.Equal(t, 1, m.height)
	assert.Equal(t, 40, m.width)
}

func TestMeasureAll_UnblocksEngine(t *testing.T) {
	registry := core.NewRegistry(
		core.Variant{Key: "a", ElementCount: 1},
		core.Variant{Key: "b", ElementCount: 1},
	)
	engine := core.NewEngine(nil, registry)

	variants := []ItemVariant{
		{Key: "a", Probe: func(int) string { return "x" }},
		{Key: "b", Probe: func(int) string { return "y\nz" }},
	}
	measured, err := measureAll(engine, variants, 80)
	require.NoError(t, err)
	assert.True(t, engine.Ready())
	assert.Equal(t, 1, measured["a"].height)
	assert.Equal(t, 2, measured["b"].height)
}

func TestMeasureAll_UnknownVariant(t *testing.T) {
	registry := core.NewRegistry(core.Variant{Key: "a", ElementCount: 1})
	engine := core.NewEngine(nil, registry)

	_, err := measureAll(engine, []ItemVariant{{Key: "ghost"}}, 80)
	assert.ErrorIs(t, err, core.ErrUnknownVariant)
}

func TestItemsPerRow(t *testing.T) {
	tests := []struct {
		name           string
		containerWidth int
		probeWidth     int
		gap            int
		want           int
	}{
		{"four cells with gaps", 80, 18, 2, 4},
		{"exact fit", 38, 18, 2, 2},
		{"narrower than one cell", 10, 18, 2, 1},
		{"no gap", 80, 20, 0, 4},
		{"degenerate probe", 80, 0, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := itemsPerRow(tt.containerWidth, probeMeasurement{width: tt.probeWidth}, tt.gap)
			assert.Equal(t, tt.want, got)
		})
	}
}
