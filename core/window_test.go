package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVisibleWindow_InitialViewport(t *testing.T) {
	ht := NewHeightTable(60)

	// Viewport 600 / default 60 / buffer 5: ten items cover the
	// viewport, widened by 5 on each side.
	r := visibleWindow(ht, 0, 600, 5, 20)
	assert.Equal(t, 0, r.Start)
	assert.GreaterOrEqual(t, r.Size, 20)
}

func TestVisibleWindow_MidScroll(t *testing.T) {
	ht := NewHeightTable(60)

	// Scroll 600 lands exactly on index 10.
	r := visibleWindow(ht, 600, 600, 5, 0)
	assert.Equal(t, 5, r.Start)
	assert.Equal(t, 20, r.Size) // 10 covering + 2*5 buffer
}

func TestVisibleWindow_CorrectsSeedAgainstTallItems(t *testing.T) {
	ht := NewHeightTable(60)
	// Indices 0..4 are much taller than the default, so the naive seed
	// scroll/default overshoots and must walk back.
	for i := 0; i < 5; i++ {
		ht.Set(i, 300)
	}

	// scroll 900: seed = 15, but offsets are 0,300,...,1500, and index 3
	// starts at 900.
	r := visibleWindow(ht, 900, 600, 0, 0)
	assert.Equal(t, 3, r.Start)
}

func TestVisibleWindow_CorrectsSeedAgainstShortItems(t *testing.T) {
	ht := NewHeightTable(60)
	// Indices 0..9 are shorter than the default, so the seed
	// undershoots and must walk forward.
	for i := 0; i < 10; i++ {
		ht.Set(i, 10)
	}

	// scroll 120: seed = 2, but the short run ends at offset 100, so
	// 120 falls inside index 10.
	r := visibleWindow(ht, 120, 60, 0, 0)
	assert.Equal(t, 10, r.Start)
}

func TestVisibleWindow_FlooredAtPageSize(t *testing.T) {
	ht := NewHeightTable(60)

	// A tiny viewport still fetches a full page.
	r := visibleWindow(ht, 0, 60, 0, 20)
	assert.Equal(t, 20, r.Size)
}

func TestVisibleWindow_MeasurementPending(t *testing.T) {
	ht := NewHeightTable(0)

	r := visibleWindow(ht, 0, 600, 5, 20)
	assert.True(t, r.Empty(), "no window may be computed before measurement")
}

func TestRange_Clip(t *testing.T) {
	r := Range{Start: 95, Size: 20}.Clip(100)
	assert.Equal(t, Range{Start: 95, Size: 5}, r)

	r = Range{Start: 120, Size: 20}.Clip(100)
	assert.True(t, r.Empty())

	r = Range{Start: -3, Size: 10}.Clip(-1)
	assert.Equal(t, Range{Start: 0, Size: 7}, r)

	r = Range{Start: 5, Size: 10}.Clip(-1)
	assert.Equal(t, Range{Start: 5, Size: 10}, r, "unknown total only clips the lower bound")
}

func TestRange_Contains(t *testing.T) {
	r := Range{Start: 10, Size: 5}
	assert.True(t, r.Contains(10))
	assert.True(t, r.Contains(14))
	assert.False(t, r.Contains(15))
	assert.False(t, r.Contains(9))
}
