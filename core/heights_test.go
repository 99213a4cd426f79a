package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bruteOffset recomputes the offset of index i from scratch using the
// latest height of every preceding index.
func bruteOffset(t *HeightTable, i int) float64 {
	var sum float64
	for j := 0; j < i; j++ {
		sum += t.Height(j)
	}
	return sum
}

func TestHeightTable_DefaultOffsets(t *testing.T) {
	ht := NewHeightTable(60)

	assert.Equal(t, 0.0, ht.TopOffset(0))
	assert.Equal(t, 60.0, ht.TopOffset(1))
	assert.Equal(t, 600.0, ht.TopOffset(10))
}

func TestHeightTable_PrefixSumUnderMutation(t *testing.T) {
	ht := NewHeightTable(60)

	// Materialize a stretch first so Set has entries to shift.
	ht.TopOffset(50)

	sets := []struct {
		index  int
		height float64
	}{
		{3, 90},
		{10, 30},
		{3, 45},  // re-measure an already-overridden index
		{0, 120},
		{49, 10},
		{25, 60}, // equals the default: exact no-op
	}
	for _, s := range sets {
		ht.Set(s.index, s.height)
	}

	for i := 0; i <= 50; i++ {
		require.Equal(t, bruteOffset(ht, i), ht.TopOffset(i), "offset of index %d", i)
	}
}

func TestHeightTable_SetBeyondMaterializedRange(t *testing.T) {
	ht := NewHeightTable(60)
	ht.TopOffset(5)

	// Index 100 has no prefix entry yet; the override must still apply
	// once the prefix extends that far.
	assert.True(t, ht.Set(100, 200))
	assert.Equal(t, bruteOffset(ht, 101), ht.TopOffset(101))
	assert.Equal(t, 200.0, ht.Height(100))
}

func TestHeightTable_SetNoopOnEqualHeight(t *testing.T) {
	ht := NewHeightTable(60)
	ht.TopOffset(10)

	require.True(t, ht.Set(4, 80))
	assert.False(t, ht.Set(4, 80), "re-applying the same height must report no change")

	before := ht.TopOffset(10)
	ht.Set(4, 80)
	assert.Equal(t, before, ht.TopOffset(10))
}

func TestHeightTable_TotalSize(t *testing.T) {
	ht := NewHeightTable(60)
	ht.SetPadding(8)

	assert.Equal(t, 100*60.0+8, ht.TotalSize(100))

	ht.Set(7, 90) // +30 deviation
	ht.Set(8, 30) // -30 deviation
	assert.Equal(t, 100*60.0+8, ht.TotalSize(100))

	ht.Set(9, 100) // +40
	assert.Equal(t, 100*60.0+40+8, ht.TotalSize(100))
}

func TestHeightTable_Measured(t *testing.T) {
	ht := NewHeightTable(60)
	assert.False(t, ht.Measured(3))
	ht.Set(3, 42)
	assert.True(t, ht.Measured(3))
}
