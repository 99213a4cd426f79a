package core

// HeightTable tracks per-index item heights and cumulative top offsets.
//
// Heights default to a single weighted-average default height until an
// index is measured. Offsets are kept in a lazily-extended prefix-sum
// slice: prefix[i] is the top offset of index i, and the invariant
// prefix[i] = prefix[i-1] + height(i-1) holds for every materialized
// entry. A running total delta (sum of all deviations from the default
// height) makes the total content size an O(1) computation.
type HeightTable struct {
	def        float64
	padding    float64
	prefix     []float64
	overrides  map[int]float64
	totalDelta float64
}

// NewHeightTable creates a table with the given default height. The
// default is fixed for the lifetime of the table; a structural change
// (new variant set, new probe measurements) replaces the table.
func NewHeightTable(defaultHeight float64) *HeightTable {
	return &HeightTable{
		def:       defaultHeight,
		overrides: make(map[int]float64),
	}
}

// DefaultHeight returns the per-item height assumed for indices that
// have not been measured yet.
func (t *HeightTable) DefaultHeight() float64 {
	return t.def
}

// SetPadding sets extra space added to the total content size (e.g.
// trailing spacer below the last item).
func (t *HeightTable) SetPadding(p float64) {
	t.padding = p
}

// Height returns the height of the item at index i: the measured
// override when one exists, the default otherwise.
func (t *HeightTable) Height(i int) float64 {
	if h, ok := t.overrides[i]; ok {
		return h
	}
	return t.def
}

// TopOffset returns the cumulative offset of the top edge of index i.
// The prefix slice is extended lazily up to i using the default height
// for any unmaterialized gap; already-materialized entries are never
// recomputed.
func (t *HeightTable) TopOffset(i int) float64 {
	if i < 0 {
		return 0
	}
	if len(t.prefix) == 0 {
		t.prefix = append(t.prefix, 0)
	}
	for len(t.prefix) <= i {
		last := len(t.prefix) - 1
		t.prefix = append(t.prefix, t.prefix[last]+t.Height(last))
	}
	return t.prefix[i]
}

// Set records a measured height for index i. It returns true when the
// table changed. A measurement equal to the current height is an exact
// no-op so callers can skip reflowing downstream state.
//
// Changing index i shifts the offsets of every already-materialized
// entry after i by the delta. The shift only covers the visited range,
// never the whole list.
func (t *HeightTable) Set(i int, h float64) bool {
	if i < 0 {
		return false
	}
	delta := h - t.Height(i)
	if delta == 0 {
		return false
	}
	t.overrides[i] = h
	t.totalDelta += delta
	for j := i + 1; j < len(t.prefix); j++ {
		t.prefix[j] += delta
	}
	return true
}

// Measured reports whether index i has an explicit height.
func (t *HeightTable) Measured(i int) bool {
	_, ok := t.overrides[i]
	return ok
}

// TotalSize returns the total content size for a list of knownCount
// items: knownCount defaults plus the accumulated deviations plus the
// configured padding.
func (t *HeightTable) TotalSize(knownCount int) float64 {
	if knownCount < 0 {
		knownCount = 0
	}
	return float64(knownCount)*t.def + t.totalDelta + t.padding
}
