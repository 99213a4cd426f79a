package core

import "math"

// Range is a window of global indices [Start, Start+Size).
type Range struct {
	Start int
	Size  int
}

// End returns the exclusive upper bound of the range.
func (r Range) End() int {
	return r.Start + r.Size
}

// Contains reports whether the index falls inside the range.
func (r Range) Contains(index int) bool {
	return index >= r.Start && index < r.End()
}

// Empty reports whether the range covers no indices.
func (r Range) Empty() bool {
	return r.Size <= 0
}

// Clip bounds the range to [0, total). A negative total means the
// total is unknown and only the lower bound applies.
func (r Range) Clip(total int) Range {
	if r.Start < 0 {
		r.Size += r.Start
		r.Start = 0
	}
	if total >= 0 && r.End() > total {
		r.Size = total - r.Start
	}
	if r.Size < 0 {
		r.Size = 0
	}
	return r
}

// maxWindowSpan caps the forward accumulation walk so a pathological
// run of zero-height overrides cannot spin forever.
const maxWindowSpan = 1 << 20

// visibleWindow converts a scroll position into the index range to
// keep mounted.
//
// The start index is seeded by dividing the scroll offset by the
// default height, then corrected against the real offsets in the
// height table; the walk in both directions absorbs the approximation
// error non-uniform heights introduce. The end index accumulates
// per-index heights until the viewport is covered. The buffer is
// applied symmetrically so both scroll directions have pre-fetched
// neighbors, and the size is floored at the page size so small
// viewports still fetch efficient batches.
func visibleWindow(t *HeightTable, scrollTop, viewportHeight float64, buffer, pageSize int) Range {
	def := t.DefaultHeight()
	if def <= 0 {
		return Range{}
	}
	if scrollTop < 0 {
		scrollTop = 0
	}

	idx := int(math.Floor(scrollTop / def))
	if idx < 0 {
		idx = 0
	}
	for idx > 0 && t.TopOffset(idx) > scrollTop {
		idx--
	}
	for t.TopOffset(idx+1) <= scrollTop {
		idx++
	}

	end := idx
	var covered float64
	for covered < viewportHeight && end-idx < maxWindowSpan {
		covered += t.Height(end)
		end++
	}

	start := idx - buffer
	if start < 0 {
		start = 0
	}
	size := (end - idx) + 2*buffer
	if size < pageSize {
		size = pageSize
	}
	return Range{Start: start, Size: size}
}
