package core

import (
	"context"
	"sync"
)

// VisibleItem is one renderable slot in the current window. When the
// record has not arrived yet Placeholder is true and the render layer
// paints a skeleton instead.
type VisibleItem struct {
	Index       int
	TopOffset   float64
	Height      float64
	Record      Record
	Placeholder bool
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithCacheCapacity bounds the item cache. A capacity of 0 disables
// caching: each fetch batch replaces the cache wholesale.
func WithCacheCapacity(n int) Option {
	return func(e *Engine) { e.cacheCap = n }
}

// WithOpenEnded puts the engine in open-ended mode: the total count is
// unknown up front and is resolved progressively from short or empty
// fetch responses.
func WithOpenEnded() Option {
	return func(e *Engine) { e.openEnded = true }
}

// WithBuffer sets the lookahead/lookbehind item count applied on both
// sides of the visible window.
func WithBuffer(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.state.Buffer = n
		}
	}
}

// WithPageSize sets the minimum fetch batch size.
func WithPageSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.state.PageSize = n
		}
	}
}

// WithPadding adds extra space to the total content size.
func WithPadding(p float64) Option {
	return func(e *Engine) { e.padding = p }
}

// Engine is the windowing and caching core for one scroll session. It
// owns the height table, the item cache and the fetch coordinator;
// the render layer owns everything visual.
//
// All methods are synchronous except EnsureVisible, which blocks the
// calling goroutine on the injected source. Several EnsureVisible
// calls may run concurrently; per-index merges are idempotent and
// commutative, so overlapping batches converge regardless of arrival
// order, and a generation counter discards results that outlive a
// structural reset.
type Engine struct {
	mu       sync.Mutex
	source   Fetcher
	registry *Registry
	coord    *fetchCoordinator
	heights  *HeightTable
	cache    *ItemCache

	state     State
	openEnded bool
	cacheCap  int
	padding   float64

	gen          uint64
	horizon      int // open-ended growth estimate while the end is unresolved
	announcedEnd int

	signals chan Signal
}

// NewEngine creates an engine over the injected paginated source and
// the session's variant registry. The engine starts in the
// measurement-pending state; feed probe heights via MeasureVariant to
// unblock windowing and fetching.
func NewEngine(source Fetcher, registry *Registry, opts ...Option) *Engine {
	e := &Engine{
		source:       source,
		registry:     registry,
		state:        InitialState(),
		cacheCap:     200,
		announcedEnd: -1,
		signals:      make(chan Signal, 100),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.coord = newFetchCoordinator(source, e.openEnded)
	e.cache = NewItemCache(e.cacheCap)
	return e
}

// Signals returns the channel carrying engine events to the render
// layer.
func (e *Engine) Signals() <-chan Signal {
	return e.signals
}

// MeasureVariant records the probe height for a variant. Once every
// variant is measured the default height is established and a
// MeasureSignal is dispatched.
func (e *Engine) MeasureVariant(key string, height float64) error {
	e.mu.Lock()
	if err := e.registry.Measure(key, height); err != nil {
		e.mu.Unlock()
		return err
	}
	ready := e.registry.Measured() && e.heights == nil
	if ready {
		e.heights = NewHeightTable(e.registry.DefaultHeight())
		e.heights.SetPadding(e.padding)
	}
	def := e.registry.DefaultHeight()
	e.mu.Unlock()

	if ready {
		e.DispatchSignal(MeasureSignal{defaultHeight: def})
	}
	return nil
}

// Ready reports whether measurement is complete. While false, ranges
// are empty and EnsureVisible is a no-op (the one blocking state).
func (e *Engine) Ready() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.heights != nil
}

// GetState returns the current viewport inputs.
func (e *Engine) GetState() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// SetState replaces the viewport inputs wholesale.
func (e *Engine) SetState(s State) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = s
}

// SetScroll updates the scroll offset.
func (e *Engine) SetScroll(top float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if top < 0 {
		top = 0
	}
	e.state.ScrollTop = top
}

// SetViewport updates the viewport height.
func (e *Engine) SetViewport(height float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.ViewportHeight = height
}

// VisibleRange computes the index range to keep mounted for the
// current scroll position, clipped to the known total. ok is false
// while measurement is pending.
func (e *Engine) VisibleRange() (Range, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.heights == nil {
		return Range{}, false
	}
	return e.visibleRangeLocked(), true
}

func (e *Engine) visibleRangeLocked() Range {
	r := visibleWindow(e.heights, e.state.ScrollTop, e.state.ViewportHeight, e.state.Buffer, e.state.PageSize)
	return r.Clip(e.knownCountLocked())
}

// knownCountLocked returns the authoritative total, or -1 while it is
// unknown. Finite mode trusts the declared variant counts even when
// the source disagrees; open-ended mode trusts the resolved boundary.
func (e *Engine) knownCountLocked() int {
	if !e.openEnded {
		return e.registry.DeclaredCount()
	}
	if resolved, ok := e.coord.Resolved(); ok {
		return resolved
	}
	return -1
}

// KnownCount returns the authoritative total count, or -1 while the
// end has not been resolved in open-ended mode.
func (e *Engine) KnownCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.knownCountLocked()
}

// ResolvedCount returns the progressively resolved end-of-data
// boundary in open-ended mode.
func (e *Engine) ResolvedCount() (int, bool) {
	return e.coord.Resolved()
}

// EnsureVisible fetches whatever part of the current window is missing
// from the cache and merges the result. It blocks until the source
// responds. Measurement-pending and already-satisfied windows return
// nil immediately; a stale result (structural reset while in flight)
// is discarded silently. Only a source failure is returned.
func (e *Engine) EnsureVisible(ctx context.Context) error {
	e.mu.Lock()
	if e.heights == nil {
		e.mu.Unlock()
		return nil
	}
	window := e.visibleRangeLocked()
	missing, ok := e.missingSpanLocked(window)
	gen := e.gen
	e.mu.Unlock()
	if !ok {
		return nil
	}

	batch, err := e.coord.Fetch(ctx, missing.Start, missing.Size)
	if err != nil {
		e.DispatchError(ErrFetchFailedId, err)
		return err
	}

	e.mu.Lock()
	if gen != e.gen {
		e.mu.Unlock()
		return nil
	}
	e.mergeLocked(missing.Start, batch)
	resolved, resolvedOk := e.coord.Resolved()
	announce := resolvedOk && resolved != e.announcedEnd
	if announce {
		e.announcedEnd = resolved
	}
	e.mu.Unlock()

	if len(batch) > 0 {
		e.DispatchSignal(DataSignal{rng: Range{Start: missing.Start, Size: len(batch)}})
	}
	if announce {
		e.DispatchSignal(EndSignal{count: resolved})
	}
	return nil
}

// missingSpanLocked returns the contiguous span covering every index
// of the window that is not cached.
func (e *Engine) missingSpanLocked(window Range) (Range, bool) {
	first, last := -1, -1
	for i := window.Start; i < window.End(); i++ {
		if _, ok := e.cache.Get(i); ok {
			continue
		}
		if first < 0 {
			first = i
		}
		last = i
	}
	if first < 0 {
		return Range{}, false
	}
	return Range{Start: first, Size: last - first + 1}, true
}

// mergeLocked folds a fetched batch into the cache and the height
// table. Re-applying the same batch is a no-op.
func (e *Engine) mergeLocked(offset int, batch []Record) {
	if len(batch) == 0 {
		return
	}
	e.cache.Merge(offset, batch)
	for i, rec := range batch {
		if h, ok := e.registry.MeasuredHeight(rec.Variant); ok {
			e.heights.Set(offset+i, h)
		}
	}
	if e.openEnded {
		if _, resolved := e.coord.Resolved(); !resolved {
			// Keep one page of runway past the deepest merged index so
			// the scrollable spacer always has somewhere to go.
			if grown := offset + len(batch) + e.state.PageSize; grown > e.horizon {
				e.horizon = grown
			}
		}
	}
}

// ItemAt returns the cached record at a global index.
func (e *Engine) ItemAt(index int) (Record, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cache.Get(index)
}

// SetItemHeight feeds a dynamically measured height back for one
// index, e.g. after the render layer painted the real content. It
// returns true when the height actually changed and downstream
// offsets shifted.
func (e *Engine) SetItemHeight(index int, height float64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.heights == nil {
		return false
	}
	return e.heights.Set(index, height)
}

// TopOffset returns the top offset of a global index.
func (e *Engine) TopOffset(index int) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.heights == nil {
		return 0
	}
	return e.heights.TopOffset(index)
}

// HeightOf returns the current height of a global index.
func (e *Engine) HeightOf(index int) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.heights == nil {
		return 0
	}
	return e.heights.Height(index)
}

// VisibleItems returns one entry per index of the current window, with
// offsets, heights and either the cached record or a placeholder
// marker.
func (e *Engine) VisibleItems() []VisibleItem {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.heights == nil {
		return nil
	}
	window := e.visibleRangeLocked()
	items := make([]VisibleItem, 0, window.Size)
	for i := window.Start; i < window.End(); i++ {
		item := VisibleItem{
			Index:     i,
			TopOffset: e.heights.TopOffset(i),
			Height:    e.heights.Height(i),
		}
		if rec, ok := e.cache.Get(i); ok {
			item.Record = rec
		} else {
			item.Placeholder = true
		}
		items = append(items, item)
	}
	return items
}

// TotalContentSize returns the size of the scrollable content: the
// known total in finite or resolved mode, or the growing horizon
// estimate while the end is still unknown.
func (e *Engine) TotalContentSize() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.heights == nil {
		return 0
	}
	count := e.knownCountLocked()
	if count < 0 {
		count = e.horizon
	}
	return e.heights.TotalSize(count)
}

// Reset discards all derived state (cache, measured item heights,
// resolved boundary, growth horizon) and bumps the generation so any
// in-flight fetch result is discarded on arrival. The variant registry
// and its probe measurements survive; a changed variant set means a
// new engine.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.cache = NewItemCache(e.cacheCap)
	if e.registry.Measured() {
		e.heights = NewHeightTable(e.registry.DefaultHeight())
		e.heights.SetPadding(e.padding)
	} else {
		e.heights = nil
	}
	e.coord = newFetchCoordinator(e.source, e.openEnded)
	e.horizon = 0
	e.announcedEnd = -1
	e.gen++
	e.mu.Unlock()

	e.DispatchSignal(ResetSignal{})
}
