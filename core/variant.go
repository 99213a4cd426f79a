package core

import "fmt"

// Record is the payload for one logical slot, tagged with the variant
// that renders it. Data is opaque to the engine.
type Record struct {
	Variant string
	Data    any
}

// Variant declares an item kind: a stable key and how many elements of
// this kind the overall sequence contains. In open-ended mode the
// counts only act as weights for the default height.
type Variant struct {
	Key          string
	ElementCount int
}

// Registry holds the variant set for one scroll session together with
// the probe heights supplied by the render layer. Variants are
// immutable for the lifetime of the session; a different variant set
// means a new registry and a new engine.
type Registry struct {
	variants []Variant
	heights  map[string]float64
}

// NewRegistry creates a registry for the given variants.
func NewRegistry(variants ...Variant) *Registry {
	return &Registry{
		variants: variants,
		heights:  make(map[string]float64),
	}
}

// Measure records the probe height for a variant. The render layer
// calls this once per variant after rendering the inert sample.
func (r *Registry) Measure(key string, height float64) error {
	for _, v := range r.variants {
		if v.Key == key {
			r.heights[key] = height
			return nil
		}
	}
	return fmt.Errorf("measure %q: %w", key, ErrUnknownVariant)
}

// MeasuredHeight returns the probe height for a variant key.
func (r *Registry) MeasuredHeight(key string) (float64, bool) {
	h, ok := r.heights[key]
	return h, ok
}

// Measured reports whether every variant has a probe height.
func (r *Registry) Measured() bool {
	if len(r.variants) == 0 {
		return false
	}
	for _, v := range r.variants {
		if _, ok := r.heights[v.Key]; !ok {
			return false
		}
	}
	return true
}

// DefaultHeight computes the weighted average of all measured probe
// heights, weighted by each variant's element count. It returns 0
// until every variant has been measured. That is the engine's one
// blocking state: no ranges are computed and no data is fetched while
// it is 0.
func (r *Registry) DefaultHeight() float64 {
	if !r.Measured() {
		return 0
	}
	var sum, weight float64
	for _, v := range r.variants {
		w := float64(v.ElementCount)
		sum += r.heights[v.Key] * w
		weight += w
	}
	if weight == 0 {
		// No declared counts (pure open-ended session): plain average.
		for _, v := range r.variants {
			sum += r.heights[v.Key]
		}
		return sum / float64(len(r.variants))
	}
	return sum / weight
}

// DeclaredCount returns the sum of all variants' element counts. It is
// authoritative for range clipping in finite mode even when the
// paginated source disagrees; a source returning data past this total
// violates the caller contract and is clipped, not reconciled.
func (r *Registry) DeclaredCount() int {
	total := 0
	for _, v := range r.variants {
		total += v.ElementCount
	}
	return total
}

// Keys returns the variant keys in declaration order.
func (r *Registry) Keys() []string {
	keys := make([]string, len(r.variants))
	for i, v := range r.variants {
		keys[i] = v.Key
	}
	return keys
}
