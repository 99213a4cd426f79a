package core

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Fetcher is the injected paginated source. The returned slice may be
// shorter than size (near end-of-data) or empty (end-of-data at
// offset, open-ended mode). The source owns its own timeout and retry
// policy; the engine imposes none.
type Fetcher func(ctx context.Context, offset, size int) ([]Record, error)

// fetchCoordinator issues paginated fetches, coalesces concurrent
// requests for the same range, and tracks the resolved total count in
// open-ended mode.
//
// Coalescing uses singleflight: callers asking for an already
// in-flight range share the one underlying call instead of racing or
// backing off. Results merge idempotently per index downstream, so
// arrival order never matters.
type fetchCoordinator struct {
	source    Fetcher
	openEnded bool

	group singleflight.Group

	mu       sync.Mutex
	resolved int // first confirmed end-of-data boundary; -1 = unknown
}

func newFetchCoordinator(source Fetcher, openEnded bool) *fetchCoordinator {
	return &fetchCoordinator{
		source:    source,
		openEnded: openEnded,
		resolved:  -1,
	}
}

// Resolved returns the end-of-data boundary observed so far, or false
// when none has been observed.
func (f *fetchCoordinator) Resolved() (int, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.resolved < 0 {
		return 0, false
	}
	return f.resolved, true
}

// Fetch retrieves [offset, offset+size) from the source. Requests at
// or past a resolved end are skipped outright and return an empty
// result, not an error. Short and empty responses in open-ended mode
// lower the resolved boundary; a boundary never widens once observed,
// since any end-of-data signal is authoritative.
func (f *fetchCoordinator) Fetch(ctx context.Context, offset, size int) ([]Record, error) {
	if offset < 0 || size <= 0 {
		return nil, fmt.Errorf("fetch at %d size %d: %w", offset, size, ErrInvalidRange)
	}

	f.mu.Lock()
	if f.resolved >= 0 {
		if offset >= f.resolved {
			f.mu.Unlock()
			return nil, nil
		}
		if offset+size > f.resolved {
			size = f.resolved - offset
		}
	}
	f.mu.Unlock()

	key := fmt.Sprintf("%d:%d", offset, size)
	v, err, _ := f.group.Do(key, func() (any, error) {
		return f.source(ctx, offset, size)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: range [%d,%d): %w", ErrFetchFailed, offset, offset+size, err)
	}
	batch, _ := v.([]Record)

	if f.openEnded && len(batch) < size {
		f.observeEnd(offset + len(batch))
	}
	return batch, nil
}

// observeEnd records an end-of-data boundary, keeping the minimum of
// all observations.
func (f *fetchCoordinator) observeEnd(boundary int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.resolved < 0 || boundary < f.resolved {
		f.resolved = boundary
	}
}
