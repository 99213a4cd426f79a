package core

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// boundedSource serves a sequence of `total` records and counts calls.
func boundedSource(total int, calls *atomic.Int64) Fetcher {
	return func(ctx context.Context, offset, size int) ([]Record, error) {
		if calls != nil {
			calls.Add(1)
		}
		if offset >= total {
			return nil, nil
		}
		if offset+size > total {
			size = total - offset
		}
		return batchOf(offset, size), nil
	}
}

func TestFetchCoordinator_ResolvesEndFromShortResponse(t *testing.T) {
	f := newFetchCoordinator(boundedSource(47, nil), true)

	// Offset 42, requesting 10, source has 5 left.
	batch, err := f.Fetch(context.Background(), 42, 10)
	require.NoError(t, err)
	assert.Len(t, batch, 5)

	resolved, ok := f.Resolved()
	require.True(t, ok)
	assert.Equal(t, 47, resolved)
}

func TestFetchCoordinator_SkipsBeyondResolvedEnd(t *testing.T) {
	var calls atomic.Int64
	f := newFetchCoordinator(boundedSource(47, &calls), true)

	_, err := f.Fetch(context.Background(), 42, 10)
	require.NoError(t, err)
	before := calls.Load()

	// At or past the boundary: skipped entirely, no call, no error.
	batch, err := f.Fetch(context.Background(), 47, 10)
	require.NoError(t, err)
	assert.Empty(t, batch)
	batch, err = f.Fetch(context.Background(), 60, 10)
	require.NoError(t, err)
	assert.Empty(t, batch)
	assert.Equal(t, before, calls.Load())
}

func TestFetchCoordinator_ClipsSizeToResolvedEnd(t *testing.T) {
	var calls atomic.Int64
	sizes := make(chan int, 2)
	src := func(ctx context.Context, offset, size int) ([]Record, error) {
		calls.Add(1)
		sizes <- size
		return boundedSource(47, nil)(ctx, offset, size)
	}
	f := newFetchCoordinator(src, true)

	_, err := f.Fetch(context.Background(), 40, 20)
	require.NoError(t, err)
	assert.Equal(t, 20, <-sizes)

	// End resolved at 47: a request for [45, 65) is clipped to [45, 47).
	_, err = f.Fetch(context.Background(), 45, 20)
	require.NoError(t, err)
	assert.Equal(t, 2, <-sizes)
}

func TestFetchCoordinator_BoundaryNeverWidens(t *testing.T) {
	f := newFetchCoordinator(nil, true)

	f.observeEnd(47)
	f.observeEnd(60) // a later, larger offset report must not override
	resolved, _ := f.Resolved()
	assert.Equal(t, 47, resolved)

	f.observeEnd(30) // any smaller authoritative signal lowers it
	resolved, _ = f.Resolved()
	assert.Equal(t, 30, resolved)
}

func TestFetchCoordinator_FiniteModeIgnoresShortResponses(t *testing.T) {
	f := newFetchCoordinator(boundedSource(47, nil), false)

	_, err := f.Fetch(context.Background(), 42, 10)
	require.NoError(t, err)
	_, ok := f.Resolved()
	assert.False(t, ok, "finite mode must not resolve a boundary")
}

func TestFetchCoordinator_CoalescesConcurrentRequests(t *testing.T) {
	var calls atomic.Int64
	release := make(chan struct{})
	src := func(ctx context.Context, offset, size int) ([]Record, error) {
		calls.Add(1)
		<-release
		return batchOf(offset, size), nil
	}
	f := newFetchCoordinator(src, false)

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			batch, err := f.Fetch(context.Background(), 100, 20)
			assert.NoError(t, err)
			assert.Len(t, batch, 20)
		}()
	}
	// Give the goroutines a moment to pile onto the same key, then let
	// the single underlying call finish.
	for calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int64(1), calls.Load(), "identical in-flight ranges must share one source call")
}

func TestFetchCoordinator_WrapsSourceError(t *testing.T) {
	boom := errors.New("boom")
	src := func(ctx context.Context, offset, size int) ([]Record, error) {
		return nil, boom
	}
	f := newFetchCoordinator(src, false)

	_, err := f.Fetch(context.Background(), 0, 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFetchFailed)
	assert.ErrorIs(t, err, boom)
}

func TestFetchCoordinator_RejectsInvalidRange(t *testing.T) {
	f := newFetchCoordinator(boundedSource(10, nil), false)

	_, err := f.Fetch(context.Background(), -1, 10)
	assert.ErrorIs(t, err, ErrInvalidRange)
	_, err = f.Fetch(context.Background(), 0, 0)
	assert.ErrorIs(t, err, ErrInvalidRange)
}
