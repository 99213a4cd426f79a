package core

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// overFetchRows is the minimum number of rows' worth of elements pulled
// per source call, amortizing per-call overhead.
const overFetchRows = 5

// Row is a fixed-capacity bundle of packable records rendered as one
// visual unit, or a single non-packable record occupying a row of its
// own.
type Row struct {
	Records []Record
	Special bool
}

// RowPacker regroups a flat record stream into rows for grid-like
// layouts, so a grid render layer can treat rows as ordinary items.
//
// Records of the packable variant fill rows of itemsPerRow; a record
// of any other variant (a section header, say) first flushes the
// pending partial row and then takes a full row by itself.
//
// Concurrent EnsureRows calls against the same in-flight fetch share
// one source call via singleflight, and a generation counter bumped by
// SetItemsPerRow invalidates any result that arrives after packing was
// restarted.
type RowPacker struct {
	source  Fetcher
	packKey string

	group singleflight.Group

	mu          sync.Mutex
	itemsPerRow int
	pageSize    int
	rows        []Row
	partial     []Record
	cursor      int // source elements consumed into rows + partial
	endReached  bool
	gen         uint64
}

// NewRowPacker creates a packer over the given source. packKey names
// the packable variant; itemsPerRow is the measured per-row capacity.
func NewRowPacker(source Fetcher, packKey string, itemsPerRow, pageSize int) *RowPacker {
	if pageSize <= 0 {
		pageSize = 1
	}
	return &RowPacker{
		source:      source,
		packKey:     packKey,
		itemsPerRow: itemsPerRow,
		pageSize:    pageSize,
	}
}

// SetItemsPerRow changes the per-row capacity. itemsPerRow is a
// structural input: any change discards all packed rows, the partial
// buffer and the cursor, and restarts packing from element 0. Results
// of in-flight fetches from before the change are discarded on
// arrival.
func (p *RowPacker) SetItemsPerRow(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if n == p.itemsPerRow {
		return
	}
	p.itemsPerRow = n
	p.rows = nil
	p.partial = nil
	p.cursor = 0
	p.endReached = false
	p.gen++
}

// Len returns the number of finalized rows.
func (p *RowPacker) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.rows)
}

// Row returns the finalized row at index i.
func (p *RowPacker) Row(i int) (Row, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if i < 0 || i >= len(p.rows) {
		return Row{}, false
	}
	return p.rows[i], true
}

// Rows returns a snapshot of all finalized rows.
func (p *RowPacker) Rows() []Row {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Row, len(p.rows))
	copy(out, p.rows)
	return out
}

// EndReached reports whether the source has been exhausted.
func (p *RowPacker) EndReached() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.endReached
}

// rowBatch pairs a fetched batch with the size the executing caller
// actually requested. Coalesced callers may have asked for different
// targets, so end-of-data must be judged against the executed size,
// never against the waiter's own.
type rowBatch struct {
	records   []Record
	requested int
}

// EnsureRows grows the row list to at least n rows, fetching from the
// source as needed. It returns once n rows exist, the source is
// exhausted, or the fetch fails. A superseded call (generation moved
// on) returns without touching state.
func (p *RowPacker) EnsureRows(ctx context.Context, n int) error {
	for {
		p.mu.Lock()
		if p.itemsPerRow <= 0 || p.endReached || len(p.rows) >= n {
			p.mu.Unlock()
			return nil
		}
		gen := p.gen
		offset := p.cursor
		size := p.batchSizeLocked(n - len(p.rows))
		p.mu.Unlock()

		key := fmt.Sprintf("%d:%d", gen, offset)
		v, err, _ := p.group.Do(key, func() (any, error) {
			records, err := p.source(ctx, offset, size)
			if err != nil {
				return nil, err
			}
			return rowBatch{records: records, requested: size}, nil
		})
		if err != nil {
			return fmt.Errorf("%w: rows at element %d: %w", ErrFetchFailed, offset, err)
		}
		batch, _ := v.(rowBatch)

		p.mu.Lock()
		if gen != p.gen {
			p.mu.Unlock()
			return nil
		}
		// Coalesced callers all reach here with the shared result; only
		// the first application advances the cursor, the rest are no-ops.
		if p.cursor == offset {
			p.applyLocked(batch.records, batch.requested)
		}
		p.mu.Unlock()
	}
}

// batchSizeLocked computes the element count for the next source call:
// enough for the rows still needed, floored at a full page of rows and
// at the over-fetch minimum.
func (p *RowPacker) batchSizeLocked(neededRows int) int {
	size := neededRows * p.itemsPerRow
	if page := p.pageSize * p.itemsPerRow; size < page {
		size = page
	}
	if minimum := p.itemsPerRow * overFetchRows; size < minimum {
		size = minimum
	}
	return size
}

// applyLocked packs one fetched batch into rows.
func (p *RowPacker) applyLocked(batch []Record, requested int) {
	for _, rec := range batch {
		if rec.Variant == p.packKey {
			p.partial = append(p.partial, rec)
			if len(p.partial) >= p.itemsPerRow {
				p.flushPartialLocked()
			}
			continue
		}
		// A special record always flushes the pending partial row first,
		// then stands alone.
		p.flushPartialLocked()
		p.rows = append(p.rows, Row{Records: []Record{rec}, Special: true})
	}

	// Recompute the cursor from what was actually packed rather than
	// trusting incremental arithmetic; this self-heals any drift in the
	// flush logic.
	p.cursor = p.consumedLocked()

	if len(batch) < requested {
		p.flushPartialLocked()
		p.cursor = p.consumedLocked()
		p.endReached = true
	}
}

func (p *RowPacker) flushPartialLocked() {
	if len(p.partial) == 0 {
		return
	}
	row := make([]Record, len(p.partial))
	copy(row, p.partial)
	p.rows = append(p.rows, Row{Records: row})
	p.partial = p.partial[:0]
}

// consumedLocked is the authoritative count of source elements packed
// into finalized rows plus the partial buffer.
func (p *RowPacker) consumedLocked() int {
	total := len(p.partial)
	for _, r := range p.rows {
		total += len(r.Records)
	}
	return total
}
