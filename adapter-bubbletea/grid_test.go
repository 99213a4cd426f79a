package bubble_adapter

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ionut-t/goscroll/core"
)

// thumbSource serves a finite stream of fixed-width thumbs with a
// section header every tenth element.
func thumbSource(total int) core.Fetcher {
	return func(ctx context.Context, offset, size int) ([]core.Record, error) {
		if offset+size > total {
			size = total - offset
		}
		batch := make([]core.Record, 0, size)
		for i := 0; i < size; i++ {
			n := offset + i
			if n%10 == 0 {
				batch = append(batch, core.Record{Variant: "header", Data: fmt.Sprintf("part %d", n/10)})
			} else {
				batch = append(batch, core.Record{Variant: "thumb", Data: n})
			}
		}
		return batch, nil
	}
}

func thumbVariants() []ItemVariant {
	return []ItemVariant{
		{
			Key: "thumb",
			Render: func(rec core.Record, width int) string {
				return fmt.Sprintf("[thumb %02d]", rec.Data)
			},
			Probe: func(width int) string { return "[thumb 00]" },
		},
		{
			Key: "header",
			Render: func(rec core.Record, width int) string {
				return fmt.Sprintf("== %s ==", rec.Data)
			},
			Probe: func(width int) string { return "== part 0 ==" },
		},
	}
}

func readyGrid(t *testing.T, total, width, height int) Grid {
	t.Helper()
	g := NewGrid(thumbSource(total), "thumb", thumbVariants())
	g.SetSize(width, height)
	require.Greater(t, g.itemsPerRow, 0)
	return g
}

func TestGridSetSize_DerivesItemsPerRow(t *testing.T) {
	// Probe "[thumb 00]" is 10 wide, default gap 2: (46+2)/(10+2) = 4.
	g := readyGrid(t, 100, 46, 12)
	assert.Equal(t, 4, g.itemsPerRow)
	assert.Equal(t, 10, g.cell.width)
	assert.Equal(t, 1, g.cell.height)
}

func TestGridSetSize_NarrowFloorsAtOne(t *testing.T) {
	g := readyGrid(t, 100, 5, 12)
	assert.Equal(t, 1, g.itemsPerRow)
}

func TestGridView_SkeletonsBeforeRows(t *testing.T) {
	g := readyGrid(t, 100, 46, 12)
	assert.Contains(t, g.View(), "▒")
}

func TestGridView_RendersPackedRows(t *testing.T) {
	g := readyGrid(t, 100, 46, 12)
	require.NoError(t, g.packer.EnsureRows(context.Background(), 10))

	view := g.View()
	assert.Contains(t, view, "== part 0 ==", "the header takes a full row")
	assert.Contains(t, view, "[thumb 01]")
	assert.Contains(t, view, "[thumb 02]")
}

func TestGridView_CellsJoinedWithGap(t *testing.T) {
	g := readyGrid(t, 100, 46, 12)

	row := g.renderRow(core.Row{Records: []core.Record{
		{Variant: "thumb", Data: 1},
		{Variant: "thumb", Data: 2},
	}})
	assert.Equal(t, "[thumb 01]  [thumb 02]", row)
}

func TestGridScroll_ClampsAtEndOnceResolved(t *testing.T) {
	g := readyGrid(t, 25, 46, 12)
	require.NoError(t, g.packer.EnsureRows(context.Background(), 1000))
	require.True(t, g.packer.EndReached())

	g.scrollRows(1000)
	assert.Equal(t, max(0, g.packer.Len()-g.visibleRows()), g.rowOffset)

	g.scrollRows(-1000)
	assert.Equal(t, 0, g.rowOffset)
}

func TestGridMoveSelection_FollowsViewport(t *testing.T) {
	g := readyGrid(t, 200, 46, 6)
	require.NoError(t, g.packer.EnsureRows(context.Background(), 40))

	rows := g.visibleRows()
	for i := 0; i < rows+3; i++ {
		g.moveSelection(1)
	}
	assert.Equal(t, rows+3, g.selectedRow)
	assert.Equal(t, g.selectedRow-rows+1, g.rowOffset, "the viewport trails the selection")
}

func TestGridSetSize_RestartsPacking(t *testing.T) {
	g := readyGrid(t, 100, 46, 12)
	require.NoError(t, g.packer.EnsureRows(context.Background(), 5))
	require.Greater(t, g.packer.Len(), 0)

	// A width change alters the per-row capacity and discards all rows.
	g.SetSize(22, 12)
	assert.Equal(t, 2, g.itemsPerRow)
	assert.Zero(t, g.packer.Len())
	assert.Zero(t, g.rowOffset)
}
