package bubble_adapter

import (
	"context"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/ionut-t/goscroll/core"
)

// RowsMsg reports that the packer finalized new rows.
type RowsMsg struct {
	Rows int
}

type gridFetchDoneMsg struct {
	rows int
	err  error
}

// GridOption configures a Grid.
type GridOption func(*Grid)

// WithGridTheme sets a custom theme.
func WithGridTheme(theme Theme) GridOption {
	return func(g *Grid) { g.theme = theme }
}

// WithGridKeyMap sets custom keybindings.
func WithGridKeyMap(keys KeyMap) GridOption {
	return func(g *Grid) { g.keys = keys }
}

// WithGap sets the horizontal gap between cells, in columns.
func WithGap(gap int) GridOption {
	return func(g *Grid) {
		if gap >= 0 {
			g.gap = gap
		}
	}
}

// WithGridPageSize sets the minimum fetch batch size in rows.
func WithGridPageSize(n int) GridOption {
	return func(g *Grid) {
		if n > 0 {
			g.pageSize = n
		}
	}
}

// Grid is a Bubble Tea sub-model rendering a packed grid over a
// paginated source. The row packer regroups the flat record stream
// into fixed-capacity rows; records of the packable variant fill rows
// side by side, any other variant takes a full row by itself. The
// per-row capacity is derived from the container width and the
// packable variant's probe width, and a width change restarts packing
// from element zero.
type Grid struct {
	packer   *core.RowPacker
	source   core.Fetcher
	packKey  string
	variants []ItemVariant
	byKey    map[string]ItemVariant

	width  int
	height int
	gap    int

	rowOffset   int // first visible row
	selectedRow int
	focused     bool

	pageSize    int
	itemsPerRow int
	cell        probeMeasurement

	theme      Theme
	keys       KeyMap
	spinner    spinner.Model
	showStatus bool

	fetching bool
	err      error
}

// NewGrid creates a grid over the injected paginated source. packKey
// names the variant that packs side by side; every other variant
// renders as a full-width special row.
func NewGrid(source core.Fetcher, packKey string, variants []ItemVariant, opts ...GridOption) Grid {
	g := Grid{
		source:     source,
		packKey:    packKey,
		variants:   variants,
		byKey:      make(map[string]ItemVariant, len(variants)),
		gap:        2,
		pageSize:   10,
		theme:      DefaultTheme,
		keys:       DefaultKeyMap(),
		showStatus: true,
	}
	for _, v := range variants {
		g.byKey[v.Key] = v
	}
	for _, opt := range opts {
		opt(&g)
	}
	g.packer = core.NewRowPacker(source, packKey, 0, g.pageSize)

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = g.theme.SpinnerStyle
	g.spinner = sp

	return g
}

// Focus directs key input to the grid.
func (g *Grid) Focus() { g.focused = true }

// Blur stops the grid from handling key input.
func (g *Grid) Blur() { g.focused = false }

// SetSize sets the viewport dimensions and derives the per-row
// capacity from the packable variant's probe width. A capacity change
// restarts packing.
func (g *Grid) SetSize(width, height int) {
	g.width = width
	g.height = height

	pack, ok := g.byKey[g.packKey]
	if !ok {
		return
	}
	g.cell = measureProbe(pack, width)
	g.itemsPerRow = itemsPerRow(width, g.cell, g.gap)
	g.packer.SetItemsPerRow(g.itemsPerRow)
	g.rowOffset = 0
	g.selectedRow = 0
}

func (g Grid) Init() tea.Cmd {
	return g.spinner.Tick
}

func (g Grid) Update(msg tea.Msg) (Grid, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		if !g.focused {
			break
		}
		if cmd := g.handleKey(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}

	case tea.MouseWheelMsg:
		switch msg.Button {
		case tea.MouseWheelUp:
			g.scrollRows(-1)
		case tea.MouseWheelDown:
			g.scrollRows(1)
		}

	case gridFetchDoneMsg:
		g.fetching = false
		g.err = msg.err
		if msg.err == nil && msg.rows > g.packer.Len() {
			// More rows were requested than exist: the end was reached.
			g.clampToEnd()
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		g.spinner, cmd = g.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	// Top up rows whenever the viewport outruns the packed tail. The
	// spinner tick doubles as the retry heartbeat while a fetch is in
	// flight.
	if !g.fetching {
		if cmd := g.ensureRows(); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}

	return g, tea.Batch(cmds...)
}

func (g *Grid) handleKey(k tea.KeyPressMsg) tea.Cmd {
	switch {
	case key.Matches[tea.KeyPressMsg](k, g.keys.Up):
		g.moveSelection(-1)
	case key.Matches[tea.KeyPressMsg](k, g.keys.Down):
		g.moveSelection(1)
	case key.Matches[tea.KeyPressMsg](k, g.keys.PageUp):
		g.scrollRows(-g.visibleRows())
	case key.Matches[tea.KeyPressMsg](k, g.keys.PageDown):
		g.scrollRows(g.visibleRows())
	case key.Matches[tea.KeyPressMsg](k, g.keys.Top):
		g.rowOffset = 0
		g.selectedRow = 0
	case key.Matches[tea.KeyPressMsg](k, g.keys.Bottom):
		if g.packer.EndReached() {
			g.selectedRow = max(0, g.packer.Len()-1)
			g.clampToEnd()
		}
	default:
		return nil
	}
	return g.ensureRows()
}

func (g *Grid) moveSelection(delta int) {
	g.selectedRow += delta
	if g.selectedRow < 0 {
		g.selectedRow = 0
	}
	if g.packer.EndReached() && g.selectedRow >= g.packer.Len() {
		g.selectedRow = max(0, g.packer.Len()-1)
	}
	if g.selectedRow < g.rowOffset {
		g.rowOffset = g.selectedRow
	} else if g.selectedRow >= g.rowOffset+g.visibleRows() {
		g.rowOffset = g.selectedRow - g.visibleRows() + 1
	}
}

func (g *Grid) scrollRows(delta int) {
	g.rowOffset += delta
	if g.rowOffset < 0 {
		g.rowOffset = 0
	}
	if g.packer.EndReached() {
		g.clampToEnd()
	}
}

func (g *Grid) clampToEnd() {
	if maxOffset := max(0, g.packer.Len()-g.visibleRows()); g.rowOffset > maxOffset {
		g.rowOffset = maxOffset
	}
}

// visibleRows is how many packed rows fit in the viewport.
func (g *Grid) visibleRows() int {
	rowHeight := max(1, g.cell.height)
	ch := g.height
	if g.showStatus {
		ch--
	}
	return max(1, ch/rowHeight)
}

// ensureRows asks the packer for enough rows to cover the viewport
// plus one page of lookahead.
func (g *Grid) ensureRows() tea.Cmd {
	if g.itemsPerRow <= 0 {
		return nil
	}
	need := g.rowOffset + g.visibleRows() + g.pageSize
	if g.packer.Len() >= need || g.packer.EndReached() {
		return nil
	}
	g.fetching = true
	packer := g.packer
	return func() tea.Msg {
		err := packer.EnsureRows(context.Background(), need)
		return gridFetchDoneMsg{rows: need, err: err}
	}
}

// View paints the visible rows: packable cells joined horizontally
// with the configured gap, special rows full width.
func (g Grid) View() string {
	if g.width <= 0 || g.height <= 0 {
		return ""
	}

	var b strings.Builder
	last := min(g.rowOffset+g.visibleRows(), g.packer.Len())
	for i := g.rowOffset; i < last; i++ {
		row, ok := g.packer.Row(i)
		if !ok {
			break
		}
		line := g.renderRow(row)
		if i == g.selectedRow && g.focused {
			line = g.theme.SelectedStyle.Render(line)
		}
		b.WriteString(line)
		if i < last-1 {
			b.WriteByte('\n')
		}
	}

	content := b.String()
	if last < g.rowOffset+g.visibleRows() && !g.packer.EndReached() {
		// Rows still in flight: pad the tail with skeletons.
		for i := last; i < g.rowOffset+g.visibleRows(); i++ {
			if content != "" {
				content += "\n"
			}
			content += genericSkeleton(g.width, g.cell.height)
		}
	}

	if !g.showStatus {
		return content
	}
	return lipgloss.JoinVertical(lipgloss.Left, content, g.statusLine())
}

func (g Grid) renderRow(row core.Row) string {
	if row.Special {
		return g.renderCell(row.Records[0], g.width)
	}
	cells := make([]string, 0, len(row.Records)*2-1)
	gap := strings.Repeat(" ", g.gap)
	for i, rec := range row.Records {
		if i > 0 {
			cells = append(cells, gap)
		}
		cells = append(cells, g.renderCell(rec, g.cell.width))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cells...)
}

func (g Grid) renderCell(rec core.Record, width int) string {
	v, ok := g.byKey[rec.Variant]
	if !ok || v.Render == nil {
		return g.theme.ErrorStyle.Render(fmt.Sprintf("unknown variant %q", rec.Variant))
	}
	return g.theme.ItemStyle.Render(v.Render(rec, width))
}

func (g Grid) statusLine() string {
	var status string
	switch {
	case g.err != nil:
		status = g.theme.ErrorStyle.Render(" " + g.err.Error())
	case g.fetching:
		status = " " + g.spinner.View() + " loading…"
	case g.packer.EndReached():
		status = fmt.Sprintf(" row %d/%d · %d per row", g.selectedRow+1, g.packer.Len(), g.itemsPerRow)
	default:
		status = fmt.Sprintf(" row %d/? · %d per row", g.selectedRow+1, g.itemsPerRow)
	}

	if pad := g.width - lipgloss.Width(status); pad > 0 {
		status += strings.Repeat(" ", pad)
	}
	return g.theme.StatusStyle.Render(status)
}
