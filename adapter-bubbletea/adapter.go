package bubble_adapter

import (
	"context"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/atotto/clipboard"

	"github.com/ionut-t/goscroll/core"
)

// Theme bundles the styles the list paints with.
type Theme struct {
	ItemStyle     lipgloss.Style
	SelectedStyle lipgloss.Style
	StatusStyle   lipgloss.Style
	ErrorStyle    lipgloss.Style
	SpinnerStyle  lipgloss.Style
}

var DefaultTheme = Theme{
	ItemStyle:     lipgloss.NewStyle(),
	SelectedStyle: lipgloss.NewStyle().Background(lipgloss.Color("237")),
	StatusStyle:   lipgloss.NewStyle().Background(lipgloss.Color("236")).Foreground(lipgloss.Color("255")),
	ErrorStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
	SpinnerStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("62")),
}

// Clipboard abstracts the system clipboard for yanking.
type Clipboard interface {
	Write(text string) error
	Read() (string, error)
}

type atottoClipboard struct{}

func (c *atottoClipboard) Write(text string) error {
	return clipboard.WriteAll(text)
}

func (c *atottoClipboard) Read() (string, error) {
	return clipboard.ReadAll()
}

// Messages surfaced to the host program.

// DataMsg reports that a fetched range was merged and the view has
// fresh content.
type DataMsg struct {
	Range core.Range
}

// EndMsg reports a resolved end-of-data boundary in open-ended mode.
type EndMsg struct {
	Count int
}

// ErrorMsg reports a fetch failure. The engine does not retry; the
// host decides what to do.
type ErrorMsg struct {
	Err error
}

// ResetMsg reports that the engine discarded all derived state after a
// structural input change.
type ResetMsg struct{}

// YankMsg reports a record copied to the clipboard.
type YankMsg struct {
	Index   int
	Content string
}

type measureMsg struct {
	defaultHeight float64
}

type fetchDoneMsg struct{}

// Option configures a Model.
type Option func(*Model)

// WithTheme sets a custom theme.
func WithTheme(theme Theme) Option {
	return func(m *Model) { m.theme = theme }
}

// WithKeyMap sets custom keybindings.
func WithKeyMap(keys KeyMap) Option {
	return func(m *Model) { m.keys = keys }
}

// WithClipboard replaces the system clipboard (useful in tests).
func WithClipboard(c Clipboard) Option {
	return func(m *Model) { m.clipboard = c }
}

// WithStatusLine toggles the one-line status bar under the list.
func WithStatusLine(show bool) Option {
	return func(m *Model) { m.showStatus = show }
}

// WithEngineOptions forwards options to the underlying engine.
func WithEngineOptions(opts ...core.Option) Option {
	return func(m *Model) { m.engineOpts = opts }
}

// Model is a Bubble Tea sub-model rendering a virtualized list over a
// paginated source. It owns one engine instance; the engine owns the
// windowing, caching and fetch coordination, and this model owns
// everything visual: probe measurement, placeholder painting, scroll
// input and the status line.
type Model struct {
	engine     *core.Engine
	engineOpts []core.Option
	source     core.Fetcher
	variants   []ItemVariant
	byKey      map[string]ItemVariant

	width  int
	height int
	scroll int

	selected int
	focused  bool

	theme      Theme
	keys       KeyMap
	spinner    spinner.Model
	clipboard  Clipboard
	showStatus bool

	fetching bool
	err      error

	probes map[string]probeMeasurement
}

// New creates a list over the injected paginated source. The variant
// set is immutable for the lifetime of the model.
func New(source core.Fetcher, variants []ItemVariant, opts ...Option) Model {
	m := Model{
		source:     source,
		variants:   variants,
		byKey:      make(map[string]ItemVariant, len(variants)),
		theme:      DefaultTheme,
		keys:       DefaultKeyMap(),
		clipboard:  &atottoClipboard{},
		showStatus: true,
	}
	for _, v := range variants {
		m.byKey[v.Key] = v
	}
	for _, opt := range opts {
		opt(&m)
	}

	registryVariants := make([]core.Variant, len(variants))
	for i, v := range variants {
		registryVariants[i] = core.Variant{Key: v.Key, ElementCount: v.ElementCount}
	}
	m.engine = core.NewEngine(source, core.NewRegistry(registryVariants...), m.engineOpts...)

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = m.theme.SpinnerStyle
	m.spinner = sp

	return m
}

// Engine exposes the underlying engine instance.
func (m *Model) Engine() *core.Engine {
	return m.engine
}

// Focus directs key input to the list.
func (m *Model) Focus() { m.focused = true }

// Blur stops the list from handling key input.
func (m *Model) Blur() { m.focused = false }

// IsFocused reports whether the list handles key input.
func (m *Model) IsFocused() bool { return m.focused }

// SetSize sets the viewport dimensions. The first call (and any width
// change) runs the probe measurement pass, which unblocks the engine's
// windowing and fetching.
func (m *Model) SetSize(width, height int) error {
	widthChanged := width != m.width
	m.width = width
	m.height = height
	m.engine.SetViewport(float64(m.contentHeight()))

	if widthChanged && width > 0 {
		probes, err := measureAll(m.engine, m.variants, width)
		if err != nil {
			return err
		}
		if m.probes != nil && probeHeightsChanged(m.probes, probes) {
			// Re-wrapped content invalidates the default height and all
			// derived offsets; rebuild from the fresh measurements.
			m.engine.Reset()
			m.scroll = 0
			m.selected = 0
		}
		m.probes = probes
	}
	m.clampScroll()
	return nil
}

func probeHeightsChanged(prev, next map[string]probeMeasurement) bool {
	for key, pm := range next {
		if old, ok := prev[key]; !ok || old.height != pm.height {
			return true
		}
	}
	return false
}

// contentHeight is the list area height, excluding the status line.
func (m *Model) contentHeight() int {
	if m.showStatus {
		return max(0, m.height-1)
	}
	return m.height
}

func (m Model) Init() tea.Cmd {
	// The first fetch is issued from Update when the measurement signal
	// arrives; before that the engine is blocked anyway.
	return tea.Batch(m.listenForEngine(), m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		if !m.focused {
			break
		}
		if cmd := m.handleKey(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}

	case tea.MouseWheelMsg:
		switch msg.Button {
		case tea.MouseWheelUp:
			m.scrollBy(-3)
		case tea.MouseWheelDown:
			m.scrollBy(3)
		}
		cmds = append(cmds, m.fetchVisible())

	case DataMsg:
		m.err = nil
		cmds = append(cmds, m.listenForEngine())

	case EndMsg:
		m.clampScroll()
		cmds = append(cmds, m.listenForEngine())

	case ErrorMsg:
		m.err = msg.Err
		cmds = append(cmds, m.listenForEngine())

	case ResetMsg:
		m.scroll = 0
		m.selected = 0
		cmds = append(cmds, m.listenForEngine(), m.fetchVisible())

	case measureMsg:
		// Measurement completed: the first real fetch can go out.
		cmds = append(cmds, m.listenForEngine(), m.fetchVisible())

	case fetchDoneMsg:
		m.fetching = false

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(k tea.KeyPressMsg) tea.Cmd {
	switch {
	case key.Matches[tea.KeyPressMsg](k, m.keys.Up):
		m.moveSelection(-1)
	case key.Matches[tea.KeyPressMsg](k, m.keys.Down):
		m.moveSelection(1)
	case key.Matches[tea.KeyPressMsg](k, m.keys.PageUp):
		m.scrollBy(-m.contentHeight())
	case key.Matches[tea.KeyPressMsg](k, m.keys.PageDown):
		m.scrollBy(m.contentHeight())
	case key.Matches[tea.KeyPressMsg](k, m.keys.HalfPageUp):
		m.scrollBy(-m.contentHeight() / 2)
	case key.Matches[tea.KeyPressMsg](k, m.keys.HalfPageDown):
		m.scrollBy(m.contentHeight() / 2)
	case key.Matches[tea.KeyPressMsg](k, m.keys.Top):
		m.scroll = 0
		m.selected = 0
		m.engine.SetScroll(0)
	case key.Matches[tea.KeyPressMsg](k, m.keys.Bottom):
		m.scroll = m.maxScroll()
		m.engine.SetScroll(float64(m.scroll))
	case key.Matches[tea.KeyPressMsg](k, m.keys.Yank):
		return m.yankSelected()
	default:
		return nil
	}
	return m.fetchVisible()
}

// moveSelection moves the selected index and scrolls just enough to
// keep it visible.
func (m *Model) moveSelection(delta int) {
	m.selected += delta
	if m.selected < 0 {
		m.selected = 0
	}
	if total := m.engine.KnownCount(); total >= 0 && m.selected >= total {
		m.selected = max(0, total-1)
	}

	top := int(m.engine.TopOffset(m.selected))
	height := int(m.engine.HeightOf(m.selected))
	if top < m.scroll {
		m.scroll = top
	} else if bottom := top + height; bottom > m.scroll+m.contentHeight() {
		m.scroll = bottom - m.contentHeight()
	}
	m.clampScroll()
	m.engine.SetScroll(float64(m.scroll))
}

func (m *Model) scrollBy(delta int) {
	m.scroll += delta
	m.clampScroll()
	m.engine.SetScroll(float64(m.scroll))
}

func (m *Model) clampScroll() {
	if maxOffset := m.maxScroll(); m.scroll > maxOffset {
		m.scroll = maxOffset
	}
	if m.scroll < 0 {
		m.scroll = 0
	}
}

func (m *Model) maxScroll() int {
	return max(0, int(m.engine.TotalContentSize())-m.contentHeight())
}

// yankSelected copies the selected record's rendered text to the
// system clipboard.
func (m *Model) yankSelected() tea.Cmd {
	rec, ok := m.engine.ItemAt(m.selected)
	if !ok {
		return nil
	}
	content := m.renderRecord(rec, m.width)
	index := m.selected
	return func() tea.Msg {
		if err := m.clipboard.Write(content); err != nil {
			return ErrorMsg{Err: err}
		}
		return YankMsg{Index: index, Content: content}
	}
}

// fetchVisible asks the engine to fill the current window. The call
// blocks inside the command goroutine, never the UI loop.
func (m *Model) fetchVisible() tea.Cmd {
	m.fetching = true
	engine := m.engine
	return func() tea.Msg {
		if err := engine.EnsureVisible(context.Background()); err != nil {
			return ErrorMsg{Err: err}
		}
		return fetchDoneMsg{}
	}
}

// listenForEngine bridges one engine signal into a tea message. It is
// re-armed after every received signal.
func (m *Model) listenForEngine() tea.Cmd {
	engine := m.engine
	return func() tea.Msg {
		signal := <-engine.Signals()

		switch signal := signal.(type) {
		case core.DataSignal:
			return DataMsg{Range: signal.Value()}

		case core.EndSignal:
			return EndMsg{Count: signal.Value()}

		case core.MeasureSignal:
			return measureMsg{defaultHeight: signal.Value()}

		case core.ResetSignal:
			return ResetMsg{}

		case core.ErrorSignal:
			_, err := signal.Value()
			return ErrorMsg{Err: err}
		}

		return nil
	}
}

// View paints the visible slice: real content for cache hits, variant
// skeletons for misses, plus the status line. Rendered heights are fed
// back into the engine so non-uniform items converge to their true
// offsets.
func (m Model) View() string {
	ch := m.contentHeight()
	if m.width <= 0 || ch <= 0 {
		return ""
	}

	lines := make([]string, ch)
	for _, it := range m.engine.VisibleItems() {
		y := int(it.TopOffset) - m.scroll
		rendered := m.renderItem(it)
		itemLines := strings.Split(rendered, "\n")

		if h := len(itemLines); !it.Placeholder && h != int(it.Height) {
			m.engine.SetItemHeight(it.Index, float64(h))
		}

		if y >= ch || y+len(itemLines) <= 0 {
			continue
		}
		for j, line := range itemLines {
			pos := y + j
			if pos < 0 || pos >= ch {
				continue
			}
			if it.Index == m.selected && m.focused {
				line = m.theme.SelectedStyle.Render(line)
			}
			lines[pos] = line
		}
	}

	content := strings.Join(lines, "\n")
	if !m.showStatus {
		return content
	}
	return lipgloss.JoinVertical(lipgloss.Left, content, m.statusLine())
}

func (m Model) renderItem(it core.VisibleItem) string {
	if it.Placeholder {
		return m.renderPlaceholder(it)
	}
	return m.renderRecord(it.Record, m.width)
}

func (m Model) renderRecord(rec core.Record, width int) string {
	v, ok := m.byKey[rec.Variant]
	if !ok || v.Render == nil {
		return m.theme.ErrorStyle.Render(fmt.Sprintf("unknown variant %q", rec.Variant))
	}
	return m.theme.ItemStyle.Render(v.Render(rec, width))
}

// renderPlaceholder picks the skeleton for a cache miss. The record's
// variant is unknown until it arrives, so the dominant variant's
// skeleton stands in.
func (m Model) renderPlaceholder(it core.VisibleItem) string {
	v := m.dominantVariant()
	if v.Skeleton != nil {
		return v.Skeleton(m.width)
	}
	return genericSkeleton(m.width, int(it.Height))
}

func (m Model) dominantVariant() ItemVariant {
	var dominant ItemVariant
	for _, v := range m.variants {
		if v.ElementCount >= dominant.ElementCount {
			dominant = v
		}
	}
	return dominant
}

func (m Model) statusLine() string {
	var status string
	switch {
	case m.err != nil:
		status = m.theme.ErrorStyle.Render(" " + m.err.Error())
	case m.fetching:
		status = " " + m.spinner.View() + " loading…"
	default:
		total := m.engine.KnownCount()
		if total < 0 {
			status = fmt.Sprintf(" %d/?", m.selected+1)
		} else {
			status = fmt.Sprintf(" %d/%d", m.selected+1, total)
		}
	}

	if pad := m.width - lipgloss.Width(status); pad > 0 {
		status += strings.Repeat(" ", pad)
	}
	return m.theme.StatusStyle.Render(status)
}
