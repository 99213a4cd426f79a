package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	scroll "github.com/ionut-t/goscroll/adapter-bubbletea"
	"github.com/ionut-t/goscroll/adapter-bubbletea/highlighter"
	"github.com/ionut-t/goscroll/core"
)

const totalEntries = 10_000

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	entryStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	snippetStyle = lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
)

var snippets = []string{
	"func fib(n int) int {\n\tif n < 2 {\n\t\treturn n\n\t}\n\treturn fib(n-1) + fib(n-2)\n}",
	"type Point struct {\n\tX, Y float64\n}",
	"for i, v := range items {\n\tfmt.Println(i, v)\n}",
}

// demoSource simulates a slow paginated backend: deterministic content,
// random latency. Every 50th element is a section header and every 17th
// a code snippet; the rest are plain log entries.
func demoSource(ctx context.Context, offset, size int) ([]core.Record, error) {
	delay := time.Duration(30+rand.Intn(120)) * time.Millisecond
	select {
	case <-time.After(delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if offset >= totalEntries {
		return nil, nil
	}
	if offset+size > totalEntries {
		size = totalEntries - offset
	}

	batch := make([]core.Record, size)
	for i := range batch {
		n := offset + i
		switch {
		case n%50 == 0:
			batch[i] = core.Record{Variant: "header", Data: fmt.Sprintf("Section %d", n/50)}
		case n%17 == 0:
			batch[i] = core.Record{Variant: "snippet", Data: snippets[n%len(snippets)]}
		default:
			batch[i] = core.Record{Variant: "entry", Data: fmt.Sprintf("entry %05d · lorem ipsum dolor sit amet", n)}
		}
	}
	return batch, nil
}

func variants() []scroll.ItemVariant {
	hl := highlighter.New("catppuccin-mocha")

	return []scroll.ItemVariant{
		{
			Key:          "entry",
			ElementCount: totalEntries - totalEntries/50 - totalEntries/17,
			Render: func(rec core.Record, width int) string {
				return entryStyle.Render(fmt.Sprint(rec.Data))
			},
			Probe: func(width int) string {
				return entryStyle.Render("entry 00000 · lorem ipsum dolor sit amet")
			},
		},
		{
			Key:          "header",
			ElementCount: totalEntries / 50,
			Render: func(rec core.Record, width int) string {
				return headerStyle.Render("── " + fmt.Sprint(rec.Data) + " " + strings.Repeat("─", max(0, width-len(fmt.Sprint(rec.Data))-5)))
			},
			Probe: func(width int) string {
				return headerStyle.Render("── Section 0")
			},
		},
		{
			Key:          "snippet",
			ElementCount: totalEntries / 17,
			Render: func(rec core.Record, width int) string {
				return snippetStyle.Render(hl.Render(fmt.Sprint(rec.Data), "go"))
			},
			Probe: func(width int) string {
				return snippetStyle.Render(snippets[0])
			},
		},
	}
}

type layout int

const (
	layoutList layout = iota
	layoutGrid
)

type model struct {
	list   scroll.Model
	grid   scroll.Grid
	layout layout
	width  int
	height int
}

func newModel() model {
	vs := variants()

	list := scroll.New(demoSource, vs, scroll.WithEngineOptions(core.WithOpenEnded()))
	list.Focus()

	grid := scroll.NewGrid(demoSource, "entry", vs)

	return model{list: list, grid: grid}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.list.Init(), m.grid.Init())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if err := m.list.SetSize(msg.Width, msg.Height-1); err != nil {
			return m, tea.Quit
		}
		m.grid.SetSize(msg.Width, msg.Height-1)

	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "tab":
			if m.layout == layoutList {
				m.layout = layoutGrid
				m.list.Blur()
				m.grid.Focus()
			} else {
				m.layout = layoutList
				m.grid.Blur()
				m.list.Focus()
			}
			return m, nil
		}
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	cmds = append(cmds, cmd)
	m.grid, cmd = m.grid.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m model) View() tea.View {
	var content string
	if m.layout == layoutList {
		content = m.list.View()
	} else {
		content = m.grid.View()
	}
	hint := lipgloss.NewStyle().Faint(true).Render(" tab: toggle list/grid · y: yank · q: quit")

	v := tea.NewView(lipgloss.JoinVertical(lipgloss.Left, content, hint))
	v.AltScreen = true
	v.MouseMode = tea.MouseModeCellMotion
	return v
}

func main() {
	p := tea.NewProgram(newModel())
	if _, err := p.Run(); err != nil {
		log.Printf("error: %v", err)
		os.Exit(1)
	}
}
