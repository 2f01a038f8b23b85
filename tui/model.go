package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mastercactapus/sensorplot/chart"
)

const (
	defaultWidth  = 80
	defaultHeight = 24

	// title, y label, x label and footer
	chromeLines = 4
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	labelStyle  = lipgloss.NewStyle().Faint(true)
	plotStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
)

type frameMsg chart.Frame
type statusMsg string

type model struct {
	frames <-chan chart.Frame
	status <-chan string
	done   <-chan struct{}
	keys   keyMap

	frame      chart.Frame
	lastStatus string
	width      int
	height     int
	quitting   bool
}

func newModel(d *Display) model {
	return model{
		frames: d.frames,
		status: d.status,
		done:   d.done,
		keys:   newKeyMap(),
		frame:  d.layout.Frame("", 0, nil),
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.listenForFrames(), m.listenForStatus())
}

func (m model) listenForFrames() tea.Cmd {
	return func() tea.Msg {
		select {
		case f := <-m.frames:
			return frameMsg(f)
		case <-m.done:
			return nil
		}
	}
}

func (m model) listenForStatus() tea.Cmd {
	return func() tea.Msg {
		select {
		case s := <-m.status:
			return statusMsg(s)
		case <-m.done:
			return nil
		}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch x := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = x.Width, x.Height
		return m, nil

	case tea.KeyMsg:
		if key.Matches(x, m.keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case frameMsg:
		m.frame = chart.Frame(x)
		return m, m.listenForFrames()

	case statusMsg:
		m.lastStatus = string(x)
		return m, m.listenForStatus()
	}

	return m, nil
}

func (m model) View() string {
	if m.quitting {
		return ""
	}
	width, height := m.width, m.height
	if width <= 0 || height <= 0 {
		width, height = defaultWidth, defaultHeight
	}

	var b strings.Builder
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, titleStyle.Render(m.frame.Title)))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render(m.frame.YLabel))
	b.WriteString("\n")

	rows := chart.Plot(m.frame, width, height-chromeLines)
	if len(rows) > 0 {
		b.WriteString(plotStyle.Render(strings.Join(rows, "\n")))
		b.WriteString("\n")
	}
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, labelStyle.Render(m.frame.XLabel)))
	b.WriteString("\n")
	b.WriteString(m.footer())

	return b.String()
}

func (m model) footer() string {
	var parts []string
	if last, ok := m.frame.Last(); ok {
		parts = append(parts, fmt.Sprintf("last %d", last.Value))
	} else {
		parts = append(parts, "waiting for data")
	}
	parts = append(parts,
		fmt.Sprintf("%d/%d samples", len(m.frame.Points), m.frame.Capacity),
		m.keys.Quit.Help().Key+" "+m.keys.Quit.Help().Desc,
	)
	footer := labelStyle.Render(strings.Join(parts, " · "))
	if m.lastStatus != "" {
		footer += "  " + statusStyle.Render(m.lastStatus)
	}
	return footer
}
