// Package ui renders interactive terminal progress for long operations.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Status of one item in the progress list.
type Status uint8

const (
	StatusDone Status = iota + 1
	StatusSkipped
)

func (s Status) String() string {
	switch s {
	case StatusDone:
		return "imported"
	case StatusSkipped:
		return "skipped"
	default:
		return ""
	}
}

// Event moves the progress model forward.
type Event struct {
	Label  string
	Status Status
	// Fraction of the input consumed, in [0, 1]. Negative when the input size
	// is unknown.
	Fraction float64
}

// visibleItems bounds the item list; older lines scroll away.
const visibleItems = 8

type progressModel struct {
	title   string
	events  <-chan Event
	spinner spinner.Model
	prog    progress.Model
	items   []item
	counts  map[Status]int
	percent float64
	known   bool
	width   int
	done    bool
}

type item struct {
	label  string
	status Status
}

type eventMsg Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that renders events until the
// channel is closed.
func NewProgressModel(title string, events <-chan Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76 // Default width

	return &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		counts:  make(map[Status]int),
		width:   80,
	}
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.applyEvent(Event(msg))
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		return m, nil
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case progress.FrameMsg:
		progressModel, cmd := m.prog.Update(msg)
		m.prog = progressModel.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	header := fmt.Sprintf("%s (%d imported, %d skipped)", m.title, m.counts[StatusDone], m.counts[StatusSkipped])
	if m.done {
		header = fmt.Sprintf("done: %s", header)
	} else {
		header = fmt.Sprintf("%s %s", m.spinner.View(), header)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	statusWidth := 10
	nameWidth := m.width - statusWidth - 4
	if nameWidth < 20 {
		nameWidth = 20
	}
	for _, it := range m.items {
		statusStyled := styleStatus(it.status).Render(fmt.Sprintf("%10s", it.status))
		fmt.Fprintf(&b, "  %s %s\n", statusStyled, truncate(it.label, nameWidth))
	}

	if m.known || m.done {
		b.WriteString("\n")
		if m.done {
			b.WriteString(m.prog.ViewAs(1.0))
		} else {
			b.WriteString(m.prog.View())
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m *progressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) applyEvent(ev Event) tea.Cmd {
	if ev.Status != 0 {
		m.counts[ev.Status]++
		m.items = append(m.items, item{label: ev.Label, status: ev.Status})
		if len(m.items) > visibleItems {
			m.items = m.items[len(m.items)-visibleItems:]
		}
	}
	if ev.Fraction < 0 {
		return nil
	}
	m.known = true
	m.percent = min(ev.Fraction, 1)
	return m.prog.SetPercent(m.percent)
}

func styleStatus(status Status) lipgloss.Style {
	switch status {
	case StatusDone:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case StatusSkipped:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	}
}

// truncate cuts value to at most width terminal columns, ellipsis included.
func truncate(value string, width int) string {
	switch {
	case width <= 0 || runewidth.StringWidth(value) <= width:
		return value
	case width <= 3:
		return runewidth.Truncate(value, width, "")
	default:
		return runewidth.Truncate(value, width, "...")
	}
}
