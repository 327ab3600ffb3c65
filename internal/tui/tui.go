// Package tui renders live pipeline progress as an interactive terminal view
// fed by the progress bus.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"newslens/internal/core"
	"newslens/internal/progress"
)

// step is one progress line in the view.
type step struct {
	name    string
	status  core.ProgressStatus
	message string
}

type eventMsg core.ProgressEvent

type doneMsg struct{}

type model struct {
	bus     *progress.Bus
	steps   []step
	order   map[string]int // step name -> index into steps
	percent int
	width   int
	done    bool
	quit    bool
}

func newModel(bus *progress.Bus) model {
	return model{bus: bus, order: make(map[string]int)}
}

// waitForEvent blocks on the bus and converts the next event into a message.
func waitForEvent(bus *progress.Bus) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-bus.Events()
		if !ok {
			return doneMsg{}
		}
		return eventMsg(event)
	}
}

func (m model) Init() tea.Cmd {
	return waitForEvent(m.bus)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quit = true
			return m, tea.Quit
		}

	case eventMsg:
		m.apply(core.ProgressEvent(msg))
		return m, waitForEvent(m.bus)

	case doneMsg:
		m.done = true
		return m, tea.Quit
	}

	return m, nil
}

func (m *model) apply(event core.ProgressEvent) {
	if event.Percent > m.percent {
		m.percent = event.Percent
	}
	name := event.Step
	if event.StageID > 0 {
		name = fmt.Sprintf("analysis %d: %s", event.StageID, event.Step)
	}
	idx, seen := m.order[name]
	if !seen {
		m.order[name] = len(m.steps)
		m.steps = append(m.steps, step{name: name})
		idx = len(m.steps) - 1
	}
	m.steps[idx].status = event.Status
	m.steps[idx].message = event.Message
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	activeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	barStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
)

func statusGlyph(s core.ProgressStatus) string {
	switch s {
	case core.StatusActive:
		return activeStyle.Render("▸")
	case core.StatusCompleted:
		return doneStyle.Render("✓")
	case core.StatusError:
		return errorStyle.Render("✗")
	default:
		return pendingStyle.Render("·")
	}
}

func (m model) View() string {
	if m.quit {
		return "Cancelled.\n"
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("newslens: comparing coverage"))
	sb.WriteString("\n\n")

	for _, s := range m.steps {
		line := fmt.Sprintf("%s %s", statusGlyph(s.status), s.name)
		if s.status == core.StatusError && s.message != "" {
			line += errorStyle.Render("  " + s.message)
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(renderBar(m.percent, 40))
	sb.WriteString(fmt.Sprintf(" %d%%", m.percent))
	sb.WriteString("\n\n")
	sb.WriteString(pendingStyle.Render("[q] cancel"))
	sb.WriteString("\n")
	return sb.String()
}

func renderBar(percent, width int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := width * percent / 100
	return barStyle.Render(strings.Repeat("█", filled) + strings.Repeat("░", width-filled))
}

// Run displays the progress view until the bus closes or the user quits.
// It blocks the calling goroutine; the pipeline runs elsewhere.
func Run(bus *progress.Bus) error {
	p := tea.NewProgram(newModel(bus))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("progress view failed: %w", err)
	}
	return nil
}
