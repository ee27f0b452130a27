package timer

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	timerdto "pomoguard/internal/modules/timer/dto"
	"pomoguard/internal/ui/theme"
)

// Model renders the countdown pane. It holds no ports; the root model feeds it
// state from both the poll loop and the push stream.
type Model struct {
	state   timerdto.StateOutput
	has     bool
	live    bool
	spinner spinner.Model
	width   int
	height  int
}

func New() Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Peach)
	return Model{spinner: sp}
}

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *Model) SetState(s timerdto.StateOutput) {
	m.state = s
	m.has = true
}

func (m Model) State() (timerdto.StateOutput, bool) {
	return m.state, m.has
}

// SetLive marks whether the push stream is connected.
func (m *Model) SetLive(live bool) { m.live = live }

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// Clock renders MM:SS with zero-padded minutes.
func Clock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func (m Model) View() string {
	if !m.has {
		return theme.Pane.Width(max(m.width-4, 20)).Render(m.spinner.View() + " contacting daemon…")
	}
	color := theme.PhaseColor(m.state.OnBreak)
	phase := "Focus"
	if m.state.OnBreak {
		phase = "Break"
	}

	clock := lipgloss.NewStyle().Foreground(color).Bold(true).Render(Clock(m.state.TimeLeft))
	label := lipgloss.NewStyle().Foreground(color).Render(strings.ToUpper(phase))

	status := m.state.Status
	switch {
	case m.state.Running:
		status = m.spinner.View() + " running"
	case m.state.Paused:
		status = "paused"
	case status == "":
		status = "idle"
	}

	link := theme.Muted.Render("poll only")
	if m.live {
		link = lipgloss.NewStyle().Foreground(theme.Green).Render("live")
	}

	lines := []string{
		label,
		"",
		clock,
		"",
		status,
		theme.Muted.Render(fmt.Sprintf("Pomodoros completed: %d", m.state.Completed)),
		link,
		"",
		theme.Muted.Render("space:start/pause"),
		theme.Muted.Render("r:reset  c:reset count"),
	}
	body := lipgloss.JoinVertical(lipgloss.Center, lines...)
	w := max(m.width-4, 36)
	return theme.PaneActive.BorderForeground(color).Width(w).Align(lipgloss.Center).Render(body)
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
