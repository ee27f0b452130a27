package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	guarddto "pomoguard/internal/modules/guard/dto"
	settingsdto "pomoguard/internal/modules/settings/dto"
	timerdto "pomoguard/internal/modules/timer/dto"
	"pomoguard/internal/ui/components"
	"pomoguard/internal/ui/theme"
	sitesview "pomoguard/internal/ui/views/sites"
	timerview "pomoguard/internal/ui/views/timer"
)

// Poll cadence: tight while a countdown runs, wide otherwise. Polling is the
// correctness backstop; the push stream only shortens latency.
const (
	PollActive      = 500 * time.Millisecond
	PollIdle        = 2 * time.Second
	StreamRetry     = 3 * time.Second
	commandDeadline = 5 * time.Second
)

// ─── ports ───────────────────────────────────────────────────────────────────

type timerPort interface {
	GetState(ctx context.Context) (timerdto.StateOutput, error)
	Dispatch(ctx context.Context, input timerdto.CommandInput) (timerdto.CommandOutput, error)
}

type settingsPort interface {
	Get(ctx context.Context) (settingsdto.SettingsOutput, error)
	SetDurations(ctx context.Context, input settingsdto.DurationsInput) (settingsdto.SettingsOutput, error)
	AddSites(ctx context.Context, raw []string) (settingsdto.SitesOutput, error)
	RemoveSite(ctx context.Context, raw string) (settingsdto.SitesOutput, error)
}

type guardPort interface {
	Check(ctx context.Context, url string) (guarddto.DecisionOutput, error)
}

// StreamFunc opens the push subscription. A nil StreamFunc leaves the model on
// polling alone.
type StreamFunc func(ctx context.Context) (<-chan timerdto.StateOutput, error)

// ─── tab index ───────────────────────────────────────────────────────────────

type tabID int

const (
	tabTimer tabID = iota
	tabSites
	tabCount
)

var tabLabels = [tabCount]string{"Timer", "Sites"}

// ─── async messages ───────────────────────────────────────────────────────────

type pollTickMsg struct{}

type polledMsg struct {
	state timerdto.StateOutput
	err   error
}

type pushedMsg struct{ state timerdto.StateOutput }

type streamOpenedMsg struct {
	updates <-chan timerdto.StateOutput
	err     error
}

type streamClosedMsg struct{}

type streamRetryMsg struct{}

type commandDoneMsg struct {
	action string
	out    timerdto.CommandOutput
	err    error
}

type settingsSavedMsg struct {
	out settingsdto.SettingsOutput
	err error
}

type guardCheckedMsg struct {
	out guarddto.DecisionOutput
	err error
}

// ─── key bindings ─────────────────────────────────────────────────────────────

type keyMap struct {
	Tab        key.Binding
	Help       key.Binding
	Palette    key.Binding
	Quit       key.Binding
	Toggle     key.Binding
	Reset      key.Binding
	ResetCount key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Tab:        key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Palette:    key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "palette")),
		Quit:       key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
		Toggle:     key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "start/pause/resume")),
		Reset:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset")),
		ResetCount: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "reset count")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Help, k.Palette, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.Reset, k.ResetCount},
		{k.Tab, k.Help, k.Palette, k.Quit},
	}
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the popup. It owns tab routing, the poll loop, the push stream,
// the help overlay and the command palette.
type Model struct {
	timer    timerPort
	settings settingsPort
	guard    guardPort
	stream   StreamFunc

	timerView   timerview.Model
	sitesView   sitesview.Model
	pushUpdates <-chan timerdto.StateOutput

	activeTab tabID
	keys      keyMap
	help      help.Model
	showHelp  bool
	palette   components.Palette
	durations settingsdto.SettingsOutput
	status    string
	width     int
	height    int
}

func NewModel(timer timerPort, settings settingsPort, guard guardPort, stream StreamFunc) Model {
	var sitesPort sitesview.SitesPort
	if settings != nil {
		sitesPort = settings
	}
	return Model{
		timer:     timer,
		settings:  settings,
		guard:     guard,
		stream:    stream,
		timerView: timerview.New(),
		sitesView: sitesview.New(sitesPort),
		activeTab: tabTimer,
		keys:      defaultKeys(),
		help:      help.New(),
		palette:   components.NewPalette(),
		status:    "ready",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.timerView.Init(),
		m.sitesView.Init(),
		m.pollCmd(),
		m.openStreamCmd(),
		m.loadSettingsCmd(),
	)
}

// ─── update ───────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.palette.Visible() {
		var cmd tea.Cmd
		m.palette, cmd = m.palette.Update(msg)
		return m, cmd
	}

	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.palette.SetWidth(min(m.width-4, 80))
		m.help.Width = m.width
		m.propagateSize()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.timerView, cmd = m.timerView.Update(msg)
		return m, cmd

	case pollTickMsg:
		return m, m.pollCmd()

	case polledMsg:
		if msg.err != nil {
			m.status = "state: " + msg.err.Error()
		} else {
			m.timerView.SetState(msg.state)
		}
		return m, m.schedulePoll()

	case pushedMsg:
		m.timerView.SetState(msg.state)
		return m, m.waitForPush()

	case streamOpenedMsg:
		if msg.err != nil {
			m.timerView.SetLive(false)
			return m, retryStreamAfter(StreamRetry)
		}
		m.timerView.SetLive(true)
		m.pushUpdates = msg.updates
		return m, m.waitForPush()

	case streamClosedMsg:
		m.timerView.SetLive(false)
		m.pushUpdates = nil
		return m, retryStreamAfter(StreamRetry)

	case streamRetryMsg:
		return m, m.openStreamCmd()

	case commandDoneMsg:
		if msg.err != nil {
			m.status = msg.action + " failed: " + msg.err.Error()
			return m, nil
		}
		m.timerView.SetState(msg.out.State)
		m.status = msg.action
		return m, nil

	case settingsSavedMsg:
		if msg.err != nil {
			m.status = "settings: " + msg.err.Error()
			return m, nil
		}
		m.durations = msg.out
		m.status = fmt.Sprintf("focus %dm, break %dm", msg.out.FocusMinutes, msg.out.BreakMinutes)
		return m, nil

	case guardCheckedMsg:
		if msg.err != nil {
			m.status = "guard: " + msg.err.Error()
		} else if msg.out.Blocked {
			m.status = fmt.Sprintf("%s is blocked (%s)", msg.out.Host, msg.out.MatchedSite)
		} else {
			m.status = msg.out.Host + " is allowed"
		}
		return m, nil

	case sitesview.LoadedMsg:
		var cmd tea.Cmd
		m.sitesView, cmd = m.sitesView.Update(msg)
		if msg.Err != nil {
			m.status = "sites: " + msg.Err.Error()
		} else if s := m.sitesView.Status(); s != "" {
			m.status = s
		}
		return m, cmd

	case components.PaletteSubmitMsg:
		return m.executePalette(msg.Input)

	case components.PaletteCancelMsg:
		m.status = "ready"
		return m, nil

	case tea.KeyMsg:
		if m.showHelp {
			if msg.String() == "?" || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, nil
		}
		if m.activeTab == tabSites && m.sitesView.Filtering() {
			break
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "tab":
			m.activeTab = (m.activeTab + 1) % tabCount
			return m, nil
		case "shift+tab":
			m.activeTab = (m.activeTab + tabCount - 1) % tabCount
			return m, nil
		case "?":
			m.showHelp = true
			return m, nil
		case ":":
			return m, m.palette.Open()
		}
		if m.activeTab == tabTimer {
			switch msg.String() {
			case " ":
				return m, m.dispatchCmd(m.toggleAction(), 0, 0)
			case "r":
				return m, m.dispatchCmd("reset", 0, 0)
			case "c":
				return m, m.dispatchCmd("resetCount", 0, 0)
			}
		}
	}

	var tabCmd tea.Cmd
	switch m.activeTab {
	case tabTimer:
		m.timerView, tabCmd = m.timerView.Update(msg)
	case tabSites:
		m.sitesView, tabCmd = m.sitesView.Update(msg)
	}
	cmds = append(cmds, tabCmd)
	return m, tea.Batch(cmds...)
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	tabBar := m.renderTabBar()
	statusBar := m.renderStatusBar()
	contentH := m.height - lipgloss.Height(tabBar) - lipgloss.Height(statusBar)
	if contentH < 1 {
		contentH = 1
	}

	var content string
	switch {
	case m.showHelp:
		content = lipgloss.NewStyle().Width(m.width).Height(contentH).Render(m.help.View(m.keys))
	case m.palette.Visible():
		content = lipgloss.Place(m.width, contentH, lipgloss.Center, lipgloss.Center, m.palette.View())
	case m.activeTab == tabSites:
		content = m.sitesView.View()
	default:
		content = m.timerView.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left, tabBar, content, statusBar)
}

func (m Model) renderTabBar() string {
	parts := make([]string, tabCount)
	for i := tabID(0); i < tabCount; i++ {
		if i == m.activeTab {
			parts[i] = theme.Hot.Render(" " + tabLabels[i] + " ")
		} else {
			parts[i] = theme.Muted.Render(" " + tabLabels[i] + " ")
		}
	}
	bar := "pomoguard  " + strings.Join(parts, theme.Muted.Render(" │ "))
	return lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar) + "\n"
}

func (m Model) renderStatusBar() string {
	left := m.status
	if m.durations.FocusMinutes > 0 {
		left = theme.Muted.Render(fmt.Sprintf("%d/%d min", m.durations.FocusMinutes, m.durations.BreakMinutes)) + "  " + left
	}
	right := theme.Muted.Render("?:help  tab:switch  :::palette  q:quit")
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return "\n" + lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(left+strings.Repeat(" ", gap)+right)
}

// ─── palette execution ────────────────────────────────────────────────────────

func (m Model) executePalette(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return m, nil
	}
	switch parts[0] {
	case "timer:start":
		mins := [2]int{}
		for i, arg := range parts[1:min(len(parts), 3)] {
			n, err := strconv.Atoi(arg)
			if err != nil {
				m.status = "minutes must be a number"
				return m, nil
			}
			mins[i] = n
		}
		return m, m.dispatchCmd("start", mins[0], mins[1])
	case "timer:pause":
		return m, m.dispatchCmd("pause", 0, 0)
	case "timer:resume":
		return m, m.dispatchCmd("resume", 0, 0)
	case "timer:reset":
		return m, m.dispatchCmd("reset", 0, 0)
	case "timer:reset-count":
		return m, m.dispatchCmd("resetCount", 0, 0)

	case "settings:focus", "settings:break":
		if len(parts) < 2 {
			m.status = "usage: " + parts[0] + " <minutes>"
			return m, nil
		}
		n, err := strconv.Atoi(parts[1])
		if err != nil {
			m.status = "minutes must be a number"
			return m, nil
		}
		input := settingsdto.DurationsInput{}
		if parts[0] == "settings:focus" {
			input.FocusMinutes = &n
		} else {
			input.BreakMinutes = &n
		}
		return m, m.saveDurationsCmd(input)

	case "sites:add":
		if len(parts) < 2 {
			m.status = "usage: sites:add <site> [site...]"
			return m, nil
		}
		if m.settings == nil {
			m.status = "settings unavailable"
			return m, nil
		}
		m.activeTab = tabSites
		return m, m.sitesView.AddCmd(parts[1:])

	case "sites:remove":
		if len(parts) < 2 {
			m.status = "usage: sites:remove <site>"
			return m, nil
		}
		if m.settings == nil {
			m.status = "settings unavailable"
			return m, nil
		}
		m.activeTab = tabSites
		return m, m.sitesView.RemoveCmd(parts[1])

	case "guard:check":
		if len(parts) < 2 {
			m.status = "usage: guard:check <url>"
			return m, nil
		}
		return m, m.guardCheckCmd(parts[1])

	default:
		m.status = "unknown command: " + parts[0]
	}
	return m, nil
}

// ─── helpers ─────────────────────────────────────────────────────────────────

func (m Model) toggleAction() string {
	state, _ := m.timerView.State()
	switch {
	case state.Running:
		return "pause"
	case state.Paused:
		return "resume"
	default:
		return "start"
	}
}

// PollInterval picks the next poll delay from the last known state.
func (m Model) PollInterval() time.Duration {
	if state, ok := m.timerView.State(); ok && state.Running {
		return PollActive
	}
	return PollIdle
}

func (m *Model) propagateSize() {
	sz := tea.WindowSizeMsg{Width: m.width, Height: m.height - 3}
	m.timerView, _ = m.timerView.Update(sz)
	m.sitesView, _ = m.sitesView.Update(sz)
}

// ─── async commands ───────────────────────────────────────────────────────────

func (m Model) pollCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandDeadline)
		defer cancel()
		state, err := m.timer.GetState(ctx)
		return polledMsg{state: state, err: err}
	}
}

func (m Model) schedulePoll() tea.Cmd {
	return tea.Tick(m.PollInterval(), func(time.Time) tea.Msg { return pollTickMsg{} })
}

func (m Model) openStreamCmd() tea.Cmd {
	if m.stream == nil {
		return nil
	}
	return func() tea.Msg {
		updates, err := m.stream(context.Background())
		return streamOpenedMsg{updates: updates, err: err}
	}
}

func (m Model) waitForPush() tea.Cmd {
	updates := m.pushUpdates
	if updates == nil {
		return nil
	}
	return func() tea.Msg {
		state, ok := <-updates
		if !ok {
			return streamClosedMsg{}
		}
		return pushedMsg{state: state}
	}
}

func retryStreamAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return streamRetryMsg{} })
}

func (m Model) dispatchCmd(action string, focus, brk int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandDeadline)
		defer cancel()
		out, err := m.timer.Dispatch(ctx, timerdto.CommandInput{Action: action, FocusMinutes: focus, BreakMinutes: brk})
		return commandDoneMsg{action: action, out: out, err: err}
	}
}

func (m Model) loadSettingsCmd() tea.Cmd {
	if m.settings == nil {
		return nil
	}
	return func() tea.Msg {
		out, err := m.settings.Get(context.Background())
		return settingsSavedMsg{out: out, err: err}
	}
}

func (m Model) saveDurationsCmd(input settingsdto.DurationsInput) tea.Cmd {
	if m.settings == nil {
		return nil
	}
	return func() tea.Msg {
		out, err := m.settings.SetDurations(context.Background(), input)
		return settingsSavedMsg{out: out, err: err}
	}
}

func (m Model) guardCheckCmd(url string) tea.Cmd {
	if m.guard == nil {
		return nil
	}
	return func() tea.Msg {
		out, err := m.guard.Check(context.Background(), url)
		return guardCheckedMsg{out: out, err: err}
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
