package sites

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	settingsdto "pomoguard/internal/modules/settings/dto"
	"pomoguard/internal/ui/theme"
)

type SitesPort interface {
	Get(ctx context.Context) (settingsdto.SettingsOutput, error)
	AddSites(ctx context.Context, raw []string) (settingsdto.SitesOutput, error)
	RemoveSite(ctx context.Context, raw string) (settingsdto.SitesOutput, error)
}

// LoadedMsg carries the blocked-site list after a read or a change.
type LoadedMsg struct {
	Sites    []string
	Added    []string
	Rejected []string
	Err      error
}

type siteItem string

func (i siteItem) Title() string       { return string(i) }
func (i siteItem) Description() string { return "blocked during focus, with subdomains" }
func (i siteItem) FilterValue() string { return string(i) }

type Model struct {
	port   SitesPort
	list   list.Model
	input  textinput.Model
	adding bool
	status string
	width  int
	height int
}

func New(port SitesPort) Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(theme.Peach).BorderForeground(theme.Peach)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(theme.Sapphire).BorderForeground(theme.Peach)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Blocked sites"
	l.Styles.Title = theme.Title
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	ti := textinput.New()
	ti.Placeholder = "example.com"
	ti.CharLimit = 253

	return Model{port: port, list: l, input: ti}
}

func (m Model) Init() tea.Cmd {
	if m.port == nil {
		return nil
	}
	return m.load()
}

// Filtering is true while the list filter or the add input owns the keyboard.
func (m Model) Filtering() bool {
	return m.adding || m.list.FilterState() == list.Filtering
}

func (m Model) Sites() []string {
	items := m.list.Items()
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, string(it.(siteItem)))
	}
	return out
}

func (m Model) Status() string { return m.status }

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width-4, msg.Height-4)
		return m, nil

	case LoadedMsg:
		if msg.Err != nil {
			m.status = "sites: " + msg.Err.Error()
			return m, nil
		}
		items := make([]list.Item, 0, len(msg.Sites))
		for _, s := range msg.Sites {
			items = append(items, siteItem(s))
		}
		cmd := m.list.SetItems(items)
		m.status = describe(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.adding {
			switch msg.String() {
			case "esc":
				m.adding = false
				m.input.Blur()
				return m, nil
			case "enter":
				raw := strings.Fields(m.input.Value())
				m.adding = false
				m.input.Blur()
				m.input.SetValue("")
				if len(raw) == 0 {
					return m, nil
				}
				return m, m.add(raw)
			}
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}
		if m.list.FilterState() != list.Filtering {
			switch msg.String() {
			case "a":
				m.adding = true
				return m, m.input.Focus()
			case "d", "x", "delete":
				if it, ok := m.list.SelectedItem().(siteItem); ok {
					return m, m.remove(string(it))
				}
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.port == nil {
		return theme.Muted.Render("Settings are not available in this session.")
	}
	view := m.list.View()
	if m.adding {
		view += "\n" + theme.Title.Render("add: ") + m.input.View()
	} else {
		view += "\n" + theme.Muted.Render("a:add  d:remove  /:filter")
	}
	return view
}

// AddCmd is used by the command palette.
func (m Model) AddCmd(raw []string) tea.Cmd { return m.add(raw) }

func (m Model) RemoveCmd(raw string) tea.Cmd { return m.remove(raw) }

func (m Model) load() tea.Cmd {
	return func() tea.Msg {
		out, err := m.port.Get(context.Background())
		return LoadedMsg{Sites: out.BlockedSites, Err: err}
	}
}

func (m Model) add(raw []string) tea.Cmd {
	return func() tea.Msg {
		out, err := m.port.AddSites(context.Background(), raw)
		return LoadedMsg{Sites: out.BlockedSites, Added: out.Added, Rejected: out.Rejected, Err: err}
	}
}

func (m Model) remove(raw string) tea.Cmd {
	return func() tea.Msg {
		out, err := m.port.RemoveSite(context.Background(), raw)
		return LoadedMsg{Sites: out.BlockedSites, Err: err}
	}
}

func describe(msg LoadedMsg) string {
	var parts []string
	if len(msg.Added) > 0 {
		parts = append(parts, "added "+strings.Join(msg.Added, ", "))
	}
	if len(msg.Rejected) > 0 {
		parts = append(parts, "invalid "+strings.Join(msg.Rejected, ", "))
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, "; ")
}
