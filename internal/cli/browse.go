package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/alexanderramin/greenpath/internal/cli/formatter"
	"github.com/alexanderramin/greenpath/internal/service"
)

// browseKeys are the path browser bindings. Scrolling keys belong to the viewport.
var browseKeys = struct {
	Next, Prev, Quit key.Binding
}{
	Next: key.NewBinding(key.WithKeys("tab", "right", "l", "n")),
	Prev: key.NewBinding(key.WithKeys("shift+tab", "left", "h", "p")),
	Quit: key.NewBinding(key.WithKeys("q", "esc", "ctrl+c")),
}

// browseModel pages through the composed paths one at a time, each in a
// scrollable viewport.
type browseModel struct {
	proj    *service.Projection
	now     time.Time
	index   int
	vp      viewport.Model
	ready   bool
	summary string
}

func newBrowseModel(p *service.Projection, now time.Time) browseModel {
	vp := viewport.New(0, 0)
	vp.KeyMap = browseViewportKeyMap()
	vp.MouseWheelEnabled = true
	vp.MouseWheelDelta = 3
	return browseModel{
		proj:    p,
		now:     now,
		vp:      vp,
		summary: formatter.FormatProjection(p, now),
	}
}

func (m browseModel) Init() tea.Cmd { return nil }

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.vp.Width = msg.Width
		m.vp.Height = max(msg.Height-2, 1)
		m.ready = true
		m.vp.SetContent(m.content())
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, browseKeys.Quit):
			return m, tea.Quit
		case key.Matches(msg, browseKeys.Next):
			m.index = (m.index + 1) % m.pages()
			m.vp.SetContent(m.content())
			m.vp.GotoTop()
			return m, nil
		case key.Matches(msg, browseKeys.Prev):
			m.index = (m.index - 1 + m.pages()) % m.pages()
			m.vp.SetContent(m.content())
			m.vp.GotoTop()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.vp, cmd = m.vp.Update(msg)
	return m, cmd
}

func (m browseModel) View() string {
	if !m.ready {
		return "loading..."
	}
	return m.vp.View() + "\n" + m.statusBar()
}

// pages is the summary page plus one page per path.
func (m browseModel) pages() int {
	return len(m.proj.Paths) + 1
}

func (m browseModel) content() string {
	if m.index == 0 {
		return m.summary
	}
	return formatter.FormatPath(m.proj.Paths[m.index-1], m.now)
}

func (m browseModel) title() string {
	if m.index == 0 {
		return "overview"
	}
	return m.proj.Paths[m.index-1].Path.ID
}

func (m browseModel) statusBar() string {
	hints := []string{
		formatter.Bold(fmt.Sprintf("%d/%d %s", m.index+1, m.pages(), m.title())),
		scrollIndicator(m.vp),
		formatter.Dim("tab: next  shift+tab: prev  ↑/↓: scroll  q: quit"),
	}
	sep := lipgloss.NewStyle().Foreground(formatter.ColorDim).Render(strings.Repeat("─", max(m.vp.Width, 20)))
	return sep + "\n" + strings.Join(hints, "  ")
}

// browseViewportKeyMap leaves letter keys free for paging between paths.
func browseViewportKeyMap() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown:     key.NewBinding(key.WithKeys("pgdown", " ")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
		Up:           key.NewBinding(key.WithKeys("up", "k")),
		Down:         key.NewBinding(key.WithKeys("down", "j")),
	}
}

// scrollIndicator returns a dim scroll position for the status bar.
func scrollIndicator(vp viewport.Model) string {
	if vp.AtTop() {
		return formatter.Dim("[TOP]")
	}
	if vp.AtBottom() {
		return formatter.Dim("[END]")
	}
	return formatter.Dim(fmt.Sprintf("[%d%%]", int(vp.ScrollPercent()*100)))
}

func runBrowser(p *service.Projection, now time.Time) error {
	_, err := tea.NewProgram(newBrowseModel(p, now), tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	return err
}
