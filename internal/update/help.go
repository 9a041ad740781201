package update

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"

	"github.com/sandeepkv93/tracker/internal/views"
)

type KeyBinding struct {
	Key    string
	Action string
}

type helpKeyMap struct {
	short []key.Binding
	full  [][]key.Binding
}

func (k helpKeyMap) ShortHelp() []key.Binding  { return k.short }
func (k helpKeyMap) FullHelp() [][]key.Binding { return k.full }

func (m Model) renderHelpIfVisible() string {
	if !m.HelpVisible {
		return ""
	}
	return m.renderHelpView()
}

func (m Model) renderHelpView() string {
	var plain []string
	for _, kb := range m.viewBindings() {
		plain = append(plain, fmt.Sprintf("- %s: %s", kb.Key, kb.Action))
	}
	bindings := m.helpBindings()
	return views.RenderHelpPanel(views.HelpPanelData{
		Bindings: plain,
		HelpView: m.helpModel.View(helpKeyMap{
			short: bindings,
			full:  [][]key.Binding{bindings},
		}),
	})
}

func (m Model) globalBindings() []KeyBinding {
	return []KeyBinding{
		{Key: m.Keys.Issues, Action: "show issues"},
		{Key: m.Keys.Awards, Action: "show awards"},
		{Key: m.Keys.Palette, Action: "open command palette"},
		{Key: m.Keys.Search, Action: "search (#tag for tokens)"},
		{Key: m.Keys.Help, Action: "toggle help panel"},
		{Key: m.Keys.Quit, Action: "quit app"},
	}
}

func (m Model) viewBindings() []KeyBinding {
	switch m.CurrentView {
	case ViewIssues:
		return []KeyBinding{
			{Key: "tab", Action: "switch between filters and issues"},
			{Key: "j/k", Action: "move cursor"},
			{Key: "enter", Action: "apply filter under cursor"},
			{Key: m.Keys.NewIssue, Action: "new issue"},
			{Key: m.Keys.NewTag, Action: "new tag"},
			{Key: m.Keys.Toggle, Action: "close/reopen issue"},
			{Key: m.Keys.Delete, Action: "delete issue"},
			{Key: m.Keys.Sort, Action: "flip sort direction"},
		}
	case ViewAwards:
		return []KeyBinding{{Key: "esc", Action: "back to issues"}}
	default:
		return []KeyBinding{{Key: "-", Action: "no contextual bindings"}}
	}
}

func (m Model) helpBindings() []key.Binding {
	out := make([]key.Binding, 0, len(m.globalBindings())+len(m.viewBindings()))
	for _, kb := range m.globalBindings() {
		out = append(out, key.NewBinding(key.WithKeys(kb.Key), key.WithHelp(kb.Key, kb.Action)))
	}
	for _, kb := range m.viewBindings() {
		out = append(out, key.NewBinding(key.WithKeys(kb.Key), key.WithHelp(kb.Key, kb.Action)))
	}
	return out
}
