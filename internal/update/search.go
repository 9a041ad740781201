package update

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/tracker/internal/query"
	"github.com/sandeepkv93/tracker/internal/views"
)

func (m Model) openSearch() Model {
	m.Search.Active = true
	m.searchInput.SetValue(m.ctrl.Filter().Text)
	m.searchInput.Focus()
	m.Status = StatusBar{Text: "search active"}
	return m
}

func (m Model) handleSearchKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "esc":
		m.Search.Active = false
		m.searchInput.SetValue("")
		m.searchInput.Blur()
		m.ctrl.UpdateFilter(func(s *query.FilterState) {
			s.Text = ""
			s.Tokens = nil
		})
		m.Status = StatusBar{Text: "search cleared"}
	case "enter":
		m.Search.Active = false
		m.searchInput.Blur()
		m.Status = StatusBar{Text: "search applied"}
	case "tab":
		m = m.acceptSuggestion()
	default:
		if msg.Type == tea.KeyRunes {
			m.searchInput.SetValue(m.searchInput.Value() + string(msg.Runes))
		} else {
			var cmd tea.Cmd
			m.searchInput, cmd = m.searchInput.Update(msg)
			_ = cmd
		}
		text := m.searchInput.Value()
		m.ctrl.UpdateFilter(func(s *query.FilterState) { s.Text = text })
	}
	m.syncSelection()
	return m
}

// acceptSuggestion turns the first suggested tag into a token and drops the
// "#" fragment from the search text.
func (m Model) acceptSuggestion() Model {
	suggestions := m.ctrl.SuggestedFilterTokens()
	if len(suggestions) == 0 {
		return m
	}
	tag := suggestions[0]
	m.ctrl.UpdateFilter(func(s *query.FilterState) {
		for _, t := range s.Tokens {
			if t == tag {
				s.Text = ""
				return
			}
		}
		s.Tokens = append(s.Tokens, tag)
		s.Text = ""
	})
	m.searchInput.SetValue("")
	m.Status = StatusBar{Text: "filtering by #" + tag.NameText()}
	return m
}

func (m Model) renderSearch() string {
	state := m.ctrl.Filter()
	input := state.Text
	if m.Search.Active {
		input = m.searchInput.Value()
	}
	suggestions := []string{}
	if m.Search.Active && strings.HasPrefix(input, "#") {
		suggestions = tagNames(m.ctrl.SuggestedFilterTokens())
	}
	return views.RenderSearch(views.SearchData{
		Active:      m.Search.Active,
		Input:       input,
		Tokens:      tagNames(state.Tokens),
		Suggestions: suggestions,
	})
}
