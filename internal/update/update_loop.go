package update

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/tracker/internal/query"
	"github.com/sandeepkv93/tracker/internal/scheduler"
	"github.com/sandeepkv93/tracker/internal/store"
	"github.com/sandeepkv93/tracker/internal/views"
)

const maxReminderLog = 20

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{waitForChangeCmd(m.changes)}
	if m.Scheduler != nil {
		cmds = append(cmds, waitForReminderCmd(m.Scheduler.C()))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.update(msg)
	next.syncBubbleData()
	return next, cmd
}

func (m Model) update(msg tea.Msg) (Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(typed)
	case tea.WindowSizeMsg:
		m.detail.Width = clamp(typed.Width/3, 30, 80)
		m.detail.Height = clamp(typed.Height-8, 8, 60)
		return m, nil
	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		m.notify("Status", typed.Text, levelFromError(typed.IsError))
		return m, nil
	case ClearStatusMsg:
		m.Status = StatusBar{}
		return m, nil
	case AppErrorMsg:
		m.LastError = typed.Err
		if typed.Err != nil {
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
			m.notify("Error", typed.Err.Error(), "error")
		}
		return m, nil
	case StoreChangedMsg:
		if typed.Change.Kind == store.ChangeRemote {
			m.Status = StatusBar{Text: "reloaded changes from disk"}
		}
		m.syncSelection()
		return m, waitForChangeCmd(m.changes)
	case ReminderDueMsg:
		m = m.handleReminder(typed.Event)
		if m.Scheduler != nil {
			return m, waitForReminderCmd(m.Scheduler.C())
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	keyStr := msg.String()
	if keyStr == "ctrl+c" {
		return m.quit()
	}
	if m.Palette.Active {
		return m.handlePaletteKey(msg), nil
	}
	if m.Search.Active {
		return m.handleSearchKey(msg), nil
	}

	switch keyStr {
	case m.Keys.Quit:
		return m.quit()
	case m.Keys.Help:
		m.HelpVisible = !m.HelpVisible
		if m.HelpVisible {
			m.Status = StatusBar{Text: "help shown"}
		} else {
			m.Status = StatusBar{Text: "help hidden"}
		}
		return m, nil
	case m.Keys.Palette:
		return m.openPalette(), nil
	case m.Keys.Search:
		m.CurrentView = ViewIssues
		return m.openSearch(), nil
	case m.Keys.Issues:
		m.CurrentView = ViewIssues
		return m, nil
	case m.Keys.Awards:
		m.CurrentView = ViewAwards
		return m, nil
	case "esc":
		m.CurrentView = ViewIssues
		return m, nil
	}

	if m.CurrentView == ViewIssues {
		return m.handleIssuesKey(keyStr), nil
	}
	return m, nil
}

func (m Model) handleIssuesKey(keyStr string) Model {
	switch keyStr {
	case "tab":
		if m.Focus == PaneIssues {
			m.Focus = PaneSidebar
		} else {
			m.Focus = PaneIssues
		}
	case "j", "down":
		if m.Focus == PaneSidebar {
			m.moveSidebarCursor(1)
		} else {
			m.moveIssueCursor(1)
		}
	case "k", "up":
		if m.Focus == PaneSidebar {
			m.moveSidebarCursor(-1)
		} else {
			m.moveIssueCursor(-1)
		}
	case "enter":
		if m.Focus == PaneSidebar {
			m.applySidebarSelection()
			m.Focus = PaneIssues
		}
	case m.Keys.NewIssue:
		issue, ok := m.ctrl.NewIssue()
		if !ok {
			m.Status = StatusBar{Text: "issue limit reached; unlock the full version to add more", IsError: true}
			return m
		}
		m.syncSelection()
		m.Status = StatusBar{Text: "created " + issue.TitleText()}
	case m.Keys.NewTag:
		tag := m.ctrl.NewTag()
		m.Status = StatusBar{Text: "created tag " + tag.NameText()}
	case m.Keys.Toggle:
		issue := m.ctrl.SelectedIssue()
		if issue == nil {
			return m
		}
		if err := m.ctrl.ToggleCompleted(issue); err != nil {
			m.LastError = err
			m.Status = StatusBar{Text: err.Error(), IsError: true}
			return m
		}
		m.Status = StatusBar{Text: "issue " + strings.ToLower(issue.Status())}
		m.syncSelection()
	case m.Keys.Delete:
		issue := m.ctrl.SelectedIssue()
		if issue == nil {
			return m
		}
		if err := m.ctrl.Delete(issue); err != nil {
			m.LastError = err
			m.Status = StatusBar{Text: err.Error(), IsError: true}
			return m
		}
		m.Status = StatusBar{Text: "issue deleted"}
		m.syncSelection()
	case m.Keys.Sort:
		m.ctrl.UpdateFilter(func(s *query.FilterState) { s.Descending = !s.Descending })
		m.syncSelection()
		m.Status = StatusBar{Text: "sort direction flipped"}
	}
	return m
}

func (m Model) quit() (Model, tea.Cmd) {
	m.Quitting = true
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	m.ctrl.SaveNow()
	return m, tea.Quit
}

func (m Model) handleReminder(ev scheduler.ReminderEvent) Model {
	m.ReminderLog = append(m.ReminderLog, ev)
	if len(m.ReminderLog) > maxReminderLog {
		m.ReminderLog = m.ReminderLog[len(m.ReminderLog)-maxReminderLog:]
	}
	issue, ok := m.ctrl.HandleReminder(ev)
	if !ok {
		m.Status = StatusBar{Text: fmt.Sprintf("stale reminder dropped: %s", ev.Key)}
		return m
	}
	m.Status = StatusBar{Text: fmt.Sprintf("reminder: %s", issue.TitleText())}
	body := ev.Body
	if strings.TrimSpace(body) == "" {
		body = issue.TitleText()
	}
	m.notify(ev.Title, body, levelReminder)
	return m
}

func waitForReminderCmd(ch <-chan scheduler.ReminderEvent) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return ReminderDueMsg{Event: ev}
	}
}

func waitForChangeCmd(ch <-chan store.Change) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		c, ok := <-ch
		if !ok {
			return nil
		}
		return StoreChangedMsg{Change: c}
	}
}

func (m Model) View() string {
	status := ""
	if m.Status.Text != "" {
		if m.Status.IsError {
			status = fmt.Sprintf("status: error: %s", m.Status.Text)
		} else {
			status = fmt.Sprintf("status: %s", m.Status.Text)
		}
	}

	sidebar := ""
	leftPane := ""
	rightPane := ""
	switch m.CurrentView {
	case ViewIssues:
		sidebar = m.renderSidebar()
		leftPane = m.renderIssueList()
		rightPane = m.detail.View()
	case ViewAwards:
		leftPane = m.renderAwards()
	}
	if help := m.renderHelpIfVisible(); help != "" {
		rightPane = help
	}

	notificationView := strings.TrimSpace(strings.Join([]string{
		m.renderSearch(),
		m.renderCommandPalette(),
		m.renderLastReminder(),
		m.renderNotificationsView(),
	}, "\n"))

	selected := "-"
	if issue := m.ctrl.SelectedIssue(); issue != nil {
		selected = issue.TitleText()
	}
	return views.RenderApp(views.AppData{
		Header:       fmt.Sprintf("tracker | view: %s | selected: %s", m.CurrentView, selected),
		Sidebar:      sidebar,
		LeftPane:     leftPane,
		RightPane:    rightPane,
		StatusLine:   status,
		Notification: notificationView,
		Footer: fmt.Sprintf("keys: %s issues | %s awards | %s cmd | %s search | %s help | %s quit",
			m.Keys.Issues, m.Keys.Awards, m.Keys.Palette, m.Keys.Search, m.Keys.Help, m.Keys.Quit),
	})
}

func (m Model) renderLastReminder() string {
	if len(m.ReminderLog) == 0 {
		return ""
	}
	last := m.ReminderLog[len(m.ReminderLog)-1]
	return fmt.Sprintf("last-reminder: %s @ %s", last.Title, last.TriggerAt.Local().Format("15:04"))
}

func (m Model) renderNotificationsView() string {
	if len(m.Notifications) == 0 {
		return ""
	}
	n := m.Notifications[len(m.Notifications)-1]
	return views.RenderNotification(n.Level, n.Body)
}
