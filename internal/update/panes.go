package update

import (
	"context"
	"slices"
	"strings"

	"github.com/sandeepkv93/tracker/internal/awards"
	"github.com/sandeepkv93/tracker/internal/model"
	"github.com/sandeepkv93/tracker/internal/views"
)

func (m Model) filters() []model.Filter {
	return append(m.ctrl.SmartFilters(), m.ctrl.TagFilters()...)
}

// activeCount counts open issues a filter would show, ignoring search state.
func activeCount(f model.Filter, issues []*model.Issue) int {
	if !f.IsSmart() {
		return f.ActiveIssueCount()
	}
	n := 0
	for _, issue := range issues {
		if !issue.Completed && !issue.Modified().Before(f.MinModificationDate) {
			n++
		}
	}
	return n
}

func (m Model) visibleIssues() []*model.Issue {
	return m.ctrl.IssuesForSelectedFilter()
}

// syncSelection keeps the issue cursor on the controller's selection, or
// selects the row under the cursor when the selection left the list.
func (m *Model) syncSelection() {
	issues := m.visibleIssues()
	if len(issues) == 0 {
		m.IssueCursor = 0
		m.ctrl.SelectIssue(nil)
		return
	}
	if sel := m.ctrl.SelectedIssue(); sel != nil {
		if idx := slices.Index(issues, sel); idx >= 0 {
			m.IssueCursor = idx
			return
		}
	}
	m.IssueCursor = clamp(m.IssueCursor, 0, len(issues)-1)
	m.ctrl.SelectIssue(issues[m.IssueCursor])
}

func (m *Model) moveIssueCursor(delta int) {
	issues := m.visibleIssues()
	if len(issues) == 0 {
		return
	}
	m.IssueCursor = clamp(m.IssueCursor+delta, 0, len(issues)-1)
	m.ctrl.SelectIssue(issues[m.IssueCursor])
}

func (m *Model) moveSidebarCursor(delta int) {
	m.SidebarCursor = clamp(m.SidebarCursor+delta, 0, len(m.filters())-1)
}

func (m *Model) applySidebarSelection() {
	filters := m.filters()
	if len(filters) == 0 {
		return
	}
	m.SidebarCursor = clamp(m.SidebarCursor, 0, len(filters)-1)
	f := filters[m.SidebarCursor]
	m.ctrl.SelectFilter(f)
	m.IssueCursor = 0
	m.ctrl.SelectIssue(nil)
	m.syncSelection()
	m.Status = StatusBar{Text: "filter: " + f.Name}
}

func (m *Model) syncBubbleData() {
	m.detail.SetContent(m.renderDetail())
}

func (m Model) renderSidebar() string {
	issues := m.ctrl.Store().Issues()
	selected := m.ctrl.Filter().Selected.ID
	filters := m.filters()
	entries := make([]views.SidebarEntry, 0, len(filters))
	for i, f := range filters {
		entries = append(entries, views.SidebarEntry{
			ID:       f.ID,
			Name:     f.Name,
			Icon:     f.Icon,
			Count:    activeCount(f, issues),
			Selected: f.ID == selected,
			Cursor:   i == m.SidebarCursor && m.Focus == PaneSidebar,
		})
	}
	return views.RenderSidebar(entries, m.Focus == PaneSidebar)
}

func (m Model) renderIssueList() string {
	state := m.ctrl.Filter()
	issues := m.visibleIssues()
	rows := make([]views.IssueRowData, 0, len(issues))
	for _, issue := range issues {
		rows = append(rows, views.IssueRowData{
			ID:       issue.ID,
			Title:    issue.TitleText(),
			Priority: issue.Priority.String(),
			Tags:     strings.Join(tagNames(issue.SortedTags()), " #"),
			Closed:   issue.Completed,
			Reminder: issue.ReminderEnabled,
		})
	}
	cursorID := ""
	if sel := m.ctrl.SelectedIssue(); sel != nil {
		cursorID = sel.ID
	}
	dir := "desc"
	if !state.Descending {
		dir = "asc"
	}
	explain := ""
	if state.Advanced {
		explain = m.ctrl.Explain()
	}
	return views.RenderIssueList(views.IssueListData{
		FilterName: state.Selected.Name,
		Explain:    explain,
		SortLabel:  string(state.Sort) + " " + dir,
		Items:      rows,
		CursorID:   cursorID,
		Focused:    m.Focus == PaneIssues,
	})
}

func (m Model) renderDetail() string {
	issue := m.ctrl.SelectedIssue()
	if issue == nil {
		return views.RenderIssueDetail(views.IssueDetailData{})
	}
	data := views.IssueDetailData{
		ID:       issue.ID,
		Title:    issue.TitleText(),
		Status:   issue.Status(),
		Priority: issue.Priority.String(),
		Tags:     tagNames(issue.SortedTags()),
		Missing:  tagNames(m.ctrl.MissingTags(issue)),
		Created:  formatStamp(issue.Created()),
		Modified: formatStamp(issue.Modified()),
		Content:  views.RenderMarkdown(issue.ContentText()),
	}
	if issue.ReminderEnabled {
		data.Reminder = issue.Reminder().Local().Format("15:04")
	}
	return views.RenderIssueDetail(data)
}

func (m Model) renderAwards() string {
	counts := m.ctrl.Counts(context.Background())
	all := m.ctrl.Awards()
	items := make([]views.AwardRowData, 0, len(all))
	for _, a := range all {
		items = append(items, views.AwardRowData{
			Name:        a.Name,
			Description: a.Description,
			Criterion:   a.Criterion,
			Value:       a.Value,
			Earned:      awards.HasEarned(a, counts),
		})
	}
	return views.RenderAwardsPanel(views.AwardsPanelData{
		Issues: counts.Issues,
		Closed: counts.Closed,
		Tags:   counts.Tags,
		Items:  items,
	})
}
