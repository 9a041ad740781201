package views

import (
	"fmt"
	"strings"
)

type SidebarEntry struct {
	ID       string
	Name     string
	Icon     string
	Count    int
	Selected bool
	Cursor   bool
}

type IssueRowData struct {
	ID       string
	Title    string
	Priority string
	Tags     string
	Closed   bool
	Reminder bool
}

type IssueListData struct {
	FilterName string
	Explain    string
	SortLabel  string
	Items      []IssueRowData
	CursorID   string
	Focused    bool
}

type IssueDetailData struct {
	ID       string
	Title    string
	Status   string
	Priority string
	Tags     []string
	Missing  []string
	Created  string
	Modified string
	Reminder string
	Content  string
}

type AwardRowData struct {
	Name        string
	Description string
	Criterion   string
	Value       int
	Earned      bool
}

type AwardsPanelData struct {
	Issues int
	Closed int
	Tags   int
	Items  []AwardRowData
}

type HelpPanelData struct {
	Bindings []string
	HelpView string
}

type SearchData struct {
	Active      bool
	Input       string
	Tokens      []string
	Suggestions []string
}

func RenderSidebar(entries []SidebarEntry, focused bool) string {
	var b strings.Builder
	b.WriteString("filters:")
	if focused {
		b.WriteString(" *")
	}
	b.WriteString("\n")
	smart := true
	for _, e := range entries {
		if smart && e.Icon == "tag" {
			b.WriteString("tags:\n")
			smart = false
		}
		cursor := " "
		if e.Cursor {
			cursor = ">"
		}
		mark := " "
		if e.Selected {
			mark = "•"
		}
		b.WriteString(fmt.Sprintf("%s%s %s (%d)\n", cursor, mark, e.Name, e.Count))
	}
	if smart {
		b.WriteString("tags:\n  (none)\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func RenderIssueList(data IssueListData) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s [%s]", data.FilterName, data.SortLabel))
	if data.Focused {
		b.WriteString(" *")
	}
	b.WriteString("\n")
	if data.Explain != "" {
		b.WriteString("where: " + data.Explain + "\n")
	}
	if len(data.Items) == 0 {
		b.WriteString("(no issues)")
		return b.String()
	}
	for _, item := range data.Items {
		cursor := " "
		if item.ID == data.CursorID {
			cursor = ">"
		}
		check := "[ ]"
		if item.Closed {
			check = "[x]"
		}
		b.WriteString(fmt.Sprintf("%s %s %s %s", cursor, check, priorityBadge(item.Priority), item.Title))
		if item.Tags != "" {
			b.WriteString(" #" + item.Tags)
		}
		if item.Reminder {
			b.WriteString(" (bell)")
		}
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func RenderIssueDetail(data IssueDetailData) string {
	if strings.TrimSpace(data.ID) == "" {
		return "issue:\n(no selection)"
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("issue: %s\n", data.Title))
	b.WriteString(fmt.Sprintf("status: %s | priority: %s\n", data.Status, data.Priority))
	tags := "(none)"
	if len(data.Tags) > 0 {
		tags = strings.Join(data.Tags, ", ")
	}
	b.WriteString("tags: " + tags + "\n")
	if len(data.Missing) > 0 {
		b.WriteString("add: " + strings.Join(data.Missing, ", ") + "\n")
	}
	b.WriteString(fmt.Sprintf("created: %s\nmodified: %s\n", data.Created, data.Modified))
	if data.Reminder != "" {
		b.WriteString("reminder: daily at " + data.Reminder + "\n")
	}
	b.WriteString("\n")
	if strings.TrimSpace(data.Content) == "" {
		b.WriteString("(no description)")
	} else {
		b.WriteString(data.Content)
	}
	return b.String()
}

func RenderAwardsPanel(data AwardsPanelData) string {
	var b strings.Builder
	earned := 0
	for _, a := range data.Items {
		if a.Earned {
			earned++
		}
	}
	b.WriteString(fmt.Sprintf("awards: %d/%d earned\n", earned, len(data.Items)))
	b.WriteString(fmt.Sprintf("issues: %d | closed: %d | tags: %d\n", data.Issues, data.Closed, data.Tags))
	for _, a := range data.Items {
		mark := "[ ]"
		if a.Earned {
			mark = "[*]"
		}
		b.WriteString(fmt.Sprintf("\n%s %s (%s >= %d)\n    %s", mark, a.Name, a.Criterion, a.Value, a.Description))
	}
	return b.String()
}

func RenderSearch(data SearchData) string {
	if !data.Active && data.Input == "" && len(data.Tokens) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("search: " + data.Input)
	if len(data.Tokens) > 0 {
		b.WriteString(" | tags: #" + strings.Join(data.Tokens, " #"))
	}
	if len(data.Suggestions) > 0 {
		b.WriteString("\nsuggest: #" + strings.Join(data.Suggestions, " #") + " [tab] accept")
	}
	return b.String()
}

func RenderCommandPalette(active bool, input string) string {
	if !active {
		return ""
	}
	return fmt.Sprintf("command: :%s", input)
}

func RenderNotification(level string, body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}
	return fmt.Sprintf("notification: [%s] %s", strings.ToUpper(level), body)
}

func RenderHelpPanel(data HelpPanelData) string {
	return fmt.Sprintf("help:\n%s\n%s", strings.Join(data.Bindings, "\n"), data.HelpView)
}

func priorityBadge(p string) string {
	switch p {
	case "High":
		return "[RED]"
	case "Medium":
		return "[YELLOW]"
	default:
		return "[GREEN]"
	}
}
