package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/sandeepkv93/tracker/internal/model"
	"github.com/sandeepkv93/tracker/internal/query"
	"github.com/sandeepkv93/tracker/internal/tracker"
)

var errNoSelection = &CommandError{Code: ErrCodeNoSelection, Message: "no issue selected"}

// ForController wires every command to c. Issue commands act on the selected
// issue.
func ForController(c *tracker.Controller) Handlers {
	selected := func() (*model.Issue, error) {
		issue := c.SelectedIssue()
		if issue == nil {
			return nil, errNoSelection
		}
		return issue, nil
	}
	tagNamed := func(name string) (*model.Tag, error) {
		tag, ok := c.Store().TagByName(name)
		if !ok {
			return nil, &CommandError{Code: ErrCodeNotFound, Message: fmt.Sprintf("no tag named %q", name)}
		}
		return tag, nil
	}
	onSelected := func(fn func(*model.Issue) error, msg string) func() (Result, error) {
		return func() (Result, error) {
			issue, err := selected()
			if err != nil {
				return Result{}, err
			}
			if err := fn(issue); err != nil {
				return Result{}, err
			}
			return Result{Message: msg}, nil
		}
	}
	setCompleted := func(done bool) func(*model.Issue) error {
		return func(issue *model.Issue) error {
			if issue.Completed == done {
				return nil
			}
			return c.ToggleCompleted(issue)
		}
	}

	return Handlers{
		Add: func(a TextArgs) (Result, error) {
			issue, ok := c.NewIssue()
			if !ok {
				return Result{}, &CommandError{Code: ErrCodeRefused, Message: "issue limit reached; unlock the full version to add more"}
			}
			if err := c.SetTitle(issue, a.Text); err != nil {
				return Result{}, err
			}
			return Result{Message: "added: " + a.Text}, nil
		},
		Tag: func(a TextArgs) (Result, error) {
			issue, err := selected()
			if err != nil {
				return Result{}, err
			}
			tag, err := tagNamed(a.Text)
			if err != nil {
				return Result{}, err
			}
			if err := c.AddTag(issue, tag); err != nil {
				return Result{}, err
			}
			return Result{Message: "tagged " + tag.NameText()}, nil
		},
		Untag: func(a TextArgs) (Result, error) {
			issue, err := selected()
			if err != nil {
				return Result{}, err
			}
			tag, err := tagNamed(a.Text)
			if err != nil {
				return Result{}, err
			}
			if err := c.RemoveTag(issue, tag); err != nil {
				return Result{}, err
			}
			return Result{Message: "untagged " + tag.NameText()}, nil
		},
		NewTag: func(a TextArgs) (Result, error) {
			tag := c.NewTag()
			if a.Text != "" {
				if err := c.RenameTag(tag, a.Text); err != nil {
					return Result{}, err
				}
			}
			return Result{Message: "created tag " + tag.NameText()}, nil
		},
		Rename: func(a TextArgs) (Result, error) {
			tag := c.Filter().Selected.Tag
			if tag == nil {
				return Result{}, &CommandError{Code: ErrCodeNoSelection, Message: "select a tag to rename"}
			}
			if err := c.RenameTag(tag, a.Text); err != nil {
				return Result{}, err
			}
			c.SelectFilter(model.TagFilters([]*model.Tag{tag})[0])
			return Result{Message: "renamed tag to " + tag.NameText()}, nil
		},
		Title: func(a TextArgs) (Result, error) {
			return onSelected(func(i *model.Issue) error { return c.SetTitle(i, a.Text) }, "title updated")()
		},
		Content: func(a TextArgs) (Result, error) {
			return onSelected(func(i *model.Issue) error { return c.SetContent(i, a.Text) }, "description updated")()
		},
		Search: func(a TextArgs) (Result, error) {
			c.UpdateFilter(func(s *query.FilterState) { s.Text = a.Text })
			if a.Text == "" {
				return Result{Message: "search cleared"}, nil
			}
			return Result{Message: "searching: " + a.Text}, nil
		},
		Priority: func(a PriorityArgs) (Result, error) {
			return onSelected(func(i *model.Issue) error { return c.SetPriority(i, a.Priority) }, "priority "+a.Priority.String())()
		},
		Close:  onSelected(setCompleted(true), "issue closed"),
		Reopen: onSelected(setCompleted(false), "issue reopened"),
		Delete: onSelected(c.Delete, "issue deleted"),
		Remind: func(a RemindArgs) (Result, error) {
			issue, err := selected()
			if err != nil {
				return Result{}, err
			}
			if !a.Enabled {
				if err := c.SetReminder(issue, false, time.Time{}); err != nil {
					return Result{}, err
				}
				return Result{Message: "reminder off"}, nil
			}
			now := model.Now().Local()
			at := time.Date(now.Year(), now.Month(), now.Day(), a.Hour, a.Minute, 0, 0, now.Location())
			if err := c.SetReminder(issue, true, at); err != nil {
				return Result{}, err
			}
			return Result{Message: fmt.Sprintf("reminder set for %02d:%02d daily", a.Hour, a.Minute)}, nil
		},
		Filter: func(a FilterArgs) (Result, error) {
			c.UpdateFilter(func(s *query.FilterState) { s.Advanced = a.Enabled })
			if a.Enabled {
				return Result{Message: "advanced filter on"}, nil
			}
			return Result{Message: "advanced filter off"}, nil
		},
		Status: func(a StatusArgs) (Result, error) {
			c.UpdateFilter(func(s *query.FilterState) { s.Status = a.Status })
			return Result{Message: "status: " + string(a.Status)}, nil
		},
		Prio: func(a PrioArgs) (Result, error) {
			c.UpdateFilter(func(s *query.FilterState) { s.Priority = a.Priority })
			if a.Priority == query.AnyPriority {
				return Result{Message: "priority: any"}, nil
			}
			return Result{Message: "priority: " + model.Priority(a.Priority).String()}, nil
		},
		Sort: func(a SortArgs) (Result, error) {
			c.UpdateFilter(func(s *query.FilterState) {
				s.Sort = a.Key
				s.Descending = a.Descending
			})
			dir := "newest first"
			if !a.Descending {
				dir = "oldest first"
			}
			return Result{Message: fmt.Sprintf("sorted by %s, %s", a.Key, dir)}, nil
		},
	}
}

// IsCommandError reports whether err came from parsing or dispatch rather
// than from the store.
func IsCommandError(err error) bool {
	var ce *CommandError
	return errors.As(err, &ce)
}
