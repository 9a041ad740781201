package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidPriority = errors.New("model: invalid issue priority")
	ErrMissingIssueID  = errors.New("model: issue id is required")
)

// Now is the clock used by the read accessors that substitute "now" for an
// unset timestamp.
var Now = func() time.Time { return time.Now().UTC() }

type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "Low"
	case PriorityMedium:
		return "Medium"
	case PriorityHigh:
		return "High"
	default:
		return fmt.Sprintf("Priority(%d)", int(p))
	}
}

func ParsePriority(raw string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "0", "low", "l":
		return PriorityLow, nil
	case "1", "medium", "med", "m":
		return PriorityMedium, nil
	case "2", "high", "h":
		return PriorityHigh, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidPriority, raw)
	}
}

// Issue mirrors the persisted record: optional attributes stay nil until they
// are written explicitly. Read through the accessors.
type Issue struct {
	ID               string
	Title            *string
	Content          *string
	CreationDate     *time.Time
	ModificationDate *time.Time
	Completed        bool
	Priority         Priority
	ReminderEnabled  bool
	ReminderTime     *time.Time

	tags map[*Tag]struct{}
}

func (i *Issue) TitleText() string {
	if i.Title == nil {
		return ""
	}
	return *i.Title
}

func (i *Issue) SetTitle(v string) { i.Title = &v }

func (i *Issue) ContentText() string {
	if i.Content == nil {
		return ""
	}
	return *i.Content
}

func (i *Issue) SetContent(v string) { i.Content = &v }

func (i *Issue) Created() time.Time {
	if i.CreationDate == nil {
		return Now()
	}
	return *i.CreationDate
}

func (i *Issue) Modified() time.Time {
	if i.ModificationDate == nil {
		return Now()
	}
	return *i.ModificationDate
}

func (i *Issue) Reminder() time.Time {
	if i.ReminderTime == nil {
		return Now()
	}
	return *i.ReminderTime
}

func (i *Issue) Status() string {
	if i.Completed {
		return "Closed"
	}
	return "Open"
}

func (i *Issue) HasTag(t *Tag) bool {
	if t == nil || i.tags == nil {
		return false
	}
	_, ok := i.tags[t]
	return ok
}

func (i *Issue) TagCount() int { return len(i.tags) }

// SortedTags returns the issue's tags in tag order. The underlying set is
// never exposed.
func (i *Issue) SortedTags() []*Tag {
	out := make([]*Tag, 0, len(i.tags))
	for t := range i.tags {
		out = append(out, t)
	}
	SortTags(out)
	return out
}

func (i *Issue) TagList() string {
	tags := i.SortedTags()
	if len(tags) == 0 {
		return "No tags"
	}
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, t.NameText())
	}
	return strings.Join(names, ", ")
}

func (i *Issue) Validate() error {
	if strings.TrimSpace(i.ID) == "" {
		return ErrMissingIssueID
	}
	if !i.Priority.IsValid() {
		return fmt.Errorf("%w: %d", ErrInvalidPriority, int(i.Priority))
	}
	return nil
}

func StringPtr(v string) *string { return &v }

func TimePtr(v time.Time) *time.Time { return &v }
