package model

import (
	"time"
)

const RecentWindow = 7 * 24 * time.Hour

const (
	FilterIDAll    = "all"
	FilterIDRecent = "recent"
)

// Filter is a query template. Tag-backed filters are synthesized per tag at
// read time; MinModificationDate only applies when Tag is nil.
type Filter struct {
	ID                  string
	Name                string
	Icon                string
	Tag                 *Tag
	MinModificationDate time.Time
}

func (f Filter) IsSmart() bool { return f.Tag == nil }

func (f Filter) ActiveIssueCount() int {
	if f.Tag == nil {
		return 0
	}
	return len(f.Tag.ActiveIssues())
}

var FilterAll = Filter{
	ID:                  FilterIDAll,
	Name:                "All Issues",
	Icon:                "tray",
	MinModificationDate: time.Unix(0, 0).UTC(),
}

func FilterRecent(now time.Time) Filter {
	return Filter{
		ID:                  FilterIDRecent,
		Name:                "Recent Issues",
		Icon:                "clock",
		MinModificationDate: now.Add(-RecentWindow),
	}
}

func SmartFilters(now time.Time) []Filter {
	return []Filter{FilterAll, FilterRecent(now)}
}

// TagFilters builds one filter per tag, in tag order.
func TagFilters(tags []*Tag) []Filter {
	sorted := make([]*Tag, len(tags))
	copy(sorted, tags)
	SortTags(sorted)

	out := make([]Filter, 0, len(sorted))
	for _, t := range sorted {
		out = append(out, Filter{
			ID:   tagFilterID(t),
			Name: t.NameText(),
			Icon: "tag",
			Tag:  t,
		})
	}
	return out
}

// tagFilterID must be stable across calls; a tag without a stored UUID falls
// back to its row key.
func tagFilterID(t *Tag) string {
	if t.ID == nil {
		return "tag:" + t.Key
	}
	return t.ID.String()
}
