package model

import (
	"github.com/google/uuid"
)

// Tag is joined to issues many-to-many. Neither side owns the other; removing
// one only detaches it from its peers.
type Tag struct {
	// Key is the store's row identity. ID is the user-visible UUID attribute
	// and may be unset.
	Key  string
	ID   *uuid.UUID
	Name *string

	issues map[*Issue]struct{}
}

// UUID returns the tag's identifier, or a freshly generated one when the
// attribute is unset. The generated value is not written back.
func (t *Tag) UUID() uuid.UUID {
	if t.ID == nil {
		return uuid.New()
	}
	return *t.ID
}

func (t *Tag) NameText() string {
	if t.Name == nil {
		return ""
	}
	return *t.Name
}

func (t *Tag) SetName(v string) { t.Name = &v }

func (t *Tag) IssueCount() int { return len(t.issues) }

// Issues returns the tagged issues in issue order.
func (t *Tag) Issues() []*Issue {
	out := make([]*Issue, 0, len(t.issues))
	for i := range t.issues {
		out = append(out, i)
	}
	SortIssues(out)
	return out
}

func (t *Tag) ActiveIssues() []*Issue {
	out := make([]*Issue, 0, len(t.issues))
	for i := range t.issues {
		if !i.Completed {
			out = append(out, i)
		}
	}
	SortIssues(out)
	return out
}

// Attach links issue and tag on both sides. It reports whether the link is new.
func Attach(i *Issue, t *Tag) bool {
	if i == nil || t == nil {
		return false
	}
	if i.tags == nil {
		i.tags = make(map[*Tag]struct{})
	}
	if t.issues == nil {
		t.issues = make(map[*Issue]struct{})
	}
	if _, ok := i.tags[t]; ok {
		return false
	}
	i.tags[t] = struct{}{}
	t.issues[i] = struct{}{}
	return true
}

// Detach removes the link on both sides. It reports whether a link existed.
func Detach(i *Issue, t *Tag) bool {
	if i == nil || t == nil {
		return false
	}
	if _, ok := i.tags[t]; !ok {
		return false
	}
	delete(i.tags, t)
	delete(t.issues, i)
	return true
}

// DetachIssue removes the issue from every tag and returns the tags touched.
func DetachIssue(i *Issue) []*Tag {
	touched := make([]*Tag, 0, len(i.tags))
	for t := range i.tags {
		delete(t.issues, i)
		touched = append(touched, t)
	}
	i.tags = nil
	return touched
}

// DetachTag removes the tag from every issue and returns the issues touched.
func DetachTag(t *Tag) []*Issue {
	touched := make([]*Issue, 0, len(t.issues))
	for i := range t.issues {
		delete(i.tags, t)
		touched = append(touched, i)
	}
	t.issues = nil
	return touched
}
