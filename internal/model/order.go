package model

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

func fold(s string) string {
	return cases.Fold().String(s)
}

// CompareTags orders by folded name, then by UUID string.
func CompareTags(a, b *Tag) int {
	if c := strings.Compare(fold(a.NameText()), fold(b.NameText())); c != 0 {
		return c
	}
	return strings.Compare(tagIDString(a), tagIDString(b))
}

// tagIDString compares unset IDs as empty so ordering stays deterministic.
func tagIDString(t *Tag) string {
	if t.ID == nil {
		return ""
	}
	return strings.ToUpper(t.ID.String())
}

// CompareIssues orders by folded title, then by creation date.
func CompareIssues(a, b *Issue) int {
	if c := strings.Compare(fold(a.TitleText()), fold(b.TitleText())); c != 0 {
		return c
	}
	return a.Created().Compare(b.Created())
}

func SortTags(tags []*Tag) {
	slices.SortStableFunc(tags, CompareTags)
}

func SortIssues(issues []*Issue) {
	slices.SortStableFunc(issues, CompareIssues)
}

// FoldContains reports whether needle occurs in haystack ignoring case.
func FoldContains(haystack, needle string) bool {
	return strings.Contains(fold(haystack), fold(needle))
}

func FoldEqual(a, b string) bool {
	return fold(strings.TrimSpace(a)) == fold(strings.TrimSpace(b))
}
