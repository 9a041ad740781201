package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestTagAccessors(t *testing.T) {
	tag := &Tag{Key: "tag-1"}
	if tag.NameText() != "" {
		t.Fatalf("expected empty name, got %q", tag.NameText())
	}
	if tag.UUID() == uuid.Nil {
		t.Fatal("expected generated uuid for unset id")
	}
	if tag.ID != nil {
		t.Fatal("generated uuid must not be written back")
	}

	id := uuid.New()
	tag.ID = &id
	if tag.UUID() != id {
		t.Fatalf("expected %s, got %s", id, tag.UUID())
	}
}

func TestTagSortingUsesNameThenUUID(t *testing.T) {
	lower := uuid.MustParse("00000000-6998-443E-9AB1-F2922ECB881E")
	upper := uuid.MustParse("FFFFFFFF-6998-443E-9AB1-F2922ECB881E")
	other := uuid.New()

	tag1 := &Tag{Key: "1", Name: StringPtr("B tag"), ID: &lower}
	tag2 := &Tag{Key: "2", Name: StringPtr("b TAG"), ID: &upper}
	tag3 := &Tag{Key: "3", Name: StringPtr("A tag"), ID: &other}

	tags := []*Tag{tag2, tag1, tag3}
	SortTags(tags)
	if tags[0] != tag3 || tags[1] != tag1 || tags[2] != tag2 {
		t.Fatalf("unexpected order: %s %s %s", tags[0].Key, tags[1].Key, tags[2].Key)
	}
}

func TestActiveIssuesExcludesCompleted(t *testing.T) {
	tag := &Tag{Key: "tag-1"}
	issue := &Issue{ID: "issue-1"}
	if len(tag.ActiveIssues()) != 0 {
		t.Fatal("expected no active issues")
	}

	Attach(issue, tag)
	if active := tag.ActiveIssues(); len(active) != 1 || active[0] != issue {
		t.Fatalf("unexpected active issues: %v", active)
	}

	issue.Completed = true
	if len(tag.ActiveIssues()) != 0 {
		t.Fatal("completed issues must not be active")
	}
}

func TestAttachDetachKeepsBothSidesConsistent(t *testing.T) {
	issue := &Issue{ID: "issue-1"}
	a := &Tag{Key: "a", Name: StringPtr("a")}
	b := &Tag{Key: "b", Name: StringPtr("b")}

	if !Attach(issue, a) || !Attach(issue, b) {
		t.Fatal("expected new links")
	}
	if Attach(issue, a) {
		t.Fatal("duplicate attach must report false")
	}
	if issue.TagCount() != 2 || a.IssueCount() != 1 {
		t.Fatalf("unexpected counts: issue=%d a=%d", issue.TagCount(), a.IssueCount())
	}

	touched := DetachTag(a)
	if len(touched) != 1 || issue.HasTag(a) || !issue.HasTag(b) {
		t.Fatalf("detaching a tag must only drop that link")
	}

	DetachIssue(issue)
	if b.IssueCount() != 0 || issue.TagCount() != 0 {
		t.Fatal("detaching an issue must clear both sides")
	}
}

func TestTagFiltersAreSortedAndTagBacked(t *testing.T) {
	now := time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)
	z := &Tag{Key: "z", Name: StringPtr("zeta")}
	a := &Tag{Key: "a", Name: StringPtr("Alpha")}

	filters := TagFilters([]*Tag{z, a})
	if len(filters) != 2 || filters[0].Tag != a || filters[1].Tag != z {
		t.Fatalf("unexpected filters: %+v", filters)
	}
	if filters[0].IsSmart() {
		t.Fatal("tag filter must not be smart")
	}

	smart := SmartFilters(now)
	if smart[0].ID != FilterIDAll || !smart[0].MinModificationDate.Equal(time.Unix(0, 0)) {
		t.Fatalf("unexpected all filter: %+v", smart[0])
	}
	if !smart[1].MinModificationDate.Equal(now.Add(-RecentWindow)) {
		t.Fatalf("unexpected recent filter: %+v", smart[1])
	}
}

func TestTagFilterIDsAreStable(t *testing.T) {
	id := uuid.New()
	missing := &Tag{Key: "k1", Name: StringPtr("Legacy")}
	stored := &Tag{Key: "k2", Name: StringPtr("Work"), ID: &id}

	first := TagFilters([]*Tag{missing, stored})
	second := TagFilters([]*Tag{missing, stored})
	if first[0].ID != second[0].ID || first[1].ID != second[1].ID {
		t.Fatalf("filter ids changed between calls: %+v vs %+v", first, second)
	}
	if first[0].ID != "tag:k1" {
		t.Fatalf("expected key fallback for tag without uuid, got %q", first[0].ID)
	}
	if first[1].ID != id.String() {
		t.Fatalf("expected uuid id, got %q", first[1].ID)
	}
}

func TestParseCriterion(t *testing.T) {
	if ParseCriterion("issues") != CriterionIssues || ParseCriterion("CLOSED") != CriterionClosed || ParseCriterion("tags") != CriterionTags {
		t.Fatal("known criteria must parse")
	}
	if ParseCriterion("streak") != CriterionUnknown {
		t.Fatal("unknown criterion must fall back")
	}
	award := Award{Name: "First Steps", Criterion: "issues", Value: 1}
	if award.ID() != award.Name {
		t.Fatal("award id must equal its name")
	}
}
