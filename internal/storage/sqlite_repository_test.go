package storage

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func setupRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "tracker-test.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := MigrateUp(db); err != nil {
		t.Fatalf("migrate up: %v", err)
	}

	repo, err := NewSQLiteRepository(db)
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}
	return repo
}

func parseRFC3339(t *testing.T, value string) time.Time {
	t.Helper()
	out, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("parse time: %v", err)
	}
	return out
}

func strPtr(v string) *string { return &v }

func TestIssueUpsertGetAndList(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	created := parseRFC3339(t, "2026-02-09T12:00:00Z")

	issue := Issue{
		ID:         "issue-1",
		Seq:        1,
		Title:      strPtr("Write schema"),
		Content:    strPtr("Design storage layout"),
		CreatedAt:  &created,
		ModifiedAt: &created,
		Priority:   2,
	}
	if err := repo.Apply(ctx, Changeset{UpsertIssues: []Issue{issue}}); err != nil {
		t.Fatalf("apply: %v", err)
	}

	got, err := repo.GetIssue(ctx, issue.ID)
	if err != nil {
		t.Fatalf("get issue: %v", err)
	}
	if got.Title == nil || *got.Title != "Write schema" {
		t.Fatalf("unexpected title: %v", got.Title)
	}
	if got.CreatedAt == nil || !got.CreatedAt.Equal(created) {
		t.Fatalf("unexpected creation date: %v", got.CreatedAt)
	}
	if got.ReminderAt != nil {
		t.Fatalf("expected nil reminder, got %v", got.ReminderAt)
	}

	issue.Completed = true
	issue.Title = nil
	if err := repo.Apply(ctx, Changeset{UpsertIssues: []Issue{issue}}); err != nil {
		t.Fatalf("apply update: %v", err)
	}
	got, err = repo.GetIssue(ctx, issue.ID)
	if err != nil {
		t.Fatalf("get updated: %v", err)
	}
	if !got.Completed || got.Title != nil {
		t.Fatalf("update not persisted: %+v", got)
	}

	done := true
	list, err := repo.ListIssues(ctx, IssueListFilter{Completed: &done})
	if err != nil {
		t.Fatalf("list issues: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 closed issue, got %d", len(list))
	}

	if _, err := repo.GetIssue(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestApplyLinksAndCounts(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	cs := Changeset{
		UpsertTags: []Tag{
			{Key: "t1", Seq: 1, Name: strPtr("Work")},
			{Key: "t2", Seq: 2, Name: strPtr("Home")},
		},
		UpsertIssues: []Issue{
			{ID: "a", Seq: 1},
			{ID: "b", Seq: 2, Completed: true},
		},
		Links: map[string][]string{
			"a": {"t1", "t2"},
			"b": {"t1"},
		},
	}
	if err := repo.Apply(ctx, cs); err != nil {
		t.Fatalf("apply: %v", err)
	}

	all, err := repo.CountIssues(ctx, false)
	if err != nil || all != 2 {
		t.Fatalf("count issues = %d, %v", all, err)
	}
	closed, err := repo.CountIssues(ctx, true)
	if err != nil || closed != 1 {
		t.Fatalf("count closed = %d, %v", closed, err)
	}
	tags, err := repo.CountTags(ctx)
	if err != nil || tags != 2 {
		t.Fatalf("count tags = %d, %v", tags, err)
	}

	tagged, err := repo.ListIssues(ctx, IssueListFilter{TagKey: "t2"})
	if err != nil {
		t.Fatalf("list by tag: %v", err)
	}
	if len(tagged) != 1 || tagged[0].ID != "a" {
		t.Fatalf("unexpected tagged issues: %+v", tagged)
	}

	// Deleting a tag removes only its links.
	if err := repo.Apply(ctx, Changeset{DeleteTagKeys: []string{"t1"}}); err != nil {
		t.Fatalf("delete tag: %v", err)
	}
	snap, err := repo.LoadAll(ctx)
	if err != nil {
		t.Fatalf("load all: %v", err)
	}
	if len(snap.Issues) != 2 {
		t.Fatalf("expected issues to survive tag delete, got %d", len(snap.Issues))
	}
	if len(snap.Links) != 1 || snap.Links[0] != (Link{IssueID: "a", TagKey: "t2"}) {
		t.Fatalf("unexpected links: %+v", snap.Links)
	}
}

func TestApplyReplacesLinkSet(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	if err := repo.Apply(ctx, Changeset{
		UpsertTags:   []Tag{{Key: "t1", Seq: 1}, {Key: "t2", Seq: 2}},
		UpsertIssues: []Issue{{ID: "a", Seq: 1}},
		Links:        map[string][]string{"a": {"t1", "t2"}},
	}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := repo.Apply(ctx, Changeset{Links: map[string][]string{"a": {"t2"}}}); err != nil {
		t.Fatalf("apply links: %v", err)
	}

	snap, err := repo.LoadAll(ctx)
	if err != nil {
		t.Fatalf("load all: %v", err)
	}
	if len(snap.Links) != 1 || snap.Links[0].TagKey != "t2" {
		t.Fatalf("expected only t2 link, got %+v", snap.Links)
	}
}

func TestApplyTruncate(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	if err := repo.Apply(ctx, Changeset{
		UpsertTags:   []Tag{{Key: "t1", Seq: 1}},
		UpsertIssues: []Issue{{ID: "a", Seq: 1}},
		Links:        map[string][]string{"a": {"t1"}},
	}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := repo.Apply(ctx, Changeset{Truncate: true}); err != nil {
		t.Fatalf("truncate: %v", err)
	}

	snap, err := repo.LoadAll(ctx)
	if err != nil {
		t.Fatalf("load all: %v", err)
	}
	if len(snap.Issues) != 0 || len(snap.Tags) != 0 || len(snap.Links) != 0 {
		t.Fatalf("expected empty store, got %+v", snap)
	}
}

func TestApplyRollsBackOnFailure(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	// The link references an unknown tag, so the foreign key fails and the
	// issue upsert in the same changeset must not persist.
	err := repo.Apply(ctx, Changeset{
		UpsertIssues: []Issue{{ID: "a", Seq: 1}},
		Links:        map[string][]string{"a": {"ghost"}},
	})
	if err == nil {
		t.Fatal("expected foreign key failure")
	}
	if _, err := repo.GetIssue(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected rollback, got %v", err)
	}
}

func TestListPagination(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	if err := repo.Apply(ctx, Changeset{
		UpsertTags: []Tag{
			{Key: "t1", Seq: 1, UUID: strPtr("6F9619FF-8B86-D011-B42D-00CF4FC964FF")},
			{Key: "t2", Seq: 2},
			{Key: "t3", Seq: 3},
		},
	}); err != nil {
		t.Fatalf("apply: %v", err)
	}

	page, err := repo.ListTags(ctx, TagListFilter{Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("list tags: %v", err)
	}
	if len(page) != 2 || page[0].Key != "t2" || page[1].Key != "t3" {
		t.Fatalf("unexpected page: %+v", page)
	}

	tail, err := repo.ListTags(ctx, TagListFilter{Offset: 2})
	if err != nil {
		t.Fatalf("list tail: %v", err)
	}
	if len(tail) != 1 || tail[0].Key != "t3" {
		t.Fatalf("unexpected tail: %+v", tail)
	}

	got, err := repo.GetTag(ctx, "t1")
	if err != nil {
		t.Fatalf("get tag: %v", err)
	}
	if got.UUID == nil || *got.UUID != "6F9619FF-8B86-D011-B42D-00CF4FC964FF" {
		t.Fatalf("unexpected uuid: %v", got.UUID)
	}
	if _, err := repo.GetTag(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestOpenSQLiteMigrates(t *testing.T) {
	repo, err := OpenSQLite(filepath.Join(t.TempDir(), "open.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer repo.Close()

	n, err := repo.CountIssues(context.Background(), false)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected empty db, got %d", n)
	}
}
