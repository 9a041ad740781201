package storage

import "time"

// Every optional attribute stays nullable on disk; defaults are applied by the
// model accessors on read, never here.
type Issue struct {
	ID              string
	Seq             int64
	Title           *string
	Content         *string
	CreatedAt       *time.Time
	ModifiedAt      *time.Time
	Completed       bool
	Priority        int
	ReminderEnabled bool
	ReminderAt      *time.Time
}

type Tag struct {
	Key  string
	Seq  int64
	UUID *string
	Name *string
}

type Link struct {
	IssueID string
	TagKey  string
}

type Snapshot struct {
	Issues []Issue
	Tags   []Tag
	Links  []Link
}

// Changeset is one flush worth of work, applied in a single transaction.
// Links replaces the full tag set of each listed issue.
type Changeset struct {
	Truncate       bool
	UpsertTags     []Tag
	UpsertIssues   []Issue
	DeleteIssueIDs []string
	DeleteTagKeys  []string
	Links          map[string][]string
}

func (c Changeset) IsEmpty() bool {
	return !c.Truncate &&
		len(c.UpsertTags) == 0 &&
		len(c.UpsertIssues) == 0 &&
		len(c.DeleteIssueIDs) == 0 &&
		len(c.DeleteTagKeys) == 0 &&
		len(c.Links) == 0
}

type IssueListFilter struct {
	Completed *bool
	TagKey    string
	Limit     int
	Offset    int
}

type TagListFilter struct {
	Limit  int
	Offset int
}
