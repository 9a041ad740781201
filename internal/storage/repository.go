package storage

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("storage: not found")

type Repository interface {
	LoadAll(ctx context.Context) (Snapshot, error)
	Apply(ctx context.Context, cs Changeset) error

	GetIssue(ctx context.Context, id string) (Issue, error)
	ListIssues(ctx context.Context, filter IssueListFilter) ([]Issue, error)
	CountIssues(ctx context.Context, closedOnly bool) (int, error)

	GetTag(ctx context.Context, key string) (Tag, error)
	ListTags(ctx context.Context, filter TagListFilter) ([]Tag, error)
	CountTags(ctx context.Context) (int, error)
}
