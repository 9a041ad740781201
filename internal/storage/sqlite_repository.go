package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteTimeLayout = time.RFC3339Nano

const issueColumns = `id, seq, title, content, creation_date, modification_date, completed, priority, reminder_enabled, reminder_time`

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) (*SQLiteRepository, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	// One connection keeps the foreign_keys pragma and serializes writers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return &SQLiteRepository{db: db}, nil
}

// OpenSQLite opens the database at path and brings its schema up to date.
func OpenSQLite(path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	repo, err := NewSQLiteRepository(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := MigrateUp(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) LoadAll(ctx context.Context) (Snapshot, error) {
	issues, err := r.ListIssues(ctx, IssueListFilter{})
	if err != nil {
		return Snapshot{}, fmt.Errorf("load issues: %w", err)
	}
	tags, err := r.ListTags(ctx, TagListFilter{})
	if err != nil {
		return Snapshot{}, fmt.Errorf("load tags: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `SELECT issue_id, tag_key FROM issue_tags ORDER BY issue_id, tag_key`)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load links: %w", err)
	}
	defer rows.Close()

	links := make([]Link, 0)
	for rows.Next() {
		var l Link
		if err := rows.Scan(&l.IssueID, &l.TagKey); err != nil {
			return Snapshot{}, err
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Issues: issues, Tags: tags, Links: links}, nil
}

// Apply writes the changeset atomically: either every statement lands or the
// transaction is rolled back.
func (r *SQLiteRepository) Apply(ctx context.Context, cs Changeset) (err error) {
	if cs.IsEmpty() {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if cs.Truncate {
		for _, table := range []string{"issue_tags", "issues", "tags"} {
			if _, err = tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
				return fmt.Errorf("truncate %s: %w", table, err)
			}
		}
	}
	for _, t := range cs.UpsertTags {
		if err = upsertTag(ctx, tx, t); err != nil {
			return fmt.Errorf("upsert tag %s: %w", t.Key, err)
		}
	}
	for _, i := range cs.UpsertIssues {
		if err = upsertIssue(ctx, tx, i); err != nil {
			return fmt.Errorf("upsert issue %s: %w", i.ID, err)
		}
	}

	issueIDs := make([]string, 0, len(cs.Links))
	for id := range cs.Links {
		issueIDs = append(issueIDs, id)
	}
	sort.Strings(issueIDs)
	for _, id := range issueIDs {
		if err = replaceLinks(ctx, tx, id, cs.Links[id]); err != nil {
			return fmt.Errorf("replace links for %s: %w", id, err)
		}
	}

	for _, id := range cs.DeleteIssueIDs {
		if _, err = tx.ExecContext(ctx, `DELETE FROM issues WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete issue %s: %w", id, err)
		}
	}
	for _, key := range cs.DeleteTagKeys {
		if _, err = tx.ExecContext(ctx, `DELETE FROM tags WHERE key = ?`, key); err != nil {
			return fmt.Errorf("delete tag %s: %w", key, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func upsertIssue(ctx context.Context, tx *sql.Tx, in Issue) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO issues (`+issueColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			seq = excluded.seq,
			title = excluded.title,
			content = excluded.content,
			creation_date = excluded.creation_date,
			modification_date = excluded.modification_date,
			completed = excluded.completed,
			priority = excluded.priority,
			reminder_enabled = excluded.reminder_enabled,
			reminder_time = excluded.reminder_time`,
		in.ID, in.Seq, nullString(in.Title), nullString(in.Content),
		nullTime(in.CreatedAt), nullTime(in.ModifiedAt), boolInt(in.Completed), in.Priority,
		boolInt(in.ReminderEnabled), nullTime(in.ReminderAt),
	)
	return err
}

func upsertTag(ctx context.Context, tx *sql.Tx, in Tag) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO tags (key, seq, uuid, name)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			seq = excluded.seq,
			uuid = excluded.uuid,
			name = excluded.name`,
		in.Key, in.Seq, nullString(in.UUID), nullString(in.Name),
	)
	return err
}

func replaceLinks(ctx context.Context, tx *sql.Tx, issueID string, tagKeys []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM issue_tags WHERE issue_id = ?`, issueID); err != nil {
		return err
	}
	for _, key := range tagKeys {
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO issue_tags (issue_id, tag_key) VALUES (?, ?)`, issueID, key); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLiteRepository) GetIssue(ctx context.Context, id string) (Issue, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+issueColumns+` FROM issues WHERE id = ?`, id)
	issue, err := scanIssue(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Issue{}, ErrNotFound
		}
		return Issue{}, err
	}
	return issue, nil
}

func (r *SQLiteRepository) ListIssues(ctx context.Context, filter IssueListFilter) ([]Issue, error) {
	query := `SELECT ` + issueColumns + ` FROM issues`
	clauses := make([]string, 0, 2)
	args := make([]any, 0, 4)
	if filter.Completed != nil {
		clauses = append(clauses, "completed = ?")
		args = append(args, boolInt(*filter.Completed))
	}
	if filter.TagKey != "" {
		clauses = append(clauses, "id IN (SELECT issue_id FROM issue_tags WHERE tag_key = ?)")
		args = append(args, filter.TagKey)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY seq ASC`
	query += applyPagination(&args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Issue, 0)
	for rows.Next() {
		issue, scanErr := scanIssue(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, issue)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CountIssues(ctx context.Context, closedOnly bool) (int, error) {
	query := `SELECT COUNT(*) FROM issues`
	if closedOnly {
		query += ` WHERE completed = 1`
	}
	var n int
	if err := r.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *SQLiteRepository) GetTag(ctx context.Context, key string) (Tag, error) {
	row := r.db.QueryRowContext(ctx, `SELECT key, seq, uuid, name FROM tags WHERE key = ?`, key)
	item, err := scanTag(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Tag{}, ErrNotFound
		}
		return Tag{}, err
	}
	return item, nil
}

func (r *SQLiteRepository) ListTags(ctx context.Context, filter TagListFilter) ([]Tag, error) {
	args := make([]any, 0, 2)
	query := `SELECT key, seq, uuid, name FROM tags ORDER BY seq ASC` + applyPagination(&args, filter.Limit, filter.Offset)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Tag, 0)
	for rows.Next() {
		item, scanErr := scanTag(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CountTags(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tags`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func nullTime(v *time.Time) any {
	if v == nil {
		return nil
	}
	return v.UTC().Format(sqliteTimeLayout)
}

func nullString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func parseNullableTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	tm, err := time.Parse(sqliteTimeLayout, v.String)
	if err != nil {
		return nil, err
	}
	return &tm, nil
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func applyPagination(args *[]any, limit, offset int) string {
	sql := ""
	if limit > 0 {
		sql += " LIMIT ?"
		*args = append(*args, limit)
	}
	if offset > 0 {
		if limit <= 0 {
			sql += " LIMIT -1"
		}
		sql += " OFFSET ?"
		*args = append(*args, offset)
	}
	return sql
}

type scanner interface {
	Scan(dest ...any) error
}

func scanIssue(s scanner) (Issue, error) {
	var out Issue
	var title, content, created, modified, reminder sql.NullString
	var completed, reminderEnabled int
	if err := s.Scan(&out.ID, &out.Seq, &title, &content, &created, &modified, &completed, &out.Priority, &reminderEnabled, &reminder); err != nil {
		return Issue{}, err
	}
	createdAt, err := parseNullableTime(created)
	if err != nil {
		return Issue{}, err
	}
	modifiedAt, err := parseNullableTime(modified)
	if err != nil {
		return Issue{}, err
	}
	reminderAt, err := parseNullableTime(reminder)
	if err != nil {
		return Issue{}, err
	}
	out.Title = stringPtr(title)
	out.Content = stringPtr(content)
	out.CreatedAt = createdAt
	out.ModifiedAt = modifiedAt
	out.Completed = completed == 1
	out.ReminderEnabled = reminderEnabled == 1
	out.ReminderAt = reminderAt
	return out, nil
}

func scanTag(s scanner) (Tag, error) {
	var out Tag
	var id, name sql.NullString
	if err := s.Scan(&out.Key, &out.Seq, &id, &name); err != nil {
		return Tag{}, err
	}
	out.UUID = stringPtr(id)
	out.Name = stringPtr(name)
	return out, nil
}
