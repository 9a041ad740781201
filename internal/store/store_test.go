package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandeepkv93/tracker/internal/model"
	"github.com/sandeepkv93/tracker/internal/storage"
)

func openStore(t *testing.T) (*Store, *storage.SQLiteRepository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "store.db")
	repo, err := storage.OpenSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return New(repo, nil), repo, path
}

func TestSaveAndReloadRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, repo, _ := openStore(t)

	tag := s.NewTag(func(tg *model.Tag) { tg.SetName("Work") })
	issue := s.NewIssue(func(i *model.Issue) {
		i.SetTitle("Fix login")
		i.Priority = model.PriorityHigh
	})
	require.NoError(t, s.Attach(issue, tag))
	require.True(t, s.HasChanges())

	require.NoError(t, s.Save(ctx))
	assert.False(t, s.HasChanges())

	other := New(repo, nil)
	require.NoError(t, other.Load(ctx))

	got, ok := other.IssueByID(issue.ID)
	require.True(t, ok)
	assert.Equal(t, "Fix login", got.TitleText())
	assert.Equal(t, model.PriorityHigh, got.Priority)
	assert.Equal(t, "Work", got.TagList())
	require.Len(t, other.Tags(), 1)
	assert.Equal(t, tag.ID.String(), other.Tags()[0].ID.String())
}

func TestMutateStampsModificationDate(t *testing.T) {
	s := NewMemory()
	issue := s.NewIssue(nil)

	later := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	restore := model.Now
	model.Now = func() time.Time { return later }
	t.Cleanup(func() { model.Now = restore })

	require.NoError(t, s.Mutate(issue, func(i *model.Issue) { i.SetContent("body") }))
	assert.True(t, issue.Modified().Equal(later))
	assert.Equal(t, "body", issue.ContentText())
}

func TestForeignObjectsAreRejected(t *testing.T) {
	a := NewMemory()
	b := NewMemory()
	issue := a.NewIssue(nil)
	tag := b.NewTag(nil)

	assert.ErrorIs(t, b.Mutate(issue, func(*model.Issue) {}), ErrForeignObject)
	assert.ErrorIs(t, a.Attach(issue, tag), ErrForeignObject)
	assert.ErrorIs(t, b.DeleteIssue(issue), ErrForeignObject)
}

func TestDeleteTagKeepsIssues(t *testing.T) {
	ctx := context.Background()
	s, repo, _ := openStore(t)

	tag := s.NewTag(nil)
	one := s.NewIssue(nil)
	two := s.NewIssue(nil)
	require.NoError(t, s.Attach(one, tag))
	require.NoError(t, s.Attach(two, tag))
	require.NoError(t, s.Save(ctx))

	require.NoError(t, s.DeleteTag(tag))
	require.NoError(t, s.Save(ctx))

	assert.Equal(t, 0, one.TagCount())
	n, err := repo.CountIssues(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	tags, err := repo.CountTags(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, tags)
}

func TestDeleteIssueKeepsTags(t *testing.T) {
	s := NewMemory()
	tag := s.NewTag(nil)
	issue := s.NewIssue(nil)
	require.NoError(t, s.Attach(issue, tag))

	require.NoError(t, s.DeleteIssue(issue))

	assert.Len(t, s.Tags(), 1)
	assert.Equal(t, 0, tag.IssueCount())
	_, ok := s.IssueByID(issue.ID)
	assert.False(t, ok)
}

func TestDeleteAllTruncates(t *testing.T) {
	ctx := context.Background()
	s, repo, _ := openStore(t)

	for range 3 {
		tag := s.NewTag(nil)
		require.NoError(t, s.Attach(s.NewIssue(nil), tag))
	}
	require.NoError(t, s.Save(ctx))

	s.DeleteAll()
	require.NoError(t, s.Save(ctx))

	issues, _ := s.CountIssues(ctx, false)
	tags, _ := s.CountTags(ctx)
	assert.Zero(t, issues)
	assert.Zero(t, tags)

	snap, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap.Issues)
	assert.Empty(t, snap.Tags)
	assert.Empty(t, snap.Links)
}

type failingRepo struct {
	storage.Repository
	fail bool
	got  []storage.Changeset
}

func (f *failingRepo) Apply(_ context.Context, cs storage.Changeset) error {
	if f.fail {
		return errors.New("disk full")
	}
	f.got = append(f.got, cs)
	return nil
}

func TestFailedSaveKeepsChangesPending(t *testing.T) {
	ctx := context.Background()
	repo := &failingRepo{fail: true}
	s := New(repo, nil)

	issue := s.NewIssue(func(i *model.Issue) { i.SetTitle("draft") })
	require.Error(t, s.Save(ctx))
	assert.True(t, s.HasChanges())

	repo.fail = false
	require.NoError(t, s.Save(ctx))
	assert.False(t, s.HasChanges())
	require.Len(t, repo.got, 1)
	require.Len(t, repo.got[0].UpsertIssues, 1)
	assert.Equal(t, issue.ID, repo.got[0].UpsertIssues[0].ID)
}

func TestSubscribeReceivesChanges(t *testing.T) {
	s := NewMemory()
	var kinds []ChangeKind
	cancel := s.Subscribe(func(c Change) { kinds = append(kinds, c.Kind) })

	s.NewIssue(nil)
	require.NoError(t, s.Save(context.Background()))
	cancel()
	s.NewIssue(nil)

	assert.Equal(t, []ChangeKind{ChangeLocal, ChangeSaved}, kinds)
}

func TestTagByName(t *testing.T) {
	s := NewMemory()
	work := s.NewTag(func(tg *model.Tag) { tg.SetName("Work") })
	s.NewTag(func(tg *model.Tag) { tg.SetName("Home") })

	got, ok := s.TagByName(" work ")
	require.True(t, ok)
	assert.Same(t, work, got)

	_, ok = s.TagByName("garden")
	assert.False(t, ok)
}

func TestWatchReloadsRemoteChanges(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	local, _, path := openStore(t)
	require.NoError(t, local.Load(ctx))

	reloaded := make(chan struct{}, 1)
	local.Subscribe(func(c Change) {
		if c.Kind == ChangeRemote {
			select {
			case reloaded <- struct{}{}:
			default:
			}
		}
	})
	require.NoError(t, local.Watch(ctx, path))

	remoteRepo, err := storage.OpenSQLite(path)
	require.NoError(t, err)
	defer remoteRepo.Close()
	remote := New(remoteRepo, nil)
	remote.NewIssue(func(i *model.Issue) { i.SetTitle("from elsewhere") })
	require.NoError(t, remote.Save(ctx))

	select {
	case <-reloaded:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for remote reload")
	}
	issues := local.Issues()
	require.Len(t, issues, 1)
	assert.Equal(t, "from elsewhere", issues[0].TitleText())
}

func TestLoadLeavesPreviousObjectsForReaders(t *testing.T) {
	ctx := context.Background()
	s, _, _ := openStore(t)
	work := s.NewTag(func(tg *model.Tag) { tg.SetName("Work") })
	for i := 0; i < 5; i++ {
		issue := s.NewIssue(func(is *model.Issue) { is.SetTitle("issue") })
		require.NoError(t, s.Attach(issue, work))
	}
	require.NoError(t, s.Save(ctx))
	require.NoError(t, s.Load(ctx))

	held := s.Issues()[0]
	heldTag := s.Tags()[0]

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-stop:
				return
			default:
			}
			for _, tag := range s.Tags() {
				_ = tag.ActiveIssues()
			}
			for _, issue := range s.Issues() {
				_ = issue.TagList()
			}
			_ = heldTag.ActiveIssues()
			_ = held.TagList()
		}
	}()

	for i := 0; i < 50; i++ {
		require.NoError(t, s.Load(ctx))
	}
	close(stop)
	<-done

	assert.Equal(t, "Work", held.TagList())
	require.Len(t, s.Issues(), 5)
	assert.NotSame(t, held, s.Issues()[0])
	assert.Equal(t, "Work", s.Issues()[0].TagList())
}
