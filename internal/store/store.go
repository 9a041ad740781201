package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/sandeepkv93/tracker/internal/model"
	"github.com/sandeepkv93/tracker/internal/storage"
)

var ErrForeignObject = errors.New("store: object does not belong to this store")

type ChangeKind int

const (
	ChangeLocal ChangeKind = iota
	ChangeSaved
	ChangeRemote
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeLocal:
		return "local"
	case ChangeSaved:
		return "saved"
	case ChangeRemote:
		return "remote"
	default:
		return fmt.Sprintf("ChangeKind(%d)", int(k))
	}
}

type Change struct {
	Kind ChangeKind
}

// Store is the in-memory working set over a repository. Mutations are tracked
// until Save writes them in one changeset. A Store with a nil repository never
// persists anything.
type Store struct {
	repo   storage.Repository
	logger logrus.FieldLogger

	mu        sync.RWMutex
	issues    []*model.Issue
	tags      []*model.Tag
	issueByID map[string]*model.Issue
	tagByKey  map[string]*model.Tag
	issueSeq  map[string]int64
	tagSeq    map[string]int64
	nextSeq   int64
	pending   pendingSet
	lastFlush time.Time

	saveMu sync.Mutex

	subMu   sync.Mutex
	subs    map[int]func(Change)
	nextSub int
}

type pendingSet struct {
	truncate      bool
	dirtyIssues   map[string]struct{}
	dirtyTags     map[string]struct{}
	deletedIssues map[string]struct{}
	deletedTags   map[string]struct{}
	dirtyLinks    map[string]struct{}
}

func newPendingSet() pendingSet {
	return pendingSet{
		dirtyIssues:   make(map[string]struct{}),
		dirtyTags:     make(map[string]struct{}),
		deletedIssues: make(map[string]struct{}),
		deletedTags:   make(map[string]struct{}),
		dirtyLinks:    make(map[string]struct{}),
	}
}

func (p pendingSet) empty() bool {
	return !p.truncate &&
		len(p.dirtyIssues) == 0 &&
		len(p.dirtyTags) == 0 &&
		len(p.deletedIssues) == 0 &&
		len(p.deletedTags) == 0 &&
		len(p.dirtyLinks) == 0
}

// merge folds an unsaved set back in after a failed flush. Anything deleted
// since then stays deleted.
func (p *pendingSet) merge(old pendingSet) {
	p.truncate = p.truncate || old.truncate
	for id := range old.dirtyIssues {
		if _, gone := p.deletedIssues[id]; !gone {
			p.dirtyIssues[id] = struct{}{}
		}
	}
	for key := range old.dirtyTags {
		if _, gone := p.deletedTags[key]; !gone {
			p.dirtyTags[key] = struct{}{}
		}
	}
	for id := range old.dirtyLinks {
		if _, gone := p.deletedIssues[id]; !gone {
			p.dirtyLinks[id] = struct{}{}
		}
	}
	for id := range old.deletedIssues {
		p.deletedIssues[id] = struct{}{}
	}
	for key := range old.deletedTags {
		p.deletedTags[key] = struct{}{}
	}
}

func New(repo storage.Repository, logger logrus.FieldLogger) *Store {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Store{
		repo:      repo,
		logger:    logger,
		issueByID: make(map[string]*model.Issue),
		tagByKey:  make(map[string]*model.Tag),
		issueSeq:  make(map[string]int64),
		tagSeq:    make(map[string]int64),
		pending:   newPendingSet(),
		subs:      make(map[int]func(Change)),
	}
}

// NewMemory returns a store that is never persisted.
func NewMemory() *Store {
	return New(nil, nil)
}

// Subscribe registers fn for change notifications. Callbacks run on the
// goroutine that made the change, outside the store lock.
func (s *Store) Subscribe(fn func(Change)) (cancel func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

func (s *Store) publish(kind ChangeKind) {
	s.subMu.Lock()
	fns := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(Change{Kind: kind})
	}
}

// NewIssue inserts an issue with a fresh ID and both timestamps set to now.
// init, if non-nil, runs before the issue is recorded.
func (s *Store) NewIssue(init func(*model.Issue)) *model.Issue {
	now := model.Now()
	issue := &model.Issue{
		ID:               uuid.NewString(),
		CreationDate:     model.TimePtr(now),
		ModificationDate: model.TimePtr(now),
	}
	if init != nil {
		init(issue)
	}

	s.mu.Lock()
	s.insertIssueLocked(issue)
	s.pending.dirtyIssues[issue.ID] = struct{}{}
	if issue.TagCount() > 0 {
		s.pending.dirtyLinks[issue.ID] = struct{}{}
	}
	s.mu.Unlock()

	s.publish(ChangeLocal)
	return issue
}

func (s *Store) NewTag(init func(*model.Tag)) *model.Tag {
	id := uuid.New()
	tag := &model.Tag{Key: uuid.NewString(), ID: &id}
	if init != nil {
		init(tag)
	}

	s.mu.Lock()
	s.insertTagLocked(tag)
	s.pending.dirtyTags[tag.Key] = struct{}{}
	s.mu.Unlock()

	s.publish(ChangeLocal)
	return tag
}

func (s *Store) insertIssueLocked(issue *model.Issue) {
	s.nextSeq++
	s.issues = append(s.issues, issue)
	s.issueByID[issue.ID] = issue
	s.issueSeq[issue.ID] = s.nextSeq
}

func (s *Store) insertTagLocked(tag *model.Tag) {
	s.nextSeq++
	s.tags = append(s.tags, tag)
	s.tagByKey[tag.Key] = tag
	s.tagSeq[tag.Key] = s.nextSeq
}

// Mutate applies fn to issue, marks it dirty and stamps its modification date.
func (s *Store) Mutate(issue *model.Issue, fn func(*model.Issue)) error {
	s.mu.Lock()
	if s.issueByID[issue.ID] != issue {
		s.mu.Unlock()
		return ErrForeignObject
	}
	fn(issue)
	issue.ModificationDate = model.TimePtr(model.Now())
	s.pending.dirtyIssues[issue.ID] = struct{}{}
	s.mu.Unlock()

	s.publish(ChangeLocal)
	return nil
}

func (s *Store) MutateTag(tag *model.Tag, fn func(*model.Tag)) error {
	s.mu.Lock()
	if s.tagByKey[tag.Key] != tag {
		s.mu.Unlock()
		return ErrForeignObject
	}
	fn(tag)
	s.pending.dirtyTags[tag.Key] = struct{}{}
	s.mu.Unlock()

	s.publish(ChangeLocal)
	return nil
}

// Attach links issue and tag. Linking an already linked pair is a no-op.
func (s *Store) Attach(issue *model.Issue, tag *model.Tag) error {
	return s.relink(issue, tag, model.Attach)
}

func (s *Store) Detach(issue *model.Issue, tag *model.Tag) error {
	return s.relink(issue, tag, model.Detach)
}

func (s *Store) relink(issue *model.Issue, tag *model.Tag, op func(*model.Issue, *model.Tag) bool) error {
	s.mu.Lock()
	if s.issueByID[issue.ID] != issue || s.tagByKey[tag.Key] != tag {
		s.mu.Unlock()
		return ErrForeignObject
	}
	if !op(issue, tag) {
		s.mu.Unlock()
		return nil
	}
	issue.ModificationDate = model.TimePtr(model.Now())
	s.pending.dirtyIssues[issue.ID] = struct{}{}
	s.pending.dirtyTags[tag.Key] = struct{}{}
	s.pending.dirtyLinks[issue.ID] = struct{}{}
	s.mu.Unlock()

	s.publish(ChangeLocal)
	return nil
}

// DeleteIssue removes the issue and its links. Its tags are kept.
func (s *Store) DeleteIssue(issue *model.Issue) error {
	s.mu.Lock()
	if s.issueByID[issue.ID] != issue {
		s.mu.Unlock()
		return ErrForeignObject
	}
	model.DetachIssue(issue)
	s.issues = slices.DeleteFunc(s.issues, func(i *model.Issue) bool { return i == issue })
	delete(s.issueByID, issue.ID)
	delete(s.issueSeq, issue.ID)
	delete(s.pending.dirtyIssues, issue.ID)
	delete(s.pending.dirtyLinks, issue.ID)
	s.pending.deletedIssues[issue.ID] = struct{}{}
	s.mu.Unlock()

	s.publish(ChangeLocal)
	return nil
}

// DeleteTag removes the tag and detaches it from its issues. The issues are
// kept.
func (s *Store) DeleteTag(tag *model.Tag) error {
	s.mu.Lock()
	if s.tagByKey[tag.Key] != tag {
		s.mu.Unlock()
		return ErrForeignObject
	}
	for _, issue := range model.DetachTag(tag) {
		s.pending.dirtyLinks[issue.ID] = struct{}{}
	}
	s.tags = slices.DeleteFunc(s.tags, func(t *model.Tag) bool { return t == tag })
	delete(s.tagByKey, tag.Key)
	delete(s.tagSeq, tag.Key)
	delete(s.pending.dirtyTags, tag.Key)
	s.pending.deletedTags[tag.Key] = struct{}{}
	s.mu.Unlock()

	s.publish(ChangeLocal)
	return nil
}

// DeleteAll empties the store. The next Save truncates every table.
func (s *Store) DeleteAll() {
	s.mu.Lock()
	for _, issue := range s.issues {
		model.DetachIssue(issue)
	}
	s.resetLocked()
	s.pending = newPendingSet()
	s.pending.truncate = true
	s.mu.Unlock()

	s.publish(ChangeLocal)
}

func (s *Store) resetLocked() {
	s.issues = nil
	s.tags = nil
	s.issueByID = make(map[string]*model.Issue)
	s.tagByKey = make(map[string]*model.Tag)
	s.issueSeq = make(map[string]int64)
	s.tagSeq = make(map[string]int64)
}

// Issues returns every issue in store order.
func (s *Store) Issues() []*model.Issue {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.issues)
}

// Tags returns every tag in store order.
func (s *Store) Tags() []*model.Tag {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.tags)
}

func (s *Store) IssueByID(id string) (*model.Issue, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	issue, ok := s.issueByID[id]
	return issue, ok
}

func (s *Store) TagByKey(key string) (*model.Tag, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tag, ok := s.tagByKey[key]
	return tag, ok
}

// TagByName returns the first tag, in tag order, whose name matches
// case-insensitively.
func (s *Store) TagByName(name string) (*model.Tag, bool) {
	tags := s.Tags()
	model.SortTags(tags)
	for _, t := range tags {
		if model.FoldEqual(t.NameText(), name) {
			return t, true
		}
	}
	return nil, false
}

func (s *Store) CountIssues(_ context.Context, closedOnly bool) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !closedOnly {
		return len(s.issues), nil
	}
	n := 0
	for _, issue := range s.issues {
		if issue.Completed {
			n++
		}
	}
	return n, nil
}

func (s *Store) CountTags(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tags), nil
}

func (s *Store) HasChanges() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.pending.empty()
}

// LastFlush reports when Save last wrote to the repository.
func (s *Store) LastFlush() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastFlush
}

// Save writes every pending change in one repository transaction. On failure
// the pending changes are restored so a later Save retries them.
func (s *Store) Save(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	if s.pending.empty() {
		s.mu.Unlock()
		return nil
	}
	cs := s.changesetLocked()
	taken := s.pending
	s.pending = newPendingSet()
	s.mu.Unlock()

	if s.repo != nil {
		if err := s.repo.Apply(ctx, cs); err != nil {
			s.mu.Lock()
			s.pending.merge(taken)
			s.mu.Unlock()
			return fmt.Errorf("apply changeset: %w", err)
		}
	}

	s.mu.Lock()
	s.lastFlush = time.Now()
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"issues":         len(cs.UpsertIssues),
		"tags":           len(cs.UpsertTags),
		"deleted_issues": len(cs.DeleteIssueIDs),
		"deleted_tags":   len(cs.DeleteTagKeys),
		"truncate":       cs.Truncate,
	}).Debug("store saved")
	s.publish(ChangeSaved)
	return nil
}

func (s *Store) changesetLocked() storage.Changeset {
	p := s.pending
	cs := storage.Changeset{Truncate: p.truncate}

	for _, tag := range s.tags {
		if _, ok := p.dirtyTags[tag.Key]; ok {
			cs.UpsertTags = append(cs.UpsertTags, tagRow(tag, s.tagSeq[tag.Key]))
		}
	}
	for _, issue := range s.issues {
		if _, ok := p.dirtyIssues[issue.ID]; ok {
			cs.UpsertIssues = append(cs.UpsertIssues, issueRow(issue, s.issueSeq[issue.ID]))
		}
	}
	if len(p.dirtyLinks) > 0 {
		cs.Links = make(map[string][]string, len(p.dirtyLinks))
		for id := range p.dirtyLinks {
			issue, ok := s.issueByID[id]
			if !ok {
				continue
			}
			keys := make([]string, 0, issue.TagCount())
			for _, tag := range issue.SortedTags() {
				keys = append(keys, tag.Key)
			}
			cs.Links[id] = keys
		}
	}
	if !p.truncate {
		for id := range p.deletedIssues {
			cs.DeleteIssueIDs = append(cs.DeleteIssueIDs, id)
		}
		for key := range p.deletedTags {
			cs.DeleteTagKeys = append(cs.DeleteTagKeys, key)
		}
		slices.Sort(cs.DeleteIssueIDs)
		slices.Sort(cs.DeleteTagKeys)
	}
	return cs
}

// Load replaces the working set with the repository contents and discards
// pending changes.
func (s *Store) Load(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	snap, err := s.repo.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	// Objects from the previous load are dropped untouched: other goroutines
	// may still be reading their tag links.
	s.mu.Lock()
	s.resetLocked()
	s.pending = newPendingSet()
	s.nextSeq = 0

	for _, row := range snap.Tags {
		tag := tagFromRow(row, s.logger)
		s.tags = append(s.tags, tag)
		s.tagByKey[tag.Key] = tag
		s.tagSeq[tag.Key] = row.Seq
		s.nextSeq = max(s.nextSeq, row.Seq)
	}
	for _, row := range snap.Issues {
		issue := issueFromRow(row)
		s.issues = append(s.issues, issue)
		s.issueByID[issue.ID] = issue
		s.issueSeq[issue.ID] = row.Seq
		s.nextSeq = max(s.nextSeq, row.Seq)
	}
	for _, link := range snap.Links {
		issue, iok := s.issueByID[link.IssueID]
		tag, tok := s.tagByKey[link.TagKey]
		if iok && tok {
			model.Attach(issue, tag)
		}
	}
	issues, tags := len(s.issues), len(s.tags)
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{"issues": issues, "tags": tags}).Debug("store loaded")
	s.publish(ChangeRemote)
	return nil
}

func issueRow(i *model.Issue, seq int64) storage.Issue {
	return storage.Issue{
		ID:              i.ID,
		Seq:             seq,
		Title:           i.Title,
		Content:         i.Content,
		CreatedAt:       i.CreationDate,
		ModifiedAt:      i.ModificationDate,
		Completed:       i.Completed,
		Priority:        int(i.Priority),
		ReminderEnabled: i.ReminderEnabled,
		ReminderAt:      i.ReminderTime,
	}
}

func issueFromRow(row storage.Issue) *model.Issue {
	return &model.Issue{
		ID:               row.ID,
		Title:            row.Title,
		Content:          row.Content,
		CreationDate:     row.CreatedAt,
		ModificationDate: row.ModifiedAt,
		Completed:        row.Completed,
		Priority:         model.Priority(row.Priority),
		ReminderEnabled:  row.ReminderEnabled,
		ReminderTime:     row.ReminderAt,
	}
}

func tagRow(t *model.Tag, seq int64) storage.Tag {
	row := storage.Tag{Key: t.Key, Seq: seq, Name: t.Name}
	if t.ID != nil {
		row.UUID = model.StringPtr(t.ID.String())
	}
	return row
}

func tagFromRow(row storage.Tag, logger logrus.FieldLogger) *model.Tag {
	tag := &model.Tag{Key: row.Key, Name: row.Name}
	if row.UUID != nil {
		id, err := uuid.Parse(*row.UUID)
		if err != nil {
			logger.WithError(err).WithField("tag", row.Key).Warn("ignoring malformed tag uuid")
		} else {
			tag.ID = &id
		}
	}
	return tag
}
