package tracker

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sandeepkv93/tracker/internal/awards"
	"github.com/sandeepkv93/tracker/internal/model"
	"github.com/sandeepkv93/tracker/internal/query"
	"github.com/sandeepkv93/tracker/internal/scheduler"
	"github.com/sandeepkv93/tracker/internal/store"
)

const (
	DefaultIssueTitle = "New issue"
	DefaultTagName    = "New tag"
	// Tags a user must create before we ask for a review.
	reviewTagThreshold = 5
)

var ErrNilObject = errors.New("tracker: nil issue or tag")

// Entitlement answers whether the paid feature set is unlocked.
type Entitlement interface {
	FullVersionUnlocked() bool
}

type StaticEntitlement bool

func (e StaticEntitlement) FullVersionUnlocked() bool { return bool(e) }

type Options struct {
	Store          *store.Store
	SaveDelay      time.Duration
	Reminders      *scheduler.Engine
	Entitlement    Entitlement
	FreeIssueLimit int
	Awards         []model.Award
	Logger         logrus.FieldLogger
}

// Controller owns the filter state, the current selection and the save
// policy over a store. Every mutation goes through it so saves are scheduled
// consistently.
type Controller struct {
	store       *store.Store
	saver       *scheduler.SaveScheduler
	reminders   *scheduler.Engine
	entitlement Entitlement
	freeLimit   int
	awards      []model.Award
	logger      logrus.FieldLogger

	mu       sync.RWMutex
	filter   query.FilterState
	selected *model.Issue

	unsubscribe func()
}

func New(opts Options) *Controller {
	if opts.Store == nil {
		opts.Store = store.NewMemory()
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Entitlement == nil {
		opts.Entitlement = StaticEntitlement(false)
	}
	if opts.Awards == nil {
		opts.Awards = awards.MustDefault()
	}
	c := &Controller{
		store:       opts.Store,
		saver:       scheduler.NewSaveScheduler(opts.Store, opts.SaveDelay, opts.Logger),
		reminders:   opts.Reminders,
		entitlement: opts.Entitlement,
		freeLimit:   opts.FreeIssueLimit,
		awards:      opts.Awards,
		logger:      opts.Logger,
		filter:      query.DefaultFilterState(),
	}
	c.unsubscribe = c.store.Subscribe(func(ch store.Change) {
		if ch.Kind == store.ChangeRemote {
			c.rebind()
		}
	})
	return c
}

func (c *Controller) Store() *store.Store { return c.store }

func (c *Controller) Saver() *scheduler.SaveScheduler { return c.saver }

// rebind swaps held pointers for their reloaded counterparts after the store
// replaced its working set.
func (c *Controller) rebind() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.selected != nil {
		c.selected, _ = c.store.IssueByID(c.selected.ID)
	}
	if tag := c.filter.Selected.Tag; tag != nil {
		if fresh, ok := c.store.TagByKey(tag.Key); ok {
			c.filter.Selected = filterForTag(fresh)
		} else {
			c.filter.Selected = model.FilterAll
		}
	}
	tokens := c.filter.Tokens[:0]
	for _, tok := range c.filter.Tokens {
		if fresh, ok := c.store.TagByKey(tok.Key); ok {
			tokens = append(tokens, fresh)
		}
	}
	c.filter.Tokens = tokens
}

func filterForTag(t *model.Tag) model.Filter {
	return model.TagFilters([]*model.Tag{t})[0]
}

func (c *Controller) Filter() query.FilterState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	state := c.filter
	state.Tokens = append([]*model.Tag(nil), c.filter.Tokens...)
	return state
}

// UpdateFilter edits the filter state in place.
func (c *Controller) UpdateFilter(fn func(*query.FilterState)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.filter)
}

func (c *Controller) SelectFilter(f model.Filter) {
	c.UpdateFilter(func(s *query.FilterState) { s.Selected = f })
}

func (c *Controller) SelectedIssue() *model.Issue {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.selected
}

func (c *Controller) SelectIssue(issue *model.Issue) {
	c.mu.Lock()
	c.selected = issue
	c.mu.Unlock()
}

func (c *Controller) IssueByID(id string) (*model.Issue, bool) {
	return c.store.IssueByID(id)
}

// NewIssue creates an issue with default values and selects it. When the
// selected filter is a tag, the issue joins that tag so it stays visible.
// It reports false when the free tier is exhausted.
func (c *Controller) NewIssue() (*model.Issue, bool) {
	if !c.CanCreateIssue() {
		c.logger.WithField("limit", c.freeLimit).Info("issue creation refused: free limit reached")
		return nil, false
	}
	tag := c.Filter().Selected.Tag

	issue := c.store.NewIssue(func(i *model.Issue) {
		i.SetTitle(DefaultIssueTitle)
		i.Priority = model.PriorityMedium
		if tag != nil {
			model.Attach(i, tag)
		}
	})
	c.saver.SaveNow()
	c.SelectIssue(issue)
	return issue, true
}

// CanCreateIssue reports whether one more issue fits the current
// entitlement. A zero limit means unlimited.
func (c *Controller) CanCreateIssue() bool {
	if c.entitlement.FullVersionUnlocked() || c.freeLimit <= 0 {
		return true
	}
	n, _ := c.store.CountIssues(context.Background(), false)
	return n < c.freeLimit
}

func (c *Controller) NewTag() *model.Tag {
	tag := c.store.NewTag(func(t *model.Tag) { t.SetName(DefaultTagName) })
	c.saver.SaveNow()
	return tag
}

func (c *Controller) edit(issue *model.Issue, fn func(*model.Issue)) error {
	if issue == nil {
		return ErrNilObject
	}
	if err := c.store.Mutate(issue, fn); err != nil {
		return err
	}
	c.saver.QueueSave()
	return nil
}

func (c *Controller) SetTitle(issue *model.Issue, title string) error {
	return c.edit(issue, func(i *model.Issue) { i.SetTitle(title) })
}

func (c *Controller) SetContent(issue *model.Issue, content string) error {
	return c.edit(issue, func(i *model.Issue) { i.SetContent(content) })
}

func (c *Controller) SetPriority(issue *model.Issue, p model.Priority) error {
	if !p.IsValid() {
		return model.ErrInvalidPriority
	}
	return c.edit(issue, func(i *model.Issue) { i.Priority = p })
}

// ToggleCompleted flips the issue's state and saves immediately.
func (c *Controller) ToggleCompleted(issue *model.Issue) error {
	if issue == nil {
		return ErrNilObject
	}
	if err := c.store.Mutate(issue, func(i *model.Issue) { i.Completed = !i.Completed }); err != nil {
		return err
	}
	c.saver.SaveNow()
	return nil
}

func (c *Controller) RenameTag(tag *model.Tag, name string) error {
	if tag == nil {
		return ErrNilObject
	}
	name = strings.TrimSpace(name)
	if err := c.store.MutateTag(tag, func(t *model.Tag) { t.SetName(name) }); err != nil {
		return err
	}
	c.saver.QueueSave()
	return nil
}

func (c *Controller) AddTag(issue *model.Issue, tag *model.Tag) error {
	if issue == nil || tag == nil {
		return ErrNilObject
	}
	if err := c.store.Attach(issue, tag); err != nil {
		return err
	}
	c.saver.QueueSave()
	return nil
}

func (c *Controller) RemoveTag(issue *model.Issue, tag *model.Tag) error {
	if issue == nil || tag == nil {
		return ErrNilObject
	}
	if err := c.store.Detach(issue, tag); err != nil {
		return err
	}
	c.saver.QueueSave()
	return nil
}

// Delete removes the issue and its reminders. Its tags survive.
func (c *Controller) Delete(issue *model.Issue) error {
	if issue == nil {
		return ErrNilObject
	}
	c.removeReminders(issue)
	if err := c.store.DeleteIssue(issue); err != nil {
		return err
	}
	c.mu.Lock()
	if c.selected == issue {
		c.selected = nil
	}
	c.mu.Unlock()
	c.saver.SaveNow()
	return nil
}

// DeleteTag removes the tag. Its issues survive.
func (c *Controller) DeleteTag(tag *model.Tag) error {
	if tag == nil {
		return ErrNilObject
	}
	if err := c.store.DeleteTag(tag); err != nil {
		return err
	}
	c.mu.Lock()
	if c.filter.Selected.Tag == tag {
		c.filter.Selected = model.FilterAll
	}
	c.filter.Tokens = removeTag(c.filter.Tokens, tag)
	c.mu.Unlock()
	c.saver.SaveNow()
	return nil
}

func removeTag(tags []*model.Tag, tag *model.Tag) []*model.Tag {
	out := tags[:0]
	for _, t := range tags {
		if t != tag {
			out = append(out, t)
		}
	}
	return out
}

// DeleteAll removes every issue and tag.
func (c *Controller) DeleteAll() {
	for _, issue := range c.store.Issues() {
		c.removeReminders(issue)
	}
	c.store.DeleteAll()
	c.mu.Lock()
	c.selected = nil
	c.filter.Selected = model.FilterAll
	c.filter.Tokens = nil
	c.mu.Unlock()
	c.saver.SaveNow()
}

func (c *Controller) IssuesForSelectedFilter() []*model.Issue {
	return query.Run(c.store.Issues(), c.Filter())
}

// Explain renders the predicates the selected filter runs.
func (c *Controller) Explain() string {
	return query.Describe(query.Build(c.Filter()))
}

func (c *Controller) MissingTags(issue *model.Issue) []*model.Tag {
	return query.MissingTags(c.store.Tags(), issue)
}

// SuggestedFilterTokens offers tags matching a "#" search.
func (c *Controller) SuggestedFilterTokens() []*model.Tag {
	return query.SuggestedTokens(c.store.Tags(), c.Filter().Text)
}

func (c *Controller) TagFilters() []model.Filter {
	return model.TagFilters(c.store.Tags())
}

func (c *Controller) SmartFilters() []model.Filter {
	return model.SmartFilters(model.Now())
}

func (c *Controller) Awards() []model.Award {
	return append([]model.Award(nil), c.awards...)
}

func (c *Controller) Counts(ctx context.Context) awards.Counts {
	return awards.Snapshot(ctx, c.store, c.logger)
}

func (c *Controller) HasEarned(award model.Award) bool {
	return awards.HasEarned(award, c.Counts(context.Background()))
}

func (c *Controller) EarnedAwards() []model.Award {
	return awards.Earned(c.awards, c.Counts(context.Background()))
}

func (c *Controller) ShouldRequestReview() bool {
	n, _ := c.store.CountTags(context.Background())
	return n >= reviewTagThreshold
}

// SaveNow flushes pending edits immediately.
func (c *Controller) SaveNow() {
	c.saver.SaveNow()
}

// Close stops listening to the store and flushes outstanding edits.
func (c *Controller) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
	c.saver.Close()
}
