package tracker

import (
	"time"

	"github.com/sandeepkv93/tracker/internal/model"
	"github.com/sandeepkv93/tracker/internal/scheduler"
)

// NextOccurrence returns the first time strictly after now whose hour and
// minute match at, in now's location. Reminders repeat daily.
func NextOccurrence(at, now time.Time) time.Time {
	at = at.In(now.Location())
	next := time.Date(now.Year(), now.Month(), now.Day(), at.Hour(), at.Minute(), 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// SetReminder turns the issue's daily reminder on or off. at is only used
// when non-zero; otherwise the stored reminder time is kept. Pending
// notifications are always removed before a new one is placed. When placing
// fails the reminder is switched back off and the error returned.
func (c *Controller) SetReminder(issue *model.Issue, enabled bool, at time.Time) error {
	if issue == nil {
		return ErrNilObject
	}
	if err := c.store.Mutate(issue, func(i *model.Issue) {
		i.ReminderEnabled = enabled
		if !at.IsZero() {
			i.ReminderTime = model.TimePtr(at)
		}
	}); err != nil {
		return err
	}

	c.removeReminders(issue)
	if enabled {
		if err := c.addReminder(issue, model.Now()); err != nil {
			c.logger.WithError(err).WithField("issue", issue.ID).Warn("could not place reminder")
			_ = c.store.Mutate(issue, func(i *model.Issue) { i.ReminderEnabled = false })
			c.saver.QueueSave()
			return err
		}
	}
	c.saver.QueueSave()
	return nil
}

// RestoreReminders places reminders for every issue that has one enabled.
// It is called once the store has been loaded.
func (c *Controller) RestoreReminders() int {
	if c.reminders == nil {
		return 0
	}
	now := model.Now()
	placed := 0
	for _, issue := range c.store.Issues() {
		if !issue.ReminderEnabled {
			continue
		}
		c.removeReminders(issue)
		if err := c.addReminder(issue, now); err != nil {
			c.logger.WithError(err).WithField("issue", issue.ID).Warn("could not restore reminder")
			continue
		}
		placed++
	}
	return placed
}

// HandleReminder is called when a reminder fires. It re-arms the next daily
// occurrence while the issue still wants reminders and returns the issue, if
// it still exists.
func (c *Controller) HandleReminder(ev scheduler.ReminderEvent) (*model.Issue, bool) {
	issue, ok := c.store.IssueByID(ev.Key)
	if !ok {
		return nil, false
	}
	if issue.ReminderEnabled {
		c.removeReminders(issue)
		if err := c.addReminder(issue, ev.TriggerAt); err != nil {
			c.logger.WithError(err).WithField("issue", issue.ID).Warn("could not re-arm reminder")
		}
	}
	return issue, true
}

func (c *Controller) removeReminders(issue *model.Issue) {
	if c.reminders == nil {
		return
	}
	c.reminders.Cancel(issue.ID)
}

func (c *Controller) addReminder(issue *model.Issue, now time.Time) error {
	if c.reminders == nil {
		return nil
	}
	trigger := NextOccurrence(issue.Reminder(), now)
	return c.reminders.Schedule(scheduler.ReminderEvent{
		ID:        issue.ID + "@" + trigger.UTC().Format(time.RFC3339),
		Key:       issue.ID,
		Title:     issue.TitleText(),
		Body:      issue.ContentText(),
		TriggerAt: trigger,
	})
}
