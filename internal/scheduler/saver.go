package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

const DefaultSaveDelay = 3 * time.Second

type Saver interface {
	HasChanges() bool
	Save(ctx context.Context) error
}

// SaveScheduler coalesces bursts of edits into one flush. At most one
// deferred flush is armed at a time; arming a new one, or saving now, cancels
// it. A flush that has already started always runs to completion.
type SaveScheduler struct {
	saver  Saver
	quiet  time.Duration
	logger logrus.FieldLogger

	mu     sync.Mutex
	gen    uint64
	timer  *time.Timer
	armed  bool
	closed bool

	flushMu sync.Mutex
	flushes atomic.Uint64
	failed  atomic.Uint64
}

func NewSaveScheduler(saver Saver, quiet time.Duration, logger logrus.FieldLogger) *SaveScheduler {
	if quiet <= 0 {
		quiet = DefaultSaveDelay
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &SaveScheduler{saver: saver, quiet: quiet, logger: logger}
}

// SaveNow cancels any deferred flush and flushes immediately if there is
// anything to write.
func (s *SaveScheduler) SaveNow() {
	s.Cancel()
	s.flush()
}

// QueueSave replaces any deferred flush with a new one after the quiet
// period.
func (s *SaveScheduler) QueueSave() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.SaveNow()
		return
	}
	s.cancelLocked()
	gen := s.gen
	s.armed = true
	s.timer = time.AfterFunc(s.quiet, func() { s.fire(gen) })
	s.mu.Unlock()
}

// Cancel drops the deferred flush, if any, without saving.
func (s *SaveScheduler) Cancel() {
	s.mu.Lock()
	s.cancelLocked()
	s.mu.Unlock()
}

func (s *SaveScheduler) cancelLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.armed = false
	s.gen++
}

func (s *SaveScheduler) fire(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || !s.armed {
		s.mu.Unlock()
		return
	}
	s.armed = false
	s.timer = nil
	s.mu.Unlock()

	s.flush()
}

func (s *SaveScheduler) flush() {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	if !s.saver.HasChanges() {
		return
	}
	s.flushes.Add(1)
	if err := s.saver.Save(context.Background()); err != nil {
		s.failed.Add(1)
		s.logger.WithError(err).Warn("save failed; changes kept for retry")
	}
}

// Pending reports whether a deferred flush is armed.
func (s *SaveScheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.armed
}

// Flushes counts the saves attempted so far.
func (s *SaveScheduler) Flushes() uint64 {
	return s.flushes.Load()
}

func (s *SaveScheduler) Failures() uint64 {
	return s.failed.Load()
}

// Close cancels the deferred flush and saves whatever is outstanding.
func (s *SaveScheduler) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.SaveNow()
}
