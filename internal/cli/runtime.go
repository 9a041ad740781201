package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/sandeepkv93/tracker/internal/awards"
	"github.com/sandeepkv93/tracker/internal/logging"
	"github.com/sandeepkv93/tracker/internal/scheduler"
	"github.com/sandeepkv93/tracker/internal/storage"
	"github.com/sandeepkv93/tracker/internal/store"
	"github.com/sandeepkv93/tracker/internal/tracker"
)

// runtime is everything a command needs, opened in dependency order and
// closed in reverse.
type runtime struct {
	logger *logrus.Logger
	repo   *storage.SQLiteRepository
	store  *store.Store
	engine *scheduler.Engine
	ctrl   *tracker.Controller

	closers []func() error
}

type runtimeOptions struct {
	// logTo overrides the configured log file; nil means use the config.
	logTo     io.Writer
	reminders bool
	watch     bool
}

func openRuntime(ctx context.Context, opts *RootOptions, ro runtimeOptions) (*runtime, error) {
	cfg := opts.cfg
	rt := &runtime{}

	if ro.logTo != nil {
		rt.logger = logging.New(ro.logTo, cfg.LogLevel, cfg.LogFormat)
	} else {
		logger, closeLog, err := logging.Open(cfg.LogFile, cfg.LogLevel, cfg.LogFormat)
		if err != nil {
			return nil, err
		}
		rt.logger = logger
		rt.closers = append(rt.closers, closeLog)
	}

	if opts.Memory {
		rt.store = store.New(nil, rt.logger)
	} else {
		repo, err := storage.OpenSQLite(cfg.DBPath)
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.repo = repo
		rt.closers = append(rt.closers, repo.Close)
		rt.store = store.New(repo, rt.logger)
		if err := rt.store.Load(ctx); err != nil {
			rt.Close()
			return nil, fmt.Errorf("load %s: %w", cfg.DBPath, err)
		}
		if ro.watch && cfg.WatchRemote {
			if err := rt.store.Watch(ctx, cfg.DBPath); err != nil {
				rt.logger.WithError(err).Warn("remote change watcher disabled")
			}
		}
	}

	if ro.reminders {
		rt.engine = scheduler.NewEngine(cfg.ReminderBuffer)
		rt.engine.Start()
	}

	list, err := awards.Load()
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.ctrl = tracker.New(tracker.Options{
		Store:          rt.store,
		SaveDelay:      cfg.SaveDelay,
		Reminders:      rt.engine,
		Entitlement:    tracker.StaticEntitlement(cfg.FullVersion),
		FreeIssueLimit: cfg.FreeIssueLimit,
		Awards:         list,
		Logger:         rt.logger,
	})
	if rt.engine != nil {
		n := rt.ctrl.RestoreReminders()
		rt.logger.WithField("count", n).Debug("reminders restored")
	}
	return rt, nil
}

// Close flushes pending edits and releases resources. It is safe to call on
// a partially opened runtime.
func (rt *runtime) Close() error {
	if rt.ctrl != nil {
		rt.ctrl.Close()
	}
	if rt.engine != nil {
		rt.engine.Stop()
	}
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
