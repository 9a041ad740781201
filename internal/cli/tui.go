package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/tracker/internal/update"
)

func runTUI(ctx context.Context, opts *RootOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	rt, err := openRuntime(ctx, opts, runtimeOptions{reminders: true, watch: true})
	if err != nil {
		return err
	}
	defer rt.Close()

	var notifier update.DesktopNotifier = update.NoopDesktopNotifier{}
	if opts.cfg.DesktopNotify {
		notifier = update.ExecDesktopNotifier{}
	}
	model := update.NewModelWithRuntime(rt.ctrl, rt.engine, opts.cfg.DesktopNotify, notifier)
	program := tea.NewProgram(model, tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("tracker ui: %w", err)
	}
	return nil
}
