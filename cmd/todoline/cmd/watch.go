package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"todoline/internal/core"
	"todoline/internal/due"
	"todoline/internal/watcher"
)

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Re-parse the task file on every change and roll it over daily",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, a, cmd)
		},
	}
}

func runWatch(ctx context.Context, a *app, cmd *cobra.Command) error {
	if _, err := a.open(); err != nil {
		return err
	}
	printSummary(cmd, a)

	w := watcher.New(a.ws.Path(), a.cfg.Watch.PollInterval, nil, a.log)
	if err := w.Start(); err != nil {
		return err
	}
	defer w.Stop()

	sched, err := core.NewScheduler(a.ws, a.cfg.Watch.RolloverSchedule, a.log)
	if err != nil {
		return err
	}
	sched.Start()
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		sched.Stop(stopCtx)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case c := <-w.Changes():
			if c.Removed {
				a.log.Warn("task file removed", zap.String("path", c.Path))
				continue
			}
			if _, err := a.ws.Load(); err != nil {
				a.log.Error("reload failed", zap.Error(err))
				continue
			}
			printSummary(cmd, a)
		case res := <-sched.Runs():
			if res.Changed {
				printSummary(cmd, a)
			}
		case err := <-w.Errors():
			a.log.Warn("watch error", zap.Error(err))
		}
	}
}

// printSummary prints counts of the current document by due state.
func printSummary(cmd *cobra.Command, a *app) {
	doc := a.ws.Current()
	if doc == nil {
		return
	}
	var open, dueToday, overdue int
	for _, t := range doc.Tasks {
		if t.Done {
			continue
		}
		open++
		if t.Due == nil {
			continue
		}
		switch t.Due.State {
		case due.Due:
			dueToday++
		case due.Overdue:
			overdue++
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s  %s: %d open, %d due today, %d overdue\n",
		a.clock.Now().Format("15:04:05"), a.ws.Path(), open, dueToday, overdue)
}
