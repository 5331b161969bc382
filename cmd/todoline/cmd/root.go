package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"todoline/internal/clock"
	"todoline/internal/config"
	"todoline/internal/core"
	"todoline/internal/due"
	"todoline/internal/parser"
	"todoline/internal/state"
	"todoline/pkg/logger"
)

// app carries what every subcommand needs once the root pre-run has loaded
// the configuration.
type app struct {
	file  string
	now   string
	quiet bool

	cfg   *config.Config
	log   *zap.Logger
	clock clock.Clock
	store state.Store
	ws    *core.Workspace
}

// NewRootCmd builds the todoline command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "todoline",
		Short: "A plain-text task list manager",
		Long: `todoline reads a plain-text task file where every line is a task,
understands priorities, tags, due dates and recurrence written inline, and
rolls recurring tasks over when a new day starts.`,
		SilenceUsage:      true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error { return a.setup() },
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.close()
		},
	}
	root.PersistentFlags().StringVarP(&a.file, "file", "f", "", "task file (default from config, todo.md)")
	root.PersistentFlags().StringVar(&a.now, "now", "", "pretend today is this date (YYYY-MM-DD)")
	root.PersistentFlags().BoolVarP(&a.quiet, "quiet", "q", false, "disable logging")

	root.AddCommand(
		newListCmd(a),
		newTreeCmd(a),
		newDoneCmd(a),
		newDueCmd(a),
		newRolloverCmd(a),
		newWatchCmd(a),
		newTUICmd(a),
	)
	return root
}

func (a *app) setup() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if a.file != "" {
		cfg.File = a.file
	}
	a.cfg = cfg

	a.log = logger.Discard()
	if !a.quiet {
		if a.log, err = logger.New(logger.Config{Level: cfg.Logger.Level, Encoding: cfg.Logger.Encoding}); err != nil {
			return err
		}
	}

	a.clock = clock.RealClock{}
	if a.now != "" {
		t, ok := due.ParseDate(a.now)
		if !ok {
			return fmt.Errorf("--now %q is not a valid date", a.now)
		}
		a.clock = clock.Fixed(time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, time.Local))
	}

	if a.store, err = state.Open(cfg.State.Backend, cfg.State.Path); err != nil {
		return fmt.Errorf("open state: %w", err)
	}
	a.ws, err = core.NewWorkspace(cfg.File, core.Options{
		TabSize:         cfg.TabSize,
		DefaultPriority: cfg.Priority(),
	}, a.clock, a.store, a.log)
	return err
}

func (a *app) close() error {
	if a.log != nil {
		_ = a.log.Sync()
	}
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}

// open loads the document, rolling it over first when auto rollover is on.
func (a *app) open() (*parser.Document, error) {
	if a.cfg.Watch.AutoRollover {
		if _, err := a.ws.Rollover(); err != nil {
			return nil, err
		}
		return a.ws.Current(), nil
	}
	return a.ws.Load()
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
