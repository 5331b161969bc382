package cmd

import (
	"github.com/spf13/cobra"

	"todoline/internal/tui"
	"todoline/internal/watcher"
)

func newTUICmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Launch the interactive task list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := a.open(); err != nil {
				return err
			}
			w := watcher.New(a.ws.Path(), a.cfg.Watch.PollInterval, nil, a.log)
			if err := w.Start(); err != nil {
				return err
			}
			defer w.Stop()
			return tui.Run(a.ws, w)
		},
	}
}
