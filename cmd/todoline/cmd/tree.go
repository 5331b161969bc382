package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"todoline/pkg/task"
)

func newTreeCmd(a *app) *cobra.Command {
	var showCollapsed bool
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print tasks nested under their parents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			doc, err := a.open()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			styled := isTerminal(out)
			task.Walk(doc.Tree, func(t *task.Task, depth int) bool {
				fmt.Fprintln(out, formatTask(t, depth, styled))
				return showCollapsed || !t.IsCollapsed
			})
			return nil
		},
	}
	cmd.Flags().BoolVar(&showCollapsed, "expand", false, "also print subtasks of collapsed tasks")
	return cmd
}
