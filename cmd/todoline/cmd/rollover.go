package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRolloverCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rollover",
		Short: "Reset recurring tasks if a new day started since the last visit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := a.ws.Rollover()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if res.LastVisit.IsZero() {
				fmt.Fprintln(out, "first visit recorded")
				return nil
			}
			if !res.Changed {
				fmt.Fprintln(out, "nothing to roll over")
				return nil
			}
			fmt.Fprintf(out, "rolled over %d recurring tasks\n", len(res.Decisions))
			for _, d := range res.Decisions {
				var what []string
				if d.ClearCompletion {
					what = append(what, "reopened")
				}
				if d.SetOverdue != "" {
					what = append(what, "overdue since "+d.SetOverdue)
				}
				if d.ResetCount {
					what = append(what, "count reset")
				}
				fmt.Fprintf(out, "%4d %v\n", d.LineNumber+1, what)
			}
			return nil
		},
	}
}
