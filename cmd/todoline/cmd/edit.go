package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newDoneCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "done LINE...",
		Short: "Toggle tasks done, or advance their count",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.open(); err != nil {
				return err
			}
			for _, arg := range args {
				line, err := parseLine(arg)
				if err != nil {
					return err
				}
				t, err := a.ws.ToggleDone(line, "")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), formatTask(t, 0, false))
			}
			return nil
		},
	}
}

func newDueCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "due LINE [EXPRESSION]",
		Short: "Set or remove a task's due date",
		Long: `Set the due expression of the task on LINE. Without an expression the
due date is removed. Expressions: 2024-05-01, today, ed (every day),
mon..sun, 2024-05-01|e3d (every 3 days from a date), comma-separated lists.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			line, err := parseLine(args[0])
			if err != nil {
				return err
			}
			expr := ""
			if len(args) == 2 {
				expr = args[1]
			}
			if _, err := a.open(); err != nil {
				return err
			}
			t, err := a.ws.SetDue(line, "", expr)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatTask(t, 0, false))
			return nil
		},
	}
}

// parseLine converts a 1-based line argument to a 0-based line number.
func parseLine(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid line %q: want a positive number", s)
	}
	return n - 1, nil
}
