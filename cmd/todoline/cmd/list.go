package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"todoline/internal/filter"
	"todoline/internal/rollover"
	"todoline/pkg/task"
)

func newListCmd(a *app) *cobra.Command {
	var (
		sortBy string
		all    bool
		under  int
	)
	cmd := &cobra.Command{
		Use:   "list [query...]",
		Short: "List tasks matching a filter query",
		Long: `List tasks matching a filter query. Query terms are ANDed:
  #tag @context +project    carries the tag, context or project
  $A  >$C  <$C              priority exactly A, C or higher, C or lower
  $done $due $overdue $recurring $noTag $noProject $noContext
  -term                     negates a term
  "some phrase"             title contains the phrase`,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.open()
			if err != nil {
				return err
			}
			scope := doc.Tasks
			if under > 0 {
				parent := task.FindAtLine(doc.Tree, under-1)
				if parent == nil {
					return fmt.Errorf("no task on line %d", under)
				}
				scope = task.Flatten(parent.Subtasks)
			}
			tasks := filter.Items(scope, strings.Join(args, " "))
			if !all {
				tasks = withoutHidden(tasks)
			}
			switch sortBy {
			case "default":
				tasks = rollover.DefaultSort(tasks)
			case "priority":
				tasks = rollover.SortByPriority(tasks, rollover.Descending)
			case "priority-asc":
				tasks = rollover.SortByPriority(tasks, rollover.Ascending)
			case "file":
			default:
				return fmt.Errorf("unknown sort %q", sortBy)
			}

			out := cmd.OutOrStdout()
			styled := isTerminal(out)
			for _, t := range tasks {
				fmt.Fprintln(out, formatTask(t, 0, styled))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&sortBy, "sort", "s", "default", "default, priority, priority-asc or file")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "include hidden tasks")
	cmd.Flags().IntVar(&under, "under", 0, "only list the subtasks (at any depth) of the task on this line")
	return cmd
}

func withoutHidden(tasks []*task.Task) []*task.Task {
	out := make([]*task.Task, 0, len(tasks))
	for _, t := range tasks {
		if !t.IsHidden {
			out = append(out, t)
		}
	}
	return out
}
