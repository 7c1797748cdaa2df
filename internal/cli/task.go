package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"aishortx/internal/domain"
)

func newTaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Inspect and cancel generation tasks",
	}

	show := &cobra.Command{
		Use:   "show TASK_ID",
		Short: "Print one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			task, err := rt.Store.Repositories().Tasks.GetByID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printTask(out(cmd), task)
		},
	}

	cancel := &cobra.Command{
		Use:   "cancel TASK_ID",
		Short: "Force-fail a task as an operator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			// An empty actor cancels without the ownership check.
			if err := rt.Service.Cancel(cmd.Context(), args[0], ""); err != nil {
				return err
			}
			fmt.Fprintf(out(cmd), "cancelled %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(show, cancel)
	return cmd
}

func printTask(w io.Writer, t *domain.Task) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	rows := [][2]string{
		{"id", t.ID},
		{"project", t.ProjectID},
		{"category", string(t.Category)},
		{"related", t.RelatedID},
		{"status", string(t.Status)},
		{"progress", fmt.Sprintf("%d%%", t.Progress)},
		{"provider", t.ProviderID},
		{"model", t.Model},
		{"external", t.ExternalTaskID},
		{"error", t.Error},
		{"updated", t.UpdatedAt.Format("2006-01-02 15:04:05")},
	}
	for _, r := range rows {
		if r[1] == "" {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\n", r[0], r[1])
	}
	return tw.Flush()
}
