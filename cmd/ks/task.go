package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zulandar/keystone/internal/timeline"
)

func newTaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Task scheduling commands",
	}

	cmd.AddCommand(newTaskMoveCmd())
	return cmd
}

func newTaskMoveCmd() *cobra.Command {
	var (
		configPath string
		start      string
		end        string
	)

	cmd := &cobra.Command{
		Use:   "move <id>",
		Short: "Reschedule a task to new start and end dates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTaskMove(cmd, configPath, args[0], start, end)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&start, "start", "", "new start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "new end date (YYYY-MM-DD)")
	cmd.MarkFlagRequired("start")
	cmd.MarkFlagRequired("end")
	return cmd
}

func runTaskMove(cmd *cobra.Command, configPath, id, startStr, endStr string) error {
	start, err := parseDate("start", startStr)
	if err != nil {
		return err
	}
	end, err := parseDate("end", endStr)
	if err != nil {
		return err
	}

	_, st, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	task, err := timeline.OnDateChange(cmd.Context(), st, id, start, end)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if task == nil {
		fmt.Fprintf(out, "%s is not a task; nothing changed.\n", id)
		return nil
	}
	fmt.Fprintf(out, "Moved task %s: %s -> %s\n", task.ID, formatDate(task.StartDate), formatDate(task.EndDate))
	return nil
}
