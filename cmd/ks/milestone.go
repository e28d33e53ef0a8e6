package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/zulandar/keystone/internal/milestone"
)

func newMilestoneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "milestone",
		Short: "Milestone tracking commands",
	}

	cmd.AddCommand(newMilestoneListCmd())
	cmd.AddCommand(newMilestoneScanCmd())
	cmd.AddCommand(newMilestoneExportCmd())
	cmd.AddCommand(newMilestoneCommentCmd())
	cmd.AddCommand(newMilestoneAchieveCmd())
	return cmd
}

func newMilestoneListCmd() *cobra.Command {
	var (
		configPath string
		window     int
	)

	cmd := &cobra.Command{
		Use:   "list <project>",
		Short: "List milestones with derived progress and status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMilestoneList(cmd, configPath, args[0], window)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().IntVar(&window, "due-soon-days", milestone.DefaultDueSoonDays, "days ahead that count as due soon")
	return cmd
}

func runMilestoneList(cmd *cobra.Command, configPath, project string, window int) error {
	_, st, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	ms, err := st.ListMilestones(cmd.Context(), project)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(ms) == 0 {
		fmt.Fprintf(out, "No milestones for project %s.\n", project)
		return nil
	}

	now := time.Now()
	w := newTable(out)
	fmt.Fprintln(w, "ID\tNAME\tDUE\tPROGRESS\tSTATUS\tALERT\tTASKS\tCOMMENTS")
	for _, v := range milestone.DeriveAll(ms, now) {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d%%\t%s\t%s\t%d\t%d\n",
			v.ID, truncate(v.Name, 40), v.DueDate.Format(dateLayout), v.Progress,
			v.Status, milestone.Classify(v, now, window), len(v.Tasks), len(v.Comments))
	}
	w.Flush()
	return nil
}

func newMilestoneScanCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "scan <project>",
		Short: "Mark milestones achieved when all linked tasks are completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMilestoneScan(cmd, configPath, args[0])
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

func runMilestoneScan(cmd *cobra.Command, configPath, project string) error {
	_, st, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	ids, err := milestone.AutoComplete(cmd.Context(), st, project, time.Now())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(ids) == 0 {
		fmt.Fprintln(out, "No milestones completed.")
		return nil
	}
	for _, id := range ids {
		fmt.Fprintf(out, "Completed milestone %s\n", id)
	}
	return nil
}

func newMilestoneExportCmd() *cobra.Command {
	var (
		configPath string
		output     string
		layout     string
	)

	cmd := &cobra.Command{
		Use:   "export <project>",
		Short: "Export milestones as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMilestoneExport(cmd, configPath, args[0], output, layout)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	cmd.Flags().StringVar(&layout, "date-layout", milestone.DefaultDateLayout, "Go time layout for date columns")
	return cmd
}

func runMilestoneExport(cmd *cobra.Command, configPath, project, output, layout string) error {
	_, st, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	ms, err := st.ListMilestones(cmd.Context(), project)
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("create %s: %w", output, err)
		}
		defer f.Close()
		w = f
	}

	views := milestone.DeriveAll(ms, time.Now())
	if err := milestone.WriteCSV(w, views, milestone.ExportOpts{DateLayout: layout}); err != nil {
		return err
	}
	if output != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d milestones to %s\n", len(views), output)
	}
	return nil
}

func newMilestoneCommentCmd() *cobra.Command {
	var (
		configPath string
		author     string
	)

	cmd := &cobra.Command{
		Use:   "comment <id> <body>",
		Short: "Add a comment to a milestone",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMilestoneComment(cmd, configPath, args[0], author, args[1])
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&author, "author", os.Getenv("USER"), "comment author")
	return cmd
}

func runMilestoneComment(cmd *cobra.Command, configPath, id, author, body string) error {
	_, st, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	c, err := milestone.AddComment(cmd.Context(), st, id, author, body)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added comment %d to milestone %s\n", c.ID, id)
	return nil
}

func newMilestoneAchieveCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "achieve <id> <true|false>",
		Short: "Manually mark a milestone achieved or not achieved",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			achieved, err := strconv.ParseBool(args[1])
			if err != nil {
				return fmt.Errorf("achieved flag %q: want true or false", args[1])
			}
			return runMilestoneAchieve(cmd, configPath, args[0], achieved)
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

func runMilestoneAchieve(cmd *cobra.Command, configPath, id string, achieved bool) error {
	_, st, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	m, err := milestone.SetAchieved(cmd.Context(), st, id, achieved, time.Now())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if m.IsAchieved {
		fmt.Fprintf(out, "Milestone %s achieved on %s\n", m.ID, formatDate(m.AchievedDate))
		return nil
	}
	fmt.Fprintf(out, "Milestone %s marked not achieved\n", m.ID)
	return nil
}
