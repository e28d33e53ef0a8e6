package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zulandar/keystone/internal/timeline"
)

func newTimelineCmd() *cobra.Command {
	var (
		configPath string
		theme      string
		zoom       string
	)

	cmd := &cobra.Command{
		Use:   "timeline <project>",
		Short: "Show a project's timeline items and fitted scale",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTimeline(cmd, configPath, args[0], theme, zoom)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&theme, "theme", "", "color theme: light or dark (default from config)")
	cmd.Flags().StringVar(&zoom, "zoom", "", "override granularity: hour, day, week or month")
	return cmd
}

func runTimeline(cmd *cobra.Command, configPath, project, theme, zoom string) error {
	cfg, st, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	if theme == "" {
		theme = cfg.Theme
	}

	ctx := cmd.Context()
	tasks, err := st.ListTasks(ctx, project)
	if err != nil {
		return err
	}
	milestones, err := st.ListMilestones(ctx, project)
	if err != nil {
		return err
	}

	items := timeline.Normalize(tasks, milestones, timeline.ParseTheme(theme))
	vp := timeline.NewViewport()
	vp.Reload(items)
	if zoom != "" {
		g, err := timeline.ParseGranularity(zoom)
		if err != nil {
			return err
		}
		vp.Zoom(g)
	}

	out := cmd.OutOrStdout()
	if len(items) == 0 {
		fmt.Fprintf(out, "No timeline items for project %s.\n", project)
		return nil
	}

	scale := vp.Scale()
	fmt.Fprintf(out, "Scale: %s (column width %d)\n\n", scale.Granularity, scale.ColumnWidth)

	w := newTable(out)
	fmt.Fprintln(w, "ID\tKIND\tLABEL\tSTART\tEND\tDONE\tCOLOR\tDEPENDS ON")
	for _, it := range items {
		deps := "-"
		if len(it.DependencyIDs) > 0 {
			deps = fmt.Sprint(it.DependencyIDs)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d%%\t%s\t%s\n",
			it.ID, it.Kind, truncate(it.Label, 40),
			it.Start.Format(dateLayout), it.End.Format(dateLayout),
			it.Completion, it.ColorKey, deps)
	}
	w.Flush()

	if violations := timeline.CheckDependencies(tasks); len(violations) > 0 {
		fmt.Fprintln(out, "\nDependency warnings:")
		for _, v := range violations {
			fmt.Fprintf(out, "  %s starts %s before %s ends %s\n",
				v.TaskID, v.TaskStart.Format(dateLayout), v.PredecessorID, v.PredecessorEnd.Format(dateLayout))
		}
	}
	return nil
}
