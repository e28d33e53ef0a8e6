package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/zulandar/keystone/internal/alert"
	"github.com/zulandar/keystone/internal/models"
	"github.com/zulandar/keystone/internal/store"
)

func newAlertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alert",
		Short: "Scheduling alert commands",
	}

	cmd.AddCommand(newAlertGenerateCmd())
	cmd.AddCommand(newAlertListCmd())
	cmd.AddCommand(newAlertReadCmd(true))
	cmd.AddCommand(newAlertReadCmd(false))
	return cmd
}

func newAlertGenerateCmd() *cobra.Command {
	var (
		configPath string
		quiet      bool
	)

	cmd := &cobra.Command{
		Use:   "generate <project>",
		Short: "Detect overdue, approaching and overallocation conditions",
		Long: `Scans a project's tasks, milestones and resource bookings and records a
new alert for each condition that has no unread alert yet. New alerts are
posted to the configured Slack and Discord channels.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAlertGenerate(cmd, configPath, args[0], quiet)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().BoolVar(&quiet, "no-notify", false, "do not post new alerts to chat")
	return cmd
}

func runAlertGenerate(cmd *cobra.Command, configPath, project string, quiet bool) error {
	cfg, st, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	logger, err := loggerFromConfig(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	opts := alertOpts(cfg, logger, nil)
	if !quiet {
		n, err := notifierFromConfig(cfg, logger)
		if err != nil {
			return err
		}
		opts.Notifier = n
	}

	created, err := alert.Generate(cmd.Context(), st, project, time.Now(), opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(created) == 0 {
		fmt.Fprintln(out, "No new alerts.")
		return nil
	}
	fmt.Fprintf(out, "Created %d alert(s):\n", len(created))
	printAlerts(cmd, created)
	return nil
}

func newAlertListCmd() *cobra.Command {
	var (
		configPath string
		alertType  string
		unreadOnly bool
	)

	cmd := &cobra.Command{
		Use:   "list <project>",
		Short: "List alerts, unread first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAlertList(cmd, configPath, args[0], alertType, unreadOnly)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&alertType, "type", "", "filter by alert type (e.g. task_overdue)")
	cmd.Flags().BoolVar(&unreadOnly, "unread", false, "show only unread alerts")
	return cmd
}

func runAlertList(cmd *cobra.Command, configPath, project, alertType string, unreadOnly bool) error {
	_, st, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	alerts, err := st.ListAlerts(cmd.Context(), store.AlertFilter{ProjectID: project, Type: alertType})
	if err != nil {
		return err
	}

	unread, read := alert.Partition(alerts)
	if unreadOnly {
		read = nil
	}

	out := cmd.OutOrStdout()
	if len(unread)+len(read) == 0 {
		fmt.Fprintln(out, "No alerts found.")
		return nil
	}
	fmt.Fprintf(out, "Unread (%d):\n", len(unread))
	printAlerts(cmd, unread)
	if !unreadOnly {
		fmt.Fprintf(out, "\nRead (%d):\n", len(read))
		printAlerts(cmd, read)
	}
	return nil
}

func printAlerts(cmd *cobra.Command, alerts []models.SchedulingAlert) {
	if len(alerts) == 0 {
		return
	}
	w := newTable(cmd.OutOrStdout())
	fmt.Fprintln(w, "ID\tTYPE\tSEVERITY\tCREATED\tMESSAGE")
	for _, a := range alerts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			a.ID, a.Type, a.Severity, a.CreatedAt.Format(dateLayout), truncate(a.Message, 60))
	}
	w.Flush()
}

func newAlertReadCmd(read bool) *cobra.Command {
	var configPath string

	use, short := "read <id>", "Mark an alert read"
	if !read {
		use, short = "unread <id>", "Mark an alert unread"
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, st, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			if err := alert.SetRead(cmd.Context(), st, args[0], read); err != nil {
				return err
			}
			state := "read"
			if !read {
				state = "unread"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Alert %s marked %s\n", args[0], state)
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}
