package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

const defaultConfigPath = "keystone.yaml"

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ks",
		Short: "Keystone: project scheduling, milestones and earned value",
		Long:  "Keystone tracks project timelines, milestone progress, earned value and scheduling alerts.",
	}

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newDBCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newTimelineCmd())
	cmd.AddCommand(newTaskCmd())
	cmd.AddCommand(newMilestoneCmd())
	cmd.AddCommand(newEVMCmd())
	cmd.AddCommand(newAlertCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ks %s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}

// addConfigFlag registers the shared --config/-c flag.
func addConfigFlag(cmd *cobra.Command, p *string) {
	cmd.Flags().StringVarP(p, "config", "c", defaultConfigPath, "path to Keystone config file")
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
