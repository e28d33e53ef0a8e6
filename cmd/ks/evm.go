package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/zulandar/keystone/internal/evm"
	"github.com/zulandar/keystone/internal/models"
)

func newEVMCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evm",
		Short: "Earned value management commands",
	}

	cmd.AddCommand(newEVMCalculateCmd())
	cmd.AddCommand(newEVMHistoryCmd())
	return cmd
}

func newEVMCalculateCmd() *cobra.Command {
	var (
		configPath string
		weighting  string
	)

	cmd := &cobra.Command{
		Use:   "calculate <project>",
		Short: "Compute and store an earned value snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEVMCalculate(cmd, configPath, args[0], weighting)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&weighting, "weighting", "", "task weighting: equal or duration (default from config)")
	return cmd
}

func runEVMCalculate(cmd *cobra.Command, configPath, project, weighting string) error {
	cfg, st, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	if weighting == "" {
		weighting = cfg.EVM.Weighting
	}

	m, err := evm.Calculate(cmd.Context(), st, project, time.Now(), evm.ParseWeighting(weighting))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	w := newTable(out)
	fmt.Fprintf(w, "Measured:\t%s\n", m.MeasurementDate.Format(dateLayout))
	fmt.Fprintf(w, "Planned value (PV):\t%s\n", formatMoney(m.PlannedValue))
	fmt.Fprintf(w, "Earned value (EV):\t%s\n", formatMoney(m.EarnedValue))
	fmt.Fprintf(w, "Actual cost (AC):\t%s\n", formatMoney(m.ActualCost))
	fmt.Fprintf(w, "Cost variance (CV):\t%s\n", formatMoney(m.CostVariance))
	fmt.Fprintf(w, "Schedule variance (SV):\t%s\n", formatMoney(m.ScheduleVariance))
	fmt.Fprintf(w, "CPI:\t%s\n", formatIndex(m.CostPerformanceIndex))
	fmt.Fprintf(w, "SPI:\t%s\n", formatIndex(m.SchedulePerformanceIndex))
	w.Flush()
	return nil
}

func newEVMHistoryCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "history <project>",
		Short: "List stored earned value snapshots, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEVMHistory(cmd, configPath, args[0])
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

func runEVMHistory(cmd *cobra.Command, configPath, project string) error {
	_, st, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	history, err := evm.List(cmd.Context(), st, project)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(history) == 0 {
		fmt.Fprintf(out, "No EVM snapshots for project %s.\n", project)
		return nil
	}
	printEVMHistory(out, history)
	return nil
}

func printEVMHistory(out io.Writer, history []models.EarnedValueMetric) {
	w := newTable(out)
	fmt.Fprintln(w, "DATE\tPV\tEV\tAC\tCV\tSV\tCPI\tSPI")
	for _, m := range history {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			m.MeasurementDate.Format(dateLayout),
			formatMoney(m.PlannedValue), formatMoney(m.EarnedValue), formatMoney(m.ActualCost),
			formatMoney(m.CostVariance), formatMoney(m.ScheduleVariance),
			formatIndex(m.CostPerformanceIndex), formatIndex(m.SchedulePerformanceIndex))
	}
	w.Flush()
}
