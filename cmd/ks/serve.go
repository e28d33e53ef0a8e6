package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/zulandar/keystone/internal/api"
	"github.com/zulandar/keystone/internal/db"
	"github.com/zulandar/keystone/internal/evm"
	"github.com/zulandar/keystone/internal/scan"
	"github.com/zulandar/keystone/internal/timeline"
	"go.uber.org/zap"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Keystone HTTP API",
		Long: `Starts the JSON API used by the scheduling UI. When scan.schedule is set
in config, milestone auto-completion and alert generation also run on that
cron schedule for every project.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath, port)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (overrides server.port)")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string, port int) error {
	cfg, st, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(st.DB()); err != nil {
		return err
	}
	if port <= 0 {
		port = cfg.Server.Port
	}

	logger, err := loggerFromConfig(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	notifier, err := notifierFromConfig(cfg, logger)
	if err != nil {
		return err
	}
	alerts := alertOpts(cfg, logger, notifier)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(cmd.OutOrStdout(), "\nReceived %s, shutting down...\n", sig)
		cancel()
	}()

	if cfg.Scan.Schedule != "" {
		loc, err := cfg.Scan.Location()
		if err != nil {
			return fmt.Errorf("scan timezone: %w", err)
		}
		sched, err := scan.NewScheduler(cfg.Scan.Schedule, loc, &scan.Runner{
			Store:  st,
			Alerts: alerts,
			Logger: logger,
		})
		if err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
		logger.Info("periodic scan enabled",
			zap.String("schedule", cfg.Scan.Schedule),
			zap.String("timezone", loc.String()))
	}

	return api.Start(ctx, api.StartOpts{
		Store:     st,
		Port:      port,
		Out:       cmd.OutOrStdout(),
		Logger:    logger,
		Theme:     timeline.ParseTheme(cfg.Theme),
		Weighting: evm.ParseWeighting(cfg.EVM.Weighting),
		Alerts:    alerts,
		Notifier:  notifier,
	})
}
