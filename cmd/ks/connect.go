package main

import (
	"fmt"

	"github.com/zulandar/keystone/internal/alert"
	"github.com/zulandar/keystone/internal/config"
	"github.com/zulandar/keystone/internal/db"
	"github.com/zulandar/keystone/internal/logging"
	"github.com/zulandar/keystone/internal/notify"
	"github.com/zulandar/keystone/internal/notify/discord"
	"github.com/zulandar/keystone/internal/notify/slack"
	"github.com/zulandar/keystone/internal/store"
	"go.uber.org/zap"
)

// connectFromConfig loads the config and opens the store it points at.
func connectFromConfig(configPath string) (*config.Config, *store.Store, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to %s: %w", describeDB(cfg.Database), err)
	}
	return cfg, store.New(gormDB), nil
}

func describeDB(c config.DatabaseConfig) string {
	if c.Driver == "mysql" {
		return fmt.Sprintf("mysql %s:%d/%s", c.Host, c.Port, c.Name)
	}
	return "sqlite " + c.Path
}

func loggerFromConfig(cfg *config.Config) (*zap.Logger, error) {
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return logger, nil
}

// notifierFromConfig builds the chat notifiers enabled in cfg. It returns nil
// when none are configured.
func notifierFromConfig(cfg *config.Config, logger *zap.Logger) (notify.Notifier, error) {
	var multi notify.Multi
	if c := cfg.Notify.Slack; c.Enabled() {
		n, err := slack.New(slack.Opts{BotToken: c.BotToken, ChannelID: c.ChannelID})
		if err != nil {
			return nil, err
		}
		multi = append(multi, n)
	}
	if c := cfg.Notify.Discord; c.Enabled() {
		n, err := discord.New(discord.Opts{BotToken: c.BotToken, ChannelID: c.ChannelID, Logger: logger})
		if err != nil {
			return nil, err
		}
		multi = append(multi, n)
	}
	if len(multi) == 0 {
		return nil, nil
	}
	return multi, nil
}

// alertOpts maps the alerts config section onto generator options.
func alertOpts(cfg *config.Config, logger *zap.Logger, n notify.Notifier) alert.Opts {
	critical := cfg.Alerts.CriticalAfter()
	return alert.Opts{
		LookaheadDays:        cfg.Alerts.LookaheadDays,
		CriticalAfterDays:    &critical,
		DefaultCapacityHours: cfg.Alerts.DefaultCapacityHours,
		Notifier:             n,
		Logger:               logger,
	}
}
