package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/cloudcarver/taskbot/pkg/config"
	"github.com/cloudcarver/taskbot/pkg/core/bot"
	"github.com/cloudcarver/taskbot/pkg/core/dispatcher"
	"github.com/cloudcarver/taskbot/pkg/core/guildconf"
	"github.com/cloudcarver/taskbot/pkg/core/session"
	"github.com/cloudcarver/taskbot/pkg/core/task"
	"github.com/cloudcarver/taskbot/pkg/keepalive"
)

var version = "dev"

func main() {
	app := &cli.App{
		Name:    "taskbot",
		Usage:   "Discord task list bot",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file path",
				Value:   "./taskbot.yaml",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Connect to Discord and serve commands",
				Action: runServe,
			},
			{
				Name:   "local",
				Usage:  "Run a local stdin REPL against the task store",
				Action: runLocal,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if cfg.Discord.Token == "" {
		return errors.Errorf("discord token is required (set %s)", config.EnvDiscordToken)
	}

	logger, err := newLogger(cfg.Log.Level)
	if err != nil {
		return err
	}
	defer logger.Sync()

	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	guilds, err := guildconf.Open(cfg.Guilds.Path)
	if err != nil {
		return err
	}
	sm, err := session.NewMemoryManager()
	if err != nil {
		return err
	}

	disp, err := dispatcher.New(store, guilds, sm, logger)
	if err != nil {
		return err
	}
	discordBot, err := bot.NewDiscordBot(cfg.Discord.Token, cfg.Discord.Prefix, logger)
	if err != nil {
		return err
	}
	discordBot.RegisterHandler(disp)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := keepalive.New(cfg.HTTP.Port, store, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("keep-alive server stopped", zap.Error(err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("keep-alive shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("taskbot started", zap.String("version", version))
	return discordBot.Start(ctx)
}

func runLocal(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer logger.Sync()

	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	sm, err := session.NewMemoryManager()
	if err != nil {
		return err
	}
	disp, err := dispatcher.New(store, nil, sm, logger)
	if err != nil {
		return err
	}

	cliBot, err := bot.NewCLIBot(os.Stdin, os.Stdout)
	if err != nil {
		return err
	}
	cliBot.RegisterHandler(disp)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println("taskbot local REPL - type `help` for commands, Ctrl-D to quit")
	return cliBot.Run(ctx)
}

// openStore opens the file store, optionally setting the corrupt file
// aside and starting empty when store.reset_on_corrupt is enabled.
func openStore(cfg config.Config, logger *zap.Logger) (*task.FileStore, error) {
	store, err := task.OpenFileStore(cfg.Store.Path)
	if err == nil {
		return store, nil
	}
	if !errors.Is(err, task.ErrCorruptStore) || !cfg.Store.ResetOnCorrupt {
		return nil, err
	}

	backup := cfg.Store.Path + ".corrupt"
	logger.Warn("task store is corrupt, starting empty",
		zap.String("path", cfg.Store.Path),
		zap.String("backup", backup),
		zap.Error(err))
	if err := os.Rename(cfg.Store.Path, backup); err != nil {
		return nil, errors.Wrap(err, "failed to set corrupt store aside")
	}
	return task.OpenFileStore(cfg.Store.Path)
}

func newLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid log level %q", level)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	return cfg.Build()
}
