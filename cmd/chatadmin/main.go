package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/matheus3301/chatadmin/internal/bus"
	"github.com/matheus3301/chatadmin/internal/config"
	"github.com/matheus3301/chatadmin/internal/console"
	"github.com/matheus3301/chatadmin/internal/logging"
	"github.com/matheus3301/chatadmin/internal/profile"
	"github.com/matheus3301/chatadmin/internal/status"
	"github.com/matheus3301/chatadmin/internal/tui"
	"github.com/matheus3301/chatadmin/internal/tui/client"
	"github.com/matheus3301/chatadmin/internal/tui/model"
)

func main() {
	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	configFlag := flag.String("config", "", "config file (default ~/.chatadmin/config.toml)")
	noStart := flag.Bool("no-start", false, "do not start the daemon when it is not running")
	flag.Parse()

	configPath := *configFlag
	if configPath == "" {
		configPath = profile.ConfigPath()
	}
	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	profileName := profile.Resolve(*profileFlag, cfg)
	if err := profile.ValidateName(profileName); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// The terminal belongs to the UI, so logs only go to the file.
	logger, err := logging.New(profile.ConsoleLogPath(profileName), "chatadmin", profileName, logging.Options{
		Level: cfg.Daemon.LogLevel,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: open log: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	// A started daemon logs to its own file; its stderr would draw over the UI.
	c, err := client.Connect(profileName, client.Options{AutoStart: !*noStart})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = c.Close() }()

	vm, err := model.New(profileName, cfg.Console, model.Deps{
		Store:   c.Documents,
		Auth:    c.Identity,
		Tokens:  console.ProfileTokens(profileName),
		Daemon:  c.Daemon,
		Machine: status.NewMachine(bus.New()),
		Logger:  logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	logger.Info("console started", zap.String("store", cfg.Store.Driver))
	app := tui.NewApp(vm, logger)
	if err := app.Run(); err != nil {
		logger.Error("console exited", zap.Error(err))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
