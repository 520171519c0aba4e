package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"clicker/internal/app"
	"clicker/internal/config"
	"clicker/internal/console"
	"clicker/internal/hotkey"
	"clicker/internal/input"
	"clicker/internal/logging"
)

func main() {
	os.Exit(run())
}

func run() int {
	program := filepath.Base(os.Args[0])
	opts, err := config.ParseCLI(os.Args[1:], os.Stderr)
	if err != nil {
		return 2
	}
	if opts.ShowHelp {
		config.Usage(os.Stderr, program)
		return 0
	}
	if opts.SaveDefault != "" {
		if err := config.SaveDefault(opts.SaveDefault); err != nil {
			fmt.Printf("[main] failed to write default config: %v\n", err)
			return 1
		}
		fmt.Printf("[main] default config written to %s\n", opts.SaveDefault)
		return 0
	}

	cfg, err := loadConfigWithFallback(opts)
	if err != nil {
		fmt.Printf("[main] %v\n", err)
		return 1
	}
	config.ApplyCLI(&cfg, opts)
	if err := cfg.Validate(); err != nil {
		fmt.Printf("[main] invalid config: %v\n", err)
		return 1
	}

	logger, err := logging.New(logging.Options{
		Level:  cfg.EffectiveLogLevel(),
		Format: cfg.LogFormat,
		Output: os.Stderr,
	})
	if err != nil {
		fmt.Printf("[main] %v\n", err)
		return 1
	}

	action, err := input.New(cfg)
	if err != nil {
		logger.Error("failed to create action", "action", cfg.Action, "error", err)
		return 1
	}

	listener, err := hotkey.NewListener(hotkey.Options{UseHook: cfg.HotKeyHook, Logger: logger})
	if err != nil {
		logger.Warn("global hotkeys unavailable", "error", err)
		listener = nil
	} else {
		defer listener.Close()
	}

	application, err := app.New(cfg, action, listener, logger, os.Stdout)
	if err != nil {
		logger.Error("failed to create app", "error", err)
		return 1
	}
	defer application.Close()

	if err := application.Start(); err != nil {
		if !cfg.Console {
			logger.Error("nothing can control the clicker", "error", err)
			return 1
		}
		logger.Warn("toggle hotkey unavailable, use the console", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Console {
		go func() {
			err := console.Run(ctx, os.Stdin, os.Stdout, application)
			switch {
			case err == nil:
				stop()
			case errors.Is(err, io.EOF):
				logger.Info("console input closed, hotkeys stay active")
			case ctx.Err() == nil:
				logger.Warn("console stopped", "error", err)
			}
		}()
	}

	fmt.Printf("[main] ready. %s toggles %s. Ctrl+C to exit.\n", cfg.Hotkey, action)
	<-ctx.Done()
	fmt.Println("[main] exiting")
	return 0
}

func loadConfigWithFallback(opts config.CLIOptions) (config.Config, error) {
	if opts.ConfigPath != "" {
		return config.Load(opts.ConfigPath)
	}
	if _, err := os.Stat("config.json"); err == nil {
		return config.Load("config.json")
	} else if os.IsNotExist(err) {
		return config.Default(), nil
	} else {
		return config.Config{}, fmt.Errorf("stat config.json failed: %w", err)
	}
}
