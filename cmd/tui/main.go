package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskapp/internal/app"
	"taskapp/internal/config"
	"taskapp/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	if err := run(); err != nil {
		log.Printf("tui: %v", err)
		fmt.Fprintln(os.Stderr, "Failed to start the task app. Check the log for details.")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	f, err := tea.LogToFile(cfg.UI.LogFile, "taskapp")
	if err != nil {
		return fmt.Errorf("log file: %w", err)
	}
	defer f.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("app init: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = application.Close(closeCtx)
	}()

	deps := application.Deps()
	a := ui.New(ui.Deps{
		Users:      deps.Users,
		Tasks:      deps.Tasks,
		Cache:      deps.Cache,
		Events:     deps.Events,
		MessageTTL: cfg.UI.MessageTTL.Duration(),
	})
	if err := a.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	return ui.Run(ctx, a)
}
