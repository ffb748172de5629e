// Package main is the entry point for the tasktracker CLI.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"tasktracker/internal/api"
	"tasktracker/internal/cli"
	"tasktracker/internal/commands"
	"tasktracker/internal/config"
	"tasktracker/internal/service"
	"tasktracker/internal/session"
)

func main() {
	// Create context that cancels on interrupt
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	factory := func(ctx context.Context, cfg *config.Config) (service.Service, error) {
		if err := cfg.EnsureDir(); err != nil {
			return nil, fmt.Errorf("create config directory: %w", err)
		}
		return api.New(api.Options{
			BaseURL:    cfg.APIURL,
			HTTPClient: &http.Client{Timeout: cfg.Timeout},
			Store:      session.NewFileStore(cfg.SessionPath()),
			Logger:     cfg.Logger(cfg.LogOutput),
		})
	}

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, factory)

	// Run and exit with code
	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}
