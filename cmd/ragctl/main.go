package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/akolanti/GoRAG/internal/app"
	"github.com/akolanti/GoRAG/internal/cli"
	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/pkg/logger_i"
)

func open(ctx context.Context, configPath string) (cli.Backend, error) {
	settings, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	level := settings.LogLevel
	if level == "" {
		level = "warn"
	}
	logger_i.Init(level)
	return app.New(ctx, settings, app.Options{})
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand(open).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
