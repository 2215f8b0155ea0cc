package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/akolanti/GoRAG/internal/app"
	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/internal/handlers"
	"github.com/akolanti/GoRAG/internal/mcpserver"
	"github.com/akolanti/GoRAG/internal/middleware"
	"github.com/akolanti/GoRAG/internal/server"
	"github.com/akolanti/GoRAG/pkg/logger_i"
)

func main() {
	var configPath, listenAddr string
	flag.StringVar(&configPath, "config", "", "path to a YAML config file")
	flag.StringVar(&listenAddr, "listen-addr", "", "server listen address")
	flag.Parse()

	settings, err := config.Load(configPath)
	if err != nil {
		logger_i.Init("")
		logger_i.NewLogger("main").Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	if listenAddr != "" {
		settings.ListenAddr = listenAddr
	}
	logger_i.Init(settings.LogLevel)
	logger := logger_i.NewLogger("main")

	engine, err := app.New(context.Background(), settings, app.Options{Workers: true})
	if err != nil {
		logger.Error("Engine failed to start", "error", err)
		os.Exit(1)
	}

	mcpServer, err := mcpserver.New(engine.RAG)
	if err != nil {
		logger.Error("MCP server failed to start", "error", err)
		os.Exit(1)
	}

	router := server.NewRouter(server.Routes{
		Handler: handlers.NewHandler(engine.RAG, engine.Jobs, engine.Indexer),
		Chain: middleware.New(middleware.Options{
			AuthToken:    settings.AuthToken,
			NoAuthBypass: settings.NoAuthBypass,
		}),
		MCP: mcpServer.Handler(),
	})
	srv := server.New(settings.ListenAddr, router)

	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	go srv.ShutDownHandler(server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		CloseServices:    engine.Close,
	})
	go func() {
		if err := srv.CreateServer(); err != nil {
			gracefulShutdown <- syscall.SIGTERM
		}
	}()

	<-stopExecution
	logger.Info("Server stopped")
}
