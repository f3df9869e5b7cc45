package main

import (
	"battlearena/lib/config"
	"battlearena/lib/maintenance"
	"battlearena/lib/server"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("cannot load configuration: %s", err))
	}

	log_file, err := maintenance.InitLogger(cfg.LogFile, maintenance.ParseLevel(cfg.LogLevel))
	if err != nil {
		panic(fmt.Sprintf("cannot init logger: %s", err))
	}
	defer log_file.Close()

	server, err := server.New(cfg)
	if err != nil {
		panic(fmt.Sprintf("cannot start server: %s", err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server.Start(ctx)

	go func() {
		<-ctx.Done()
		slog.Info("Shutting down")
		if err := server.Shutdown(); err != nil {
			slog.Error("Shutdown failed", "error", err)
		}
	}()

	if err := server.Listen(fmt.Sprintf(":%d", cfg.Port)); err != nil {
		panic(fmt.Sprintf("cannot start server: %s", err))
	}
}
