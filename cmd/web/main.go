package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"vendtune/internal/app"
)

func main() {
	application, err := app.NewApplication()
	if err != nil {
		slog.Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- application.Start()
	}()

	select {
	case <-ctx.Done():
		stop()
	case err := <-errCh:
		if err != nil {
			slog.Error("Server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
		return
	}

	if err := application.Shutdown(context.Background()); err != nil {
		slog.Error("Shutdown error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
