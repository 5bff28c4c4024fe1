package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// ConfigPath is used when neither --config nor RSALAB_CONFIG is set.
const ConfigPath = "config/rsalab.yaml"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	a := &app{}
	err := newRootCommand(a).ExecuteContext(ctx)
	a.close()
	if err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}
