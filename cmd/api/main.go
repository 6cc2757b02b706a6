// Command api serves the Shayari HTTP API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"

	"github.com/rizwanabrish101/shayari/internal/di"
	"github.com/rizwanabrish101/shayari/internal/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	injector := di.NewContainer()
	if err := di.Bootstrap(injector); err != nil {
		fmt.Fprintf(os.Stderr, "shayari: startup failed: %v\n", err)
		_ = injector.Shutdown()
		return 1
	}

	log := do.MustInvoke[*logger.Logger](injector)
	<-ctx.Done()
	stop()
	log.Info("Signal received, stopping")

	// Reverse dependency order: the HTTP server stops before the stores close.
	if err := injector.Shutdown(); err != nil {
		log.Error("Shutdown incomplete", "error", err)
		return 1
	}
	log.Info("Khuda hafiz")
	return 0
}
