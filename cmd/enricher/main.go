package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/clipvault/clipvault/cmd/enricher/worker"
	"github.com/clipvault/clipvault/common/bootstrap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Bootstrap common components (DB, logger, redis). The enricher only
	// consumes events, so no dispatcher is started.
	components, err := bootstrap.Setup(ctx, "enricher", bootstrap.WithoutDispatcher())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap enricher: %v\n", err)
		os.Exit(1)
	}
	defer components.Shutdown(context.Background())

	w := worker.New(components, worker.NewStubEnricher())

	if err := w.Run(ctx); err != nil {
		components.Logger.Error("Worker error", "error", err)
		os.Exit(1)
	}
}
