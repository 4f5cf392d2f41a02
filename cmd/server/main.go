// Command server runs the HTTP gateway (spec §6) that fronts the Ticket
// Conductor's signal/query surface for UI clients. It connects to Temporal
// as a client only — no worker, no activity/workflow registration — since
// every workflow it talks to is already running under cmd/worker.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.temporal.io/sdk/client"

	cluelog "goa.design/clue/log"

	"github.com/ticketflow/conductor/config"
	enginetemporal "github.com/ticketflow/conductor/engine/temporal"
	"github.com/ticketflow/conductor/telemetry"
	transporthttp "github.com/ticketflow/conductor/transport/http"
)

func main() {
	format := cluelog.FormatJSON
	if cluelog.IsTerminal() {
		format = cluelog.FormatTerminal
	}
	ctx := cluelog.Context(context.Background(), cluelog.WithFormat(format))

	if err := run(ctx); err != nil {
		cluelog.Error(ctx, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.LoadFile(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	temporalClient, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.Address,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		return fmt.Errorf("dial temporal: %w", err)
	}
	defer temporalClient.Close()

	logger := telemetry.NewClueLogger()
	eng, err := enginetemporal.New(enginetemporal.Options{
		Client:    temporalClient,
		TaskQueue: cfg.Temporal.TaskQueue,
		Logger:    logger,
		Metrics:   telemetry.NewClueMetrics(),
		Tracer:    telemetry.NewClueTracer(),
	})
	if err != nil {
		return fmt.Errorf("construct engine: %w", err)
	}

	srv := transporthttp.NewServer(eng, logger)
	httpSrv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()

	cluelog.Print(ctx, cluelog.KV{K: "addr", V: cfg.HTTP.Addr})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("serve http: %w", err)
		}
	case <-sigCh:
		cluelog.Print(ctx, cluelog.KV{K: "msg", V: "shutting down"})
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	}
	return nil
}
