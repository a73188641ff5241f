// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/search-aggregator/internal/api"
)

// shutdownTimeout bounds how long serve waits for in-flight requests.
const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP search API",
	Long: `Serve starts the HTTP API:

  GET    /v1/search/{vertical}?query=...            run a search
  GET    /v1/search/doc/{id}                        fetch a raw document
  GET    /v1/providers                              list providers and capabilities
  GET    /v1/sessions/{sessionId}/bookmarks         list session bookmarks
  PUT    /v1/sessions/{sessionId}/bookmarks/{docId} bookmark or exclude a document
  DELETE /v1/sessions/{sessionId}/bookmarks/{docId} remove a bookmark
  POST   /v1/sessions/{sessionId}/annotations/{docId}
  PUT    /v1/sessions/{sessionId}/ratings/{docId}
  POST   /v1/sessions/{sessionId}/views
  GET    /health                                    dependency health
  GET    /metrics                                   Prometheus metrics`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := appConfig
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		cfg.Server.Port = port
	}
	logger := slog.Default()

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	server := api.NewServer(cfg.Server, a.svc, a.checks, logger, a.metrics).WithFeatures(a.store)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return serveUntil(ctx, server, shutdownTimeout, logger)
}

// serveUntil runs server until ctx is done, then shuts it down and returns
// only after in-flight requests have drained or timeout has passed.
func serveUntil(ctx context.Context, server *api.Server, timeout time.Duration, logger *slog.Logger) error {
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		<-ctx.Done()

		logger.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := server.Stop(sctx); err != nil {
			logger.Error("server shutdown", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-drained
	logger.Info("server stopped")
	return nil
}

func init() {
	serveCmd.Flags().Int("port", 0, "listen port (overrides server.port)")

	rootCmd.AddCommand(serveCmd)
}
