// Package serve provides the serve subcommand running the HTTP API.
package serve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sd "github.com/coreos/go-systemd/v22/daemon"
	"github.com/spf13/cobra"

	"github.com/geelink/docingest/internal/app"
	"github.com/geelink/docingest/internal/config"
	"github.com/geelink/docingest/internal/queue"
	"github.com/geelink/docingest/internal/server"
)

// ServeCmd runs the HTTP API in the foreground.
var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the ingestion HTTP API",
	Long: "Run the ingestion HTTP API in the foreground.\n\n" +
		"The server exposes synchronous upload and ingest endpoints, email " +
		"ingestion, an async enqueue variant backed by Redis, and Prometheus " +
		"metrics at /metrics. Use standard backgrounding methods or a service " +
		"runner (systemd, launchd) to run it in the background.",
	Example: `  # Run the API on the configured bind/port
  docingest serve

  # Run with an explicit config file
  docingest serve --config /etc/docingest/config.yaml`,
	PreRunE: validateServe,
	RunE:    runServe,
}

func validateServe(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	logger := slog.Default()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to assemble service; %w", err)
	}

	queueClient, err := queue.NewClient(cfg.Redis.BrokerURL)
	if err != nil {
		logger.Warn("async queue disabled", "error", err)
	}
	defer func() { _ = queueClient.Close() }()

	srv := server.New(cfg, application, queueClient, logger)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Bind, cfg.Server.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s; %w", addr, err)
	}

	httpSrv := &http.Server{
		Handler: srv.Handler(),
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)
	go func() {
		if err := httpSrv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	logger.Info("serving http api", "addr", addr)
	_, _ = sd.SdNotify(false, sd.SdNotifyReady)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server error; %w", err)
	case <-ctx.Done():
	}

	_, _ = sd.SdNotify(false, sd.SdNotifyStopping)
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown http server; %w", err)
	}
	return nil
}
