// Package worker provides the worker subcommand draining the async queue.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	sd "github.com/coreos/go-systemd/v22/daemon"
	"github.com/spf13/cobra"

	"github.com/geelink/docingest/internal/app"
	"github.com/geelink/docingest/internal/config"
	"github.com/geelink/docingest/internal/queue"
)

// WorkerCmd runs the async ingestion worker in the foreground.
var WorkerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the async ingestion worker",
	Long: "Run the async ingestion worker in the foreground.\n\n" +
		"The worker consumes document ingestion tasks enqueued by the API's " +
		"/upload_async endpoint and pushes them through the same pipeline the " +
		"synchronous endpoints use. Requires redis.broker_url to be configured.",
	Example: `  # Run the worker against the configured broker
  docingest worker`,
	PreRunE: validateWorker,
	RunE:    runWorker,
}

func validateWorker(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	return nil
}

func runWorker(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	logger := slog.Default()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to assemble service; %w", err)
	}

	w, err := queue.NewWorker(cfg.Redis.BrokerURL, cfg.Pipeline.MaxWorkers, application, logger)
	if err != nil {
		return fmt.Errorf("failed to start worker; %w", err)
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutting down worker")
		_, _ = sd.SdNotify(false, sd.SdNotifyStopping)
		w.Shutdown()
	}()

	logger.Info("worker consuming tasks", "broker", cfg.Redis.BrokerURL)
	_, _ = sd.SdNotify(false, sd.SdNotifyReady)

	if err := w.Run(); err != nil {
		return fmt.Errorf("worker error; %w", err)
	}
	return nil
}
