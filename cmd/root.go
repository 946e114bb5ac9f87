package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/geelink/docingest/cmd/serve"
	"github.com/geelink/docingest/cmd/version"
	"github.com/geelink/docingest/cmd/worker"
	"github.com/geelink/docingest/internal/config"
	"github.com/geelink/docingest/internal/logging"
)

// logManager is the global logging manager, created in init() and upgraded after config loads
var logManager *logging.Manager

var configPath string

var docingestCmd = &cobra.Command{
	Use:   "docingest",
	Short: "A document ingestion pipeline for search and retrieval",
	Long: "Docingest ingests documents from files, inline text, URIs, mailboxes, and " +
		"websites, extracts and cleans their text, chunks and embeds it, and writes " +
		"the results to a Solr collection and a local vector store.\n\n" +
		"The serve subcommand runs the HTTP API; the worker subcommand drains the " +
		"async ingestion queue.",
	PersistentPreRunE: runInitialize,
}

func init() {
	logManager = logging.NewManager()

	docingestCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"path to config file (default: search DOCINGEST_CONFIG_DIR, ~/.config/docingest, .)")

	docingestCmd.AddCommand(serve.ServeCmd)
	docingestCmd.AddCommand(worker.WorkerCmd)
	docingestCmd.AddCommand(version.VersionCmd)
}

func runInitialize(cmd *cobra.Command, args []string) error {
	logger := logManager.Logger()

	var err error
	if configPath != "" {
		err = config.InitFromPath(configPath)
	} else {
		err = config.Init()
	}
	if err != nil {
		return err
	}

	cfg := config.Get()
	level, ok := logging.ParseLevel(cfg.LogLevel)
	if !ok {
		level = logging.DefaultLevel
		if cfg.LogLevel != "" {
			logger.Warn("invalid log level configured, using default", "configured", cfg.LogLevel, "default", "info")
		}
	}
	if cfg.Debug && level > slog.LevelDebug {
		level = slog.LevelDebug
	}

	if err := logManager.Upgrade(cfg.LogFile, level); err != nil {
		logger.Warn("failed to enable file logging, continuing with stderr only", "error", err)
	}

	// Component loggers are derived from the default.
	slog.SetDefault(logManager.Logger())
	return nil
}

func Execute() error {
	docingestCmd.SilenceErrors = true
	docingestCmd.SilenceUsage = true

	defer func() { _ = logManager.Close() }()

	err := docingestCmd.Execute()

	if err != nil {
		cmd, _, _ := docingestCmd.Find(os.Args[1:])
		if cmd == nil {
			cmd = docingestCmd
		}

		fmt.Printf("Error: %v\n", err)
		if !cmd.SilenceUsage {
			fmt.Printf("\n")
			cmd.SetOut(os.Stdout)
			_ = cmd.Usage()
		}

		return err
	}

	return nil
}
