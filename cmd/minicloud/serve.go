package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/TheMichaelB/minicloud/internal/audit"
	"github.com/TheMichaelB/minicloud/internal/server"
	"github.com/TheMichaelB/minicloud/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the storage server",
	Long: `Serve listens for protocol connections and handles each in its own
worker until interrupted. On SIGINT/SIGTERM the listener closes and
in-flight transfers are drained before exit.`,
	Example: `  minicloud serve --listen :8080 --root ./storage
  minicloud serve --config minicloud.yaml`,
	RunE: runServe,
}

var (
	serveListen  string
	serveRoot    string
	serveAuditDB string
	drainTimeout time.Duration
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveListen, "listen", "l", "",
		"Listen address (overrides config)")
	serveCmd.Flags().StringVarP(&serveRoot, "root", "r", "",
		"Storage root directory (overrides config)")
	serveCmd.Flags().StringVar(&serveAuditDB, "audit-db", "",
		"Enable the operation journal at this SQLite path")
	serveCmd.Flags().DurationVar(&drainTimeout, "drain-timeout", 30*time.Second,
		"How long to wait for in-flight connections on shutdown")
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveListen != "" {
		cfg.Server.Listen = serveListen
	}
	if serveRoot != "" {
		cfg.Storage.Root = serveRoot
	}
	if serveAuditDB != "" {
		cfg.Audit.Enabled = true
		cfg.Audit.Path = serveAuditDB
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	store, err := storage.New(cfg.Storage.Root, logger)
	if err != nil {
		return err
	}

	recorder := audit.Recorder(audit.Nop())
	if cfg.Audit.Enabled {
		recorder, err = audit.NewSQLite(cfg.Audit.Path, logger)
		if err != nil {
			return fmt.Errorf("open audit journal: %w", err)
		}
	}
	defer recorder.Close()

	// Bind/listen failures are fatal to the process; per-connection
	// failures never are.
	ln, err := server.Listen(&cfg.Server)
	if err != nil {
		return err
	}

	srv := server.New(&cfg.Storage, store, recorder, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, draining connections")
		cancel()
	}()

	logger.WithFields(map[string]interface{}{
		"listen": cfg.Server.Listen,
		"root":   store.Root(),
	}).Info("Starting minicloud server")

	if err := srv.Serve(ctx, ln); err != nil {
		return err
	}

	// Let in-flight sessions finish independently, up to the drain window.
	done := make(chan struct{})
	go func() {
		srv.Wait()
		close(done)
	}()
	select {
	case <-done:
		logger.Info("All connections drained")
	case <-time.After(drainTimeout):
		logger.Warn("Drain timeout reached, exiting with connections open")
	}

	return nil
}
