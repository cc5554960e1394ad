package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/config"
	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/database"
	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/resources"
	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/validator"
	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/web"
	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/web/handlers"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the Photo Validator HTTP API.
Batches are started with POST /api/v1/batches and run in the background;
progress is streamed over server-sent events.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Port to listen on (default WEB_PORT or 8080)")
	serveCmd.Flags().String("host", "", "Host to bind to (default WEB_HOST or 0.0.0.0)")
	serveCmd.Flags().String("config", "", "Snapshot YAML file (overrides VALIDATION_CONFIG)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	logger := slog.Default()

	if port := mustGetInt(cmd, "port"); port > 0 {
		cfg.Web.Port = port
	}
	if host := mustGetString(cmd, "host"); host != "" {
		cfg.Web.Host = host
	}

	snap, snapPath, err := loadSnapshot(cmd, cfg)
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}

	closeHistory, err := initHistory(cfg)
	if err != nil {
		return err
	}
	defer closeHistory()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	probe := resources.HostProbe{}
	monitor := resources.NewMonitor(probe, logger)
	monitor.Start(ctx)
	defer monitor.Stop()
	if err := resources.RegisterGauges(monitor); err != nil {
		logger.Warn("host gauges unavailable", "error", err)
	}

	runner := validator.NewRunner(newRegistry(cfg, logger), probe, logger)
	server := web.NewServer(cfg, runner,
		handlers.NewSnapshotStore(snap, snapPath),
		monitor,
		database.GetRunRepository(),
		logger,
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting Photo Validator API on http://%s:%d/api/v1\n", cfg.Web.Host, cfg.Web.Port)
	fmt.Printf("Run history: %s\n", database.BackendName())
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
