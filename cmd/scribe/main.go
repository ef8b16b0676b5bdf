package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/scribehq/scribe/pkg/api"
	"github.com/scribehq/scribe/pkg/config"
	"github.com/scribehq/scribe/pkg/log"
	"github.com/scribehq/scribe/pkg/manager"
	"github.com/scribehq/scribe/pkg/metrics"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "scribe",
	Short: "Scribe - Session recording and replay for technical assessments",
	Long: `Scribe records everything that happens during a technical assessment
session as an append-only event log and serves it back as an ordered
replay with a display timeline and aggregate metrics.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Scribe version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("server", "", "Server URL (defaults to SCRIBE_SERVER_URL)")
	rootCmd.PersistentFlags().String("token", "", "Bearer token (defaults to SCRIBE_AUTH_TOKEN)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(replayCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Scribe API server",
	Long: `Start the event store and serve the recording and replay API.

Configuration comes from built-in defaults, an optional YAML file, and
SCRIBE_* environment variables, in that order of precedence.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgPath, _ := cmd.Flags().GetString("config")

		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		api.Version = Version

		log.Init(log.Config{
			Level:      log.Level(cfg.LogLevel),
			JSONOutput: cfg.LogJSON,
		})

		mgr, err := manager.NewManager(&manager.Config{DataDir: cfg.DataDir})
		if err != nil {
			return fmt.Errorf("failed to create manager: %v", err)
		}

		collector := metrics.NewCollector(mgr.Store())
		collector.Start()

		apiServer := api.NewServer(mgr, cfg.AuthToken)
		errCh := make(chan error, 1)
		go func() {
			if err := apiServer.Start(cfg.ListenAddr); err != nil {
				errCh <- fmt.Errorf("API server error: %v", err)
			}
		}()

		fmt.Printf("Scribe is listening on %s. Press Ctrl+C to stop.\n", cfg.ListenAddr)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		select {
		case <-sigCh:
			fmt.Println("\nShutting down...")
		case err := <-errCh:
			fmt.Fprintf(os.Stderr, "\nError: %v\n", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := apiServer.Stop(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error stopping API server: %v\n", err)
		}
		collector.Stop()
		if err := mgr.Shutdown(); err != nil {
			return fmt.Errorf("failed to shutdown: %v", err)
		}

		fmt.Println("✓ Shutdown complete")
		return nil
	},
}

func init() {
	serveCmd.Flags().String("config", "", "Path to YAML config file")
}
