package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zerodice0/youtube-download-gateway/internal/api"
	"github.com/zerodice0/youtube-download-gateway/internal/monitor"
)

var listenAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API.

Endpoints:
  GET /api/info?url=<url>
  GET /api/download?url=<url>&itag=<id>&type=video|audio[&audio_itag=<id>][&title=<name>]
  GET /api/health

Examples:
  youtube-download-gateway serve
  youtube-download-gateway serve --listen 127.0.0.1:9000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&listenAddr, "listen", "l", "", "listen address (default: from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	// Check dependencies
	if err := checkDependencies(); err != nil {
		return fmt.Errorf("dependency check failed:\n  %v", err)
	}

	if listenAddr != "" {
		cfg.Server.ListenAddr = listenAddr
	}

	ctx, stop := getContext()
	defer stop()

	// Remove leftovers of requests that never finished
	mon := monitor.NewMonitor(workspace, cfg.Storage.SweepInterval, cfg.Storage.StaleAfter, log)
	mon.Start(ctx)
	defer mon.Stop()

	srv := api.NewServer(cfg.Server, catalogSvc, downloader, Version, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Infof("[CLI] shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	log.Infof("[CLI] shutdown complete")
	return nil
}
