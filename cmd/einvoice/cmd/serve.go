package cmd

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rezonia/einvoice-extractor/internal/config"
	"github.com/rezonia/einvoice-extractor/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start an HTTP API server for extracting e-invoices.

The API provides endpoints for:
  - POST /api/v1/extract/pdf    - Extract a PDF invoice
  - POST /api/v1/extract/xml    - Extract a CII XML invoice
  - POST /api/v1/extract/auto   - Auto-detect and extract
  - POST /api/v1/extract/batch  - Extract multipart uploaded files
  - POST /api/v1/info           - Get file information
  - GET  /health                - Health check

Every flag can also be set as EINVOICE_<FLAG>, e.g. EINVOICE_ADDRESS=:9090.

Examples:
  # Start server on default port
  einvoice serve

  # Start on custom port
  einvoice serve --address :9090

  # Start in debug mode
  einvoice serve --debug`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("address", config.DefaultAddress, "Server listen address")
	serveCmd.Flags().Bool("debug", false, "Enable debug mode")
	serveCmd.Flags().Duration("read-timeout", config.DefaultReadTimeout, "HTTP read timeout")
	serveCmd.Flags().Duration("write-timeout", config.DefaultWriteTimeout, "HTTP write timeout")
	serveCmd.Flags().Int64("max-body-bytes", config.DefaultMaxBodyBytes, "Maximum request body size")
	serveCmd.Flags().Duration("rate-limit-every", config.DefaultRateLimitEvery, "Interval between requests per client")
	serveCmd.Flags().Int("rate-limit-burst", config.DefaultRateLimitBurst, "Request burst per client")
	serveCmd.Flags().String("pdf-password", "", "Default password for encrypted PDFs")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.NewServer(server.ConfigFrom(cfg), server.WithLogger(logger))

	fmt.Printf("Starting server on %s\n", cfg.Address)
	start := time.Now()

	if err := srv.Run(ctx); err != nil {
		return err
	}

	fmt.Printf("Server stopped after %s\n", time.Since(start).Round(time.Second))
	return nil
}
