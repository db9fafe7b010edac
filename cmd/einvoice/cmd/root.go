package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rezonia/einvoice-extractor/internal/config"
	"github.com/rezonia/einvoice-extractor/internal/logging"
)

var (
	version = "1.0.0"

	// Global flags
	verbose      bool
	outputFormat string

	// Set up before any subcommand runs
	cfg    *config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "einvoice",
	Short: "Extract Factur-X, ZUGFeRD and XRechnung e-invoices",
	Long: `einvoice extracts structured invoice data from CII e-invoices.

Supports:
  - PDF/A-3 hybrids with an embedded CII attachment (Factur-X, ZUGFeRD)
  - Standalone CII XML (XRechnung, Factur-X XML)
  - Profiles MINIMUM, BASIC WL, BASIC, EN 16931 and EXTENDED

Settings can also be given as EINVOICE_* environment variables,
e.g. EINVOICE_PDF_PASSWORD or EINVOICE_LOG_LEVEL.

Examples:
  # Extract a single PDF
  einvoice extract invoice.pdf

  # Extract a directory into a spreadsheet
  einvoice extract invoices/ -f xlsx -o invoices.xlsx

  # Validate invoices
  einvoice validate *.xml`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "json", "Output format (json, yaml, table, csv, xlsx)")
	rootCmd.PersistentFlags().String("log-level", config.DefaultLogLevel, "Log level (debug, info, warn, error) (env: EINVOICE_LOG_LEVEL)")
	rootCmd.PersistentFlags().Int("concurrency", config.DefaultConcurrency, "Files processed in parallel (env: EINVOICE_CONCURRENCY)")
}

// setup loads configuration from defaults, environment and flags and
// builds the logger
func setup(cmd *cobra.Command, args []string) error {
	v := config.New()
	if err := config.BindFlags(v, cmd.Flags()); err != nil {
		return err
	}

	loaded, err := config.Load(v)
	if err != nil {
		return err
	}
	cfg = loaded

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	l, err := logging.New(level, cfg.Debug || verbose)
	if err != nil {
		return err
	}
	logger = l

	return nil
}

func printVerbose(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}
