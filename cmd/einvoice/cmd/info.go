package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rezonia/einvoice-extractor/internal/processor"
)

var infoCmd = &cobra.Command{
	Use:   "info [files...]",
	Short: "Show information about invoice files",
	Long: `Display information about invoice files without full extraction.

Shows:
  - Detected file format and media type
  - Embedded attachments (PDF)
  - Root element and profile (XML or the PDF attachment)
  - The problem that would stop extraction, if any

Examples:
  einvoice info invoice.pdf
  einvoice info *.xml`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)

	infoCmd.Flags().StringVar(&password, "password", "", "Password for encrypted PDFs (env: EINVOICE_PDF_PASSWORD)")
}

func runInfo(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return err
	}

	if len(files) == 0 {
		return fmt.Errorf("no files found")
	}

	pw := password
	if pw == "" {
		pw = cfg.PDFPassword
	}
	pipeline := processor.NewPipeline(processor.WithLogger(logger))

	for _, file := range files {
		printFileInfo(cmd.Context(), pipeline, file, pw)
		fmt.Println()
	}

	return nil
}

func printFileInfo(ctx context.Context, pipeline *processor.Pipeline, filePath, pw string) {
	fmt.Printf("File: %s\n", filePath)

	// Get file info
	stat, err := os.Stat(filePath)
	if err != nil {
		fmt.Printf("  Error: %v\n", err)
		return
	}

	fmt.Printf("  Modified: %s\n", stat.ModTime().Format("2006-01-02 15:04:05"))

	data, err := os.ReadFile(filePath)
	if err != nil {
		fmt.Printf("  Error reading file: %v\n", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	info, err := pipeline.Inspect(ctx, data, pw)
	if err != nil {
		fmt.Printf("  Error: %v\n", err)
		return
	}

	fmt.Printf("  Size: %d bytes\n", info.Size)
	fmt.Printf("  Format: %s (%s)\n", strings.ToUpper(info.Format.String()), info.MIME)

	if info.Format == processor.FormatPDF {
		fmt.Printf("  Attachments: %d\n", len(info.Attachments))
		for _, a := range info.Attachments {
			marker := " "
			if a.Known {
				marker = "*"
			}
			fmt.Printf("   %s %s (%d bytes)\n", marker, a.FileName, a.Size)
		}
		if info.Attachment != "" {
			fmt.Printf("  Invoice attachment: %s\n", info.Attachment)
		}
	}

	if info.Root != "" {
		fmt.Printf("  Root: %s\n", info.Root)
	}
	if info.ProfileURN != "" {
		fmt.Printf("  Profile URN: %s\n", info.ProfileURN)
	}
	if info.Profile != "" {
		fmt.Printf("  Profile: %s\n", info.Profile)
	}
	if info.Problem != "" {
		fmt.Printf("  Problem: %s\n", info.Problem)
	}
}
