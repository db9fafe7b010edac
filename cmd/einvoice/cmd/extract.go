package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rezonia/einvoice-extractor/internal/export"
	"github.com/rezonia/einvoice-extractor/internal/model"
	"github.com/rezonia/einvoice-extractor/internal/processor"
)

var (
	outputFile string
	timeout    time.Duration
	password   string
	rawJSON    bool
	rawXML     bool
	failFast   bool
)

var extractCmd = &cobra.Command{
	Use:   "extract [files...]",
	Short: "Extract invoice files",
	Long: `Extract one or more e-invoice files into the canonical invoice model.

Supported inputs:
  - PDF: .pdf with an embedded factur-x.xml, zugferd-invoice.xml,
    ZUGFeRD-invoice.xml or xrechnung.xml attachment
  - XML: .xml CII documents

Output modes:
  - default: mapped and validated invoice
  - --raw-json: namespace-stripped element tree, not validated
  - --raw-xml: the source XML (base64 for PDF attachments)

Examples:
  einvoice extract invoice.pdf
  einvoice extract secret.pdf --password s3cret
  einvoice extract *.xml -o results.json
  einvoice extract invoices/ -f table
  einvoice extract invoices/ -f xlsx -o invoices.xlsx`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	extractCmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "Processing timeout for all files")
	extractCmd.Flags().StringVar(&password, "password", "", "Password for encrypted PDFs (env: EINVOICE_PDF_PASSWORD)")
	extractCmd.Flags().BoolVar(&rawJSON, "raw-json", false, "Return the element tree instead of the mapped invoice")
	extractCmd.Flags().BoolVar(&rawXML, "raw-xml", false, "Return the source XML (wins over --raw-json)")
	extractCmd.Flags().BoolVar(&failFast, "fail-fast", false, "Stop at the first file that fails")
}

// ExtractResult holds the result of extracting a single file
type ExtractResult struct {
	File   string          `json:"file"`
	Mode   model.Mode      `json:"mode,omitempty"`
	Source string          `json:"source,omitempty"`
	Result any             `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
	Code   model.ErrorCode `json:"code,omitempty"`

	invoice *model.EInvoice
	err     error
}

func runExtract(cmd *cobra.Command, args []string) error {
	mode := processor.ResolveMode(rawJSON, rawXML)
	if mode != model.ModeSimple && isTabular(outputFormat) {
		return fmt.Errorf("format %s needs the mapped invoice; drop --raw-json/--raw-xml", outputFormat)
	}
	if outputFormat == "xlsx" && outputFile == "" {
		return fmt.Errorf("format xlsx requires --output")
	}

	files, err := collectFiles(args)
	if err != nil {
		return err
	}

	if len(files) == 0 {
		return fmt.Errorf("no files found to process")
	}

	printVerbose("Found %d files to process\n", len(files))

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	results, err := extractFiles(ctx, files, mode)
	if err != nil {
		return err
	}

	return outputResults(results)
}

// extractFiles reads and extracts files concurrently. Results keep the
// order of files.
func extractFiles(ctx context.Context, files []string, mode model.Mode) ([]*ExtractResult, error) {
	pw := password
	if pw == "" {
		pw = cfg.PDFPassword
	}

	results := make([]*ExtractResult, len(files))
	items := make([]processor.Item, 0, len(files))
	slots := make([]int, 0, len(files))

	for i, file := range files {
		results[i] = &ExtractResult{File: file}

		data, err := os.ReadFile(file)
		if err != nil {
			if failFast {
				return nil, fmt.Errorf("failed to read file: %w", err)
			}
			results[i].fail(model.NewInputError("file", "failed to read file", err))
			continue
		}

		items = append(items, processor.Item{Name: filepath.Base(file), Data: data, Password: pw, Mode: mode})
		slots = append(slots, i)
	}

	pipeline := processor.NewPipeline(processor.WithLogger(logger))
	batch, err := pipeline.ExtractBatch(ctx, items, processor.BatchOptions{
		Concurrency:    cfg.Concurrency,
		ContinueOnFail: !failFast,
	})
	if err != nil {
		return nil, err
	}

	for j, b := range batch {
		r := results[slots[j]]
		if b.Err != nil {
			r.fail(b.Err)
			printVerbose("Extracting: %s\n  Error: %s\n", r.File, r.Error)
			continue
		}

		r.Mode = b.Result.Mode
		r.Source = b.Result.Source.String()
		r.Result = b.Result.Payload()
		r.invoice = b.Result.Invoice
		printVerbose("Extracting: %s\n  Mode: %s, Source: %s\n", r.File, r.Mode, r.Source)
	}

	logger.Debug("extraction finished",
		zap.Int("files", len(files)),
		zap.String("mode", string(mode)))

	return results, nil
}

func (r *ExtractResult) fail(err error) {
	r.err = err
	r.Error = err.Error()
	r.Code = model.CodeOf(err)
}

func collectFiles(args []string) ([]string, error) {
	var files []string

	for _, arg := range args {
		// Check if it's a glob pattern
		matches, err := filepath.Glob(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", arg, err)
		}

		if len(matches) == 0 {
			return nil, fmt.Errorf("file not found: %s", arg)
		}

		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil {
				continue
			}

			if !info.IsDir() {
				files = append(files, match)
				continue
			}

			err = filepath.WalkDir(match, func(path string, d os.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if !d.IsDir() && isSupportedFile(path) {
					files = append(files, path)
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
		}
	}

	return files, nil
}

func isSupportedFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml", ".pdf":
		return true
	default:
		return false
	}
}

func isTabular(format string) bool {
	switch format {
	case "table", "csv", "xlsx":
		return true
	}
	return false
}

func outputResults(results []*ExtractResult) error {
	var writer io.Writer = os.Stdout
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		writer = f
	}

	switch outputFormat {
	case "json":
		return writeJSON(writer, results)
	case "yaml":
		return writeYAML(writer, results)
	case "table":
		return outputTable(writer, results)
	case "csv":
		return export.WriteCSV(writer, records(results))
	case "xlsx":
		return export.WriteXLSX(writer, records(results))
	default:
		return fmt.Errorf("unsupported output format: %s", outputFormat)
	}
}

func records(results []*ExtractResult) []export.Record {
	recs := make([]export.Record, len(results))
	for i, r := range results {
		recs[i] = export.Record{File: r.File, Invoice: r.invoice, Err: r.err}
	}
	return recs
}

func outputTable(w io.Writer, results []*ExtractResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tDOCUMENT\tTYPE\tDATE\tPROFILE\tSELLER\tBUYER\tPAYABLE")
	fmt.Fprintln(tw, "----\t--------\t----\t----\t-------\t------\t-----\t-------")

	for _, r := range results {
		if r.Error != "" {
			fmt.Fprintf(tw, "%s\tERROR: %s\t\t\t\t\t\t\n", r.File, r.Error)
			continue
		}

		inv := r.invoice
		if inv == nil {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%.2f %s\n",
			r.File,
			inv.DocumentID,
			inv.DocumentTypeCode,
			inv.DocumentDate,
			inv.Meta.SpecificationProfile,
			inv.Seller.SellerName,
			inv.Buyer.BuyerName,
			inv.Transaction.TotalPayable,
			inv.Transaction.Currency,
		)
	}

	return tw.Flush()
}
