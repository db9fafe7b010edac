package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rezonia/einvoice-extractor/internal/decimal"
	"github.com/rezonia/einvoice-extractor/internal/model"
)

var (
	strictValidation bool
)

var validateCmd = &cobra.Command{
	Use:   "validate [files...]",
	Short: "Validate invoice files",
	Long: `Validate one or more e-invoice files.

A file is valid when it extracts in the default mode: the PDF carries a
known invoice attachment, the XML is a CrossIndustryInvoice with a known
profile and document type code, and both seller and buyer are present.

Warnings are reported for values that were missing or unparseable and
therefore read as zero:
  - zero totals (net, gross, payable)
  - line items with zero quantity

Examples:
  einvoice validate invoice.pdf
  einvoice validate *.xml --strict`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&strictValidation, "strict", false, "Treat warnings as errors")
	validateCmd.Flags().StringVar(&password, "password", "", "Password for encrypted PDFs (env: EINVOICE_PDF_PASSWORD)")
}

// ValidationResult holds the result of validating a single file
type ValidationResult struct {
	File     string          `json:"file"`
	Valid    bool            `json:"valid"`
	Code     model.ErrorCode `json:"code,omitempty"`
	Errors   []string        `json:"errors,omitempty"`
	Warnings []string        `json:"warnings,omitempty"`
}

func runValidate(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return err
	}

	if len(files) == 0 {
		return fmt.Errorf("no files found to validate")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(len(files))*30*time.Second)
	defer cancel()

	extracted, err := extractFiles(ctx, files, model.ModeSimple)
	if err != nil {
		return err
	}

	results := make([]*ValidationResult, 0, len(extracted))
	allValid := true
	for _, r := range extracted {
		result := validateResult(r)
		results = append(results, result)

		if !result.Valid {
			allValid = false
		}
	}

	// Output results
	switch outputFormat {
	case "json":
		if err := writeJSON(os.Stdout, results); err != nil {
			return err
		}
	case "yaml":
		if err := writeYAML(os.Stdout, results); err != nil {
			return err
		}
	default:
		printValidation(results)
	}

	if !allValid {
		return fmt.Errorf("validation failed for some files")
	}

	return nil
}

func printValidation(results []*ValidationResult) {
	for _, r := range results {
		if r.Valid {
			fmt.Printf("✓ %s: VALID\n", r.File)
		} else {
			fmt.Printf("✗ %s: INVALID", r.File)
			if r.Code != "" {
				fmt.Printf(" (%s)", r.Code)
			}
			fmt.Println()
			for _, e := range r.Errors {
				fmt.Printf("  - %s\n", e)
			}
		}
		for _, w := range r.Warnings {
			fmt.Printf("  ⚠ %s\n", w)
		}
	}
}

func validateResult(r *ExtractResult) *ValidationResult {
	result := &ValidationResult{
		File:     r.File,
		Valid:    true,
		Errors:   []string{},
		Warnings: []string{},
	}

	if r.err != nil {
		result.Valid = false
		result.Code = r.Code
		result.Errors = append(result.Errors, r.Error)
		return result
	}

	result.Warnings = invoiceWarnings(r.invoice)
	if strictValidation && len(result.Warnings) > 0 {
		result.Valid = false
		result.Errors = append(result.Errors, result.Warnings...)
		result.Warnings = []string{}
	}

	return result
}

// invoiceWarnings lists values that read as zero, which is also what a
// missing or unparseable amount becomes
func invoiceWarnings(inv *model.EInvoice) []string {
	warnings := []string{}
	if inv == nil {
		return append(warnings, "no invoice data extracted")
	}

	tx := inv.Transaction
	totals := []struct {
		name  string
		value float64
	}{
		{"net total", tx.TotalNet},
		{"gross total", tx.TotalGross},
		{"payable total", tx.TotalPayable},
	}
	for _, t := range totals {
		if decimal.IsZero(t.value) {
			warnings = append(warnings, fmt.Sprintf("%s is zero or missing", t.name))
		}
	}

	for _, p := range tx.Positions {
		if decimal.IsZero(p.Quantity) {
			warnings = append(warnings, fmt.Sprintf("line item %s: quantity is zero or missing", p.LineID))
		}
	}

	return warnings
}
