package invoicelib

import (
	"context"
	"io"

	"go.uber.org/zap"

	"github.com/rezonia/einvoice-extractor/internal/processor"
)

// Result is the outcome of one extraction. Invoice, Tree or Raw is set
// depending on the mode.
type Result = processor.Result

// RawXML is the source XML returned in xml mode
type RawXML = processor.RawXML

// Extractor extracts e-invoices from PDF or XML input
type Extractor interface {
	// ExtractFromPDF extracts the embedded invoice XML of a PDF
	ExtractFromPDF(ctx context.Context, r io.Reader, password string, mode Mode) (*Result, error)

	// ExtractFromXML extracts a standalone CII XML document
	ExtractFromXML(ctx context.Context, r io.Reader, filename string, mode Mode) (*Result, error)

	// Extract auto-detects the format and extracts in simple mode
	Extract(ctx context.Context, r io.Reader) (*Result, error)
}

// ProcessorOptions configures processor behavior
type ProcessorOptions struct {
	// Logger receives diagnostics; nil keeps the processor silent
	Logger *zap.Logger

	// Password is used for encrypted PDFs when Extract is called
	Password string

	// Batch
	Concurrency    int  // Parallel items in ProcessBatch (default: 4)
	ContinueOnFail bool // Keep going after a failed item
}

// DefaultProcessorOptions returns default processor options
func DefaultProcessorOptions() ProcessorOptions {
	return ProcessorOptions{
		Concurrency:    processor.DefaultConcurrency,
		ContinueOnFail: true,
	}
}
