package invoicelib

import (
	"context"
	"fmt"
	"io"

	"github.com/rezonia/einvoice-extractor/internal/model"
	"github.com/rezonia/einvoice-extractor/internal/processor"
)

var _ Extractor = (*Processor)(nil)

// Processor implements Extractor using the internal pipeline
type Processor struct {
	pipeline *processor.Pipeline
	options  ProcessorOptions
}

// NewProcessor creates a new invoice processor with the given options
func NewProcessor(opts ProcessorOptions) *Processor {
	var pipelineOpts []processor.PipelineOption
	if opts.Logger != nil {
		pipelineOpts = append(pipelineOpts, processor.WithLogger(opts.Logger))
	}

	return &Processor{
		pipeline: processor.NewPipeline(pipelineOpts...),
		options:  opts,
	}
}

// NewDefaultProcessor creates a processor with default options
func NewDefaultProcessor() *Processor {
	return NewProcessor(DefaultProcessorOptions())
}

// ExtractFromPDF extracts the invoice attachment of a PDF. In xml mode the
// attachment comes back base64 encoded.
func (p *Processor) ExtractFromPDF(ctx context.Context, r io.Reader, password string, mode Mode) (*Result, error) {
	data, err := readInput(r)
	if err != nil {
		return nil, err
	}
	return p.pipeline.ExtractFromPDF(ctx, data, password, mode)
}

// ExtractFromXML extracts a standalone XML document. In xml mode the text
// comes back unchanged.
func (p *Processor) ExtractFromXML(ctx context.Context, r io.Reader, filename string, mode Mode) (*Result, error) {
	data, err := readInput(r)
	if err != nil {
		return nil, err
	}
	return p.pipeline.ExtractFromXML(ctx, data, filename, mode)
}

// Extract detects whether the input is PDF or XML and extracts it in simple mode
func (p *Processor) Extract(ctx context.Context, r io.Reader) (*Result, error) {
	data, err := readInput(r)
	if err != nil {
		return nil, err
	}
	return p.pipeline.Extract(ctx, processor.Item{
		Data:     data,
		Password: p.options.Password,
		Mode:     ModeSimple,
	})
}

// ProcessBatch extracts multiple inputs concurrently in simple mode.
// Results are aligned with inputs; a failed input leaves a nil entry.
// With ContinueOnFail the first error is still returned after all inputs
// have been processed.
func (p *Processor) ProcessBatch(ctx context.Context, inputs []io.Reader) ([]*Result, error) {
	items := make([]processor.Item, len(inputs))
	for i, r := range inputs {
		data, err := readInput(r)
		if err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
		items[i] = processor.Item{
			Name:     fmt.Sprintf("input-%d", i),
			Data:     data,
			Password: p.options.Password,
			Mode:     ModeSimple,
		}
	}

	batch, err := p.pipeline.ExtractBatch(ctx, items, processor.BatchOptions{
		Concurrency:    p.options.Concurrency,
		ContinueOnFail: p.options.ContinueOnFail,
	})

	results := make([]*Result, len(inputs))
	var firstErr error
	for i, b := range batch {
		results[i] = b.Result
		if b.Err != nil && firstErr == nil {
			firstErr = fmt.Errorf("%s: %w", b.Name, b.Err)
		}
	}
	if err != nil {
		return results, err
	}
	return results, firstErr
}

func readInput(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, model.NewInputError("input", "failed to read input", err)
	}
	return data, nil
}
