package processor

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/rezonia/einvoice-extractor/internal/model"
	"github.com/rezonia/einvoice-extractor/internal/parser/pdf"
	"github.com/rezonia/einvoice-extractor/internal/parser/xml"
)

// Raw XML encodings
const (
	EncodingBase64 = "base64"
	EncodingPlain  = "plain"
)

// RawXML is the untouched source XML returned in xml mode
type RawXML struct {
	XML      string `json:"xml"`
	FileName string `json:"filename"`
	Encoding string `json:"encoding"`
}

// Result is the outcome of one successful extraction. Which of Invoice,
// Tree and Raw is set depends on Mode.
type Result struct {
	Mode     model.Mode      `json:"mode"`
	Source   Format          `json:"source"`
	FileName string          `json:"filename,omitempty"`
	Invoice  *model.EInvoice `json:"invoice,omitempty"`
	Tree     xml.Tree        `json:"tree,omitempty"`
	Raw      *RawXML         `json:"raw,omitempty"`
}

// Payload returns the mode specific part of the result
func (r *Result) Payload() any {
	switch r.Mode {
	case model.ModeXML:
		return r.Raw
	case model.ModeJSON:
		return r.Tree
	default:
		return r.Invoice
	}
}

// Pipeline runs PDF attachment extraction and XML normalization
type Pipeline struct {
	logger       *zap.Logger
	pdfExtractor *pdf.Extractor
	normalizer   *xml.Normalizer
}

// PipelineOption configures the pipeline
type PipelineOption func(*Pipeline)

// WithLogger sets the logger shared by the pipeline and its parsers
func WithLogger(logger *zap.Logger) PipelineOption {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// NewPipeline creates a new extraction pipeline
func NewPipeline(opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		logger: zap.NewNop(),
	}

	for _, opt := range opts {
		opt(p)
	}

	p.pdfExtractor = pdf.NewExtractor(pdf.WithLogger(p.logger))
	p.normalizer = xml.NewNormalizer(xml.WithLogger(p.logger))

	return p
}

// ExtractFromPDF locates the invoice attachment of a PDF and returns it in
// the requested mode. In xml mode the attachment is returned base64 encoded.
func (p *Pipeline) ExtractFromPDF(ctx context.Context, data []byte, password string, mode model.Mode) (*Result, error) {
	if err := validMode(mode); err != nil {
		return nil, err
	}

	att, err := p.pdfExtractor.ExtractXML(ctx, data, password)
	if err != nil {
		p.logger.Info("pdf extraction failed",
			zap.String("source", FormatPDF.String()),
			zap.String("code", string(model.CodeOf(err))),
			zap.Error(err))
		return nil, err
	}

	p.logger.Debug("pdf attachment extracted",
		zap.String("attachment", att.FileName),
		zap.String("mode", string(mode)))

	if mode == model.ModeXML {
		return &Result{
			Mode:     mode,
			Source:   FormatPDF,
			FileName: att.FileName,
			Raw: &RawXML{
				XML:      base64.StdEncoding.EncodeToString(att.Content),
				FileName: att.FileName,
				Encoding: EncodingBase64,
			},
		}, nil
	}

	return p.normalize(att.Content, att.FileName, FormatPDF, mode)
}

// ExtractFromXML normalizes a standalone XML document. In xml mode the text
// is returned as is.
func (p *Pipeline) ExtractFromXML(ctx context.Context, data []byte, filename string, mode model.Mode) (*Result, error) {
	if err := validMode(mode); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if mode == model.ModeXML {
		return &Result{
			Mode:     mode,
			Source:   FormatXML,
			FileName: filename,
			Raw: &RawXML{
				XML:      string(data),
				FileName: filename,
				Encoding: EncodingPlain,
			},
		}, nil
	}

	return p.normalize(data, filename, FormatXML, mode)
}

// Item is one input of Extract and ExtractBatch
type Item struct {
	Name     string
	Data     []byte
	Password string
	Mode     model.Mode
}

// Extract detects whether the item is a PDF or XML document and extracts it
func (p *Pipeline) Extract(ctx context.Context, item Item) (*Result, error) {
	mode := item.Mode
	if mode == "" {
		mode = model.ModeSimple
	}

	switch format := DetectFormat(item.Data); format {
	case FormatPDF:
		return p.ExtractFromPDF(ctx, item.Data, item.Password, mode)
	case FormatXML:
		return p.ExtractFromXML(ctx, item.Data, item.Name, mode)
	default:
		return nil, model.NewInputError("file", fmt.Sprintf("unsupported format (%s)", DetectMIME(item.Data)), nil)
	}
}

func (p *Pipeline) normalize(data []byte, filename string, source Format, mode model.Mode) (*Result, error) {
	out, err := p.normalizer.Normalize(data, mode)
	if err != nil {
		p.logger.Info("xml normalization failed",
			zap.String("file", filename),
			zap.String("source", source.String()),
			zap.String("mode", string(mode)),
			zap.String("code", string(model.CodeOf(err))))
		return nil, err
	}

	return &Result{
		Mode:     mode,
		Source:   source,
		FileName: filename,
		Invoice:  out.Invoice,
		Tree:     out.Tree,
	}, nil
}

// ResolveMode turns the two raw output flags into a mode. returnRawXML
// takes precedence over returnRawJSON.
func ResolveMode(returnRawJSON, returnRawXML bool) model.Mode {
	switch {
	case returnRawXML:
		return model.ModeXML
	case returnRawJSON:
		return model.ModeJSON
	default:
		return model.ModeSimple
	}
}

// ParseMode parses a mode name. An empty name is simple mode.
func ParseMode(s string) (model.Mode, error) {
	mode := model.Mode(strings.ToLower(strings.TrimSpace(s)))
	if mode == "" {
		return model.ModeSimple, nil
	}
	if err := validMode(mode); err != nil {
		return "", err
	}
	return mode, nil
}

func validMode(mode model.Mode) error {
	switch mode {
	case model.ModeSimple, model.ModeJSON, model.ModeXML:
		return nil
	}
	return model.NewInputError("mode", fmt.Sprintf("unknown mode %q (expected simple, json or xml)", mode), nil)
}
