// Package pdf locates the embedded CII XML inside Factur-X, ZUGFeRD and
// XRechnung PDF containers.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.uber.org/zap"

	einvoice "github.com/rezonia/einvoice-extractor/internal/model"
)

// knownNames are the attachment names an invoice XML is published under.
// Some producers write the PDF name-tree key with octal escapes left in
// place, so the escaped spellings are listed verbatim.
var knownNames = map[string]bool{
	"factur-x.xml":              true,
	`factur\055x\056xml`:        true,
	"zugferd-invoice.xml":       true,
	`zugferd\055invoice\056xml`: true,
	"ZUGFeRD-invoice.xml":       true,
	`ZUGFeRD\055invoice\056xml`: true,
	"xrechnung.xml":             true,
	`xrechnung\056xml`:          true,
}

// IsKnownName reports whether name is one of the recognized invoice
// attachment names. Matching is exact and case sensitive.
func IsKnownName(name string) bool {
	return knownNames[name]
}

// Attachment is the invoice XML taken from a PDF
type Attachment struct {
	FileName string
	Content  []byte
}

// AttachmentInfo describes one embedded file of a PDF
type AttachmentInfo struct {
	ID       string `json:"id"`
	FileName string `json:"fileName"`
	Size     int    `json:"size"`
	Known    bool   `json:"known"`
}

// Extractor reads embedded files from PDF documents
type Extractor struct {
	logger *zap.Logger
}

// ExtractorOption configures an Extractor
type ExtractorOption func(*Extractor)

// WithLogger sets the logger used for diagnostics
func WithLogger(logger *zap.Logger) ExtractorOption {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// NewExtractor creates a new PDF extractor
func NewExtractor(opts ...ExtractorOption) *Extractor {
	e := &Extractor{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractXML returns the first embedded file whose name is a known invoice
// attachment name, in the PDF's own order. The content is returned as
// stored, without any XML parsing.
func (e *Extractor) ExtractXML(ctx context.Context, data []byte, password string) (*Attachment, error) {
	attachments, err := e.read(ctx, data, password)
	if err != nil {
		return nil, err
	}

	for _, a := range attachments {
		name, ok := matchKnown(a)
		if !ok {
			continue
		}

		content, err := io.ReadAll(a)
		if err != nil {
			return nil, einvoice.NewExtractionError(einvoice.ErrCodePDFOpen, name, err)
		}
		if len(content) == 0 {
			return nil, einvoice.NewExtractionError(einvoice.ErrCodeEmptyAttachment, name, nil)
		}

		e.logger.Debug("invoice attachment found",
			zap.String("name", name),
			zap.Int("size", len(content)))
		return &Attachment{FileName: name, Content: content}, nil
	}

	return nil, einvoice.NewExtractionError(einvoice.ErrCodeAttachmentNotFound, "", nil)
}

// Attachments lists every embedded file of the PDF
func (e *Extractor) Attachments(ctx context.Context, data []byte, password string) ([]AttachmentInfo, error) {
	attachments, err := e.read(ctx, data, password)
	if err != nil {
		return nil, err
	}

	infos := make([]AttachmentInfo, 0, len(attachments))
	for _, a := range attachments {
		content, err := io.ReadAll(a)
		if err != nil {
			return nil, einvoice.NewExtractionError(einvoice.ErrCodePDFOpen, a.FileName, err)
		}
		_, known := matchKnown(a)
		infos = append(infos, AttachmentInfo{
			ID:       a.ID,
			FileName: a.FileName,
			Size:     len(content),
			Known:    known,
		})
	}
	return infos, nil
}

// read opens the document once and returns its embedded files. A document
// that cannot be opened, including one with a wrong or missing password, is
// a PDF_OPEN_ERROR. A readable document without a usable embedded file
// section is ATTACHMENT_NOT_FOUND.
func (e *Extractor) read(ctx context.Context, data []byte, password string) ([]model.Attachment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pdfCtx, err := api.ReadContext(bytes.NewReader(data), newConfiguration(password))
	if err != nil {
		e.logger.Debug("pdf open failed", zap.Error(err))
		return nil, einvoice.NewExtractionError(einvoice.ErrCodePDFOpen, "", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := api.ValidateContext(pdfCtx); err != nil {
		e.logger.Debug("pdf structure invalid", zap.Error(err))
		return nil, einvoice.NewExtractionError(einvoice.ErrCodeAttachmentNotFound, "",
			fmt.Errorf("validate document: %w", err))
	}

	attachments, err := pdfCtx.ExtractAttachments(nil)
	if err != nil {
		e.logger.Debug("pdf embedded files unreadable", zap.Error(err))
		return nil, einvoice.NewExtractionError(einvoice.ErrCodeAttachmentNotFound, "",
			fmt.Errorf("read embedded files: %w", err))
	}
	return attachments, nil
}

func newConfiguration(password string) *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if password != "" {
		conf.UserPW = password
		conf.OwnerPW = password
	}
	return conf
}

func matchKnown(a model.Attachment) (string, bool) {
	if IsKnownName(a.FileName) {
		return a.FileName, true
	}
	if IsKnownName(a.ID) {
		return a.ID, true
	}
	return "", false
}
