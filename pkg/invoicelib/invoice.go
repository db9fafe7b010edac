// Package invoicelib provides a public API for extracting Factur-X, ZUGFeRD
// and XRechnung e-invoices.
//
// PDF input is searched for its embedded CII XML attachment; bare CII XML
// is accepted directly. Either way the XML is mapped into the canonical
// EInvoice model and validated.
//
// Example usage:
//
//	p := invoicelib.NewDefaultProcessor()
//	res, err := p.ExtractFromPDF(ctx, file, "", invoicelib.ModeSimple)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.Invoice.Transaction.TotalPayable)
package invoicelib

import "github.com/rezonia/einvoice-extractor/internal/model"

// Re-export core types for public API
type (
	EInvoice        = model.EInvoice
	Meta            = model.Meta
	Seller          = model.Seller
	Buyer           = model.Buyer
	PostalAddress   = model.PostalAddress
	TaxRegistration = model.TaxRegistration
	Note            = model.Note
	Tax             = model.Tax
	Position        = model.Position
	Transaction     = model.Transaction
	Profile         = model.Profile
	Mode            = model.Mode
)

// Re-export profiles
const (
	ProfileMinimum  = model.ProfileMinimum
	ProfileBasicWL  = model.ProfileBasicWL
	ProfileBasic    = model.ProfileBasic
	ProfileEN16931  = model.ProfileEN16931
	ProfileExtended = model.ProfileExtended
)

// Re-export output modes
const (
	ModeSimple = model.ModeSimple
	ModeJSON   = model.ModeJSON
	ModeXML    = model.ModeXML
)

// Re-export error types
type (
	ErrorCode       = model.ErrorCode
	ExtractionError = model.ExtractionError
	InputError      = model.InputError
)

// Re-export error codes
const (
	ErrCodePDFOpen                  = model.ErrCodePDFOpen
	ErrCodeAttachmentNotFound       = model.ErrCodeAttachmentNotFound
	ErrCodeEmptyAttachment          = model.ErrCodeEmptyAttachment
	ErrCodeMalformedXML             = model.ErrCodeMalformedXML
	ErrCodeMissingRootElement       = model.ErrCodeMissingRootElement
	ErrCodeMissingProfileIdentifier = model.ErrCodeMissingProfileIdentifier
	ErrCodeUnknownProfile           = model.ErrCodeUnknownProfile
	ErrCodeInvalidDocumentTypeCode  = model.ErrCodeInvalidDocumentTypeCode
	ErrCodeMissingSeller            = model.ErrCodeMissingSeller
	ErrCodeMissingBuyer             = model.ErrCodeMissingBuyer
)

// Re-export sentinels for errors.Is
var (
	ErrPDFOpen                  = model.ErrPDFOpen
	ErrAttachmentNotFound       = model.ErrAttachmentNotFound
	ErrEmptyAttachment          = model.ErrEmptyAttachment
	ErrMalformedXML             = model.ErrMalformedXML
	ErrMissingRootElement       = model.ErrMissingRootElement
	ErrMissingProfileIdentifier = model.ErrMissingProfileIdentifier
	ErrUnknownProfile           = model.ErrUnknownProfile
	ErrInvalidDocumentTypeCode  = model.ErrInvalidDocumentTypeCode
	ErrMissingSeller            = model.ErrMissingSeller
	ErrMissingBuyer             = model.ErrMissingBuyer
)

// CodeOf returns the error code carried by err, or "" if there is none
func CodeOf(err error) ErrorCode {
	return model.CodeOf(err)
}
