package model

import "fmt"

// ErrorCode identifies a terminal extraction failure
type ErrorCode string

// Error codes for extraction and normalization
const (
	ErrCodePDFOpen                  ErrorCode = "PDF_OPEN_ERROR"
	ErrCodeAttachmentNotFound       ErrorCode = "ATTACHMENT_NOT_FOUND"
	ErrCodeEmptyAttachment          ErrorCode = "EMPTY_ATTACHMENT"
	ErrCodeMalformedXML             ErrorCode = "MALFORMED_XML"
	ErrCodeMissingRootElement       ErrorCode = "MISSING_ROOT_ELEMENT"
	ErrCodeMissingProfileIdentifier ErrorCode = "MISSING_PROFILE_IDENTIFIER"
	ErrCodeUnknownProfile           ErrorCode = "UNKNOWN_PROFILE"
	ErrCodeInvalidDocumentTypeCode  ErrorCode = "INVALID_DOCUMENT_TYPE_CODE"
	ErrCodeMissingSeller            ErrorCode = "MISSING_SELLER"
	ErrCodeMissingBuyer             ErrorCode = "MISSING_BUYER"
)

// Sentinels for errors.Is. Any *ExtractionError with the same code matches.
var (
	ErrPDFOpen                  = &ExtractionError{Code: ErrCodePDFOpen}
	ErrAttachmentNotFound       = &ExtractionError{Code: ErrCodeAttachmentNotFound}
	ErrEmptyAttachment          = &ExtractionError{Code: ErrCodeEmptyAttachment}
	ErrMalformedXML             = &ExtractionError{Code: ErrCodeMalformedXML}
	ErrMissingRootElement       = &ExtractionError{Code: ErrCodeMissingRootElement}
	ErrMissingProfileIdentifier = &ExtractionError{Code: ErrCodeMissingProfileIdentifier}
	ErrUnknownProfile           = &ExtractionError{Code: ErrCodeUnknownProfile}
	ErrInvalidDocumentTypeCode  = &ExtractionError{Code: ErrCodeInvalidDocumentTypeCode}
	ErrMissingSeller            = &ExtractionError{Code: ErrCodeMissingSeller}
	ErrMissingBuyer             = &ExtractionError{Code: ErrCodeMissingBuyer}
)

var defaultMessages = map[ErrorCode]string{
	ErrCodePDFOpen:                  "failed to open PDF",
	ErrCodeAttachmentNotFound:       "could not find xml-attachment in pdf",
	ErrCodeEmptyAttachment:          "empty xml-attachment in pdf",
	ErrCodeMalformedXML:             "failed to parse XML",
	ErrCodeMissingRootElement:       "no CrossIndustryInvoice root element found in xml",
	ErrCodeMissingProfileIdentifier: "missing profile identifier",
	ErrCodeUnknownProfile:           "unknown profile",
	ErrCodeInvalidDocumentTypeCode:  "XML contains invalid invoice type code",
	ErrCodeMissingSeller:            "XML is missing seller entity",
	ErrCodeMissingBuyer:             "XML is missing buyer entity",
}

// ExtractionError is a terminal failure of a single extraction
type ExtractionError struct {
	Code    ErrorCode
	Value   string
	Message string
	Cause   error
}

func (e *ExtractionError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = defaultMessages[e.Code]
	}
	switch {
	case e.Value != "" && e.Cause != nil:
		return fmt.Sprintf("[%s] %s: %s (%v)", e.Code, msg, e.Value, e.Cause)
	case e.Value != "":
		return fmt.Sprintf("[%s] %s: %s", e.Code, msg, e.Value)
	case e.Cause != nil:
		return fmt.Sprintf("[%s] %s (%v)", e.Code, msg, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, msg)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *ExtractionError with the same code
func (e *ExtractionError) Is(target error) bool {
	t, ok := target.(*ExtractionError)
	return ok && t.Code == e.Code
}

// NewExtractionError creates a new extraction error
func NewExtractionError(code ErrorCode, value string, cause error) *ExtractionError {
	return &ExtractionError{
		Code:  code,
		Value: value,
		Cause: cause,
	}
}

// CodeOf returns the error code carried by err, or "" if err is not an extraction error
func CodeOf(err error) ErrorCode {
	for err != nil {
		if e, ok := err.(*ExtractionError); ok {
			return e.Code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}

// InputError represents a problem with the caller-supplied input itself
// (unreadable file, unsupported format, unknown output mode)
type InputError struct {
	Field   string
	Message string
	Cause   error
}

func (e *InputError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid input %s: %s (%v)", e.Field, e.Message, e.Cause)
	}
	return fmt.Sprintf("invalid input %s: %s", e.Field, e.Message)
}

func (e *InputError) Unwrap() error {
	return e.Cause
}

// NewInputError creates a new input error
func NewInputError(field, message string, cause error) *InputError {
	return &InputError{
		Field:   field,
		Message: message,
		Cause:   cause,
	}
}
