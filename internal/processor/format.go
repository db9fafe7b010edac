package processor

import (
	"bytes"

	"github.com/gabriel-vasile/mimetype"
)

// Format represents the invoice file format
type Format int

const (
	FormatUnknown Format = iota
	FormatXML
	FormatPDF
)

func (f Format) String() string {
	switch f {
	case FormatXML:
		return "xml"
	case FormatPDF:
		return "pdf"
	default:
		return "unknown"
	}
}

// MarshalText renders the format by name
func (f Format) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// DetectFormat detects the invoice format from file content
func DetectFormat(data []byte) Format {
	if len(data) == 0 {
		return FormatUnknown
	}

	for m := mimetype.Detect(data); m != nil; m = m.Parent() {
		switch {
		case m.Is("application/pdf"):
			return FormatPDF
		case m.Is("text/xml"), m.Is("application/xml"):
			return FormatXML
		}
	}

	// XML without a declaration, possibly after a BOM or whitespace
	trimmed := bytes.TrimLeft(bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF}), " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '<' {
		return FormatXML
	}

	return FormatUnknown
}

// DetectMIME returns the sniffed media type of data
func DetectMIME(data []byte) string {
	return mimetype.Detect(data).String()
}
