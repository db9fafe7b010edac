// Package pdftest builds small PDF documents with embedded files for tests.
package pdftest

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// File is an embedded file. Key and Name are written verbatim inside PDF
// literal strings, so PDF string escapes apply: \055 reads back as '-',
// while \\055 reads back as the four characters \055.
// An empty Name defaults to Key.
type File struct {
	Key     string
	Name    string
	Content []byte
}

// Build renders a one page PDF whose EmbeddedFiles name tree lists files in
// the given order.
func Build(files ...File) []byte {
	var objects []string

	names := ""
	if len(files) > 0 {
		var entries bytes.Buffer
		for i, f := range files {
			fmt.Fprintf(&entries, "(%s) %d 0 R ", f.Key, 4+2*i)
		}
		names = fmt.Sprintf(" /Names << /EmbeddedFiles << /Names [ %s] >> >>", entries.String())
	}

	objects = append(objects,
		"<< /Type /Catalog /Pages 2 0 R"+names+" >>",
		"<< /Type /Pages /Kids [ 3 0 R ] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [ 0 0 595 842 ] /Resources << >> >>",
	)

	for i, f := range files {
		name := f.Name
		if name == "" {
			name = f.Key
		}
		objects = append(objects,
			fmt.Sprintf("<< /Type /Filespec /F (%s) /UF (%s) /EF << /F %d 0 R >> /AFRelationship /Data >>", name, name, 5+2*i),
			fmt.Sprintf("<< /Type /EmbeddedFile /Subtype /text#2Fxml /Length %d >>\nstream\n%s\nendstream", len(f.Content), f.Content),
		)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")

	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	return buf.Bytes()
}

// Encrypt returns data encrypted with AES-256, using password as both the
// user and the owner password.
func Encrypt(data []byte, password string) ([]byte, error) {
	conf := model.NewAESConfiguration(password, password, 256)

	var out bytes.Buffer
	if err := api.Encrypt(bytes.NewReader(data), &out, conf); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
