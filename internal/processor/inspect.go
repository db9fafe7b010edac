package processor

import (
	"context"
	"strings"

	"github.com/rezonia/einvoice-extractor/internal/cii"
	"github.com/rezonia/einvoice-extractor/internal/model"
	"github.com/rezonia/einvoice-extractor/internal/parser/pdf"
	"github.com/rezonia/einvoice-extractor/internal/parser/xml"
)

// Info describes an input document without fully extracting it
type Info struct {
	Format      Format               `json:"format"`
	MIME        string               `json:"mime"`
	Size        int                  `json:"size"`
	Attachments []pdf.AttachmentInfo `json:"attachments,omitempty"`
	Attachment  string               `json:"attachment,omitempty"`
	Root        string               `json:"root,omitempty"`
	ProfileURN  string               `json:"profileUrn,omitempty"`
	Profile     model.Profile        `json:"profile,omitempty"`
	Problem     string               `json:"problem,omitempty"`
	ProblemCode model.ErrorCode      `json:"problemCode,omitempty"`
}

// Inspect reports the format of data and, where it can, the embedded
// attachments, root element and profile. Problems with the invoice content
// are recorded on the Info rather than returned; only unreadable PDFs and
// unsupported formats are errors.
func (p *Pipeline) Inspect(ctx context.Context, data []byte, password string) (*Info, error) {
	info := &Info{
		Format: DetectFormat(data),
		MIME:   DetectMIME(data),
		Size:   len(data),
	}

	var xmlData []byte

	switch info.Format {
	case FormatPDF:
		attachments, err := p.pdfExtractor.Attachments(ctx, data, password)
		if err != nil {
			if model.CodeOf(err) == model.ErrCodeAttachmentNotFound {
				info.setProblem(err)
				return info, nil
			}
			return nil, err
		}
		info.Attachments = attachments

		att, err := p.pdfExtractor.ExtractXML(ctx, data, password)
		if err != nil {
			info.setProblem(err)
			return info, nil
		}
		info.Attachment = att.FileName
		xmlData = att.Content

	case FormatXML:
		xmlData = data

	default:
		return nil, model.NewInputError("file", "unsupported format ("+info.MIME+")", nil)
	}

	tree, err := xml.ParseTree(xmlData)
	if err != nil {
		info.setProblem(err)
		return info, nil
	}
	info.Root = tree.Root()

	doc, err := cii.Decode(xmlData)
	if err != nil {
		info.setProblem(err)
		return info, nil
	}
	urn := doc.Context.GuidelineID()
	if urn != nil {
		info.ProfileURN = strings.TrimSpace(*urn)
	}

	profile, err := cii.ResolveProfile(urn)
	if err != nil {
		info.setProblem(err)
		return info, nil
	}
	info.Profile = profile

	return info, nil
}

func (i *Info) setProblem(err error) {
	i.Problem = err.Error()
	i.ProblemCode = model.CodeOf(err)
}
