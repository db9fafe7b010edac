package invoicelib_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rezonia/einvoice-extractor/internal/parser/pdf/pdftest"
	"github.com/rezonia/einvoice-extractor/pkg/invoicelib"
)

func readTestFile(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("disk on fire")
}

func TestNewProcessor(t *testing.T) {
	opts := invoicelib.DefaultProcessorOptions()
	opts.Logger = zap.NewNop()

	proc := invoicelib.NewProcessor(opts)
	require.NotNil(t, proc)
}

func TestNewDefaultProcessor(t *testing.T) {
	proc := invoicelib.NewDefaultProcessor()
	require.NotNil(t, proc)
}

func TestDefaultProcessorOptions(t *testing.T) {
	opts := invoicelib.DefaultProcessorOptions()

	assert.Nil(t, opts.Logger)
	assert.Empty(t, opts.Password)
	assert.Equal(t, 4, opts.Concurrency)
	assert.True(t, opts.ContinueOnFail)
}

func TestProcessorExtractFromXML(t *testing.T) {
	proc := invoicelib.NewDefaultProcessor()

	result, err := proc.ExtractFromXML(context.Background(),
		bytes.NewReader(readTestFile(t, "factur-x-en16931.xml")), "invoice.xml", invoicelib.ModeSimple)
	require.NoError(t, err)
	require.NotNil(t, result.Invoice)

	inv := result.Invoice
	assert.Equal(t, "471102", inv.DocumentID)
	assert.Equal(t, "380", inv.DocumentTypeCode)
	assert.Equal(t, invoicelib.ProfileEN16931, inv.Meta.SpecificationProfile)
	assert.Equal(t, "Lieferant GmbH", inv.Seller.SellerName)
	assert.Equal(t, "Kunden AG Mitte", inv.Buyer.BuyerName)
	assert.Equal(t, 529.87, inv.Transaction.TotalPayable)
}

func TestProcessorExtractFromXML_Modes(t *testing.T) {
	proc := invoicelib.NewDefaultProcessor()
	data := readTestFile(t, "factur-x-en16931.xml")

	result, err := proc.ExtractFromXML(context.Background(), bytes.NewReader(data), "invoice.xml", invoicelib.ModeJSON)
	require.NoError(t, err)
	assert.Nil(t, result.Invoice)
	assert.Equal(t, "CrossIndustryInvoice", result.Tree.Root())

	result, err = proc.ExtractFromXML(context.Background(), bytes.NewReader(data), "invoice.xml", invoicelib.ModeXML)
	require.NoError(t, err)
	require.NotNil(t, result.Raw)
	assert.Equal(t, string(data), result.Raw.XML)
}

func TestProcessorExtractFromXML_InvalidXML(t *testing.T) {
	proc := invoicelib.NewDefaultProcessor()

	_, err := proc.ExtractFromXML(context.Background(), bytes.NewReader([]byte("not xml")), "x.xml", invoicelib.ModeSimple)
	require.ErrorIs(t, err, invoicelib.ErrMalformedXML)
	assert.Equal(t, invoicelib.ErrCodeMalformedXML, invoicelib.CodeOf(err))
}

func TestProcessorExtractFromPDF(t *testing.T) {
	proc := invoicelib.NewDefaultProcessor()
	pdf := pdftest.Build(pdftest.File{Key: "factur-x.xml", Content: readTestFile(t, "factur-x-en16931.xml")})

	result, err := proc.ExtractFromPDF(context.Background(), bytes.NewReader(pdf), "", invoicelib.ModeSimple)
	require.NoError(t, err)
	require.NotNil(t, result.Invoice)
	assert.Equal(t, "factur-x.xml", result.FileName)
	assert.Equal(t, "471102", result.Invoice.DocumentID)
}

func TestProcessorExtractFromPDF_NotAPDF(t *testing.T) {
	proc := invoicelib.NewDefaultProcessor()

	_, err := proc.ExtractFromPDF(context.Background(), bytes.NewReader([]byte("garbage")), "", invoicelib.ModeSimple)
	require.ErrorIs(t, err, invoicelib.ErrPDFOpen)

	var extErr *invoicelib.ExtractionError
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, invoicelib.ErrCodePDFOpen, extErr.Code)
}

func TestProcessorExtract_AutoDetect(t *testing.T) {
	proc := invoicelib.NewDefaultProcessor()
	xmlData := readTestFile(t, "factur-x-en16931.xml")

	result, err := proc.Extract(context.Background(), bytes.NewReader(xmlData))
	require.NoError(t, err)
	assert.Equal(t, invoicelib.ModeSimple, result.Mode)
	assert.Equal(t, "471102", result.Invoice.DocumentID)

	pdf := pdftest.Build(pdftest.File{Key: "zugferd-invoice.xml", Content: xmlData})
	result, err = proc.Extract(context.Background(), bytes.NewReader(pdf))
	require.NoError(t, err)
	assert.Equal(t, "zugferd-invoice.xml", result.FileName)
}

func TestProcessorExtract_InvalidFormat(t *testing.T) {
	proc := invoicelib.NewDefaultProcessor()

	_, err := proc.Extract(context.Background(), bytes.NewReader([]byte("plain text, nothing else")))
	var inputErr *invoicelib.InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Equal(t, "file", inputErr.Field)
}

func TestProcessorExtract_ReadFailure(t *testing.T) {
	proc := invoicelib.NewDefaultProcessor()

	_, err := proc.Extract(context.Background(), failingReader{})
	var inputErr *invoicelib.InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Equal(t, "input", inputErr.Field)
}

func TestProcessorProcessBatch(t *testing.T) {
	proc := invoicelib.NewDefaultProcessor()
	xmlData := readTestFile(t, "factur-x-en16931.xml")

	inputs := []io.Reader{
		bytes.NewReader(xmlData),
		bytes.NewReader([]byte("<broken")),
		bytes.NewReader(xmlData),
	}

	results, err := proc.ProcessBatch(context.Background(), inputs)
	require.ErrorIs(t, err, invoicelib.ErrMalformedXML)
	assert.Contains(t, err.Error(), "input-1")

	require.Len(t, results, 3)
	require.NotNil(t, results[0])
	assert.Nil(t, results[1])
	require.NotNil(t, results[2])
	assert.Equal(t, "471102", results[2].Invoice.DocumentID)
}

func TestProcessorProcessBatch_AllSucceed(t *testing.T) {
	proc := invoicelib.NewDefaultProcessor()
	xmlData := readTestFile(t, "factur-x-en16931.xml")

	results, err := proc.ProcessBatch(context.Background(), []io.Reader{
		bytes.NewReader(xmlData),
		bytes.NewReader(xmlData),
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, "Lieferant GmbH", r.Invoice.Seller.SellerName)
	}
}

func TestReExportedTypes(t *testing.T) {
	var inv invoicelib.EInvoice
	inv.Seller = &invoicelib.Seller{SellerName: "Lieferant GmbH"}
	inv.Transaction.Positions = []invoicelib.Position{{LineID: "1"}}
	inv.Meta.SpecificationProfile = invoicelib.ProfileBasicWL

	assert.Equal(t, "Lieferant GmbH", inv.Seller.SellerName)
	assert.Len(t, inv.Transaction.Positions, 1)
	assert.Equal(t, invoicelib.Profile("basicwl"), inv.Meta.SpecificationProfile)
	assert.Equal(t, invoicelib.Mode("xml"), invoicelib.ModeXML)

	var _ invoicelib.Extractor = invoicelib.NewDefaultProcessor()
}
