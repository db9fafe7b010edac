package processor_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/einvoice-extractor/internal/model"
	"github.com/rezonia/einvoice-extractor/internal/processor"
)

func batchItems(t *testing.T, n int) []processor.Item {
	t.Helper()
	pdfData, xmlData := facturXPDF(t)

	items := make([]processor.Item, n)
	for i := range items {
		items[i] = processor.Item{Name: fmt.Sprintf("invoice-%d.xml", i), Data: xmlData}
		if i%2 == 1 {
			items[i] = processor.Item{Name: fmt.Sprintf("invoice-%d.pdf", i), Data: pdfData}
		}
	}
	return items
}

func TestExtractBatch_AllSucceed(t *testing.T) {
	p := processor.NewPipeline()
	items := batchItems(t, 9)

	results, err := p.ExtractBatch(context.Background(), items, processor.BatchOptions{Concurrency: 3})
	require.NoError(t, err)
	require.Len(t, results, len(items))

	for i, r := range results {
		assert.Equal(t, i, r.Index)
		assert.Equal(t, items[i].Name, r.Name)
		require.NoError(t, r.Err)
		require.NotNil(t, r.Result)
		assert.Equal(t, "471102", r.Result.Invoice.DocumentID)
	}
	assert.Equal(t, processor.FormatXML, results[0].Result.Source)
	assert.Equal(t, processor.FormatPDF, results[1].Result.Source)
}

func TestExtractBatch_ContinueOnFail(t *testing.T) {
	p := processor.NewPipeline()
	items := batchItems(t, 4)
	items[2] = processor.Item{Name: "broken.xml", Data: []byte("<broken")}

	results, err := p.ExtractBatch(context.Background(), items, processor.BatchOptions{
		Concurrency:    2,
		ContinueOnFail: true,
	})
	require.NoError(t, err)
	require.Len(t, results, 4)

	for i, r := range results {
		if i == 2 {
			require.ErrorIs(t, r.Err, model.ErrMalformedXML)
			assert.Nil(t, r.Result)
			continue
		}
		require.NoError(t, r.Err)
		assert.NotNil(t, r.Result)
	}
}

func TestExtractBatch_FailFast(t *testing.T) {
	p := processor.NewPipeline()
	items := batchItems(t, 3)
	items[1] = processor.Item{Name: "no-buyer.xml", Data: []byte(`<rsm:CrossIndustryInvoice xmlns:rsm="urn:rsm" xmlns:ram="urn:ram">
<rsm:ExchangedDocumentContext><ram:GuidelineSpecifiedDocumentContextParameter><ram:ID>urn:factur-x.eu:1p0:minimum</ram:ID></ram:GuidelineSpecifiedDocumentContextParameter></rsm:ExchangedDocumentContext>
<rsm:ExchangedDocument><ram:ID>1</ram:ID><ram:TypeCode>380</ram:TypeCode></rsm:ExchangedDocument>
<rsm:SupplyChainTradeTransaction><ram:ApplicableHeaderTradeAgreement><ram:SellerTradeParty><ram:Name>S</ram:Name></ram:SellerTradeParty></ram:ApplicableHeaderTradeAgreement></rsm:SupplyChainTradeTransaction>
</rsm:CrossIndustryInvoice>`)}

	_, err := p.ExtractBatch(context.Background(), items, processor.BatchOptions{Concurrency: 1})
	require.ErrorIs(t, err, model.ErrMissingBuyer)
	assert.Contains(t, err.Error(), "no-buyer.xml")
}

func TestExtractBatch_Empty(t *testing.T) {
	results, err := processor.NewPipeline().ExtractBatch(context.Background(), nil, processor.BatchOptions{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestExtractBatch_PerItemModes(t *testing.T) {
	p := processor.NewPipeline()
	items := batchItems(t, 2)
	items[0].Mode = model.ModeJSON
	items[1].Mode = model.ModeXML

	results, err := p.ExtractBatch(context.Background(), items, processor.BatchOptions{})
	require.NoError(t, err)

	assert.NotNil(t, results[0].Result.Tree)
	assert.NotNil(t, results[1].Result.Raw)
	assert.Equal(t, processor.EncodingBase64, results[1].Result.Raw.Encoding)
}
