package cii

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"golang.org/x/net/html/charset"

	"github.com/rezonia/einvoice-extractor/internal/model"
)

// RootElement is the local name of the CII document root
const RootElement = "CrossIndustryInvoice"

// CII XML structures. Tags carry local names only, so any namespace prefix
// (rsm:, ram:, udt:, ...) decodes the same way. Optional sections are
// pointers, repeatable elements are slices.
type Document struct {
	XMLName     xml.Name
	Context     *DocumentContext `xml:"ExchangedDocumentContext"`
	Header      *Header          `xml:"ExchangedDocument"`
	Transaction *Transaction     `xml:"SupplyChainTradeTransaction"`
}

type DocumentContext struct {
	BusinessProcess *ContextParameter `xml:"BusinessProcessSpecifiedDocumentContextParameter"`
	Guideline       *ContextParameter `xml:"GuidelineSpecifiedDocumentContextParameter"`
}

type ContextParameter struct {
	ID *string `xml:"ID"`
}

type Header struct {
	ID            *string        `xml:"ID"`
	TypeCode      *string        `xml:"TypeCode"`
	IssueDateTime *DateTime      `xml:"IssueDateTime"`
	Notes         []IncludedNote `xml:"IncludedNote"`
}

type DateTime struct {
	DateTimeString *string `xml:"DateTimeString"`
}

type IncludedNote struct {
	Content     *string `xml:"Content"`
	SubjectCode *string `xml:"SubjectCode"`
}

type Transaction struct {
	LineItems  []LineItem  `xml:"IncludedSupplyChainTradeLineItem"`
	Agreement  *Agreement  `xml:"ApplicableHeaderTradeAgreement"`
	Settlement *Settlement `xml:"ApplicableHeaderTradeSettlement"`
}

type Agreement struct {
	BuyerReference *string     `xml:"BuyerReference"`
	Seller         *TradeParty `xml:"SellerTradeParty"`
	Buyer          *TradeParty `xml:"BuyerTradeParty"`
}

type TradeParty struct {
	IDs              []string          `xml:"ID"`
	Name             *string           `xml:"Name"`
	Address          *Address          `xml:"PostalTradeAddress"`
	TaxRegistrations []TaxRegistration `xml:"SpecifiedTaxRegistration"`
}

type Address struct {
	PostcodeCode           *string `xml:"PostcodeCode"`
	LineOne                *string `xml:"LineOne"`
	LineTwo                *string `xml:"LineTwo"`
	LineThree              *string `xml:"LineThree"`
	CityName               *string `xml:"CityName"`
	CountryID              *string `xml:"CountryID"`
	CountrySubDivisionName *string `xml:"CountrySubDivisionName"`
}

type TaxRegistration struct {
	ID *SchemedID `xml:"ID"`
}

type SchemedID struct {
	Value    string `xml:",chardata"`
	SchemeID string `xml:"schemeID,attr"`
}

type Settlement struct {
	PaymentReference    *string          `xml:"PaymentReference"`
	InvoiceCurrencyCode *string          `xml:"InvoiceCurrencyCode"`
	Taxes               []TradeTax       `xml:"ApplicableTradeTax"`
	Summation           *HeaderSummation `xml:"SpecifiedTradeSettlementHeaderMonetarySummation"`
}

type TradeTax struct {
	CalculatedAmount      *string `xml:"CalculatedAmount"`
	TypeCode              *string `xml:"TypeCode"`
	BasisAmount           *string `xml:"BasisAmount"`
	CategoryCode          *string `xml:"CategoryCode"`
	RateApplicablePercent *string `xml:"RateApplicablePercent"`
}

type HeaderSummation struct {
	LineTotalAmount     *string  `xml:"LineTotalAmount"`
	TaxBasisTotalAmount *string  `xml:"TaxBasisTotalAmount"`
	TaxTotalAmount      []string `xml:"TaxTotalAmount"`
	GrandTotalAmount    *string  `xml:"GrandTotalAmount"`
	TotalPrepaidAmount  *string  `xml:"TotalPrepaidAmount"`
	DuePayableAmount    *string  `xml:"DuePayableAmount"`
}

type LineItem struct {
	LineDocument *LineDocument   `xml:"AssociatedDocumentLineDocument"`
	Product      *TradeProduct   `xml:"SpecifiedTradeProduct"`
	Agreement    *LineAgreement  `xml:"SpecifiedLineTradeAgreement"`
	Delivery     *LineDelivery   `xml:"SpecifiedLineTradeDelivery"`
	Settlement   *LineSettlement `xml:"SpecifiedLineTradeSettlement"`
}

type LineDocument struct {
	LineID *string `xml:"LineID"`
}

type TradeProduct struct {
	GlobalID    *string `xml:"GlobalID"`
	Name        *string `xml:"Name"`
	Description *string `xml:"Description"`
}

type LineAgreement struct {
	GrossPrice *TradePrice `xml:"GrossPriceProductTradePrice"`
	NetPrice   *TradePrice `xml:"NetPriceProductTradePrice"`
}

type TradePrice struct {
	ChargeAmount *string `xml:"ChargeAmount"`
}

type LineDelivery struct {
	BilledQuantity *Quantity `xml:"BilledQuantity"`
}

type Quantity struct {
	Value    string `xml:",chardata"`
	UnitCode string `xml:"unitCode,attr"`
}

type LineSettlement struct {
	Summation *LineSummation `xml:"SpecifiedTradeSettlementLineMonetarySummation"`
}

type LineSummation struct {
	LineTotalAmount *string `xml:"LineTotalAmount"`
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Decode parses CII XML text into its typed representation. Markup errors
// fail with MALFORMED_XML; a wrong root element is left for Map to report.
func Decode(data []byte) (*Document, error) {
	dec := xml.NewDecoder(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	dec.CharsetReader = charset.NewReaderLabel

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, model.NewExtractionError(model.ErrCodeMalformedXML, "", err)
	}
	if err := checkTrailer(dec); err != nil {
		return nil, model.NewExtractionError(model.ErrCodeMalformedXML, "", err)
	}
	return &doc, nil
}

// checkTrailer reads what follows the root element. Only whitespace,
// comments and processing instructions may appear there.
func checkTrailer(dec *xml.Decoder) error {
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		switch t := tok.(type) {
		case xml.Comment, xml.ProcInst:
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return fmt.Errorf("unexpected text after root element")
			}
		case xml.StartElement:
			return fmt.Errorf("unexpected element <%s> after root element", t.Name.Local)
		default:
			return fmt.Errorf("unexpected %T after root element", tok)
		}
	}
}
