package model

// Profile is a Factur-X / ZUGFeRD / XRechnung conformance level
type Profile string

const (
	ProfileMinimum  Profile = "minimum"
	ProfileBasicWL  Profile = "basicwl"
	ProfileBasic    Profile = "basic"
	ProfileEN16931  Profile = "en16931"
	ProfileExtended Profile = "extended"
)

// TaxTypeVAT is the only tax type the canonical model carries
const TaxTypeVAT = "VAT"

// DefaultBusinessProcessType is used when the document context omits it
const DefaultBusinessProcessType = "A1"

// Meta describes the document context
type Meta struct {
	BusinessProcessType  string  `json:"businessProcessType"`
	SpecificationProfile Profile `json:"specificationProfile"`
}

// PostalAddress holds a party address. Address always has three entries;
// absent lines stay nil in their position.
type PostalAddress struct {
	Address            []*string `json:"address"`
	PostCode           *string   `json:"postCode"`
	City               *string   `json:"city"`
	CountryCode        string    `json:"countryCode"`
	CountrySubdivision *string   `json:"countrySubdivision"`
}

// TaxRegistration is a tax identifier of a party, e.g. scheme "VA" for a VAT id
type TaxRegistration struct {
	Type  string  `json:"type"`
	Value *string `json:"value"`
}

// Note is a free text note attached to the document
type Note struct {
	Text string  `json:"text"`
	Code *string `json:"code"`
}

// Tax is one VAT breakdown line of the settlement
type Tax struct {
	TaxType    string  `json:"taxType"`
	TaxPercent float64 `json:"taxPercent"`
	TaxAmount  float64 `json:"taxAmount"`
	TotalNet   float64 `json:"totalNet"`
}

// Position is an invoice line item
type Position struct {
	LineID         string  `json:"lineId"`
	GTIN           *string `json:"gtin"`
	Name           string  `json:"name"`
	Description    *string `json:"description"`
	Quantity       float64 `json:"quantity"`
	UnitCode       string  `json:"unitCode"`
	GrossItemPrice float64 `json:"grossItemPrice"`
	NetItemPrice   float64 `json:"netItemPrice"`
	Total          float64 `json:"total"`
}

// Transaction carries currency, totals, tax breakdown and line items
type Transaction struct {
	Currency         string     `json:"currency"`
	TotalGross       float64    `json:"totalGross"`
	TotalNet         float64    `json:"totalNet"`
	TotalVAT         float64    `json:"totalVat"`
	TotalPrepaid     float64    `json:"totalPrepaid"`
	TotalPayable     float64    `json:"totalPayable"`
	PaymentReference *string    `json:"paymentReference"`
	Taxes            []Tax      `json:"taxes"`
	Positions        []Position `json:"positions"`
}

// Seller is the selling trade party
type Seller struct {
	SellerID         *string           `json:"sellerId"`
	SellerName       string            `json:"sellerName"`
	PostalAddress    PostalAddress     `json:"postalAddress"`
	TaxRegistrations []TaxRegistration `json:"taxRegistrations"`
}

// Buyer is the buying trade party
type Buyer struct {
	BuyerID          *string           `json:"buyerId"`
	BuyerName        string            `json:"buyerName"`
	PostalAddress    PostalAddress     `json:"postalAddress"`
	TaxRegistrations []TaxRegistration `json:"taxRegistrations"`
}

// EInvoice is the canonical invoice document every supported CII variant
// is normalized into. Seller and Buyer are always set on a value returned
// by the mapper.
type EInvoice struct {
	Meta             Meta        `json:"meta"`
	DocumentID       string      `json:"documentId"`
	DocumentType     string      `json:"documentType"`
	DocumentTypeCode string      `json:"documentTypeCode"`
	DocumentDate     string      `json:"documentDate"`
	Notes            []Note      `json:"notes"`
	BuyerReference   *string     `json:"buyerReference"`
	Seller           *Seller     `json:"seller"`
	Buyer            *Buyer      `json:"buyer"`
	Transaction      Transaction `json:"transaction"`
}

// Mode selects what an extraction returns
type Mode string

const (
	// ModeSimple returns the mapped and validated EInvoice
	ModeSimple Mode = "simple"
	// ModeJSON returns the namespace-stripped element tree, unmapped
	ModeJSON Mode = "json"
	// ModeXML returns the source XML verbatim
	ModeXML Mode = "xml"
)
