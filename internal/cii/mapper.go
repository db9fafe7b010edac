package cii

import (
	"strings"

	"github.com/rezonia/einvoice-extractor/internal/decimal"
	"github.com/rezonia/einvoice-extractor/internal/model"
)

// Map projects a decoded CII document onto the canonical EInvoice.
//
// Checks run in a fixed order: root element, profile, document type code,
// seller, buyer. The first failing check is returned and no partial
// invoice escapes.
func Map(doc *Document) (*model.EInvoice, error) {
	if doc == nil || doc.XMLName.Local != RootElement {
		var root string
		if doc != nil {
			root = doc.XMLName.Local
		}
		return nil, model.NewExtractionError(model.ErrCodeMissingRootElement, root, nil)
	}

	profile, err := ResolveProfile(doc.Context.GuidelineID())
	if err != nil {
		return nil, err
	}

	inv := &model.EInvoice{
		Meta: model.Meta{
			BusinessProcessType:  orDefault(doc.Context.businessProcessID(), model.DefaultBusinessProcessType),
			SpecificationProfile: profile,
		},
		DocumentID:       deref(doc.Header.id()),
		DocumentTypeCode: deref(doc.Header.typeCode()),
		DocumentDate:     deref(doc.Header.issueDate()),
		Notes:            convertNotes(doc.Header.notes()),
		BuyerReference:   doc.Transaction.agreement().buyerReference(),
		Transaction:      convertTransaction(doc.Transaction),
	}

	agreement := doc.Transaction.agreement()
	if p := agreement.seller(); p != nil {
		inv.Seller = &model.Seller{
			SellerID:         p.firstID(),
			SellerName:       deref(p.Name),
			PostalAddress:    convertAddress(p.Address),
			TaxRegistrations: convertTaxRegistrations(p.TaxRegistrations),
		}
	}
	if p := agreement.buyer(); p != nil {
		inv.Buyer = &model.Buyer{
			BuyerID:          p.firstID(),
			BuyerName:        deref(p.Name),
			PostalAddress:    convertAddress(p.Address),
			TaxRegistrations: convertTaxRegistrations(p.TaxRegistrations),
		}
	}

	docType, err := ResolveDocumentType(inv.DocumentTypeCode)
	if err != nil {
		return nil, err
	}
	inv.DocumentType = docType

	if inv.Seller == nil || strings.TrimSpace(inv.Seller.SellerName) == "" {
		return nil, model.NewExtractionError(model.ErrCodeMissingSeller, "", nil)
	}
	if inv.Buyer == nil || strings.TrimSpace(inv.Buyer.BuyerName) == "" {
		return nil, model.NewExtractionError(model.ErrCodeMissingBuyer, "", nil)
	}

	return inv, nil
}

func convertNotes(notes []IncludedNote) []model.Note {
	result := make([]model.Note, 0, len(notes))
	for _, n := range notes {
		result = append(result, model.Note{
			Text: deref(n.Content),
			Code: n.SubjectCode,
		})
	}
	return result
}

func convertAddress(a *Address) model.PostalAddress {
	if a == nil {
		return model.PostalAddress{Address: make([]*string, 3)}
	}
	return model.PostalAddress{
		Address:            []*string{a.LineOne, a.LineTwo, a.LineThree},
		PostCode:           a.PostcodeCode,
		City:               a.CityName,
		CountryCode:        deref(a.CountryID),
		CountrySubdivision: a.CountrySubDivisionName,
	}
}

func convertTaxRegistrations(regs []TaxRegistration) []model.TaxRegistration {
	result := make([]model.TaxRegistration, 0, len(regs))
	for _, r := range regs {
		if r.ID == nil {
			continue
		}
		reg := model.TaxRegistration{Type: r.ID.SchemeID}
		if v := strings.TrimSpace(r.ID.Value); v != "" {
			reg.Value = &v
		}
		result = append(result, reg)
	}
	return result
}

func convertTransaction(t *Transaction) model.Transaction {
	settlement := t.settlement()
	sum := settlement.summation()

	result := model.Transaction{
		Currency:         deref(settlement.currency()),
		PaymentReference: settlement.paymentReference(),
		Taxes:            make([]model.Tax, 0),
		Positions:        make([]model.Position, 0),
	}

	if sum != nil {
		result.TotalGross = decimal.CoercePtr(sum.GrandTotalAmount)
		result.TotalNet = decimal.CoercePtr(sum.LineTotalAmount)
		result.TotalVAT = decimal.CoerceFirst(sum.TaxTotalAmount)
		result.TotalPrepaid = decimal.CoercePtr(sum.TotalPrepaidAmount)
		result.TotalPayable = decimal.CoercePtr(sum.DuePayableAmount)
	}

	for _, tax := range settlement.taxes() {
		result.Taxes = append(result.Taxes, model.Tax{
			TaxType:    model.TaxTypeVAT,
			TaxPercent: decimal.CoercePtr(tax.RateApplicablePercent),
			TaxAmount:  decimal.CoercePtr(tax.CalculatedAmount),
			TotalNet:   decimal.CoercePtr(tax.BasisAmount),
		})
	}

	for _, item := range t.lineItems() {
		result.Positions = append(result.Positions, convertPosition(item))
	}

	return result
}

func convertPosition(item LineItem) model.Position {
	pos := model.Position{
		LineID:         deref(item.LineDocument.lineID()),
		GTIN:           item.Product.globalID(),
		Name:           deref(item.Product.name()),
		Description:    item.Product.description(),
		GrossItemPrice: decimal.CoercePtr(item.Agreement.grossCharge()),
		NetItemPrice:   decimal.CoercePtr(item.Agreement.netCharge()),
		Total:          decimal.CoercePtr(item.Settlement.lineTotal()),
	}
	if q := item.Delivery.quantity(); q != nil {
		pos.Quantity = decimal.Coerce(q.Value)
		pos.UnitCode = q.UnitCode
	}
	return pos
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func orDefault(s *string, fallback string) string {
	if v := deref(s); v != "" {
		return v
	}
	return fallback
}

// Nil-safe accessors. Each returns nil when any ancestor is absent.

// GuidelineID returns the profile URN, or nil when absent
func (c *DocumentContext) GuidelineID() *string {
	if c == nil || c.Guideline == nil {
		return nil
	}
	return c.Guideline.ID
}

func (c *DocumentContext) businessProcessID() *string {
	if c == nil || c.BusinessProcess == nil {
		return nil
	}
	return c.BusinessProcess.ID
}

func (h *Header) id() *string {
	if h == nil {
		return nil
	}
	return h.ID
}

func (h *Header) typeCode() *string {
	if h == nil {
		return nil
	}
	return h.TypeCode
}

func (h *Header) issueDate() *string {
	if h == nil || h.IssueDateTime == nil {
		return nil
	}
	return h.IssueDateTime.DateTimeString
}

func (h *Header) notes() []IncludedNote {
	if h == nil {
		return nil
	}
	return h.Notes
}

func (t *Transaction) agreement() *Agreement {
	if t == nil {
		return nil
	}
	return t.Agreement
}

func (t *Transaction) settlement() *Settlement {
	if t == nil {
		return nil
	}
	return t.Settlement
}

func (t *Transaction) lineItems() []LineItem {
	if t == nil {
		return nil
	}
	return t.LineItems
}

func (a *Agreement) seller() *TradeParty {
	if a == nil {
		return nil
	}
	return a.Seller
}

func (a *Agreement) buyer() *TradeParty {
	if a == nil {
		return nil
	}
	return a.Buyer
}

func (a *Agreement) buyerReference() *string {
	if a == nil {
		return nil
	}
	return a.BuyerReference
}

func (p *TradeParty) firstID() *string {
	if p == nil || len(p.IDs) == 0 {
		return nil
	}
	id := strings.TrimSpace(p.IDs[0])
	return &id
}

func (s *Settlement) currency() *string {
	if s == nil {
		return nil
	}
	return s.InvoiceCurrencyCode
}

func (s *Settlement) paymentReference() *string {
	if s == nil {
		return nil
	}
	return s.PaymentReference
}

func (s *Settlement) taxes() []TradeTax {
	if s == nil {
		return nil
	}
	return s.Taxes
}

func (s *Settlement) summation() *HeaderSummation {
	if s == nil {
		return nil
	}
	return s.Summation
}

func (d *LineDocument) lineID() *string {
	if d == nil {
		return nil
	}
	return d.LineID
}

func (p *TradeProduct) globalID() *string {
	if p == nil {
		return nil
	}
	return p.GlobalID
}

func (p *TradeProduct) name() *string {
	if p == nil {
		return nil
	}
	return p.Name
}

func (p *TradeProduct) description() *string {
	if p == nil {
		return nil
	}
	return p.Description
}

func (a *LineAgreement) grossCharge() *string {
	if a == nil || a.GrossPrice == nil {
		return nil
	}
	return a.GrossPrice.ChargeAmount
}

func (a *LineAgreement) netCharge() *string {
	if a == nil || a.NetPrice == nil {
		return nil
	}
	return a.NetPrice.ChargeAmount
}

func (d *LineDelivery) quantity() *Quantity {
	if d == nil {
		return nil
	}
	return d.BilledQuantity
}

func (s *LineSettlement) lineTotal() *string {
	if s == nil || s.Summation == nil {
		return nil
	}
	return s.Summation.LineTotalAmount
}
