// Package export writes extraction results as flat tables.
package export

import (
	"strconv"

	"github.com/rezonia/einvoice-extractor/internal/model"
)

// Record is one processed file. Either Invoice or Err is set.
type Record struct {
	File    string
	Invoice *model.EInvoice
	Err     error
}

// InvoiceHeader names the columns of InvoiceRow
var InvoiceHeader = []string{
	"file", "document_id", "document_type", "type_code", "date", "profile",
	"seller_name", "seller_vat_id", "buyer_name", "buyer_vat_id", "buyer_reference",
	"currency", "total_net", "total_vat", "total_gross", "total_prepaid", "total_payable",
	"positions", "error_code", "error",
}

// PositionHeader names the columns of PositionRows
var PositionHeader = []string{
	"file", "document_id", "line_id", "gtin", "name", "quantity", "unit_code",
	"gross_price", "net_price", "total",
}

// InvoiceRow flattens a record into one row of InvoiceHeader columns
func InvoiceRow(r Record) []string {
	if r.Err != nil || r.Invoice == nil {
		row := make([]string, len(InvoiceHeader))
		row[0] = r.File
		if r.Err != nil {
			row[len(row)-2] = string(model.CodeOf(r.Err))
			row[len(row)-1] = r.Err.Error()
		}
		return row
	}

	inv := r.Invoice
	tx := inv.Transaction

	var sellerName, sellerVAT, buyerName, buyerVAT string
	if inv.Seller != nil {
		sellerName = inv.Seller.SellerName
		sellerVAT = vatID(inv.Seller.TaxRegistrations)
	}
	if inv.Buyer != nil {
		buyerName = inv.Buyer.BuyerName
		buyerVAT = vatID(inv.Buyer.TaxRegistrations)
	}

	return []string{
		r.File,
		inv.DocumentID,
		inv.DocumentType,
		inv.DocumentTypeCode,
		inv.DocumentDate,
		string(inv.Meta.SpecificationProfile),
		sellerName,
		sellerVAT,
		buyerName,
		buyerVAT,
		str(inv.BuyerReference),
		tx.Currency,
		amount(tx.TotalNet),
		amount(tx.TotalVAT),
		amount(tx.TotalGross),
		amount(tx.TotalPrepaid),
		amount(tx.TotalPayable),
		strconv.Itoa(len(tx.Positions)),
		"",
		"",
	}
}

// PositionRows flattens the line items of a record into PositionHeader rows
func PositionRows(r Record) [][]string {
	if r.Invoice == nil {
		return nil
	}

	rows := make([][]string, 0, len(r.Invoice.Transaction.Positions))
	for _, p := range r.Invoice.Transaction.Positions {
		rows = append(rows, []string{
			r.File,
			r.Invoice.DocumentID,
			p.LineID,
			str(p.GTIN),
			p.Name,
			amount(p.Quantity),
			p.UnitCode,
			amount(p.GrossItemPrice),
			amount(p.NetItemPrice),
			amount(p.Total),
		})
	}
	return rows
}

func vatID(regs []model.TaxRegistration) string {
	for _, reg := range regs {
		if reg.Type == "VA" {
			return str(reg.Value)
		}
	}
	return ""
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func amount(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
