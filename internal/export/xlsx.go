package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// Sheet names of the workbook written by WriteXLSX
const (
	SheetInvoices  = "Invoices"
	SheetPositions = "Positions"
)

// WriteXLSX writes a workbook with an Invoices sheet (one row per record)
// and a Positions sheet (one row per line item). Numeric columns are
// stored as numbers.
func WriteXLSX(w io.Writer, records []Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetInvoices); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetPositions); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	invoiceRows := make([][]string, 0, len(records))
	var positionRows [][]string
	for _, r := range records {
		invoiceRows = append(invoiceRows, InvoiceRow(r))
		positionRows = append(positionRows, PositionRows(r)...)
	}

	if err := writeSheet(f, SheetInvoices, InvoiceHeader, invoiceRows, bold); err != nil {
		return err
	}
	if err := writeSheet(f, SheetPositions, PositionHeader, positionRows, bold); err != nil {
		return err
	}

	return f.Write(w)
}

func writeSheet(f *excelize.File, sheet string, header []string, rows [][]string, headerStyle int) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := cellValues(header, row)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

// cellValues converts amount and count columns to numbers
func cellValues(header, row []string) []any {
	values := make([]any, len(row))
	for i, v := range row {
		values[i] = v
		if v == "" || !numericColumns[header[i]] {
			continue
		}
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			values[i] = n
		}
	}
	return values
}

var numericColumns = map[string]bool{
	"total_net":     true,
	"total_vat":     true,
	"total_gross":   true,
	"total_prepaid": true,
	"total_payable": true,
	"positions":     true,
	"quantity":      true,
	"gross_price":   true,
	"net_price":     true,
	"total":         true,
}
