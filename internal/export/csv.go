package export

import (
	"encoding/csv"
	"io"
)

// WriteCSV writes one InvoiceHeader row per record
func WriteCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(InvoiceHeader); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write(InvoiceRow(r)); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
