package source

import (
	"bytes"

	"github.com/xuri/excelize/v2"

	"loanledger/internal/domain/importer"
)

// readXLSX reads the first sheet; its first row is the header.
func readXLSX(raw []byte) (*importer.Batch, error) {
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return nil, &importer.ParseError{Reason: "malformed spreadsheet", Err: err}
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, &importer.ParseError{Reason: "read sheet " + sheet, Err: err}
	}
	t, err := importer.FromRecords(rows)
	if err != nil {
		return nil, err
	}
	return importer.Normalize(t)
}
