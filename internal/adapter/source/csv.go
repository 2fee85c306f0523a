package source

import (
	"bytes"
	"encoding/csv"

	"loanledger/internal/domain/importer"
)

func readCSV(raw []byte) (*importer.Batch, error) {
	cr := csv.NewReader(bytes.NewReader(raw))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, &importer.ParseError{Reason: "malformed csv", Err: err}
	}
	t, err := importer.FromRecords(records)
	if err != nil {
		return nil, err
	}
	return importer.Normalize(t)
}
