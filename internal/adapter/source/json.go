package source

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"loanledger/internal/domain/importer"
	"loanledger/internal/domain/ledger"
)

// readJSON accepts either an export document, whose loans are taken as-is
// with their schedules, or an array of row objects keyed by header label.
func readJSON(raw []byte) (*importer.Batch, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, &importer.ParseError{Reason: "empty json document"}
	}
	if trimmed[0] == '[' {
		return readRowObjects(trimmed)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, &importer.ParseError{Reason: "malformed json", Err: err}
	}
	if _, ok := fields["loans"]; !ok {
		return nil, &importer.ParseError{Reason: "json document has no loans field"}
	}
	var exp ledger.Export
	if err := json.Unmarshal(trimmed, &exp); err != nil {
		return nil, &importer.ParseError{Reason: "malformed export document", Err: err}
	}
	b := &importer.Batch{}
	for i, l := range exp.Loans {
		b.Candidates = append(b.Candidates, importer.Candidate{Row: i + 1, Loan: l})
	}
	return b, nil
}

func readRowObjects(raw []byte) (*importer.Batch, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var objs []map[string]any
	if err := dec.Decode(&objs); err != nil {
		return nil, &importer.ParseError{Reason: "malformed json rows", Err: err}
	}
	rows := make([]map[string]string, len(objs))
	for i, o := range objs {
		rows[i] = make(map[string]string, len(o))
		for k, v := range o {
			rows[i][k] = cell(v)
		}
	}
	return importer.Normalize(importer.FromMaps(nil, rows))
}

func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case json.Number:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
