package importer

import (
	"sort"
	"strings"
)

// Table is raw tabular input: a header row and data rows aligned with it.
// Both delimited text and spreadsheet row-sets are turned into a Table.
type Table struct {
	Headers []string
	Rows    [][]string
	// Lines is the 1-based position of each row among the source's data
	// records, counting the blank ones that were dropped. Nil means Rows are
	// numbered consecutively.
	Lines []int
}

func (t Table) line(i int) int {
	if i < len(t.Lines) {
		return t.Lines[i]
	}
	return i + 1
}

func (t *Table) add(line int, r []string) {
	t.Rows = append(t.Rows, r)
	t.Lines = append(t.Lines, line)
}

// FromRecords takes records whose first record is the header row. Blank rows are dropped.
func FromRecords(records [][]string) (Table, error) {
	if len(records) == 0 || isBlank(records[0]) {
		return Table{}, &ParseError{Reason: "no header row"}
	}
	t := Table{Headers: trimAll(records[0])}
	for i, r := range records[1:] {
		if isBlank(r) {
			continue
		}
		t.add(i+1, align(trimAll(r), len(t.Headers)))
	}
	return t, nil
}

// FromMaps builds a Table from rows keyed by header label. When headers is
// nil the sorted union of all keys is used, so column order is stable.
func FromMaps(headers []string, rows []map[string]string) Table {
	if headers == nil {
		seen := map[string]bool{}
		for _, r := range rows {
			for k := range r {
				if !seen[k] {
					seen[k] = true
					headers = append(headers, k)
				}
			}
		}
		sort.Strings(headers)
	}
	t := Table{Headers: trimAll(headers)}
	for n, m := range rows {
		r := make([]string, len(headers))
		for i, h := range headers {
			r[i] = strings.TrimSpace(m[h])
		}
		if !isBlank(r) {
			t.add(n+1, r)
		}
	}
	return t
}

func align(r []string, n int) []string {
	if len(r) >= n {
		return r[:n]
	}
	out := make([]string, n)
	copy(out, r)
	return out
}

func trimAll(r []string) []string {
	out := make([]string, len(r))
	for i, s := range r {
		out[i] = strings.TrimSpace(strings.TrimPrefix(s, "\ufeff"))
	}
	return out
}

func isBlank(r []string) bool {
	for _, s := range r {
		if strings.TrimSpace(s) != "" {
			return false
		}
	}
	return true
}
