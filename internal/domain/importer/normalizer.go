package importer

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"loanledger/internal/domain/loan"
)

// Candidate is a loan parsed from one source row, not yet matched against a ledger.
type Candidate struct {
	Row  int
	Loan loan.Loan
}

// Batch is the outcome of normalizing a Table.
type Batch struct {
	Candidates []Candidate
	Skipped    []RowError
	Mapping    map[Field]string // canonical field -> source header
}

// SourceStatusTag prefixes the tag that keeps a source status column value.
const SourceStatusTag = "source-status:"

// Normalize maps the table columns to canonical fields and turns every row
// into a candidate loan with a generated schedule. Invalid rows are skipped
// with a reason; a table without all required columns is a ParseError.
func Normalize(t Table) (*Batch, error) {
	if len(t.Headers) == 0 {
		return nil, &ParseError{Reason: "no header row"}
	}
	cols := MapHeaders(t.Headers)
	if missing := missingRequired(cols); len(missing) > 0 {
		req := make([]string, len(requiredFields))
		for i, f := range requiredFields {
			req[i] = string(f)
		}
		return nil, &ParseError{
			Reason:   "required columns not found",
			Found:    append([]string(nil), t.Headers...),
			Required: req,
			Missing:  missing,
		}
	}

	b := &Batch{Mapping: map[Field]string{}}
	for f, i := range cols {
		b.Mapping[f] = t.Headers[i]
	}
	for i, row := range t.Rows {
		n := t.line(i)
		c, err := normalizeRow(row, cols)
		if err != nil {
			b.Skipped = append(b.Skipped, RowError{Row: n, Reason: err.Error()})
			continue
		}
		c.Row = n
		b.Candidates = append(b.Candidates, c)
	}
	return b, nil
}

func normalizeRow(row []string, cols map[Field]int) (Candidate, error) {
	vals := map[Field]string{}
	used := map[int]bool{}
	for f, i := range cols {
		if i < len(row) && row[i] != "" {
			vals[f] = row[i]
			used[i] = true
		}
	}
	s := &sniffer{cells: row, used: used}
	for _, f := range []Field{FieldAmount, FieldInterestRate, FieldTerm, FieldStartDate, FieldBorrower} {
		if vals[f] != "" {
			continue
		}
		if v, ok := s.field(f); ok {
			vals[f] = v
		}
	}

	borrower := strings.Join(strings.Fields(vals[FieldBorrower]), " ")
	if borrower == "" {
		return Candidate{}, &loan.ValidationError{Field: "borrower", Reason: "is required"}
	}
	amount, ok := parseLeadingNumber(vals[FieldAmount])
	if !ok || !amount.IsPositive() {
		return Candidate{}, &loan.ValidationError{Field: "amount", Reason: fmt.Sprintf("%q is not a positive number", vals[FieldAmount])}
	}
	rate, ok := parseLeadingNumber(vals[FieldInterestRate])
	if !ok || rate.IsNegative() {
		return Candidate{}, &loan.ValidationError{Field: "interestRate", Reason: fmt.Sprintf("%q is not a rate of zero or more", vals[FieldInterestRate])}
	}
	term, ok := parseLeadingNumber(vals[FieldTerm])
	if !ok || !term.Round(0).IsPositive() {
		return Candidate{}, &loan.ValidationError{Field: "term", Reason: fmt.Sprintf("%q is not a positive number of months", vals[FieldTerm])}
	}
	if term.Round(0).GreaterThan(decimal.NewFromInt(loan.MaxTermMonths)) {
		return Candidate{}, &loan.ValidationError{Field: "term", Reason: fmt.Sprintf("%q exceeds %d months", vals[FieldTerm], loan.MaxTermMonths)}
	}
	start, err := ParseDate(vals[FieldStartDate])
	if err != nil {
		return Candidate{}, &loan.ValidationError{Field: "startDate", Reason: err.Error()}
	}

	months := int(term.Round(0).IntPart())
	l := loan.Loan{
		BorrowerName:    borrower,
		BorrowerEmail:   loan.NormalizeEmail(vals[FieldBorrowerEmail]),
		BorrowerPhone:   vals[FieldBorrowerPhone],
		LoanOfficer:     vals[FieldLoanOfficer],
		PrincipalAmount: amount.InexactFloat64(),
		InterestRate:    rate.InexactFloat64(),
		TermMonths:      months,
		StartDate:       start,
		EndDate:         loan.MaturityDate(start, months),
		Obligations:     []loan.Obligation{},
		Notes:           []loan.Note{},
		Communications:  []loan.Communication{},
		Tags:            []string{},
	}
	if v := vals[FieldEndDate]; v != "" {
		if end, err := ParseDate(v); err == nil {
			l.EndDate = end
		}
	}
	if v := vals[FieldStatus]; v != "" {
		l.Tags = append(l.Tags, SourceStatusTag+strings.ToLower(strings.Join(strings.Fields(v), "_")))
	}
	l.PaymentSchedule = loan.GenerateSchedule(loan.Terms{
		Principal:    l.PrincipalAmount,
		InterestRate: l.InterestRate,
		TermMonths:   l.TermMonths,
		StartDate:    l.StartDate,
	})
	return Candidate{Loan: l}, nil
}
