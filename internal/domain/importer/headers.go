package importer

import (
	"strings"
	"unicode"
)

// Field is a canonical loan field an import column can map to.
type Field string

const (
	FieldBorrower      Field = "borrower"
	FieldAmount        Field = "amount"
	FieldInterestRate  Field = "interestRate"
	FieldTerm          Field = "term"
	FieldStartDate     Field = "startDate"
	FieldEndDate       Field = "endDate"
	FieldBorrowerEmail Field = "borrowerEmail"
	FieldBorrowerPhone Field = "borrowerPhone"
	FieldLoanOfficer   Field = "loanOfficer"
	FieldStatus        Field = "status"
)

var requiredFields = []Field{FieldBorrower, FieldAmount, FieldInterestRate, FieldTerm, FieldStartDate}

// synonyms maps human header variants to canonical fields. Entries are in
// normalized form (see normalizeHeader). Field order is the match priority.
var synonyms = []struct {
	field Field
	names []string
}{
	{FieldBorrowerEmail, []string{"email", "e mail", "email address", "borrower email", "customer email",
		"client email", "contact email", "mail"}},
	{FieldBorrowerPhone, []string{"phone", "phone number", "telephone", "tel", "mobile", "mobile number", "cell",
		"cell phone", "borrower phone", "customer phone", "client phone", "contact number", "contact phone"}},
	{FieldLoanOfficer, []string{"loan officer", "officer", "account officer", "account manager",
		"relationship manager", "portfolio manager", "originator", "rm"}},
	{FieldBorrower, []string{"borrower", "borrower name", "name", "full name", "customer", "customer name",
		"client", "client name", "debtor", "debtor name", "applicant", "applicant name", "company",
		"company name", "business name", "account name", "obligor"}},
	{FieldAmount, []string{"amount", "loan amount", "principal", "principal amount", "funded amount",
		"loan principal", "original amount", "original principal", "original balance", "disbursed amount",
		"disbursement amount", "face value", "facility amount", "loan size", "loan value", "balance"}},
	{FieldInterestRate, []string{"interest rate", "rate", "interest", "apr", "annual rate", "annual interest rate",
		"interest rate pct", "nominal rate", "coupon", "coupon rate", "rate pct"}},
	{FieldTerm, []string{"term", "term months", "loan term", "months", "duration", "duration months",
		"tenor", "tenure", "number of payments", "no of payments", "payments", "periods", "installments",
		"maturity months"}},
	{FieldEndDate, []string{"end date", "maturity date", "maturity", "end", "due date", "final payment date",
		"termination date", "expiry date", "expiration date", "payoff date"}},
	{FieldStartDate, []string{"start date", "start", "origination date", "originated", "funded date",
		"funding date", "disbursement date", "disbursed date", "loan date", "date", "issue date",
		"effective date", "booking date", "opened", "open date", "first payment date", "closing date"}},
	{FieldStatus, []string{"status", "loan status", "state", "loan state"}},
}

// normalizeHeader lower-cases a header and collapses every run of
// separators or punctuation into one space.
func normalizeHeader(h string) string {
	f := strings.FieldsFunc(strings.ToLower(h), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(f, " ")
}

// containsPhrase reports whether phrase occurs in h on word boundaries.
func containsPhrase(h, phrase string) bool {
	return strings.Contains(" "+h+" ", " "+phrase+" ")
}

// MapHeaders assigns canonical fields to column indexes. Exact matches are
// taken first; remaining columns are matched on the longest synonym they
// contain. A field maps to at most one column and the leftmost column wins.
func MapHeaders(headers []string) map[Field]int {
	norm := make([]string, len(headers))
	for i, h := range headers {
		norm[i] = normalizeHeader(h)
	}
	mapped := map[Field]int{}
	taken := map[int]bool{}

	for i, h := range norm {
		if h == "" {
			continue
		}
		for _, s := range synonyms {
			if _, ok := mapped[s.field]; ok {
				continue
			}
			if contains(s.names, h) {
				mapped[s.field] = i
				taken[i] = true
				break
			}
		}
	}

	for i, h := range norm {
		if taken[i] || h == "" {
			continue
		}
		var best Field
		bestLen := 0
		for _, s := range synonyms {
			if _, ok := mapped[s.field]; ok {
				continue
			}
			for _, n := range s.names {
				if len(n) > bestLen && containsPhrase(h, n) {
					best, bestLen = s.field, len(n)
				}
			}
		}
		if bestLen > 0 {
			mapped[best] = i
			taken[i] = true
		}
	}
	return mapped
}

func missingRequired(mapped map[Field]int) []string {
	var out []string
	for _, f := range requiredFields {
		if _, ok := mapped[f]; !ok {
			out = append(out, string(f))
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
