package reconcile

import (
	"fmt"
	"strings"
	"time"

	"loanledger/internal/domain/importer"
	"loanledger/internal/domain/ledger"
	"loanledger/internal/domain/loan"
)

// DuplicateError marks a candidate whose composite key is already present.
type DuplicateError struct {
	Key string
}

func (e *DuplicateError) Error() string { return "duplicate loan " + e.Key }

// Result counts what an import did to the ledger. Per-record problems are
// listed in Errors and never abort the batch.
type Result struct {
	Imported   int                 `json:"imported"`
	Created    int                 `json:"created"`
	Updated    int                 `json:"updated"`
	Duplicates int                 `json:"duplicates"`
	Skipped    int                 `json:"skipped"`
	Errors     []importer.RowError `json:"errors"`
}

func (r *Result) skip(row int, err error) {
	r.Skipped++
	r.Errors = append(r.Errors, importer.RowError{Row: row, Reason: err.Error()})
}

// Matcher applies candidates to a ledger.
type Matcher struct {
	Now   func() time.Time
	NewID func() string
}

// Reconcile matches each candidate to an existing loan by borrower email,
// then by borrower name, and merges into it; unmatched candidates become new
// loans. Every written record goes through the ledger's enrichment.
func (m *Matcher) Reconcile(led *ledger.Ledger, cands []importer.Candidate) Result {
	now := m.Now()
	var res Result
	idx := indexBorrowers(led)
	for _, c := range cands {
		existing, found := idx.match(led, c.Loan)
		var next loan.Loan
		if found {
			next = merge(existing, c.Loan)
		} else {
			next = m.fresh(led.Owner(), c.Loan, now)
		}
		stored, err := led.Put(next, now)
		if err != nil {
			res.skip(c.Row, err)
			continue
		}
		idx.add(stored)
		res.Imported++
		if found {
			res.Updated++
		} else {
			res.Created++
		}
	}
	return res
}

// AppendOnly adds candidates as new loans, skipping any whose composite key
// (borrower, amount, start date) is already in the ledger or earlier in the batch.
func (m *Matcher) AppendOnly(led *ledger.Ledger, cands []importer.Candidate) Result {
	now := m.Now()
	var res Result
	seen := map[string]bool{}
	for _, l := range led.Loans() {
		seen[CompositeKey(l)] = true
	}
	for _, c := range cands {
		key := CompositeKey(c.Loan)
		if seen[key] {
			res.Duplicates++
			res.skip(c.Row, &DuplicateError{Key: key})
			continue
		}
		if _, err := led.Put(m.fresh(led.Owner(), c.Loan, now), now); err != nil {
			res.skip(c.Row, err)
			continue
		}
		seen[key] = true
		res.Imported++
		res.Created++
	}
	return res
}

// CompositeKey is a weak identity for loans without reliable identity fields.
// Two distinct loans with the same borrower, amount and start date collide.
func CompositeKey(l loan.Loan) string {
	return fmt.Sprintf("%s|%.2f|%s", loan.NormalizeName(l.BorrowerName), l.PrincipalAmount, l.StartDate.Format("2006-01-02"))
}

// borrowers maps normalized borrower emails, names and keys to the first
// loan carrying them, in ledger order. It is built once per batch and kept
// current as records are written, so a batch never rescans the ledger.
type borrowers struct {
	byEmail map[string]string
	byName  map[string]string
}

func indexBorrowers(led *ledger.Ledger) *borrowers {
	b := &borrowers{byEmail: map[string]string{}, byName: map[string]string{}}
	for _, l := range led.Loans() {
		b.add(l)
	}
	return b
}

func (b *borrowers) add(l loan.Loan) {
	claim(b.byEmail, loan.NormalizeEmail(l.BorrowerEmail), l.ID)
	claim(b.byEmail, l.BorrowerKey, l.ID)
	claim(b.byName, loan.NormalizeName(l.BorrowerName), l.ID)
	claim(b.byName, l.BorrowerKey, l.ID)
}

func claim(m map[string]string, key, id string) {
	if key == "" {
		return
	}
	if _, ok := m[key]; !ok {
		m[key] = id
	}
}

// match finds the loan c should merge into: by email first, then by name.
func (b *borrowers) match(led *ledger.Ledger, c loan.Loan) (loan.Loan, bool) {
	if email := loan.NormalizeEmail(c.BorrowerEmail); email != "" {
		if id, ok := b.byEmail[email]; ok {
			if l, ok := led.Get(id); ok {
				return l, true
			}
		}
	}
	if name := loan.NormalizeName(c.BorrowerName); name != "" {
		if id, ok := b.byName[name]; ok {
			if l, ok := led.Get(id); ok {
				return l, true
			}
		}
	}
	return loan.Loan{}, false
}

// merge overwrites existing fields with every non-empty candidate field but
// keeps the identifier, owner, schedule, obligations, notes and
// communications of the existing loan. An empty schedule is regenerated
// from the merged terms.
func merge(existing, c loan.Loan) loan.Loan {
	out := existing.Clone()
	if s := strings.TrimSpace(c.BorrowerName); s != "" {
		out.BorrowerName = s
	}
	if s := loan.NormalizeEmail(c.BorrowerEmail); s != "" {
		out.BorrowerEmail = s
	}
	if s := strings.TrimSpace(c.BorrowerPhone); s != "" {
		out.BorrowerPhone = s
	}
	if s := strings.TrimSpace(c.LoanOfficer); s != "" {
		out.LoanOfficer = s
	}
	if c.PrincipalAmount > 0 {
		out.PrincipalAmount = c.PrincipalAmount
	}
	if c.InterestRate > 0 {
		out.InterestRate = c.InterestRate
	}
	if c.TermMonths > 0 {
		out.TermMonths = c.TermMonths
	}
	if !c.StartDate.IsZero() {
		out.StartDate = c.StartDate
	}
	if !c.EndDate.IsZero() {
		out.EndDate = c.EndDate
	}
	for _, t := range c.Tags {
		if !out.HasTag(t) {
			out.Tags = append(out.Tags, t)
		}
	}
	if len(out.PaymentSchedule) == 0 {
		out.PaymentSchedule = loan.GenerateSchedule(termsOf(out))
	}
	return out
}

// fresh turns a candidate into a new loan of owner. A candidate that carries
// its own schedule keeps it.
func (m *Matcher) fresh(owner string, c loan.Loan, now time.Time) loan.Loan {
	out := c.Clone()
	out.ID = m.NewID()
	out.OwnerID = owner
	out.CreatedAt = now
	out.BorrowerEmail = loan.NormalizeEmail(out.BorrowerEmail)
	if out.EndDate.IsZero() && !out.StartDate.IsZero() {
		out.EndDate = loan.MaturityDate(out.StartDate, out.TermMonths)
	}
	if len(out.PaymentSchedule) == 0 {
		out.PaymentSchedule = loan.GenerateSchedule(termsOf(out))
	}
	if out.Obligations == nil {
		out.Obligations = []loan.Obligation{}
	}
	if out.Notes == nil {
		out.Notes = []loan.Note{}
	}
	if out.Communications == nil {
		out.Communications = []loan.Communication{}
	}
	if out.Tags == nil {
		out.Tags = []string{}
	}
	return out
}

func termsOf(l loan.Loan) loan.Terms {
	return loan.Terms{Principal: l.PrincipalAmount, InterestRate: l.InterestRate, TermMonths: l.TermMonths, StartDate: l.StartDate}
}
