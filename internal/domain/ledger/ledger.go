package ledger

import (
	"time"

	"loanledger/internal/domain/loan"
)

// Ledger is the set of loans visible to one owner. Records are replaced
// whole by identifier; readers always get clones of enriched records.
type Ledger struct {
	owner string
	loans []loan.Loan
	index map[string]int
	dirty bool
}

func New(ownerID string, loans []loan.Loan) *Ledger {
	l := &Ledger{owner: ownerID, loans: make([]loan.Loan, 0, len(loans)), index: map[string]int{}}
	for _, ln := range loans {
		l.index[ln.ID] = len(l.loans)
		l.loans = append(l.loans, ln.Clone())
	}
	return l
}

func (l *Ledger) Owner() string { return l.owner }
func (l *Ledger) Len() int      { return len(l.loans) }

// Dirty reports whether the ledger changed since it was built.
func (l *Ledger) Dirty() bool { return l.dirty }

func (l *Ledger) Get(id string) (loan.Loan, bool) {
	i, ok := l.index[id]
	if !ok {
		return loan.Loan{}, false
	}
	return l.loans[i].Clone(), true
}

// Loans returns clones of every record in insertion order.
func (l *Ledger) Loans() []loan.Loan {
	out := make([]loan.Loan, len(l.loans))
	for i, ln := range l.loans {
		out[i] = ln.Clone()
	}
	return out
}

// Put enriches ln, validates it and stores it, replacing any record with the same ID.
func (l *Ledger) Put(ln loan.Loan, now time.Time) (loan.Loan, error) {
	if ln.OwnerID == "" {
		ln.OwnerID = l.owner
	}
	if ln.OwnerID != l.owner {
		return loan.Loan{}, loan.ErrForbidden
	}
	ln = loan.Enrich(ln.Clone(), now)
	if err := ln.Validate(); err != nil {
		return loan.Loan{}, err
	}
	ln.UpdatedAt = now
	if i, ok := l.index[ln.ID]; ok {
		ln.CreatedAt = l.loans[i].CreatedAt
		l.loans[i] = ln
	} else {
		if ln.CreatedAt.IsZero() {
			ln.CreatedAt = now
		}
		l.index[ln.ID] = len(l.loans)
		l.loans = append(l.loans, ln)
	}
	l.dirty = true
	return ln.Clone(), nil
}

// Remove deletes a loan. Only the managing owner may delete it.
func (l *Ledger) Remove(id, ownerID string) error {
	i, ok := l.index[id]
	if !ok {
		return loan.ErrNotFound
	}
	if l.loans[i].OwnerID != ownerID {
		return loan.ErrForbidden
	}
	l.loans = append(l.loans[:i], l.loans[i+1:]...)
	delete(l.index, id)
	for j := i; j < len(l.loans); j++ {
		l.index[l.loans[j].ID] = j
	}
	l.dirty = true
	return nil
}

// Refresh re-enriches every record against now.
func (l *Ledger) Refresh(now time.Time) {
	for i := range l.loans {
		l.loans[i] = loan.Enrich(l.loans[i], now)
	}
}
