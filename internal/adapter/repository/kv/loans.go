package kv

import (
	"context"
	"encoding/json"

	"loanledger/internal/domain/loan"
	"loanledger/internal/domain/store"
)

// LoanRepository keeps each owner's loan set as one JSON document.
type LoanRepository struct{ st store.Store }

func NewLoanRepository(st store.Store) *LoanRepository { return &LoanRepository{st: st} }

var _ loan.Repository = (*LoanRepository)(nil)

func (r *LoanRepository) LoadAll(ctx context.Context, ownerID string) ([]loan.Loan, error) {
	var out []loan.Loan
	if err := load(ctx, r.st, store.LoansKey(ownerID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *LoanRepository) SaveAll(ctx context.Context, ownerID string, loans []loan.Loan) error {
	if loans == nil {
		loans = []loan.Loan{}
	}
	return save(ctx, r.st, store.LoansKey(ownerID), loans)
}

func load(ctx context.Context, st store.Store, key string, dst any) error {
	raw, ok, err := st.Get(ctx, key)
	if err != nil || !ok {
		return err
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return &store.PersistenceError{Op: "decode", Key: key, Err: err}
	}
	return nil
}

func save(ctx context.Context, st store.Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return &store.PersistenceError{Op: "encode", Key: key, Err: err}
	}
	return st.Set(ctx, key, string(raw))
}
