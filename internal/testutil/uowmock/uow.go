package uowmock

import (
	"context"
	"errors"

	"loanledger/internal/domain/ledger"
	"loanledger/internal/domain/uow"
)

// Ensure compile-time compliance
var _ uow.UnitOfWork = (*UoW)(nil)

var errUnimplemented = errors.New("uowmock: method not implemented")

// UoW is a function-backed mock that satisfies uow.UnitOfWork.
// An unfilled WithinLedgerFn returns errUnimplemented.
type UoW struct {
	WithinLedgerFn func(ctx context.Context, ownerID string, fn func(l *ledger.Ledger) error) error
}

func New() *UoW { return &UoW{} }

// WithLedger makes the mock hand led to every call, ignoring the owner.
func (m *UoW) WithLedger(led *ledger.Ledger) *UoW {
	m.WithinLedgerFn = func(_ context.Context, _ string, fn func(*ledger.Ledger) error) error {
		return fn(led)
	}
	return m
}

func (m *UoW) WithWithinLedger(fn func(context.Context, string, func(*ledger.Ledger) error) error) *UoW {
	m.WithinLedgerFn = fn
	return m
}

func (m *UoW) Reset() { *m = UoW{} }

func (m *UoW) WithinLedger(ctx context.Context, ownerID string, fn func(l *ledger.Ledger) error) error {
	if m.WithinLedgerFn != nil {
		return m.WithinLedgerFn(ctx, ownerID, fn)
	}
	return errUnimplemented
}
