package kv

import (
	"context"
	"sync"

	"loanledger/internal/domain/ledger"
	"loanledger/internal/domain/loan"
	"loanledger/internal/domain/uow"
)

// LedgerUoW serializes work per owner: load, run, save on success.
type LedgerUoW struct {
	loans loan.Repository

	mu    sync.Mutex
	locks map[string]*ownerLock
}

type ownerLock struct {
	mu   sync.Mutex
	refs int
}

func NewLedgerUoW(loans loan.Repository) *LedgerUoW {
	return &LedgerUoW{loans: loans, locks: map[string]*ownerLock{}}
}

var _ uow.UnitOfWork = (*LedgerUoW)(nil)

func (u *LedgerUoW) WithinLedger(ctx context.Context, ownerID string, fn func(l *ledger.Ledger) error) error {
	unlock := u.lock(ownerID)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	loans, err := u.loans.LoadAll(ctx, ownerID)
	if err != nil {
		return err
	}
	led := ledger.New(ownerID, loans)
	if err := fn(led); err != nil {
		return err
	}
	if !led.Dirty() {
		return nil
	}
	return u.loans.SaveAll(ctx, ownerID, led.Loans())
}

func (u *LedgerUoW) lock(ownerID string) func() {
	u.mu.Lock()
	l, ok := u.locks[ownerID]
	if !ok {
		l = &ownerLock{}
		u.locks[ownerID] = l
	}
	l.refs++
	u.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		u.mu.Lock()
		if l.refs--; l.refs == 0 {
			delete(u.locks, ownerID)
		}
		u.mu.Unlock()
	}
}
