package uow

import (
	"context"

	"loanledger/internal/domain/ledger"
)

// UnitOfWork loads an owner's ledger, hands it to fn and persists it only
// when fn succeeds. Calls for the same owner are serialized.
type UnitOfWork interface {
	WithinLedger(ctx context.Context, ownerID string, fn func(l *ledger.Ledger) error) error
}
