package loan

import "context"

// Repository persists the loan set of one owner as a unit.
type Repository interface {
	// LoadAll returns every loan of the owner; an owner with no ledger yet has none.
	LoadAll(ctx context.Context, ownerID string) ([]Loan, error)
	// SaveAll replaces the stored loan set of the owner.
	SaveAll(ctx context.Context, ownerID string, loans []Loan) error
}
