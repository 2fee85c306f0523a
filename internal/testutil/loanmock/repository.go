package loanmock

import (
	"context"

	domain "loanledger/internal/domain/loan"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
// Unset functions behave like an empty store.
type Repo struct {
	LoadAllFn func(ctx context.Context, ownerID string) ([]domain.Loan, error)
	SaveAllFn func(ctx context.Context, ownerID string, loans []domain.Loan) error
}

func (m *Repo) LoadAll(ctx context.Context, ownerID string) ([]domain.Loan, error) {
	if m.LoadAllFn != nil {
		return m.LoadAllFn(ctx, ownerID)
	}
	return nil, nil
}

func (m *Repo) SaveAll(ctx context.Context, ownerID string, loans []domain.Loan) error {
	if m.SaveAllFn != nil {
		return m.SaveAllFn(ctx, ownerID, loans)
	}
	return nil
}
