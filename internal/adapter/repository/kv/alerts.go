package kv

import (
	"context"
	"time"

	"loanledger/internal/domain/alert"
	"loanledger/internal/domain/store"
)

type AlertRepository struct {
	st  store.Store
	now func() time.Time
}

func NewAlertRepository(st store.Store) *AlertRepository {
	return &AlertRepository{st: st, now: time.Now}
}

var _ alert.Repository = (*AlertRepository)(nil)

func (r *AlertRepository) LoadAll(ctx context.Context, ownerID string) ([]alert.Alert, error) {
	var out []alert.Alert
	if err := load(ctx, r.st, store.AlertsKey(ownerID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *AlertRepository) SaveAll(ctx context.Context, ownerID string, alerts []alert.Alert) error {
	if alerts == nil {
		alerts = []alert.Alert{}
	}
	return save(ctx, r.st, store.AlertsKey(ownerID), alerts)
}

// MarkNotified uses the store's atomic set-if-absent when it has one.
func (r *AlertRepository) MarkNotified(ctx context.Context, ownerID, alertID string) (bool, error) {
	key := store.NotifiedKey(ownerID, alertID)
	stamp := r.now().UTC().Format(time.RFC3339)
	if c, ok := r.st.(store.Conditional); ok {
		return c.SetIfAbsent(ctx, key, stamp)
	}
	_, seen, err := r.st.Get(ctx, key)
	if err != nil || seen {
		return false, err
	}
	if err := r.st.Set(ctx, key, stamp); err != nil {
		return false, err
	}
	return true, nil
}
