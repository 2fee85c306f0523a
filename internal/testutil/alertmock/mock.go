package alertmock

import (
	"context"

	"loanledger/internal/domain/alert"
)

var _ alert.Repository = (*Repo)(nil)

// Repo is a function-backed mock of alert.Repository. Unset functions
// behave like an empty store that accepts every write.
type Repo struct {
	LoadAllFn      func(ctx context.Context, ownerID string) ([]alert.Alert, error)
	SaveAllFn      func(ctx context.Context, ownerID string, alerts []alert.Alert) error
	MarkNotifiedFn func(ctx context.Context, ownerID, alertID string) (bool, error)
}

func (m *Repo) LoadAll(ctx context.Context, ownerID string) ([]alert.Alert, error) {
	if m.LoadAllFn != nil {
		return m.LoadAllFn(ctx, ownerID)
	}
	return nil, nil
}

func (m *Repo) SaveAll(ctx context.Context, ownerID string, alerts []alert.Alert) error {
	if m.SaveAllFn != nil {
		return m.SaveAllFn(ctx, ownerID, alerts)
	}
	return nil
}

func (m *Repo) MarkNotified(ctx context.Context, ownerID, alertID string) (bool, error) {
	if m.MarkNotifiedFn != nil {
		return m.MarkNotifiedFn(ctx, ownerID, alertID)
	}
	return true, nil
}

// Notifier records every alert it is asked to deliver.
type Notifier struct {
	NotifyFn func(ctx context.Context, ownerID string, a alert.Alert) error
	Sent     []alert.Alert
}

func (n *Notifier) Notify(ctx context.Context, ownerID string, a alert.Alert) error {
	n.Sent = append(n.Sent, a)
	if n.NotifyFn != nil {
		return n.NotifyFn(ctx, ownerID, a)
	}
	return nil
}
