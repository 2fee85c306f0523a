package alert

import (
	"context"
	"time"

	"go.uber.org/zap"

	"loanledger/internal/domain/alert"
	"loanledger/internal/domain/ledger"
	"loanledger/internal/domain/session"
	"loanledger/internal/domain/uow"
)

// Notifier receives alerts on the day they cross their notification boundary.
type Notifier interface {
	Notify(ctx context.Context, ownerID string, a alert.Alert) error
}

type Usecase struct {
	uow      uow.UnitOfWork
	alerts   alert.Repository
	notifier Notifier
	log      *zap.Logger
	now      func() time.Time
}

// NewUsecase wires alert generation. notifier may be nil.
func NewUsecase(tx uow.UnitOfWork, alerts alert.Repository, notifier Notifier, log *zap.Logger) *Usecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &Usecase{uow: tx, alerts: alerts, notifier: notifier, log: log.Named("alert"), now: time.Now}
}

func (u *Usecase) WithClock(now func() time.Time) *Usecase {
	u.now = now
	return u
}

// GenerateAlerts rebuilds the owner's alert set from the ledger as of now,
// keeping read flags, and sends each boundary notification at most once.
func (u *Usecase) GenerateAlerts(ctx context.Context, s session.Session) ([]alert.Alert, error) {
	owner, err := s.Owner()
	if err != nil {
		return nil, err
	}
	now := u.now().UTC()

	// The alert document is rewritten under the owner's ledger lock so a
	// concurrent MarkAlertRead cannot be lost.
	var next []alert.Alert
	err = u.uow.WithinLedger(ctx, owner, func(led *ledger.Ledger) error {
		led.Refresh(now)
		prev, err := u.alerts.LoadAll(ctx, owner)
		if err != nil {
			return err
		}
		next = alert.Merge(alert.Generate(led.Loans(), now), prev)
		return u.alerts.SaveAll(ctx, owner, next)
	})
	if err != nil {
		return nil, err
	}

	sent := 0
	for _, a := range next {
		if !alert.IsBoundary(a) || u.notifier == nil {
			continue
		}
		first, err := u.alerts.MarkNotified(ctx, owner, a.ID)
		if err != nil {
			u.log.Warn("notification marker failed", zap.String("alert_id", a.ID), zap.Error(err))
			continue
		}
		if !first {
			continue
		}
		if err := u.notifier.Notify(ctx, owner, a); err != nil {
			u.log.Warn("notification failed", zap.String("alert_id", a.ID), zap.Error(err))
			continue
		}
		sent++
	}
	u.log.Info("alerts generated", zap.String("owner_id", owner), zap.Int("alerts", len(next)), zap.Int("notified", sent))
	if next == nil {
		next = []alert.Alert{}
	}
	return next, nil
}

func (u *Usecase) ListAlerts(ctx context.Context, s session.Session, unreadOnly bool) ([]alert.Alert, error) {
	owner, err := s.Owner()
	if err != nil {
		return nil, err
	}
	all, err := u.alerts.LoadAll(ctx, owner)
	if err != nil {
		return nil, err
	}
	out := make([]alert.Alert, 0, len(all))
	for _, a := range all {
		if unreadOnly && a.Read {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (u *Usecase) MarkAlertRead(ctx context.Context, s session.Session, alertID string) (alert.Alert, error) {
	owner, err := s.Owner()
	if err != nil {
		return alert.Alert{}, err
	}
	var marked alert.Alert
	err = u.uow.WithinLedger(ctx, owner, func(*ledger.Ledger) error {
		all, err := u.alerts.LoadAll(ctx, owner)
		if err != nil {
			return err
		}
		for i := range all {
			if all[i].ID != alertID {
				continue
			}
			if all[i].Read {
				marked = all[i]
				return nil
			}
			all[i].Read = true
			marked = all[i]
			return u.alerts.SaveAll(ctx, owner, all)
		}
		return alert.ErrNotFound
	})
	if err != nil {
		return alert.Alert{}, err
	}
	return marked, nil
}
