package importing

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"loanledger/internal/domain/importer"
	"loanledger/internal/domain/ledger"
	"loanledger/internal/domain/reconcile"
	"loanledger/internal/domain/session"
	"loanledger/internal/domain/uow"
	"loanledger/pkg/id"
)

type Mode string

const (
	ModeAppend    Mode = "append"
	ModeReconcile Mode = "reconcile"
)

// Source yields a normalized batch. Implementations read their input fully
// before returning.
type Source interface {
	Read(ctx context.Context) (*importer.Batch, error)
}

// Report is the outcome of one import.
type Report struct {
	Mode Mode `json:"mode"`
	reconcile.Result
	Mapping map[importer.Field]string `json:"mapping,omitempty"`
}

type Usecase struct {
	uow uow.UnitOfWork
	log *zap.Logger
	now func() time.Time
}

func NewUsecase(tx uow.UnitOfWork, log *zap.Logger) *Usecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &Usecase{uow: tx, log: log.Named("import"), now: time.Now}
}

func (u *Usecase) WithClock(now func() time.Time) *Usecase {
	u.now = now
	return u
}

// ImportAppendOnly adds every new candidate and skips duplicates.
func (u *Usecase) ImportAppendOnly(ctx context.Context, s session.Session, src Source) (Report, error) {
	return u.run(ctx, s, src, ModeAppend)
}

// ImportReconcile merges candidates into matching loans and adds the rest.
func (u *Usecase) ImportReconcile(ctx context.Context, s session.Session, src Source) (Report, error) {
	return u.run(ctx, s, src, ModeReconcile)
}

func (u *Usecase) Import(ctx context.Context, s session.Session, src Source, mode Mode) (Report, error) {
	if mode == ModeReconcile {
		return u.ImportReconcile(ctx, s, src)
	}
	return u.ImportAppendOnly(ctx, s, src)
}

func (u *Usecase) run(ctx context.Context, s session.Session, src Source, mode Mode) (Report, error) {
	owner, err := s.Owner()
	if err != nil {
		return Report{}, err
	}
	// the source is consumed before the ledger is touched, so a read or
	// parse failure leaves it unchanged
	batch, err := src.Read(ctx)
	if err != nil {
		u.log.Warn("import rejected", zap.String("owner_id", owner), zap.String("mode", string(mode)), zap.Error(err))
		return Report{}, err
	}

	m := &reconcile.Matcher{
		Now:   func() time.Time { return u.now().UTC() },
		NewID: func() string { return id.NewLoanID(u.now().UTC()) },
	}
	var res reconcile.Result
	err = u.uow.WithinLedger(ctx, owner, func(led *ledger.Ledger) error {
		if mode == ModeReconcile {
			res = m.Reconcile(led, batch.Candidates)
		} else {
			res = m.AppendOnly(led, batch.Candidates)
		}
		return nil
	})
	if err != nil {
		return Report{}, err
	}

	res.Skipped += len(batch.Skipped)
	res.Errors = append(res.Errors, batch.Skipped...)
	sort.SliceStable(res.Errors, func(i, j int) bool { return res.Errors[i].Row < res.Errors[j].Row })
	if res.Errors == nil {
		res.Errors = []importer.RowError{}
	}

	u.log.Info("import applied",
		zap.String("owner_id", owner),
		zap.String("mode", string(mode)),
		zap.Int("imported", res.Imported),
		zap.Int("created", res.Created),
		zap.Int("updated", res.Updated),
		zap.Int("duplicates", res.Duplicates),
		zap.Int("skipped", res.Skipped),
	)
	return Report{Mode: mode, Result: res, Mapping: batch.Mapping}, nil
}
