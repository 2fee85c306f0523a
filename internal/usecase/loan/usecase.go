package loan

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"loanledger/internal/domain/ledger"
	"loanledger/internal/domain/loan"
	"loanledger/internal/domain/session"
	"loanledger/internal/domain/uow"
	"loanledger/pkg/id"
)

type Usecase struct {
	uow uow.UnitOfWork
	log *zap.Logger
	now func() time.Time
}

func NewUsecase(tx uow.UnitOfWork, log *zap.Logger) *Usecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &Usecase{uow: tx, log: log.Named("loan"), now: time.Now}
}

// WithClock replaces the time source.
func (u *Usecase) WithClock(now func() time.Time) *Usecase {
	u.now = now
	return u
}

func (u *Usecase) CreateLoan(ctx context.Context, s session.Session, in CreateLoanInput) (loan.Loan, error) {
	owner, err := s.Owner()
	if err != nil {
		return loan.Loan{}, err
	}
	now := u.now().UTC()
	start := loan.Day(in.StartDate)
	l := loan.Loan{
		ID:              id.NewLoanID(now),
		BorrowerName:    strings.Join(strings.Fields(in.BorrowerName), " "),
		BorrowerEmail:   loan.NormalizeEmail(in.BorrowerEmail),
		BorrowerPhone:   strings.TrimSpace(in.BorrowerPhone),
		LoanOfficer:     strings.TrimSpace(in.LoanOfficer),
		PrincipalAmount: in.PrincipalAmount,
		InterestRate:    in.InterestRate,
		TermMonths:      in.TermMonths,
		StartDate:       start,
		EndDate:         loan.MaturityDate(start, in.TermMonths),
		PaymentSchedule: loan.GenerateSchedule(loan.Terms{
			Principal: in.PrincipalAmount, InterestRate: in.InterestRate, TermMonths: in.TermMonths, StartDate: start,
		}),
		Obligations:    []loan.Obligation{},
		Notes:          []loan.Note{},
		Communications: []loan.Communication{},
		Tags:           append([]string{}, in.Tags...),
		OwnerID:        owner,
		CreatedAt:      now,
	}
	if in.EndDate != nil {
		l.EndDate = loan.Day(*in.EndDate)
	}
	for _, oi := range in.Obligations {
		l.Obligations = append(l.Obligations, obligationFrom(oi, now))
	}

	var out loan.Loan
	err = u.uow.WithinLedger(ctx, owner, func(led *ledger.Ledger) error {
		out, err = led.Put(l, now)
		return err
	})
	if err != nil {
		return loan.Loan{}, err
	}
	u.log.Info("loan created", zap.String("owner_id", owner), zap.String("loan_id", out.ID),
		zap.String("status", string(out.Status)), zap.Int("risk_score", out.RiskScore))
	return out, nil
}

// UpdateSchedule replaces the payment schedule of a loan. Payments are
// ordered by due date before validation.
func (u *Usecase) UpdateSchedule(ctx context.Context, s session.Session, loanID string, schedule []loan.Payment) (loan.Loan, error) {
	return u.mutate(ctx, s, loanID, func(l *loan.Loan, _ time.Time) error {
		next := append([]loan.Payment(nil), schedule...)
		loan.SortSchedule(next)
		l.PaymentSchedule = next
		return nil
	})
}

func (u *Usecase) UpdatePaymentStatus(ctx context.Context, s session.Session, loanID, paymentID string, in PaymentUpdate) (loan.Loan, error) {
	if !in.Status.Valid() {
		return loan.Loan{}, &loan.ValidationError{Field: "status", Reason: "unknown payment status " + string(in.Status)}
	}
	return u.mutate(ctx, s, loanID, func(l *loan.Loan, now time.Time) error {
		for i := range l.PaymentSchedule {
			p := &l.PaymentSchedule[i]
			if p.ID != paymentID {
				continue
			}
			p.Status = in.Status
			switch {
			case in.Status != loan.PaymentPaid:
				p.PaidDate = nil
			case in.PaidDate != nil:
				d := loan.Day(*in.PaidDate)
				p.PaidDate = &d
			default:
				d := loan.Day(now)
				p.PaidDate = &d
			}
			if in.Notes != nil {
				p.Notes = *in.Notes
			}
			return nil
		}
		return loan.ErrPaymentNotFound
	})
}

// UpdateObligation adds or replaces one obligation.
func (u *Usecase) UpdateObligation(ctx context.Context, s session.Session, loanID string, in ObligationInput) (loan.Loan, error) {
	return u.mutate(ctx, s, loanID, func(l *loan.Loan, now time.Time) error {
		o := obligationFrom(in, now)
		if in.ID == "" {
			l.Obligations = append(l.Obligations, o)
			return nil
		}
		for i := range l.Obligations {
			if l.Obligations[i].ID == in.ID {
				l.Obligations[i] = o
				return nil
			}
		}
		return loan.ErrObligationNotFound
	})
}

func (u *Usecase) AddNote(ctx context.Context, s session.Session, loanID string, in NoteInput) (loan.Note, error) {
	if strings.TrimSpace(in.Content) == "" {
		return loan.Note{}, &loan.ValidationError{Field: "content", Reason: "is required"}
	}
	var n loan.Note
	_, err := u.mutate(ctx, s, loanID, func(l *loan.Loan, now time.Time) error {
		n = loan.Note{ID: id.New("note"), Author: strings.TrimSpace(in.Author), Content: in.Content, CreatedAt: now}
		l.Notes = append(l.Notes, n)
		return nil
	})
	return n, err
}

func (u *Usecase) AddCommunication(ctx context.Context, s session.Session, loanID string, in CommunicationInput) (loan.Communication, error) {
	if strings.TrimSpace(in.Content) == "" {
		return loan.Communication{}, &loan.ValidationError{Field: "content", Reason: "is required"}
	}
	var c loan.Communication
	_, err := u.mutate(ctx, s, loanID, func(l *loan.Loan, now time.Time) error {
		c = loan.Communication{
			ID:        id.New("comm"),
			Channel:   strings.ToLower(strings.TrimSpace(in.Channel)),
			Direction: strings.ToLower(strings.TrimSpace(in.Direction)),
			Subject:   in.Subject,
			Content:   in.Content,
			CreatedAt: now,
		}
		l.Communications = append(l.Communications, c)
		return nil
	})
	return c, err
}

// DeleteLoan removes a loan; only its owner may do so.
func (u *Usecase) DeleteLoan(ctx context.Context, s session.Session, loanID string) error {
	owner, err := s.Owner()
	if err != nil {
		return err
	}
	err = u.uow.WithinLedger(ctx, owner, func(led *ledger.Ledger) error {
		return led.Remove(loanID, owner)
	})
	if err != nil {
		return err
	}
	u.log.Info("loan deleted", zap.String("owner_id", owner), zap.String("loan_id", loanID))
	return nil
}

func (u *Usecase) GetLoan(ctx context.Context, s session.Session, loanID string) (loan.Loan, error) {
	var out loan.Loan
	err := u.read(ctx, s, func(led *ledger.Ledger, _ time.Time) error {
		l, ok := led.Get(loanID)
		if !ok {
			return loan.ErrNotFound
		}
		out = l
		return nil
	})
	return out, err
}

func (u *Usecase) ListLoans(ctx context.Context, s session.Session, f ledger.Filter) ([]loan.Loan, error) {
	var out []loan.Loan
	err := u.read(ctx, s, func(led *ledger.Ledger, _ time.Time) error {
		out = led.Filter(f)
		return nil
	})
	if out == nil {
		out = []loan.Loan{}
	}
	return out, err
}

// Stats computes portfolio statistics over the loans matching f.
func (u *Usecase) Stats(ctx context.Context, s session.Session, f ledger.Filter) (ledger.PortfolioStats, error) {
	var out ledger.PortfolioStats
	err := u.read(ctx, s, func(led *ledger.Ledger, now time.Time) error {
		out = ledger.Stats(led.Filter(f), now)
		return nil
	})
	return out, err
}

func (u *Usecase) Export(ctx context.Context, s session.Session) (ledger.Export, error) {
	var out ledger.Export
	err := u.read(ctx, s, func(led *ledger.Ledger, now time.Time) error {
		out = ledger.NewExport(led.Loans(), now)
		return nil
	})
	return out, err
}

// read runs fn on a ledger whose derived fields are current for now.
// Nothing is written back.
func (u *Usecase) read(ctx context.Context, s session.Session, fn func(*ledger.Ledger, time.Time) error) error {
	owner, err := s.Owner()
	if err != nil {
		return err
	}
	now := u.now().UTC()
	return u.uow.WithinLedger(ctx, owner, func(led *ledger.Ledger) error {
		led.Refresh(now)
		return fn(led, now)
	})
}

// mutate applies fn to a copy of one loan and writes it back through the
// ledger, which re-derives status and risk.
func (u *Usecase) mutate(ctx context.Context, s session.Session, loanID string, fn func(*loan.Loan, time.Time) error) (loan.Loan, error) {
	owner, err := s.Owner()
	if err != nil {
		return loan.Loan{}, err
	}
	now := u.now().UTC()
	var out loan.Loan
	err = u.uow.WithinLedger(ctx, owner, func(led *ledger.Ledger) error {
		l, ok := led.Get(loanID)
		if !ok {
			return loan.ErrNotFound
		}
		if err := fn(&l, now); err != nil {
			return err
		}
		out, err = led.Put(l, now)
		return err
	})
	if err != nil {
		return loan.Loan{}, err
	}
	u.log.Debug("loan updated", zap.String("owner_id", owner), zap.String("loan_id", loanID),
		zap.String("status", string(out.Status)), zap.Int("risk_score", out.RiskScore))
	return out, nil
}

func obligationFrom(in ObligationInput, now time.Time) loan.Obligation {
	o := loan.Obligation{
		ID:          in.ID,
		Type:        in.Type,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		DueDate:     loan.Day(in.DueDate),
		Completed:   in.Completed,
		Notes:       in.Notes,
	}
	if o.ID == "" {
		o.ID = id.New("obl")
	}
	if o.Completed {
		d := loan.Day(now)
		if in.CompletedDate != nil {
			d = loan.Day(*in.CompletedDate)
		}
		o.CompletedDate = &d
	}
	return o
}
