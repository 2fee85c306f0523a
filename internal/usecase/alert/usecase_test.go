package alert

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"loanledger/internal/adapter/repository/kv"
	"loanledger/internal/adapter/repository/memory"
	domain "loanledger/internal/domain/alert"
	"loanledger/internal/domain/ledger"
	"loanledger/internal/domain/loan"
	"loanledger/internal/domain/session"
	"loanledger/internal/testutil/alertmock"
	"loanledger/internal/testutil/uowmock"
)

var (
	now   = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	owner = session.New("owner-1")
)

// dueInSevenDaysLoan has its first payment exactly at the notification boundary.
func dueInSevenDaysLoan() loan.Loan {
	start := time.Date(2025, 2, 17, 0, 0, 0, 0, time.UTC)
	return loan.Loan{
		ID: "L1", BorrowerName: "Acme", PrincipalAmount: 12000, InterestRate: 5, TermMonths: 12,
		StartDate: start, EndDate: loan.MaturityDate(start, 12),
		PaymentSchedule: loan.GenerateSchedule(loan.Terms{Principal: 12000, InterestRate: 5, TermMonths: 12, StartDate: start}),
		Obligations: []loan.Obligation{
			{ID: "o1", Type: loan.ObligationReporting, Title: "Audit", DueDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)},
		},
		OwnerID: "owner-1",
	}
}

func dueInSevenDays(t *testing.T) *ledger.Ledger {
	t.Helper()
	led := ledger.New("owner-1", nil)
	if _, err := led.Put(dueInSevenDaysLoan(), now); err != nil {
		t.Fatal(err)
	}
	return led
}

func setup(t *testing.T) (*Usecase, *alertmock.Notifier) {
	n := &alertmock.Notifier{}
	uc := NewUsecase(uowmock.New().WithLedger(dueInSevenDays(t)), kv.NewAlertRepository(memory.New()), n, nil).
		WithClock(func() time.Time { return now })
	return uc, n
}

func TestGenerateAlerts_NotifiesBoundaryOnce(t *testing.T) {
	uc, n := setup(t)
	ctx := context.Background()

	got, err := uc.GenerateAlerts(ctx, owner)
	if err != nil {
		t.Fatalf("GenerateAlerts: %v", err)
	}
	// risk is 50 + 20 (past-due obligation) + 15 (at risk) = 85: a high warning
	if len(got) != 3 {
		t.Fatalf("alerts = %+v", got)
	}
	if got[0].ID != "L1:o1:obligation_due" || got[1].ID != "L1:risk:risk_warning" || got[2].ID != "L1:pmt-001:payment_due" {
		t.Fatalf("order = %s, %s, %s", got[0].ID, got[1].ID, got[2].ID)
	}
	if got[1].Severity != domain.SeverityHigh {
		t.Fatalf("risk severity = %s", got[1].Severity)
	}
	if len(n.Sent) != 1 || n.Sent[0].ID != "L1:pmt-001:payment_due" {
		t.Fatalf("notifications = %+v", n.Sent)
	}

	if _, err := uc.GenerateAlerts(ctx, owner); err != nil {
		t.Fatal(err)
	}
	if len(n.Sent) != 1 {
		t.Fatalf("boundary notified again: %d", len(n.Sent))
	}
}

func TestGenerateAlerts_PreservesReadFlag(t *testing.T) {
	uc, _ := setup(t)
	ctx := context.Background()
	if _, err := uc.GenerateAlerts(ctx, owner); err != nil {
		t.Fatal(err)
	}
	read, err := uc.MarkAlertRead(ctx, owner, "L1:o1:obligation_due")
	if err != nil || !read.Read {
		t.Fatalf("MarkAlertRead = %+v, %v", read, err)
	}

	again, err := uc.GenerateAlerts(ctx, owner)
	if err != nil {
		t.Fatal(err)
	}
	if !again[0].Read || again[1].Read || again[2].Read {
		t.Fatalf("read flags = %v, %v, %v", again[0].Read, again[1].Read, again[2].Read)
	}

	unread, err := uc.ListAlerts(ctx, owner, true)
	if err != nil || len(unread) != 2 || unread[0].ID != "L1:risk:risk_warning" {
		t.Fatalf("unread = %+v, %v", unread, err)
	}
	all, _ := uc.ListAlerts(ctx, owner, false)
	if len(all) != 3 {
		t.Fatalf("all = %d", len(all))
	}
}

func TestMarkAlertRead_NotFound(t *testing.T) {
	uc, _ := setup(t)
	if _, err := uc.MarkAlertRead(context.Background(), owner, "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestGenerateAlerts_SaveFailure(t *testing.T) {
	boom := errors.New("redis down")
	n := &alertmock.Notifier{}
	repo := &alertmock.Repo{SaveAllFn: func(context.Context, string, []domain.Alert) error { return boom }}
	uc := NewUsecase(uowmock.New().WithLedger(dueInSevenDays(t)), repo, n, nil).WithClock(func() time.Time { return now })

	if _, err := uc.GenerateAlerts(context.Background(), owner); !errors.Is(err, boom) {
		t.Fatalf("want save error, got %v", err)
	}
	if len(n.Sent) != 0 {
		t.Fatal("notified although the alert set was not saved")
	}
}

func TestGenerateAlerts_NotifierErrorIsNotFatal(t *testing.T) {
	n := &alertmock.Notifier{NotifyFn: func(context.Context, string, domain.Alert) error { return errors.New("smtp") }}
	uc := NewUsecase(uowmock.New().WithLedger(dueInSevenDays(t)), &alertmock.Repo{}, n, nil).WithClock(func() time.Time { return now })
	if _, err := uc.GenerateAlerts(context.Background(), owner); err != nil {
		t.Fatalf("notifier failure surfaced: %v", err)
	}
	if len(n.Sent) != 1 {
		t.Fatalf("sent = %d", len(n.Sent))
	}
}

func TestAlerts_NoOwner(t *testing.T) {
	uc, _ := setup(t)
	if _, err := uc.GenerateAlerts(context.Background(), session.Session{}); !errors.Is(err, session.ErrNoOwner) {
		t.Fatalf("want ErrNoOwner, got %v", err)
	}
}

// slowStore widens the window between loading and saving a document.
type slowStore struct {
	*memory.Store
	delay time.Duration
}

func (s slowStore) Get(ctx context.Context, key string) (string, bool, error) {
	time.Sleep(s.delay)
	return s.Store.Get(ctx, key)
}

func TestMarkAlertRead_ConcurrentCallsKeepEveryFlag(t *testing.T) {
	st := slowStore{Store: memory.New(), delay: 5 * time.Millisecond}
	tx := kv.NewLedgerUoW(kv.NewLoanRepository(st))
	ctx := context.Background()
	err := tx.WithinLedger(ctx, "owner-1", func(led *ledger.Ledger) error {
		_, err := led.Put(dueInSevenDaysLoan(), now)
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	uc := NewUsecase(tx, kv.NewAlertRepository(st), nil, nil).WithClock(func() time.Time { return now })

	all, err := uc.GenerateAlerts(ctx, owner)
	if err != nil || len(all) != 3 {
		t.Fatalf("GenerateAlerts = %d, %v", len(all), err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(all)+1)
	for _, a := range all {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if _, err := uc.MarkAlertRead(ctx, owner, id); err != nil {
				errs <- err
			}
		}(a.ID)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := uc.GenerateAlerts(ctx, owner); err != nil {
			errs <- err
		}
	}()
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent call: %v", err)
	}

	unread, err := uc.ListAlerts(ctx, owner, true)
	if err != nil || len(unread) != 0 {
		t.Fatalf("unread after marking all = %+v, %v", unread, err)
	}
}
