package importing

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"loanledger/internal/adapter/repository/kv"
	"loanledger/internal/adapter/repository/memory"
	"loanledger/internal/adapter/source"
	"loanledger/internal/domain/importer"
	"loanledger/internal/domain/loan"
	"loanledger/internal/domain/session"
	"loanledger/internal/testutil/loanmock"
)

var (
	now   = time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	owner = session.New("owner-1")
)

const portfolio = `Borrower,Email,Amount,Rate,Term,Start Date
Alpha Co,alpha@x.com,5000,4,6,2025-01-10
Beta Co,,7000,4.5,12,2025-01-15
Broken Co,,0,4,12,2025-01-15
`

func csvSource(s string) source.Input {
	return source.Input{Format: source.FormatCSV, R: strings.NewReader(s)}
}

func setup() (*Usecase, *kv.LoanRepository) {
	repo := kv.NewLoanRepository(memory.New())
	uc := NewUsecase(kv.NewLedgerUoW(repo), nil).WithClock(func() time.Time { return now })
	return uc, repo
}

func TestImportAppendOnly_TwiceAddsNothing(t *testing.T) {
	uc, repo := setup()
	ctx := context.Background()

	first, err := uc.ImportAppendOnly(ctx, owner, csvSource(portfolio))
	if err != nil {
		t.Fatalf("first import: %v", err)
	}
	if first.Created != 2 || first.Skipped != 1 || len(first.Errors) != 1 || first.Errors[0].Row != 3 {
		t.Fatalf("first = %+v", first)
	}
	if first.Mapping[importer.FieldBorrowerEmail] != "Email" {
		t.Fatalf("mapping = %v", first.Mapping)
	}

	second, err := uc.ImportAppendOnly(ctx, owner, csvSource(portfolio))
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if second.Created != 0 || second.Duplicates != 2 {
		t.Fatalf("second = %+v", second)
	}
	loans, _ := repo.LoadAll(ctx, "owner-1")
	if len(loans) != 2 {
		t.Fatalf("stored %d loans, want 2", len(loans))
	}
	for _, l := range loans {
		if !strings.HasPrefix(l.ID, "loan_") || l.Status == "" {
			t.Fatalf("stored loan not completed: %+v", l)
		}
	}
}

func TestImportReconcile_MergesExisting(t *testing.T) {
	uc, repo := setup()
	ctx := context.Background()
	if _, err := uc.ImportAppendOnly(ctx, owner, csvSource(portfolio)); err != nil {
		t.Fatal(err)
	}
	before, _ := repo.LoadAll(ctx, "owner-1")

	update := "Customer,E-mail,Phone,Principal,APR,Months,Date\n" +
		"Alpha Company,ALPHA@x.com,555-0100,5000,4,6,2025-01-10\n" +
		"Gamma Co,,,9000,3,6,2025-01-20\n"
	rep, err := uc.ImportReconcile(ctx, owner, csvSource(update))
	if err != nil {
		t.Fatalf("ImportReconcile: %v", err)
	}
	if rep.Mode != ModeReconcile || rep.Updated != 1 || rep.Created != 1 {
		t.Fatalf("report = %+v", rep)
	}
	after, _ := repo.LoadAll(ctx, "owner-1")
	if len(after) != 3 {
		t.Fatalf("ledger has %d loans, want 3", len(after))
	}
	if after[0].ID != before[0].ID || after[0].BorrowerPhone != "555-0100" || after[0].BorrowerName != "Alpha Company" {
		t.Fatalf("merged = %+v", after[0])
	}
}

func TestImport_OverlongTermIsSkipped(t *testing.T) {
	const rows = `Borrower,Amount,Rate,Term,Start Date
Good Co,5000,4,6,2025-01-10
Forever Co,5000,4,120000,2025-01-10
`
	const export = `{"loans":[
{"borrowerName":"Good Export","principalAmount":5000,"interestRate":4,"termMonths":6,"startDate":"2025-01-10T00:00:00Z"},
{"borrowerName":"Forever Export","principalAmount":5000,"interestRate":4,"termMonths":120000,"startDate":"2025-01-10T00:00:00Z"}
]}`
	cases := []struct {
		name string
		in   source.Input
	}{
		{"csv", csvSource(rows)},
		{"json export", source.Input{Format: source.FormatJSON, R: strings.NewReader(export)}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			uc, repo := setup()
			ctx := context.Background()
			rep, err := uc.ImportReconcile(ctx, owner, c.in)
			if err != nil {
				t.Fatalf("import aborted: %v", err)
			}
			if rep.Created != 1 || rep.Skipped != 1 || len(rep.Errors) != 1 || rep.Errors[0].Row != 2 {
				t.Fatalf("report = %+v", rep)
			}
			if !strings.Contains(rep.Errors[0].Reason, "term") {
				t.Fatalf("reason = %q", rep.Errors[0].Reason)
			}
			if loans, _ := repo.LoadAll(ctx, "owner-1"); len(loans) != 1 {
				t.Fatalf("stored %d loans, want 1", len(loans))
			}
		})
	}
}

func TestImport_ParseErrorLeavesLedgerUntouched(t *testing.T) {
	repo := &loanmock.Repo{
		LoadAllFn: func(context.Context, string) ([]loan.Loan, error) {
			t.Fatal("ledger loaded for a rejected source")
			return nil, nil
		},
	}
	uc := NewUsecase(kv.NewLedgerUoW(repo), nil)

	_, err := uc.ImportReconcile(context.Background(), owner, csvSource("Name,Comment\nA,b\n"))
	var pe *importer.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("want ParseError, got %v", err)
	}
}

func TestImport_CanceledSource(t *testing.T) {
	uc, repo := setup()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := uc.Import(ctx, owner, csvSource(portfolio), ModeAppend); !errors.Is(err, context.Canceled) {
		t.Fatalf("want cancellation, got %v", err)
	}
	if loans, _ := repo.LoadAll(context.Background(), "owner-1"); len(loans) != 0 {
		t.Fatal("canceled import wrote loans")
	}
}

func TestImport_PersistenceFailure(t *testing.T) {
	boom := errors.New("disk full")
	repo := &loanmock.Repo{SaveAllFn: func(context.Context, string, []loan.Loan) error { return boom }}
	uc := NewUsecase(kv.NewLedgerUoW(repo), nil)
	if _, err := uc.ImportAppendOnly(context.Background(), owner, csvSource(portfolio)); !errors.Is(err, boom) {
		t.Fatalf("want save error, got %v", err)
	}
}

func TestImport_NoOwner(t *testing.T) {
	uc, _ := setup()
	if _, err := uc.ImportAppendOnly(context.Background(), session.Session{}, csvSource(portfolio)); !errors.Is(err, session.ErrNoOwner) {
		t.Fatalf("want ErrNoOwner, got %v", err)
	}
}
