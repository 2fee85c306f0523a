package http

import (
	"bytes"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"loanledger/internal/adapter/middleware"
	"loanledger/internal/adapter/notify"
	"loanledger/internal/adapter/repository/kv"
	"loanledger/internal/adapter/repository/memory"
	"loanledger/internal/domain/loan"
	alertuc "loanledger/internal/usecase/alert"
	"loanledger/internal/usecase/importing"
	loanuc "loanledger/internal/usecase/loan"
)

// -------- helpers --------

var testNow = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

func newAPI(t *testing.T) *echo.Echo {
	t.Helper()
	st := memory.New()
	loans := kv.NewLoanRepository(st)
	tx := kv.NewLedgerUoW(loans)
	clock := func() time.Time { return testNow }

	e := echo.New()
	e.Validator = NewValidator()
	Register(e, Routes{
		Health:  NewHandler(nil),
		Loans:   NewLoanHandler(loanuc.NewUsecase(tx, nil).WithClock(clock)),
		Imports: NewImportHandler(importing.NewUsecase(tx, nil).WithClock(clock)),
		Alerts: NewAlertHandler(alertuc.NewUsecase(tx, kv.NewAlertRepository(st),
			notify.NewLogNotifier(nil), nil).WithClock(clock)),
	})
	return e
}

func call(t *testing.T, e *echo.Echo, owner, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rdr *bytes.Reader
	switch b := body.(type) {
	case nil:
		rdr = bytes.NewReader(nil)
	case string:
		rdr = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	if _, isText := body.(string); !isText {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if owner != "" {
		req.Header.Set(middleware.HeaderOwnerID, owner)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("bad json: %v; raw=%s", err, rec.Body.String())
	}
	return v
}

func loanBody() map[string]any {
	return map[string]any{
		"borrowerName":    "Acme Ltd",
		"borrowerEmail":   "ops@acme.test",
		"loanOfficer":     "Dana",
		"principalAmount": 120000,
		"interestRate":    6.5,
		"termMonths":      36,
		"startDate":       "2025-03-31",
		"obligations": []map[string]any{
			{"type": "reporting", "title": "Q1 financials", "dueDate": "2025-04-30"},
		},
		"tags": []string{"sme"},
	}
}

func createLoan(t *testing.T, e *echo.Echo, owner string) loan.Loan {
	t.Helper()
	rec := call(t, e, owner, stdhttp.MethodPost, "/api/v1/loans", loanBody())
	if rec.Code != stdhttp.StatusCreated {
		t.Fatalf("create status = %d body=%s", rec.Code, rec.Body.String())
	}
	return decode[loan.Loan](t, rec)
}

// -------- tests --------

func TestCreateLoan_Success(t *testing.T) {
	e := newAPI(t)
	got := createLoan(t, e, "owner-1")

	if got.ID == "" || got.OwnerID != "owner-1" {
		t.Fatalf("unexpected loan: %+v", got)
	}
	if len(got.PaymentSchedule) != 36 || got.PaymentSchedule[0].ID != "pmt-001" {
		t.Fatalf("schedule not generated: %d payments", len(got.PaymentSchedule))
	}
	if got.Status != loan.StatusOnTrack {
		t.Fatalf("status = %s", got.Status)
	}
	if len(got.Obligations) != 1 || got.Obligations[0].ID == "" {
		t.Fatalf("obligations = %+v", got.Obligations)
	}
}

func TestCreateLoan_InterestFree(t *testing.T) {
	e := newAPI(t)
	body := loanBody()
	body["principalAmount"] = 1200
	body["interestRate"] = 0
	body["termMonths"] = 12

	rec := call(t, e, "owner-1", stdhttp.MethodPost, "/api/v1/loans", body)
	if rec.Code != stdhttp.StatusCreated {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	got := decode[loan.Loan](t, rec)
	if got.InterestRate != 0 || len(got.PaymentSchedule) != 12 {
		t.Fatalf("loan = %+v", got)
	}
	for _, p := range got.PaymentSchedule {
		if p.Amount != 100 || p.PrincipalAmount != 100 || p.InterestAmount != 0 {
			t.Fatalf("payment %s = %+v, want 100 principal and no interest", p.ID, p)
		}
	}

	body["interestRate"] = -1
	rec = call(t, e, "owner-1", stdhttp.MethodPost, "/api/v1/loans", body)
	if rec.Code != stdhttp.StatusUnprocessableEntity {
		t.Fatalf("negative rate => want 422, got %d", rec.Code)
	}
}

func TestCreateLoan_Errors(t *testing.T) {
	e := newAPI(t)

	rec := call(t, e, "", stdhttp.MethodPost, "/api/v1/loans", loanBody())
	if rec.Code != stdhttp.StatusUnauthorized {
		t.Fatalf("no owner => want 401, got %d", rec.Code)
	}

	rec = call(t, e, "owner-1", stdhttp.MethodPost, "/api/v1/loans", "{not json")
	if rec.Code != stdhttp.StatusBadRequest {
		t.Fatalf("bad body => want 400, got %d", rec.Code)
	}

	body := loanBody()
	body["principalAmount"] = 0
	body["startDate"] = "31/03/2025"
	rec = call(t, e, "owner-1", stdhttp.MethodPost, "/api/v1/loans", body)
	if rec.Code != stdhttp.StatusUnprocessableEntity {
		t.Fatalf("invalid => want 422, got %d", rec.Code)
	}
	resp := decode[ErrorResponse](t, rec)
	if !containsFieldMsg(resp.Details, "principalAmount", "greater than 0") ||
		!containsFieldMsg(resp.Details, "startDate", "2006-01-02") {
		t.Fatalf("details = %+v", resp.Details)
	}
}

func TestGetListDelete_OwnerScoped(t *testing.T) {
	e := newAPI(t)
	l := createLoan(t, e, "owner-1")

	rec := call(t, e, "owner-1", stdhttp.MethodGet, "/api/v1/loans/"+l.ID, nil)
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("get => %d", rec.Code)
	}
	rec = call(t, e, "owner-2", stdhttp.MethodGet, "/api/v1/loans/"+l.ID, nil)
	if rec.Code != stdhttp.StatusNotFound {
		t.Fatalf("foreign owner get => want 404, got %d", rec.Code)
	}

	rec = call(t, e, "owner-1", stdhttp.MethodGet, "/api/v1/loans?status=on_track&min_risk=0&q=acme", nil)
	list := decode[struct {
		Loans []loan.Loan `json:"loans"`
		Count int         `json:"count"`
	}](t, rec)
	if list.Count != 1 || list.Loans[0].ID != l.ID {
		t.Fatalf("list = %+v", list)
	}
	rec = call(t, e, "owner-1", stdhttp.MethodGet, "/api/v1/loans?tag=retail", nil)
	if decode[struct {
		Count int `json:"count"`
	}](t, rec).Count != 0 {
		t.Fatalf("tag filter ignored: %s", rec.Body.String())
	}
	rec = call(t, e, "owner-1", stdhttp.MethodGet, "/api/v1/loans?min_risk=high", nil)
	if rec.Code != stdhttp.StatusBadRequest {
		t.Fatalf("bad query => want 400, got %d", rec.Code)
	}

	rec = call(t, e, "owner-1", stdhttp.MethodDelete, "/api/v1/loans/"+l.ID, nil)
	if rec.Code != stdhttp.StatusNoContent {
		t.Fatalf("delete => %d", rec.Code)
	}
	rec = call(t, e, "owner-1", stdhttp.MethodGet, "/api/v1/loans/"+l.ID, nil)
	if rec.Code != stdhttp.StatusNotFound {
		t.Fatalf("after delete => want 404, got %d", rec.Code)
	}
}

func TestUpdatePayment(t *testing.T) {
	e := newAPI(t)
	l := createLoan(t, e, "owner-1")
	base := "/api/v1/loans/" + l.ID + "/payments/"

	rec := call(t, e, "owner-1", stdhttp.MethodPatch, base+"pmt-001", map[string]any{"status": "paid", "paidDate": "2025-04-28"})
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("patch => %d %s", rec.Code, rec.Body.String())
	}
	got := decode[loan.Loan](t, rec)
	p := got.PaymentSchedule[0]
	if p.Status != loan.PaymentPaid || p.PaidDate == nil || p.PaidDate.Format(dateLayout) != "2025-04-28" {
		t.Fatalf("payment = %+v", p)
	}

	rec = call(t, e, "owner-1", stdhttp.MethodPatch, base+"pmt-999", map[string]any{"status": "paid"})
	if rec.Code != stdhttp.StatusNotFound {
		t.Fatalf("unknown payment => want 404, got %d", rec.Code)
	}
	rec = call(t, e, "owner-1", stdhttp.MethodPatch, base+"pmt-001", map[string]any{"status": "settled"})
	if rec.Code != stdhttp.StatusUnprocessableEntity {
		t.Fatalf("bad status => want 422, got %d", rec.Code)
	}
}

func TestScheduleObligationNoteCommunication(t *testing.T) {
	e := newAPI(t)
	l := createLoan(t, e, "owner-1")
	base := "/api/v1/loans/" + l.ID

	rec := call(t, e, "owner-1", stdhttp.MethodPut, base+"/schedule", map[string]any{
		"paymentSchedule": []map[string]any{
			{"id": "pmt-002", "dueDate": "2025-05-31", "amount": 500, "status": "pending"},
			{"id": "pmt-001", "dueDate": "2025-04-30", "amount": 500, "status": "pending"},
		},
	})
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("schedule => %d %s", rec.Code, rec.Body.String())
	}
	if s := decode[loan.Loan](t, rec).PaymentSchedule; len(s) != 2 || s[0].ID != "pmt-001" {
		t.Fatalf("schedule not replaced in due order: %+v", s)
	}

	rec = call(t, e, "owner-1", stdhttp.MethodPut, base+"/obligations", map[string]any{
		"id": l.Obligations[0].ID, "type": "reporting", "title": "Q1 financials",
		"dueDate": "2025-04-30", "completed": true, "completedDate": "2025-04-20",
	})
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("obligation => %d %s", rec.Code, rec.Body.String())
	}
	if o := decode[loan.Loan](t, rec).Obligations; len(o) != 1 || !o[0].Completed {
		t.Fatalf("obligation not replaced: %+v", o)
	}
	rec = call(t, e, "owner-1", stdhttp.MethodPut, base+"/obligations", map[string]any{
		"id": "missing", "type": "covenant", "title": "DSCR", "dueDate": "2025-06-30",
	})
	if rec.Code != stdhttp.StatusNotFound {
		t.Fatalf("unknown obligation => want 404, got %d", rec.Code)
	}

	rec = call(t, e, "owner-1", stdhttp.MethodPost, base+"/notes", map[string]any{"author": "Dana", "content": "site visit"})
	if rec.Code != stdhttp.StatusCreated || decode[loan.Note](t, rec).ID == "" {
		t.Fatalf("note => %d %s", rec.Code, rec.Body.String())
	}
	rec = call(t, e, "owner-1", stdhttp.MethodPost, base+"/notes", map[string]any{"content": ""})
	if rec.Code != stdhttp.StatusUnprocessableEntity {
		t.Fatalf("empty note => want 422, got %d", rec.Code)
	}

	rec = call(t, e, "owner-1", stdhttp.MethodPost, base+"/communications",
		map[string]any{"channel": "email", "direction": "outbound", "subject": "Reminder", "content": "Payment due"})
	if rec.Code != stdhttp.StatusCreated {
		t.Fatalf("communication => %d %s", rec.Code, rec.Body.String())
	}
	rec = call(t, e, "owner-1", stdhttp.MethodPost, base+"/communications",
		map[string]any{"channel": "pigeon", "content": "coo"})
	if rec.Code != stdhttp.StatusUnprocessableEntity {
		t.Fatalf("bad channel => want 422, got %d", rec.Code)
	}
}

func TestStatsAndExport(t *testing.T) {
	e := newAPI(t)
	createLoan(t, e, "owner-1")
	createLoan(t, e, "owner-1")

	rec := call(t, e, "owner-1", stdhttp.MethodGet, "/api/v1/stats", nil)
	st := decode[struct {
		TotalLoans     int     `json:"totalLoans"`
		TotalPrincipal float64 `json:"totalPrincipal"`
	}](t, rec)
	if st.TotalLoans != 2 || st.TotalPrincipal != 240000 {
		t.Fatalf("stats = %+v", st)
	}

	rec = call(t, e, "owner-1", stdhttp.MethodGet, "/api/v1/export", nil)
	if cd := rec.Header().Get(echo.HeaderContentDisposition); !strings.Contains(cd, "loans-export-2025-03-10.json") {
		t.Fatalf("content disposition = %q", cd)
	}
	doc := decode[struct {
		Version   string `json:"version"`
		LoanCount int    `json:"loanCount"`
	}](t, rec)
	if doc.Version != "1.0" || doc.LoanCount != 2 {
		t.Fatalf("export = %+v", doc)
	}
}

func TestImport(t *testing.T) {
	e := newAPI(t)
	csv := "Borrower,Amount,Rate,Term,Start Date\nAlpha,5000,4,6,2025-01-10\nBeta,7000,4,12,2025-01-15\n"

	rec := call(t, e, "owner-1", stdhttp.MethodPost, "/api/v1/imports?mode=append&format=csv", csv)
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("import => %d %s", rec.Code, rec.Body.String())
	}
	rep := decode[struct {
		Mode    string `json:"mode"`
		Created int    `json:"created"`
	}](t, rec)
	if rep.Mode != "append" || rep.Created != 2 {
		t.Fatalf("report = %+v", rep)
	}

	rec = call(t, e, "owner-1", stdhttp.MethodPost, "/api/v1/imports?mode=reconcile", "Borrower,Amount,Rate,Term,Start Date\nalpha,9000,4,6,2025-01-10\n")
	if got := decode[struct {
		Updated int `json:"updated"`
	}](t, rec); got.Updated != 1 {
		t.Fatalf("reconcile = %s", rec.Body.String())
	}

	rec = call(t, e, "owner-1", stdhttp.MethodPost, "/api/v1/imports", "Borrower,Amount\nAlpha,5000\n")
	if rec.Code != stdhttp.StatusBadRequest {
		t.Fatalf("missing columns => want 400, got %d", rec.Code)
	}
	if resp := decode[ErrorResponse](t, rec); !containsFieldMsg(resp.Details, "term", "no matching column") {
		t.Fatalf("details = %+v", resp.Details)
	}

	rec = call(t, e, "owner-1", stdhttp.MethodPost, "/api/v1/imports?mode=replace", csv)
	if rec.Code != stdhttp.StatusUnprocessableEntity {
		t.Fatalf("bad mode => want 422, got %d", rec.Code)
	}
	rec = call(t, e, "owner-1", stdhttp.MethodPost, "/api/v1/imports?format=pdf", csv)
	if rec.Code != stdhttp.StatusUnprocessableEntity {
		t.Fatalf("bad format => want 422, got %d", rec.Code)
	}
}

func TestAlerts(t *testing.T) {
	e := newAPI(t)
	body := loanBody()
	body["obligations"] = []map[string]any{
		{"type": "financial", "title": "Insurance renewal", "dueDate": "2025-03-12"},
	}
	if rec := call(t, e, "owner-1", stdhttp.MethodPost, "/api/v1/loans", body); rec.Code != stdhttp.StatusCreated {
		t.Fatalf("create => %d", rec.Code)
	}

	rec := call(t, e, "owner-1", stdhttp.MethodPost, "/api/v1/alerts/generate", nil)
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("generate => %d %s", rec.Code, rec.Body.String())
	}
	type alertList struct {
		Alerts []struct {
			ID   string `json:"id"`
			Read bool   `json:"read"`
		} `json:"alerts"`
		Count int `json:"count"`
	}
	gen := decode[alertList](t, rec)
	if gen.Count == 0 {
		t.Fatal("expected an alert for the obligation due in two days")
	}

	id := gen.Alerts[0].ID
	rec = call(t, e, "owner-1", stdhttp.MethodPost, "/api/v1/alerts/"+id+"/read", nil)
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("read => %d %s", rec.Code, rec.Body.String())
	}
	rec = call(t, e, "owner-1", stdhttp.MethodGet, "/api/v1/alerts?unread=true", nil)
	if got := decode[alertList](t, rec); got.Count != gen.Count-1 {
		t.Fatalf("unread = %d, want %d", got.Count, gen.Count-1)
	}
	rec = call(t, e, "owner-1", stdhttp.MethodPost, "/api/v1/alerts/nope/read", nil)
	if rec.Code != stdhttp.StatusNotFound {
		t.Fatalf("unknown alert => want 404, got %d", rec.Code)
	}
	rec = call(t, e, "owner-1", stdhttp.MethodGet, "/api/v1/alerts?unread=maybe", nil)
	if rec.Code != stdhttp.StatusBadRequest {
		t.Fatalf("bad unread => want 400, got %d", rec.Code)
	}
}
