package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"loanledger/internal/adapter/middleware"
	"loanledger/internal/domain/ledger"
	"loanledger/internal/domain/loan"
	loanuc "loanledger/internal/usecase/loan"
)

const dateLayout = "2006-01-02"

type LoanHandler struct{ uc *loanuc.Usecase }

func NewLoanHandler(uc *loanuc.Usecase) *LoanHandler { return &LoanHandler{uc: uc} }

type obligationReq struct {
	ID            string `json:"id"`
	Type          string `json:"type"          validate:"required,obligation_type"`
	Title         string `json:"title"         validate:"required"`
	Description   string `json:"description"`
	DueDate       string `json:"dueDate"       validate:"required,datetime=2006-01-02"`
	Completed     bool   `json:"completed"`
	CompletedDate string `json:"completedDate" validate:"omitempty,datetime=2006-01-02"`
	Notes         string `json:"notes"`
}

func (r obligationReq) input() loanuc.ObligationInput {
	return loanuc.ObligationInput{
		ID:            r.ID,
		Type:          loan.ObligationType(r.Type),
		Title:         r.Title,
		Description:   r.Description,
		DueDate:       mustDate(r.DueDate),
		Completed:     r.Completed,
		CompletedDate: optDate(r.CompletedDate),
		Notes:         r.Notes,
	}
}

type createLoanReq struct {
	BorrowerName    string          `json:"borrowerName"    validate:"required"`
	BorrowerEmail   string          `json:"borrowerEmail"   validate:"omitempty,email"`
	BorrowerPhone   string          `json:"borrowerPhone"`
	LoanOfficer     string          `json:"loanOfficer"`
	PrincipalAmount float64         `json:"principalAmount" validate:"gt=0,dec2"`
	InterestRate    float64         `json:"interestRate"    validate:"gte=0,lte=100"`
	TermMonths      int             `json:"termMonths"      validate:"gt=0,lte=600"`
	StartDate       string          `json:"startDate"       validate:"required,datetime=2006-01-02"`
	EndDate         string          `json:"endDate"         validate:"omitempty,datetime=2006-01-02"`
	Obligations     []obligationReq `json:"obligations"     validate:"dive"`
	Tags            []string        `json:"tags"`
}

type paymentReq struct {
	ID              string  `json:"id"              validate:"required"`
	DueDate         string  `json:"dueDate"         validate:"required,datetime=2006-01-02"`
	Amount          float64 `json:"amount"          validate:"gte=0,dec2"`
	PrincipalAmount float64 `json:"principalAmount" validate:"gte=0"`
	InterestAmount  float64 `json:"interestAmount"  validate:"gte=0"`
	Status          string  `json:"status"          validate:"required,payment_status"`
	PaidDate        string  `json:"paidDate"        validate:"omitempty,datetime=2006-01-02"`
	Notes           string  `json:"notes"`
}

type scheduleReq struct {
	PaymentSchedule []paymentReq `json:"paymentSchedule" validate:"required,dive"`
}

type paymentPatchReq struct {
	Status   string  `json:"status"   validate:"required,payment_status"`
	PaidDate string  `json:"paidDate" validate:"omitempty,datetime=2006-01-02"`
	Notes    *string `json:"notes"`
}

type noteReq struct {
	Author  string `json:"author"`
	Content string `json:"content" validate:"required"`
}

type communicationReq struct {
	Channel   string `json:"channel"   validate:"required,oneof=email phone sms meeting letter other"`
	Direction string `json:"direction" validate:"omitempty,oneof=inbound outbound"`
	Subject   string `json:"subject"`
	Content   string `json:"content"   validate:"required"`
}

func (h *LoanHandler) CreateLoan(c echo.Context) error {
	var req createLoanReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	in := loanuc.CreateLoanInput{
		BorrowerName:    req.BorrowerName,
		BorrowerEmail:   req.BorrowerEmail,
		BorrowerPhone:   req.BorrowerPhone,
		LoanOfficer:     req.LoanOfficer,
		PrincipalAmount: req.PrincipalAmount,
		InterestRate:    req.InterestRate,
		TermMonths:      req.TermMonths,
		StartDate:       mustDate(req.StartDate),
		EndDate:         optDate(req.EndDate),
		Tags:            req.Tags,
	}
	for _, o := range req.Obligations {
		in.Obligations = append(in.Obligations, o.input())
	}
	l, err := h.uc.CreateLoan(c.Request().Context(), middleware.SessionFrom(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, l)
}

func (h *LoanHandler) GetLoan(c echo.Context) error {
	l, err := h.uc.GetLoan(c.Request().Context(), middleware.SessionFrom(c), c.Param("loan_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, l)
}

func (h *LoanHandler) ListLoans(c echo.Context) error {
	f, ok, err := bindFilter(c)
	if !ok {
		return err
	}
	loans, err := h.uc.ListLoans(c.Request().Context(), middleware.SessionFrom(c), f)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"loans": loans, "count": len(loans)})
}

func (h *LoanHandler) DeleteLoan(c echo.Context) error {
	if err := h.uc.DeleteLoan(c.Request().Context(), middleware.SessionFrom(c), c.Param("loan_id")); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *LoanHandler) UpdateSchedule(c echo.Context) error {
	var req scheduleReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	schedule := make([]loan.Payment, 0, len(req.PaymentSchedule))
	for _, p := range req.PaymentSchedule {
		schedule = append(schedule, loan.Payment{
			ID:              p.ID,
			DueDate:         mustDate(p.DueDate),
			Amount:          p.Amount,
			PrincipalAmount: p.PrincipalAmount,
			InterestAmount:  p.InterestAmount,
			Status:          loan.PaymentStatus(p.Status),
			PaidDate:        optDate(p.PaidDate),
			Notes:           p.Notes,
		})
	}
	l, err := h.uc.UpdateSchedule(c.Request().Context(), middleware.SessionFrom(c), c.Param("loan_id"), schedule)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, l)
}

func (h *LoanHandler) UpdatePayment(c echo.Context) error {
	var req paymentPatchReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	l, err := h.uc.UpdatePaymentStatus(c.Request().Context(), middleware.SessionFrom(c),
		c.Param("loan_id"), c.Param("payment_id"), loanuc.PaymentUpdate{
			Status:   loan.PaymentStatus(req.Status),
			PaidDate: optDate(req.PaidDate),
			Notes:    req.Notes,
		})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, l)
}

// UpsertObligation adds an obligation when the body has no id and replaces the matching one otherwise.
func (h *LoanHandler) UpsertObligation(c echo.Context) error {
	var req obligationReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	l, err := h.uc.UpdateObligation(c.Request().Context(), middleware.SessionFrom(c), c.Param("loan_id"), req.input())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, l)
}

func (h *LoanHandler) AddNote(c echo.Context) error {
	var req noteReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	n, err := h.uc.AddNote(c.Request().Context(), middleware.SessionFrom(c), c.Param("loan_id"), loanuc.NoteInput(req))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, n)
}

func (h *LoanHandler) AddCommunication(c echo.Context) error {
	var req communicationReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	m, err := h.uc.AddCommunication(c.Request().Context(), middleware.SessionFrom(c), c.Param("loan_id"), loanuc.CommunicationInput(req))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *LoanHandler) Stats(c echo.Context) error {
	f, ok, err := bindFilter(c)
	if !ok {
		return err
	}
	st, err := h.uc.Stats(c.Request().Context(), middleware.SessionFrom(c), f)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *LoanHandler) Export(c echo.Context) error {
	doc, err := h.uc.Export(c.Request().Context(), middleware.SessionFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		`attachment; filename="loans-export-`+doc.ExportDate.Format(dateLayout)+`.json"`)
	return c.JSON(http.StatusOK, doc)
}

// bindFilter reads ?status=&tag=&loan_officer=&q=&min_risk=&max_risk=.
func bindFilter(c echo.Context) (ledger.Filter, bool, error) {
	var (
		f                ledger.Filter
		status           string
		minRisk, maxRisk int
	)
	err := echo.QueryParamsBinder(c).
		String("status", &status).
		String("tag", &f.Tag).
		String("loan_officer", &f.LoanOfficer).
		String("q", &f.Search).
		Int("min_risk", &minRisk).
		Int("max_risk", &maxRisk).
		BindError()
	if err != nil {
		return f, false, c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid query", Details: []FieldError{{Field: "_", Message: err.Error()}}})
	}
	f.Status = loan.Status(status)
	if c.QueryParam("min_risk") != "" {
		f.MinRisk = &minRisk
	}
	if c.QueryParam("max_risk") != "" {
		f.MaxRisk = &maxRisk
	}
	return f, true, nil
}

// mustDate parses a value the validator already accepted.
func mustDate(s string) time.Time {
	t, _ := time.Parse(dateLayout, s)
	return t
}

func optDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t := mustDate(s)
	return &t
}
