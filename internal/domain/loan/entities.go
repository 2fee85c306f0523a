package loan

import (
	"strings"
	"time"
)

type Status string

const (
	StatusOnTrack   Status = "on_track"
	StatusAtRisk    Status = "at_risk"
	StatusOverdue   Status = "overdue"
	StatusDefaulted Status = "defaulted"
	StatusPaidOff   Status = "paid_off"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentOverdue PaymentStatus = "overdue"
	PaymentPartial PaymentStatus = "partial"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentOverdue, PaymentPartial:
		return true
	}
	return false
}

type ObligationType string

const (
	ObligationFinancial   ObligationType = "financial"
	ObligationReporting   ObligationType = "reporting"
	ObligationOperational ObligationType = "operational"
	ObligationCovenant    ObligationType = "covenant"
)

func (t ObligationType) Valid() bool {
	switch t {
	case ObligationFinancial, ObligationReporting, ObligationOperational, ObligationCovenant:
		return true
	}
	return false
}

type Payment struct {
	ID              string        `json:"id"`
	DueDate         time.Time     `json:"dueDate"`
	Amount          float64       `json:"amount"`
	PrincipalAmount float64       `json:"principalAmount"`
	InterestAmount  float64       `json:"interestAmount"`
	Status          PaymentStatus `json:"status"`
	PaidDate        *time.Time    `json:"paidDate,omitempty"`
	Notes           string        `json:"notes,omitempty"`
}

type Obligation struct {
	ID            string         `json:"id"`
	Type          ObligationType `json:"type"`
	Title         string         `json:"title"`
	Description   string         `json:"description,omitempty"`
	DueDate       time.Time      `json:"dueDate"`
	Completed     bool           `json:"completed"`
	CompletedDate *time.Time     `json:"completedDate,omitempty"`
	Notes         string         `json:"notes,omitempty"`
}

type Note struct {
	ID        string    `json:"id"`
	Author    string    `json:"author,omitempty"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

type Communication struct {
	ID        string    `json:"id"`
	Channel   string    `json:"channel"` // email, phone, meeting, letter
	Direction string    `json:"direction,omitempty"`
	Subject   string    `json:"subject,omitempty"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Loan is one record of the ledger. Status and RiskScore are outputs of
// Enrich and are never taken from callers.
type Loan struct {
	ID              string          `json:"id"`
	BorrowerName    string          `json:"borrowerName"`
	BorrowerEmail   string          `json:"borrowerEmail,omitempty"`
	BorrowerPhone   string          `json:"borrowerPhone,omitempty"`
	LoanOfficer     string          `json:"loanOfficer,omitempty"`
	PrincipalAmount float64         `json:"principalAmount"`
	InterestRate    float64         `json:"interestRate"`
	TermMonths      int             `json:"termMonths"`
	StartDate       time.Time       `json:"startDate"`
	EndDate         time.Time       `json:"endDate"`
	Status          Status          `json:"status"`
	RiskScore       int             `json:"riskScore"`
	PaymentSchedule []Payment       `json:"paymentSchedule"`
	Obligations     []Obligation    `json:"obligations"`
	Notes           []Note          `json:"notes"`
	Communications  []Communication `json:"communications"`
	Tags            []string        `json:"tags"`
	OwnerID         string          `json:"ownerId"`
	BorrowerKey     string          `json:"borrowerKey,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// Clone returns a deep copy so a ledger can replace records without
// sharing slices with readers.
func (l Loan) Clone() Loan {
	out := l
	out.PaymentSchedule = append([]Payment(nil), l.PaymentSchedule...)
	for i := range out.PaymentSchedule {
		if p := out.PaymentSchedule[i].PaidDate; p != nil {
			t := *p
			out.PaymentSchedule[i].PaidDate = &t
		}
	}
	out.Obligations = append([]Obligation(nil), l.Obligations...)
	for i := range out.Obligations {
		if c := out.Obligations[i].CompletedDate; c != nil {
			t := *c
			out.Obligations[i].CompletedDate = &t
		}
	}
	out.Notes = append([]Note(nil), l.Notes...)
	out.Communications = append([]Communication(nil), l.Communications...)
	out.Tags = append([]string(nil), l.Tags...)
	return out
}

// HasTag reports whether t is among the loan tags, case-insensitively.
func (l Loan) HasTag(t string) bool {
	for _, x := range l.Tags {
		if strings.EqualFold(x, t) {
			return true
		}
	}
	return false
}

// NormalizeName lower-cases and collapses whitespace in a borrower name.
func NormalizeName(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func NormalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// IdentityKey is the borrower key used for cross-portfolio lookup: the
// normalized email when present, otherwise the normalized name.
func IdentityKey(name, email string) string {
	if e := NormalizeEmail(email); e != "" {
		return e
	}
	return NormalizeName(name)
}
