package loan

import (
	"time"

	"loanledger/internal/domain/loan"
)

type CreateLoanInput struct {
	BorrowerName    string
	BorrowerEmail   string
	BorrowerPhone   string
	LoanOfficer     string
	PrincipalAmount float64
	InterestRate    float64
	TermMonths      int
	StartDate       time.Time
	EndDate         *time.Time // derived from the term when nil
	Obligations     []ObligationInput
	Tags            []string
}

// ObligationInput creates an obligation when ID is empty and replaces the
// obligation with that ID otherwise.
type ObligationInput struct {
	ID            string
	Type          loan.ObligationType
	Title         string
	Description   string
	DueDate       time.Time
	Completed     bool
	CompletedDate *time.Time
	Notes         string
}

// PaymentUpdate changes the status of one scheduled payment. A paid payment
// without PaidDate is stamped with the current day.
type PaymentUpdate struct {
	Status   loan.PaymentStatus
	PaidDate *time.Time
	Notes    *string
}

type NoteInput struct {
	Author  string
	Content string
}

type CommunicationInput struct {
	Channel   string
	Direction string
	Subject   string
	Content   string
}
