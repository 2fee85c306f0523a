package alert

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("alert not found")

type Type string

const (
	TypePaymentDue     Type = "payment_due"
	TypePaymentOverdue Type = "payment_overdue"
	TypeObligationDue  Type = "obligation_due"
	TypeRiskWarning    Type = "risk_warning"
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

func (s Severity) rank() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 1
	}
	return 0
}

// Alert is derived from the ledger on every scan. Only Read survives regeneration.
type Alert struct {
	ID           string     `json:"id"`
	LoanID       string     `json:"loanId"`
	BorrowerName string     `json:"borrowerName"`
	SourceID     string     `json:"sourceId"`
	Type         Type       `json:"type"`
	Severity     Severity   `json:"severity"`
	Message      string     `json:"message"`
	DueDate      *time.Time `json:"dueDate,omitempty"`
	DaysUntil    int        `json:"daysUntil"`
	Read         bool       `json:"read"`
	CreatedAt    time.Time  `json:"createdAt"`
}
