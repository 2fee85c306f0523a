package ledger

import (
	"time"

	"loanledger/internal/domain/loan"
)

const ExportVersion = "1.0"

// Export is the JSON document written by export and read back by the JSON import source.
type Export struct {
	Version    string      `json:"version"`
	ExportDate time.Time   `json:"exportDate"`
	LoanCount  int         `json:"loanCount"`
	Loans      []loan.Loan `json:"loans"`
}

func NewExport(loans []loan.Loan, now time.Time) Export {
	if loans == nil {
		loans = []loan.Loan{}
	}
	return Export{Version: ExportVersion, ExportDate: now, LoanCount: len(loans), Loans: loans}
}
