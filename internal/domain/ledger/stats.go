package ledger

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"loanledger/internal/domain/loan"
)

// Filter narrows a loan set. Zero values do not filter.
type Filter struct {
	Status      loan.Status
	Tag         string
	LoanOfficer string
	Search      string // borrower name or email, case-insensitive
	MinRisk     *int
	MaxRisk     *int
}

func (f Filter) Match(l loan.Loan) bool {
	if f.Status != "" && l.Status != f.Status {
		return false
	}
	if f.Tag != "" && !l.HasTag(f.Tag) {
		return false
	}
	if f.LoanOfficer != "" && !strings.EqualFold(l.LoanOfficer, f.LoanOfficer) {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(l.BorrowerName), q) && !strings.Contains(strings.ToLower(l.BorrowerEmail), q) {
			return false
		}
	}
	if f.MinRisk != nil && l.RiskScore < *f.MinRisk {
		return false
	}
	if f.MaxRisk != nil && l.RiskScore > *f.MaxRisk {
		return false
	}
	return true
}

func (l *Ledger) Filter(f Filter) []loan.Loan {
	var out []loan.Loan
	for _, ln := range l.loans {
		if f.Match(ln) {
			out = append(out, ln.Clone())
		}
	}
	return out
}

// PortfolioStats is a view over a loan set, computed on demand.
type PortfolioStats struct {
	TotalLoans           int                 `json:"totalLoans"`
	ByStatus             map[loan.Status]int `json:"byStatus"`
	TotalPrincipal       float64             `json:"totalPrincipal"`
	OutstandingPrincipal float64             `json:"outstandingPrincipal"`
	AverageRiskScore     float64             `json:"averageRiskScore"`
	WeightedAverageRate  float64             `json:"weightedAverageRate"`
	WeightedAverageRisk  float64             `json:"weightedAverageRisk"`
	AverageTermMonths    float64             `json:"averageTermMonths"`
	OverduePayments      int                 `json:"overduePayments"`
	PaymentsDueThisWeek  int                 `json:"paymentsDueThisWeek"`
	HighRiskLoans        int                 `json:"highRiskLoans"`
}

// Stats aggregates loans. Rate and risk averages are weighted by principal.
func Stats(loans []loan.Loan, now time.Time) PortfolioStats {
	s := PortfolioStats{TotalLoans: len(loans), ByStatus: map[loan.Status]int{}}
	if len(loans) == 0 {
		return s
	}
	var principal, outstanding, rateW, riskW, risk, term decimal.Decimal
	for _, l := range loans {
		s.ByStatus[l.Status]++
		p := decimal.NewFromFloat(l.PrincipalAmount)
		principal = principal.Add(p)
		rateW = rateW.Add(p.Mul(decimal.NewFromFloat(l.InterestRate)))
		riskW = riskW.Add(p.Mul(decimal.NewFromInt(int64(l.RiskScore))))
		risk = risk.Add(decimal.NewFromInt(int64(l.RiskScore)))
		term = term.Add(decimal.NewFromInt(int64(l.TermMonths)))
		if l.RiskScore > 70 {
			s.HighRiskLoans++
		}
		for _, pm := range l.PaymentSchedule {
			if pm.Status != loan.PaymentPaid {
				outstanding = outstanding.Add(decimal.NewFromFloat(pm.PrincipalAmount))
			}
			switch {
			case pm.Status == loan.PaymentOverdue:
				s.OverduePayments++
			case pm.Status == loan.PaymentPending:
				if d := loan.DaysUntil(now, pm.DueDate); d >= 0 && d <= 7 {
					s.PaymentsDueThisWeek++
				}
			}
		}
	}
	n := decimal.NewFromInt(int64(len(loans)))
	s.TotalPrincipal = principal.Round(2).InexactFloat64()
	s.OutstandingPrincipal = outstanding.Round(2).InexactFloat64()
	s.AverageRiskScore = risk.Div(n).Round(2).InexactFloat64()
	s.AverageTermMonths = term.Div(n).Round(2).InexactFloat64()
	if principal.IsPositive() {
		s.WeightedAverageRate = rateW.Div(principal).Round(4).InexactFloat64()
		s.WeightedAverageRisk = riskW.Div(principal).Round(2).InexactFloat64()
	}
	return s
}
