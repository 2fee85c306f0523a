package alert

import (
	"fmt"
	"sort"
	"time"

	"loanledger/internal/domain/loan"
)

const (
	paymentWindowDays    = 7
	paymentUrgentDays    = 3
	obligationWindowDays = 14
	obligationUrgentDays = 7
	riskWarningScore     = 70
	riskCriticalScore    = 85

	riskSourceID = "risk"
)

// ID derives the alert identifier from its loan, source item and kind, so the
// same fact always produces the same alert.
func ID(loanID, sourceID string, t Type) string {
	return loanID + ":" + sourceID + ":" + string(t)
}

// Generate scans loans and returns the alerts that hold at now. The caller
// scopes loans to what the owner may see. Read flags are all false; see Merge.
func Generate(loans []loan.Loan, now time.Time) []Alert {
	var out []Alert
	for _, l := range loans {
		for _, p := range l.PaymentSchedule {
			if p.Status != loan.PaymentPending {
				continue
			}
			if a, ok := paymentAlert(l, p, now); ok {
				out = append(out, a)
			}
		}
		for _, o := range l.Obligations {
			if o.Completed {
				continue
			}
			if a, ok := obligationAlert(l, o, now); ok {
				out = append(out, a)
			}
		}
		if l.RiskScore > riskWarningScore {
			sev := SeverityHigh
			if l.RiskScore > riskCriticalScore {
				sev = SeverityCritical
			}
			out = append(out, Alert{
				ID:           ID(l.ID, riskSourceID, TypeRiskWarning),
				LoanID:       l.ID,
				BorrowerName: l.BorrowerName,
				SourceID:     riskSourceID,
				Type:         TypeRiskWarning,
				Severity:     sev,
				Message:      fmt.Sprintf("%s has a risk score of %d (%s)", l.BorrowerName, l.RiskScore, l.Status),
				CreatedAt:    now,
			})
		}
	}
	sortAlerts(out)
	return out
}

func paymentAlert(l loan.Loan, p loan.Payment, now time.Time) (Alert, bool) {
	days := loan.DaysUntil(now, p.DueDate)
	a := Alert{
		LoanID:       l.ID,
		BorrowerName: l.BorrowerName,
		SourceID:     p.ID,
		DueDate:      timePtr(p.DueDate),
		DaysUntil:    days,
		CreatedAt:    now,
	}
	switch {
	case days < 0:
		a.Type, a.Severity = TypePaymentOverdue, SeverityHigh
		a.Message = fmt.Sprintf("Payment of %.2f from %s is %d day(s) overdue", p.Amount, l.BorrowerName, -days)
	case days <= paymentWindowDays:
		a.Type, a.Severity = TypePaymentDue, SeverityLow
		if days <= paymentUrgentDays {
			a.Severity = SeverityMedium
		}
		a.Message = fmt.Sprintf("Payment of %.2f from %s is due in %d day(s)", p.Amount, l.BorrowerName, days)
	default:
		return Alert{}, false
	}
	a.ID = ID(l.ID, p.ID, a.Type)
	return a, true
}

func obligationAlert(l loan.Loan, o loan.Obligation, now time.Time) (Alert, bool) {
	days := loan.DaysUntil(now, o.DueDate)
	a := Alert{
		LoanID:       l.ID,
		BorrowerName: l.BorrowerName,
		SourceID:     o.ID,
		Type:         TypeObligationDue,
		DueDate:      timePtr(o.DueDate),
		DaysUntil:    days,
		CreatedAt:    now,
	}
	switch {
	case days < 0:
		a.Severity = SeverityHigh
		a.Message = fmt.Sprintf("%s obligation %q for %s is %d day(s) overdue", o.Type, o.Title, l.BorrowerName, -days)
	case days <= obligationWindowDays:
		a.Severity = SeverityLow
		if days <= obligationUrgentDays {
			a.Severity = SeverityMedium
		}
		a.Message = fmt.Sprintf("%s obligation %q for %s is due in %d day(s)", o.Type, o.Title, l.BorrowerName, days)
	default:
		return Alert{}, false
	}
	a.ID = ID(l.ID, o.ID, a.Type)
	return a, true
}

// Merge carries the read flag of prev alerts over to next alerts with the same ID.
// Nothing else is taken from prev.
func Merge(next, prev []Alert) []Alert {
	read := make(map[string]bool, len(prev))
	for _, a := range prev {
		if a.Read {
			read[a.ID] = true
		}
	}
	out := make([]Alert, len(next))
	for i, a := range next {
		a.Read = read[a.ID]
		out[i] = a
	}
	return out
}

// IsBoundary reports whether a is on the exact day a one-time notification
// should go out: 7 days before a payment, 14 days before an obligation.
func IsBoundary(a Alert) bool {
	switch a.Type {
	case TypePaymentDue:
		return a.DaysUntil == paymentWindowDays
	case TypeObligationDue:
		return a.DaysUntil == obligationWindowDays
	}
	return false
}

func sortAlerts(as []Alert) {
	sort.SliceStable(as, func(i, j int) bool {
		if ri, rj := as[i].Severity.rank(), as[j].Severity.rank(); ri != rj {
			return ri > rj
		}
		return as[i].ID < as[j].ID
	})
}

func timePtr(t time.Time) *time.Time { return &t }
