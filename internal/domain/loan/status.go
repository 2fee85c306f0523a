package loan

import (
	"math"
	"time"
)

const (
	defaultThreshold = 3 // overdue payments that make a loan defaulted
	dueSoonDays      = 7
	maturityWindow   = 90
)

// DeriveStatus classifies a loan from its payment and obligation facts.
// Rules are evaluated in priority order and the first match wins.
func DeriveStatus(schedule []Payment, obligations []Obligation, now time.Time) Status {
	overdue, paid := 0, 0
	dueSoon := false
	for _, p := range schedule {
		switch p.Status {
		case PaymentOverdue:
			overdue++
		case PaymentPaid:
			paid++
		case PaymentPending:
			if DaysUntil(now, p.DueDate) <= dueSoonDays {
				dueSoon = true
			}
		}
	}
	switch {
	case overdue >= defaultThreshold:
		return StatusDefaulted
	case len(schedule) > 0 && paid == len(schedule):
		return StatusPaidOff
	case overdue > 0:
		return StatusOverdue
	case dueSoon || pastDueObligations(obligations, now) > 0:
		return StatusAtRisk
	}
	return StatusOnTrack
}

func pastDueObligations(obligations []Obligation, now time.Time) int {
	n := 0
	for _, o := range obligations {
		if !o.Completed && Day(o.DueDate).Before(Day(now)) {
			n++
		}
	}
	return n
}

var statusAdjustment = map[Status]float64{
	StatusOnTrack:   0,
	StatusAtRisk:    15,
	StatusOverdue:   25,
	StatusDefaulted: 30,
	StatusPaidOff:   -20,
}

// ScoreRisk scores a loan whose Status is already derived. The result is in [0, 100].
func ScoreRisk(l Loan, now time.Time) int {
	score := 50.0

	if n := len(l.PaymentSchedule); n > 0 {
		overdue := 0
		for _, p := range l.PaymentSchedule {
			if p.Status == PaymentOverdue {
				overdue++
			}
		}
		score += 30 * float64(overdue) / float64(n)
	}

	if n := len(l.Obligations); n > 0 {
		score += 20 * float64(pastDueObligations(l.Obligations, now)) / float64(n)
	}

	if !l.EndDate.IsZero() {
		if days := DaysUntil(now, l.EndDate); days < maturityWindow {
			frac := float64(maturityWindow-days) / maturityWindow
			score += 20 * math.Min(1, math.Max(0, frac))
		}
	}

	score += statusAdjustment[l.Status]
	return int(math.Round(math.Min(100, math.Max(0, score))))
}

// Enrich recomputes the derived fields of l. Every mutation of a loan goes
// through Enrich before the record is stored.
func Enrich(l Loan, now time.Time) Loan {
	l.Status = DeriveStatus(l.PaymentSchedule, l.Obligations, now)
	l.RiskScore = ScoreRisk(l, now)
	l.BorrowerKey = IdentityKey(l.BorrowerName, l.BorrowerEmail)
	return l
}
