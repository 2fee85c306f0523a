package loan

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Terms are the inputs of the amortization schedule.
type Terms struct {
	Principal    float64
	InterestRate float64 // annual, percent
	TermMonths   int
	StartDate    time.Time
}

// MonthlyPayment returns the fixed annuity installment for the terms.
func MonthlyPayment(t Terms) float64 {
	if t.TermMonths <= 0 {
		return 0
	}
	n := float64(t.TermMonths)
	if t.InterestRate == 0 {
		return t.Principal / n
	}
	i := t.InterestRate / 100 / 12
	f := math.Pow(1+i, n)
	return t.Principal * i * f / (f - 1)
}

// MaxTermMonths bounds a loan term at fifty years.
const MaxTermMonths = 600

// GenerateSchedule builds the amortization schedule: one pending payment per
// month, due k months after the start date. Amounts are rounded to cents and
// the last payment absorbs the rounding, so principal sums to the loan
// amount. The result only depends on the terms, so identical terms always
// give identical schedules. Terms longer than MaxTermMonths give an empty
// schedule.
func GenerateSchedule(t Terms) []Payment {
	if t.TermMonths <= 0 || t.TermMonths > MaxTermMonths {
		return []Payment{}
	}
	i := decimal.NewFromFloat(t.InterestRate).Div(decimal.NewFromInt(1200))
	a := decimal.NewFromFloat(MonthlyPayment(t)).Round(2)
	start := Day(t.StartDate)
	remaining := decimal.NewFromFloat(t.Principal)

	out := make([]Payment, 0, t.TermMonths)
	for k := 1; k <= t.TermMonths; k++ {
		interest := remaining.Mul(i).Round(2)
		principal := a.Sub(interest)
		if k == t.TermMonths {
			// the last payment settles whatever the cent rounding left over
			principal = remaining
		}
		remaining = remaining.Sub(principal)
		out = append(out, Payment{
			ID:              PaymentID(k),
			DueDate:         AddMonths(start, k),
			Amount:          principal.Add(interest).InexactFloat64(),
			PrincipalAmount: principal.InexactFloat64(),
			InterestAmount:  interest.InexactFloat64(),
			Status:          PaymentPending,
		})
	}
	return out
}

// PaymentID is the identifier of the k-th (1-based) generated payment.
func PaymentID(k int) string { return fmt.Sprintf("pmt-%03d", k) }

// MaturityDate is start + term months.
func MaturityDate(start time.Time, termMonths int) time.Time {
	return AddMonths(Day(start), termMonths)
}
